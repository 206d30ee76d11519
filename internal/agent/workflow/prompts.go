// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow

const greetingSystemPrompt = `You are a friendly Country Information Agent. The user sent a message that is not a specific country query (like a greeting or off-topic question).

Respond warmly and guide them on what you can help with:
- Country populations, capitals, currencies, languages, flags
- Comparisons between countries
- General country information

Keep your response concise, friendly, and helpful. Use emojis sparingly.`

const synthesizeSystemPrompt = `You are a helpful assistant. Answer the user's question using the provided country data.

- If the user asked for a comparison, compare the data points for the requested countries.
- If data for a country is marked as unavailable, say so instead of guessing.
- Be accurate and concise.
- Context:
%s`

// fallbackGreeting 问候路径 LLM 不可用时的固定回复
const fallbackGreeting = "Hello! I'm your Country Information Agent. Ask me about any country - population, capital, currency, and more!"

// degradedAnswer 降级链耗尽时的固定回复，不再发起任何模型调用
const degradedAnswer = "I'm having trouble reaching my language models right now. Please try again in a moment."

// noCountriesAnswer 意图明确但提取不到任何国家时的回复
const noCountriesAnswer = "I couldn't identify any countries to look up."

// apologeticAnswer 兜底回复：任何未分类的内部错误都折叠为这句话，不向调用方抛错
const apologeticAnswer = "Sorry, something went wrong while answering your question. Please try again."
