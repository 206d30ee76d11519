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

package intent

import (
	"fmt"
)

// Intent 用户意图（封闭集合）。声明顺序即多意图同时命中时的优先顺序。
type Intent string

const (
	GetPopulation Intent = "get_population"
	GetCapital    Intent = "get_capital"
	GetCurrency   Intent = "get_currency"
	GetLanguage   Intent = "get_language"
	GetFlag       Intent = "get_flag"
	GeneralInfo   Intent = "general_info"
	Comparison    Intent = "comparison"
	Unknown       Intent = "unknown"
)

// All 返回全部意图（声明顺序）
func All() []Intent {
	return []Intent{
		GetPopulation,
		GetCapital,
		GetCurrency,
		GetLanguage,
		GetFlag,
		GeneralInfo,
		Comparison,
		Unknown,
	}
}

// Parse 校验并解析意图字符串；非法值返回错误
func Parse(s string) (Intent, error) {
	for _, it := range All() {
		if string(it) == s {
			return it, nil
		}
	}
	return Unknown, fmt.Errorf("invalid intent: %q", s)
}

// RequiresData 该意图是否需要查询国家数据。Unknown 走问候路径，不查数据。
func (i Intent) RequiresData() bool {
	return i != Unknown
}

// String 实现 fmt.Stringer
func (i Intent) String() string {
	return string(i)
}
