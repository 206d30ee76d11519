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

package countries

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"country-agent/pkg/metrics"
)

// DefaultBaseURL REST Countries v3.1 端点
const DefaultBaseURL = "https://restcountries.com/v3.1"

// DefaultTimeout 单次查询超时
const DefaultTimeout = 10 * time.Second

// OutcomeStatus 单次国家查询的结果分类（封闭集合）
type OutcomeStatus string

const (
	StatusFound          OutcomeStatus = "found"           // 200 且列表非空
	StatusNotFound       OutcomeStatus = "not_found"       // 404，国家名无匹配
	StatusTransportError OutcomeStatus = "transport_error" // 网络错误或非 200/404 状态
)

// Outcome 单次查询结果。Status 决定哪些字段有效：
// Found 时 Record 非 nil；NotFound/TransportError 时 Record 为 nil，Message 描述原因。
type Outcome struct {
	Status  OutcomeStatus
	Record  *CountryRecord
	Message string
}

// CountryRecord 国家数据（REST Countries 响应裁剪后的字段）
type CountryRecord struct {
	Name       string            `json:"name"`
	Official   string            `json:"official"`
	Capital    []string          `json:"capital"`
	Population int64             `json:"population"`
	Currencies map[string]string `json:"currencies"` // code -> name
	Languages  map[string]string `json:"languages"`  // code -> name
	Region     string            `json:"region"`
	Subregion  string            `json:"subregion"`
	Flag       string            `json:"flag"`
}

// restCountry REST Countries v3.1 原始响应结构
type restCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Capital    []string `json:"capital"`
	Population int64    `json:"population"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	Languages map[string]string `json:"languages"`
	Region    string            `json:"region"`
	Subregion string            `json:"subregion"`
	Flag      string            `json:"flag"`
}

// Client REST Countries 客户端。不做重试：查询失败直接分类上抛，
// 由上层决定如何向用户呈现。
type Client struct {
	baseURL string
	client  *resty.Client
}

// NewClient 创建国家数据客户端；baseURL 为空时用公共端点
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Fetch 按国家名查询。返回的 Outcome 永远有效，错误全部折叠进分类；
// error 仅在 ctx 取消时返回。
func (c *Client) Fetch(ctx context.Context, name string) (Outcome, error) {
	start := time.Now()
	outcome, err := c.fetch(ctx, name)
	if err != nil {
		return outcome, err
	}

	metrics.LookupDuration.WithLabelValues(string(outcome.Status)).Observe(time.Since(start).Seconds())
	metrics.LookupTotal.WithLabelValues(string(outcome.Status)).Inc()
	return outcome, nil
}

func (c *Client) fetch(ctx context.Context, name string) (Outcome, error) {
	var result []restCountry

	response, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.baseURL + "/name/" + url.PathEscape(name))

	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{
			Status:  StatusTransportError,
			Message: fmt.Sprintf("network error occurred: %v", err),
		}, nil
	}

	switch {
	case response.StatusCode() == http.StatusOK:
		if len(result) == 0 {
			return Outcome{
				Status:  StatusNotFound,
				Message: fmt.Sprintf("no data found for country %q", name),
			}, nil
		}
		// 多个匹配时取第一个
		return Outcome{Status: StatusFound, Record: toRecord(&result[0])}, nil
	case response.StatusCode() == http.StatusNotFound:
		return Outcome{
			Status:  StatusNotFound,
			Message: fmt.Sprintf("country %q not found", name),
		}, nil
	default:
		return Outcome{
			Status:  StatusTransportError,
			Message: fmt.Sprintf("country API error (status %d)", response.StatusCode()),
		}, nil
	}
}

// toRecord 裁剪原始响应为内部结构
func toRecord(raw *restCountry) *CountryRecord {
	currencies := make(map[string]string, len(raw.Currencies))
	for code, cur := range raw.Currencies {
		currencies[code] = cur.Name
	}
	return &CountryRecord{
		Name:       raw.Name.Common,
		Official:   raw.Name.Official,
		Capital:    raw.Capital,
		Population: raw.Population,
		Currencies: currencies,
		Languages:  raw.Languages,
		Region:     raw.Region,
		Subregion:  raw.Subregion,
		Flag:       raw.Flag,
	}
}

// NormalizeName 规范化国家名作为缓存键：小写、去首尾空白、压缩中间空白
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}
