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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const germanyJSON = `[{
	"name": {"common": "Germany", "official": "Federal Republic of Germany"},
	"capital": ["Berlin"],
	"population": 83240525,
	"currencies": {"EUR": {"name": "Euro", "symbol": "€"}},
	"languages": {"deu": "German"},
	"region": "Europe",
	"subregion": "Western Europe",
	"flag": "🇩🇪"
}]`

func TestClientFetchFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/name/Germany", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(germanyJSON))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	outcome, err := c.Fetch(context.Background(), "Germany")
	require.NoError(t, err)
	require.Equal(t, StatusFound, outcome.Status)
	require.NotNil(t, outcome.Record)
	assert.Equal(t, "Germany", outcome.Record.Name)
	assert.Equal(t, []string{"Berlin"}, outcome.Record.Capital)
	assert.Equal(t, int64(83240525), outcome.Record.Population)
	assert.Equal(t, map[string]string{"EUR": "Euro"}, outcome.Record.Currencies)
	assert.Equal(t, map[string]string{"deu": "German"}, outcome.Record.Languages)
	assert.Equal(t, "Europe", outcome.Record.Region)
}

func TestClientFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status": 404, "message": "Not Found"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	outcome, err := c.Fetch(context.Background(), "Narnia")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, outcome.Status)
	assert.Nil(t, outcome.Record)
	assert.Contains(t, outcome.Message, "Narnia")
}

func TestClientFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	outcome, err := c.Fetch(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, StatusTransportError, outcome.Status)
}

func TestClientFetchNetworkError(t *testing.T) {
	// 端口未监听，连接必然失败
	c := NewClient("http://127.0.0.1:1", time.Second)
	outcome, err := c.Fetch(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, StatusTransportError, outcome.Status)
	assert.Contains(t, outcome.Message, "network error")
}

func TestClientFetchEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	outcome, err := c.Fetch(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, outcome.Status)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Germany", "germany"},
		{"  South   Africa  ", "south africa"},
		{"FRANCE", "france"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}
