// internal/gemini/client_test.go
package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "gitnote-backend/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestGenerate_Success(t *testing.T) {
	var gotPath string
	var gotBody request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"# 주간 보고서"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-exp", server.URL, testLogger())

	text, err := client.Generate(context.Background(), "commit log here", StyleSummary)

	require.NoError(t, err)
	assert.Equal(t, "# 주간 보고서", text)
	assert.Equal(t, "/models/gemini-2.0-flash-exp:generateContent?key=test-key", gotPath)

	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	prompt := gotBody.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "commit log here")
	assert.Contains(t, prompt, "간결하게 요약된 보고서")
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-2.0-flash-exp", server.URL, testLogger())

	_, err := client.Generate(context.Background(), "commit log here", StyleSummary)

	var genErr *custom_errors.ErrGeneration
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, http.StatusTooManyRequests, genErr.StatusCode)
	assert.Contains(t, genErr.Body, "quota exceeded")
}

func TestGenerate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force a connection failure

	client := NewClient("test-key", "gemini-2.0-flash-exp", server.URL, testLogger())

	_, err := client.Generate(context.Background(), "commit log here", StyleSummary)

	var genErr *custom_errors.ErrGeneration
	require.ErrorAs(t, err, &genErr)
	assert.Error(t, genErr.Err)
}

func TestBuildPrompt_StyleClauses(t *testing.T) {
	tests := []struct {
		name    string
		style   string
		clause  string
		present bool
	}{
		{"summary", StyleSummary, "간결하게 요약된 보고서", true},
		{"detailed", StyleDetailed, "상세 분석 보고서", true},
		{"statistics", StyleStatistics, "통계 중심 보고서", true},
		{"unknown style adds no clause", "haiku", "**스타일:**", false},
		{"empty style adds no clause", "", "**스타일:**", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildPrompt("BODY", tt.style)

			assert.Contains(t, prompt, "BODY")
			assert.Contains(t, prompt, "마크다운(Markdown)")
			assert.Contains(t, prompt, "**언어:** 한국어")
			if tt.present {
				assert.Contains(t, prompt, tt.clause)
			} else {
				assert.NotContains(t, prompt, tt.clause)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "usual candidate shape",
			raw:  `{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`,
			want: "hello",
		},
		{
			name: "deeply nested under unfamiliar keys",
			raw:  `{"a":{"b":{"c":[{"d":{"text":"deep"}}]}}}`,
			want: "deep",
		},
		{
			name: "own member wins over descendants",
			raw:  `{"outer":{"text":"own","child":{"text":"nested"}}}`,
			want: "own",
		},
		{
			name: "first in document order wins",
			raw:  `{"candidates":[{"content":{"parts":[{"text":"first"},{"text":"second"}]}}]}`,
			want: "first",
		},
		{
			name: "numeric text coerces to its literal",
			raw:  `{"a":{"text":42},"b":{"text":"real"}}`,
			want: "42",
		},
		{
			name: "container text coerces to empty",
			raw:  `{"a":{"text":{"nested":"x"}}}`,
			want: "",
		},
		{
			name: "no text property",
			raw:  `{"candidates":[{"content":{"parts":[{"inlineData":"x"}]}}]}`,
			want: "",
		},
		{
			name: "empty body",
			raw:  ``,
			want: "",
		},
		{
			name: "malformed json",
			raw:  `{"candidates":[`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractText([]byte(tt.raw)))
		})
	}
}
