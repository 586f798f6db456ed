// internal/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	custom_errors "gitnote-backend/internal/errors"
)

// Report styles selected by exact match; anything else adds no style clause.
const (
	StyleSummary    = "summary"
	StyleDetailed   = "detailed"
	StyleStatistics = "statistics"
)

const requestTimeout = 30 * time.Second

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Client for the given model and API key.
func NewClient(apiKey, model, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// request mirrors the single-turn, single-part generateContent body.
type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Generate sends the prompt body plus a style directive to the model and
// returns the first text leaf of the response. Transport failures and non-2xx
// responses surface as *custom_errors.ErrGeneration.
func (c *Client) Generate(ctx context.Context, promptBody, style string) (string, error) {
	c.logger.Info("Generating report content", "style", style, "prompt_len", len(promptBody))

	body, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: buildPrompt(promptBody, style)}}}},
	})
	if err != nil {
		return "", &custom_errors.ErrGeneration{Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &custom_errors.ErrGeneration{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &custom_errors.ErrGeneration{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &custom_errors.ErrGeneration{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Gemini API call failed", "status", resp.StatusCode, "body_len", len(raw))
		return "", &custom_errors.ErrGeneration{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	text := extractText(raw)
	c.logger.Info("Report content generated", "response_len", len(raw), "text_len", len(text))
	return text, nil
}

// buildPrompt composes the fixed instruction preamble, the caller's text and
// the per-style clause.
func buildPrompt(promptBody, style string) string {
	var styleClause string
	switch style {
	case StyleSummary:
		styleClause = "**스타일:** 간결하게 요약된 보고서를 작성하세요. 핵심 포인트 위주로 표현합니다.\n"
	case StyleDetailed:
		styleClause = "**스타일:** 상세 분석 보고서를 작성하세요. 각 커밋의 기능/문제점과 작업 흐름을 자세히 설명합니다.\n"
	case StyleStatistics:
		styleClause = "**스타일:** 통계 중심 보고서를 작성하세요. 커밋 유형, 수정 빈도, 기능 추가 비율 등을 강조합니다.\n"
	}

	return "당신은 반드시 마크다운(Markdown) 형식으로만 출력해야 한다.\n" +
		"마크다운을 사용하지 않거나 서식이 유지되지 않으면 잘못된 출력으로 간주된다.\n" +
		"출력 시 제목, 본문, 구분선, 강조, 코드블록 등 마크다운 요소를 적극 활용한다.\n\n" +
		promptBody + "\n\n" +
		"## 보고서 작성 지침\n" +
		styleClause + "\n\n" +
		"**언어:** 한국어\n" +
		"**형식:** 자연스러운 서술식 문장 중심, 단순 목록 나열 금지\n" +
		"**리포지토리 이름과 조회 기간을 반드시 포함할 것**\n"
}

// extractText returns the first "text" property found by a pre-order walk of
// the response document. The response shape is not contractually fixed, so the
// walk must not assume a particular nesting depth. A plain map would randomize
// sibling order, so the document is parsed into an order-preserving tree first.
func extractText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	doc, err := parseValue(dec)
	if err != nil {
		return ""
	}

	if text, ok := findFirstText(doc); ok {
		return text
	}
	return ""
}

// jsonValue is a generic JSON node that keeps object members in document order.
// Scalars carry their coerced text; containers coerce to the empty string.
type jsonValue struct {
	members []jsonMember // object members, nil otherwise
	items   []jsonValue  // array elements, nil otherwise
	scalar  string
	isObj   bool
	isArr   bool
}

// text returns the node's value as a string: the literal text of a scalar,
// empty for an object or array.
func (v jsonValue) text() string {
	if v.isObj || v.isArr {
		return ""
	}
	return v.scalar
}

type jsonMember struct {
	key   string
	value jsonValue
}

func parseValue(dec *json.Decoder) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return jsonValue{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := jsonValue{isObj: true}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return jsonValue{}, err
				}
				key, _ := keyTok.(string)
				val, err := parseValue(dec)
				if err != nil {
					return jsonValue{}, err
				}
				obj.members = append(obj.members, jsonMember{key: key, value: val})
			}
			_, err := dec.Token() // consume '}'
			return obj, err
		case '[':
			arr := jsonValue{isArr: true}
			for dec.More() {
				val, err := parseValue(dec)
				if err != nil {
					return jsonValue{}, err
				}
				arr.items = append(arr.items, val)
			}
			_, err := dec.Token() // consume ']'
			return arr, err
		}
		return jsonValue{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return jsonValue{scalar: t}, nil
	case json.Number:
		return jsonValue{scalar: t.String()}, nil
	case bool:
		return jsonValue{scalar: strconv.FormatBool(t)}, nil
	default:
		// JSON null
		return jsonValue{scalar: "null"}, nil
	}
}

// findFirstText checks the node's own "text" member before descending into
// children, children in document order. Any value type matches; the value is
// coerced via text().
func findFirstText(node jsonValue) (string, bool) {
	if node.isObj {
		for _, m := range node.members {
			if m.key == "text" {
				return m.value.text(), true
			}
		}
		for _, m := range node.members {
			if text, ok := findFirstText(m.value); ok {
				return text, true
			}
		}
	}
	if node.isArr {
		for _, item := range node.items {
			if text, ok := findFirstText(item); ok {
				return text, true
			}
		}
	}
	return "", false
}
