// Package client calls the analyze API and classifies its responses into the
// outcomes the frontends render: success, rate limited, status error or network
// error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/news-helper/internal/analysis"
)

// Header names sent with every analyze call.
const (
	HeaderAPIKey = "X-API-Key"
	HeaderLang   = "X-Lang"
)

// DefaultRetryNotice is shown for a 429 whose body carries no message.
const DefaultRetryNotice = "Please retry in ~60s."

// DefaultTimeout bounds a call when the caller does not supply an http.Client.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

var errNullResponse = errors.New("decode analyze response: body is null")

// Input is what a user submits.
type Input struct {
	URL  string
	Mode string
	Lang string
	Key  string
}

// Response is a successful analyze result.
type Response struct {
	Meta analysis.Meta
	Mode string
	Data string
}

// RateLimitError is returned for HTTP 429.
type RateLimitError struct {
	// Message is the body's message field, nil when the body is absent,
	// unparseable or has no non-null message.
	Message *string
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Notice()
}

// Notice is the user-facing text: the server message or DefaultRetryNotice.
func (e *RateLimitError) Notice() string {
	if e.Message != nil {
		return *e.Message
	}
	return DefaultRetryNotice
}

// StatusError is returned for any other non-2xx status.
type StatusError struct {
	StatusCode int
	StatusText string
	// Message is the body's error field, when present.
	Message *string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analyze failed with status %d: %s", e.StatusCode, e.Notice())
}

// Notice is the user-facing text: the server error or the HTTP status text.
func (e *StatusError) Notice() string {
	if e.Message != nil {
		return *e.Message
	}
	return e.StatusText
}

// Client posts to {BaseURL}/analyze.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. A nil httpClient gets DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Endpoint returns the analyze URL.
func (c *Client) Endpoint() string {
	return c.baseURL + "/analyze"
}

type analyzeBody struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

// Analyze submits in. Errors are *RateLimitError, *StatusError, or a wrapped
// transport or decoding error.
func (c *Client) Analyze(ctx context.Context, in Input) (*Response, error) {
	payload, err := json.Marshal(analyzeBody{URL: in.URL, Mode: in.Mode})
	if err != nil {
		return nil, fmt.Errorf("encode analyze body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAPIKey, in.Key)
	req.Header.Set(HeaderLang, in.Lang)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		fields := safeJSON(body, readErr)
		msg, _ := jsonText(fields["message"])
		return nil, &RateLimitError{Message: msg}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		fields := safeJSON(body, readErr)
		msg, _ := jsonText(fields["error"])
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Message:    msg,
		}
	}

	if readErr != nil {
		return nil, fmt.Errorf("read analyze response: %w", readErr)
	}
	return decodeResponse(body)
}

func decodeResponse(body []byte) (*Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode analyze response: %w", err)
	}
	if fields == nil {
		return nil, errNullResponse
	}
	out := &Response{Data: truthyText(fields["data"])}
	if mode, ok := jsonText(fields["mode"]); ok {
		out.Mode = *mode
	}
	if raw, ok := fields["meta"]; ok {
		// Meta is informational; a malformed block does not fail the call.
		_ = json.Unmarshal(raw, &out.Meta)
	}
	return out, nil
}

// safeJSON parses an error body as a JSON object, returning nil on any failure.
func safeJSON(body []byte, readErr error) map[string]json.RawMessage {
	if readErr != nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	return fields
}

// jsonText renders a JSON value as display text. Absent and null values report
// false; strings are unquoted; anything else keeps its JSON form.
func jsonText(raw json.RawMessage) (*string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s, true
	}
	text := string(trimmed)
	return &text, true
}

// truthyText is jsonText with falsy values (null, false, 0, "") mapped to "".
func truthyText(raw json.RawMessage) string {
	text, ok := jsonText(raw)
	if !ok {
		return ""
	}
	if *text == "" || (*text == "false" && !isJSONString(raw)) {
		return ""
	}
	if f, err := strconv.ParseFloat(*text, 64); err == nil && f == 0 && !isJSONString(raw) {
		return ""
	}
	return *text
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// statusText is the reason phrase from the status line, or the canonical text.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
