package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	AnalyzePath = "/api/analyze"
	HealthPath  = "/api/health"

	errorBodyChars = 240
)

// Client talks to the analysis endpoint over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL. A zero timeout leaves requests
// unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Analyze(ctx context.Context, topic string) (Response, error) {
	buf, err := json.Marshal(map[string]string{"topic": topic})
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, bytes.NewReader(buf))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	payload, status, err := c.do(req)
	if err != nil {
		return Response{}, err
	}
	if status < 200 || status >= 300 {
		return Response{}, fmt.Errorf("%w: http %d: %s", ErrUnexpectedStatus, status, errorDetail(payload))
	}
	return decodeResponse(payload)
}

// decodeResponse accepts only a JSON object carrying a boolean success.
// A successful body must also carry data and a string saved_to; anything
// else is malformed rather than a reported failure.
func decodeResponse(payload []byte) (Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return Response{}, fmt.Errorf("%w: body is null", ErrMalformedResponse)
	}
	var resp Response
	raw, ok := fields["success"]
	if !ok {
		return Response{}, fmt.Errorf("%w: missing success", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, &resp.Success); err != nil || isNull(raw) {
		return Response{}, fmt.Errorf("%w: success is not a boolean", ErrMalformedResponse)
	}
	resp.Data = fields["data"]
	if raw, ok := fields["saved_to"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &resp.SavedTo); err != nil {
			return Response{}, fmt.Errorf("%w: saved_to is not a string", ErrMalformedResponse)
		}
	}
	if !resp.Success {
		return resp, nil
	}
	if _, ok := fields["data"]; !ok {
		return Response{}, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if raw, ok := fields["saved_to"]; !ok || isNull(raw) {
		return Response{}, fmt.Errorf("%w: missing saved_to", ErrMalformedResponse)
	}
	return resp, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Health queries the endpoint's health route and returns the reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	payload, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: http %d: %s", ErrUnexpectedStatus, status, errorDetail(payload))
	}
	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return strings.TrimSpace(parsed.Status), nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s %s: %v", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return payload, resp.StatusCode, nil
}

// errorDetail prefers a {"detail": "..."} message and falls back to the
// compacted raw body.
func errorDetail(payload []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(payload, &parsed); err == nil && strings.TrimSpace(parsed.Detail) != "" {
		return Compact(parsed.Detail, errorBodyChars)
	}
	text := Compact(string(payload), errorBodyChars)
	if text == "" {
		return "empty body"
	}
	return text
}

// Compact collapses whitespace runs to single spaces and cuts the result to
// at most limit runes, marking the cut with "...". A non-positive limit
// disables the cut.
func Compact(text string, limit int) string {
	clean := strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(clean) <= limit {
		return clean
	}
	runes := []rune(clean)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
