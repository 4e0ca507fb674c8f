package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEndpoint(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/", 0)
	t.Cleanup(c.http.CloseIdleConnections)
	return c
}

func TestClientAnalyzeSendsTopic(t *testing.T) {
	var gotBody map[string]any
	c := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AnalyzePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"stance":"pro","count":3},"saved_to":"/out/ubi.json"}`)
	})

	resp, err := c.Analyze(context.Background(), "universal basic income")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"topic": "universal basic income"}, gotBody)
	assert.True(t, resp.Success)
	assert.Equal(t, "/out/ubi.json", resp.SavedTo)
	assert.JSONEq(t, `{"stance":"pro","count":3}`, string(resp.Data))
}

func TestClientAnalyzeNon2xx(t *testing.T) {
	c := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"upstream quota exceeded"}`)
	})
	_, err := c.Analyze(context.Background(), "topic")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "http 500")
	assert.Contains(t, err.Error(), "upstream quota exceeded")
}

func TestClientAnalyzeMalformedBody(t *testing.T) {
	bodies := []string{
		"<html>oops</html>",
		`["not","an","object"]`,
		"",
		`null`,
		`{}`,
		`{"ok":1}`,
		`{"success":"true","data":{},"saved_to":"/out/x.json"}`,
		`{"success":null}`,
		`{"success":true}`,
		`{"success":true,"saved_to":"/out/x.json"}`,
		`{"success":true,"data":{}}`,
		`{"success":true,"data":{},"saved_to":5}`,
		`{"success":false,"saved_to":["x"]}`,
	}
	for _, body := range bodies {
		c := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		_, err := c.Analyze(context.Background(), "topic")
		assert.ErrorIs(t, err, ErrMalformedResponse, "body %q", body)
		assert.Equal(t, FailureMalformed, ClassifyFailure(err), "body %q", body)
	}
}

func TestClientAnalyzeFailureBodyNeedsOnlySuccess(t *testing.T) {
	c := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false}`)
	})
	resp, err := c.Analyze(context.Background(), "topic")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.SavedTo)
}

func TestCompactKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "a b c", Compact("  a\n b\t c  ", 0))
	assert.Equal(t, "abc", Compact("abc", 3))

	got := Compact("débat sur le revenu universel", 8)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "débat...", got)

	got = Compact("日本語のテキスト", 2)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "日本", got)
}

func TestClientAnalyzeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).Analyze(context.Background(), "topic")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, FailureTransport, ClassifyFailure(err))
}

func TestClientHealth(t *testing.T) {
	c := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HealthPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestSessionOverHTTP(t *testing.T) {
	cases := []struct {
		name     string
		handler  http.HandlerFunc
		status   Status
		kind     FailureKind
		savedTo  string
		payload  string
		notified bool
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"success":true,"data":{"stance":"pro","count":3},"saved_to":"/out/ubi.json"}`)
			},
			status:  StatusSucceeded,
			savedTo: "/out/ubi.json",
			payload: `{"stance":"pro","count":3}`,
		},
		{
			name: "reported failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"success":false,"data":null,"saved_to":""}`)
			},
			status:   StatusFailed,
			kind:     FailureRejected,
			notified: true,
		},
		{
			name: "success without saved location",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"success":true}`)
			},
			status:   StatusFailed,
			kind:     FailureMalformed,
			notified: true,
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `null`)
			},
			status:   StatusFailed,
			kind:     FailureMalformed,
			notified: true,
		},
		{
			name: "empty object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{}`)
			},
			status:   StatusFailed,
			kind:     FailureMalformed,
			notified: true,
		},
		{
			name: "unrelated object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"ok":1}`)
			},
			status:   StatusFailed,
			kind:     FailureMalformed,
			notified: true,
		},
		{
			name: "bad gateway",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			status:   StatusFailed,
			kind:     FailureStatus,
			notified: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, rec := newTestSession(t, newEndpoint(t, tc.handler))
			in := NewInput(s)
			in.SetTopic("universal basic income")
			req, ok := in.Submit()
			require.True(t, ok)
			require.Equal(t, StatusPending, s.Status())

			a := s.Await(context.Background(), req)
			assert.Equal(t, tc.status, a.Status)
			assert.Equal(t, tc.kind, a.FailureKind)
			assert.Equal(t, tc.savedTo, a.SavedTo)
			if tc.payload != "" {
				assert.JSONEq(t, tc.payload, string(a.Payload))
			}
			assert.Equal(t, tc.notified, len(rec.notices) == 1)
			assert.True(t, in.CanSubmit())
		})
	}
}
