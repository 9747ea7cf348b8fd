package improve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Auth string
	Body map[string]interface{}
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest, *int32) {
	t.Helper()
	captured := &capturedRequest{}
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		captured.Auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured, &hits
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient("sk-test", Options{
		BaseURL:     baseURL + "/v1",
		Model:       "gpt-4o-mini",
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	return c
}

func TestImproveRoundTrip(t *testing.T) {
	srv, captured, _ := newTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"\"Here's the improved text: Good day.\""}}]}`)
	c := newTestClient(t, srv.URL)

	out, err := c.Improve(context.Background(), "good day")
	require.NoError(t, err)
	assert.Equal(t, "Good day.", out)

	assert.Equal(t, "Bearer sk-test", captured.Auth)
	assert.Equal(t, "gpt-4o-mini", captured.Body["model"])
	assert.EqualValues(t, 1000, captured.Body["max_tokens"])
	assert.InDelta(t, 0.7, captured.Body["temperature"], 1e-6)

	msgs, ok := captured.Body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Refactor this text:\n\"good day\"", msg["content"])
}

func TestImproveParseErrors(t *testing.T) {
	for name, body := range map[string]string{
		"empty choices":  `{"choices":[]}`,
		"no content":     `{"choices":[{"message":{"role":"assistant"}}]}`,
		"malformed json": `not json`,
		"wrong shape":    `{"choices":5}`,
		"blank content":  `{"choices":[{"message":{"content":"   "}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _, _ := newTestServer(t, http.StatusOK, body)
			c := newTestClient(t, srv.URL)

			_, err := c.Improve(context.Background(), "text")
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestImproveRejectsBoilerplateOnlyReply(t *testing.T) {
	for name, content := range map[string]string{
		"lead-in only":  `"\"Improved text:\""`,
		"quotes only":   `"''"`,
		"nested quotes": `"\"  '' \""`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _, _ := newTestServer(t, http.StatusOK,
				`{"choices":[{"message":{"content":`+content+`}}]}`)
			c := newTestClient(t, srv.URL)

			out, err := c.Improve(context.Background(), "keep me")
			assert.ErrorIs(t, err, ErrParse)
			assert.Empty(t, out)
		})
	}
}

func TestImproveHTTPErrorIsNotRetried(t *testing.T) {
	srv, _, hits := newTestServer(t, http.StatusInternalServerError,
		`{"error":{"message":"boom","type":"server_error"}}`)
	c := newTestClient(t, srv.URL)

	_, err := c.Improve(context.Background(), "text")
	require.Error(t, err)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("   ", Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := NewClient("sk", Options{})
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4oMini, c.Model())
	assert.Equal(t, "openai", c.Name())
}
