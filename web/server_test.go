package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/refix/storage"
)

type fakeController struct {
	mu     sync.Mutex
	status Status
}

func (c *fakeController) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeController) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Enabled = true
}

func (c *fakeController) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Enabled = false
}

func newTestServer(t *testing.T, history History) (*Server, *httptest.Server, *fakeController) {
	t.Helper()
	ctrl := &fakeController{status: Status{OpenAIConnected: true, Hotkey: "super+shift+e"}}
	s := NewServer(ctrl, history, 0)
	handler, err := s.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ts.Close()
		s.hub.Stop()
	})
	return s, ts, ctrl
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestStatusAndToggle(t *testing.T) {
	_, ts, ctrl := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	var st Status
	decode(t, resp, &st)
	assert.False(t, st.Enabled)
	assert.True(t, st.OpenAIConnected)
	assert.Equal(t, "super+shift+e", st.Hotkey)

	resp, err = http.Post(ts.URL+"/api/enable", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, ctrl.Status().Enabled)

	resp, err = http.Post(ts.URL+"/api/disable", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, ctrl.Status().Enabled)

	// GET falls through to the static handler and must not toggle anything
	resp, err = http.Get(ts.URL + "/api/enable")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, ctrl.Status().Enabled)
}

func TestHistoryDisabled(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	for _, path := range []string{"/api/history", "/api/stats"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, in := range []string{"one", "two", "three"} {
		require.NoError(t, db.SaveRewrite(&storage.Rewrite{
			Provider: "openai", Model: "gpt-4o-mini", InputText: in, OutputText: strings.ToUpper(in), Success: true,
		}))
	}

	_, ts, _ := newTestServer(t, db)

	resp, err := http.Get(ts.URL + "/api/history?limit=2")
	require.NoError(t, err)
	var page struct {
		Rewrites []storage.Rewrite `json:"rewrites"`
		Total    int               `json:"total"`
		Limit    int               `json:"limit"`
	}
	decode(t, resp, &page)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Rewrites, 2)
	assert.Equal(t, "three", page.Rewrites[0].InputText)

	id := page.Rewrites[0].ID
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/history/"+jsonNumber(id), nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/history/abc", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/stats?days=30")
	require.NoError(t, err)
	var stats struct {
		Days    int                  `json:"days"`
		Overall storage.OverallStats `json:"overall"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, 30, stats.Days)
	assert.Equal(t, 2, stats.Overall.TotalRewrites)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestStaticIndex(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestWebSocketReceivesStatusAndBroadcasts(t *testing.T) {
	s, ts, _ := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Message {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	greeting := read()
	assert.Equal(t, MessageTypeStatus, greeting.Type)

	// the client registers asynchronously; keep broadcasting until one arrives
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.BroadcastNotice("No text selected")
			}
		}
	}()

	msg := read()
	assert.Equal(t, MessageTypeNotice, msg.Type)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "No text selected", data["message"])
}

func TestCrossOriginRequestsRejected(t *testing.T) {
	_, ts, ctrl := newTestServer(t, nil)

	post := func(origin, host string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/enable", nil)
		require.NoError(t, err)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if host != "" {
			req.Host = host
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, post("https://evil.example", ""))
	assert.Equal(t, http.StatusForbidden, post("", "rebound.example:8765"))
	assert.Equal(t, http.StatusForbidden, post("null", ""))
	assert.False(t, ctrl.Status().Enabled)

	assert.Equal(t, http.StatusAccepted, post(ts.URL, ""))
	assert.True(t, ctrl.Status().Enabled)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
