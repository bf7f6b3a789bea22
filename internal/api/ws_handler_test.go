package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriber 把测试写入 payloads 的内容当作已发布事件。
type fakeSubscriber struct {
	payloads chan string
}

func (f *fakeSubscriber) Listen(context.Context) (<-chan string, func() error, error) {
	return f.payloads, func() error { return nil }, nil
}

func withSubscriber(sub Subscriber) serverOption {
	return func(d *Dependencies) { d.Subscriber = sub }
}

func withOrigins(origins ...string) serverOption {
	return func(d *Dependencies) { d.AllowedOrigins = origins }
}

func dialWS(t *testing.T, srv *testServer, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	server := httptest.NewServer(srv.router)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func TestWs_ForwardsEventsAfterAuth(t *testing.T) {
	sub := &fakeSubscriber{payloads: make(chan string)}
	srv := newTestServer(t, withSubscriber(sub))

	conn, _, err := dialWS(t, srv, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": srv.token}))

	event := `{"type":"content.created","resource":"projects","id":"p1","at":"2024-05-01T12:00:00Z"}`
	select {
	case sub.payloads <- event:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started listening")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.JSONEq(t, event, string(message))
}

func TestWs_RejectsBadAuthFrame(t *testing.T) {
	cases := map[string]map[string]string{
		"invalid token": {"type": "auth", "token": "not-a-jwt"},
		"wrong type":    {"type": "hello", "token": "whatever"},
		"missing token": {"type": "auth"},
	}
	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, withSubscriber(&fakeSubscriber{payloads: make(chan string)}))
			conn, _, err := dialWS(t, srv, nil)
			require.NoError(t, err)
			require.NoError(t, conn.WriteJSON(frame))

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			_, _, err = conn.ReadMessage()
			require.Error(t, err)
			assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
		})
	}
}

func TestWs_DisabledWithoutSubscriber(t *testing.T) {
	srv := newTestServer(t)

	w, resp := srv.do(t, http.MethodGet, "/api/ws", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Live events are disabled", resp.Message)
}

func TestWs_RejectsForeignOriginHandshake(t *testing.T) {
	srv := newTestServer(t,
		withSubscriber(&fakeSubscriber{payloads: make(chan string)}),
		withOrigins("https://folio.example.com"),
	)

	_, resp, err := dialWS(t, srv, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOriginAllowed(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://api.folio.test/api/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	configured := []string{"https://folio.example.com"}

	cases := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"no origin header", "", configured, true},
		{"configured match", "https://folio.example.com", configured, true},
		{"configured match ignores case", "https://FOLIO.example.com", configured, true},
		{"configured mismatch", "https://evil.example.com", configured, false},
		{"wildcard", "https://anything.example", []string{"*"}, true},
		{"unconfigured same host", "http://api.folio.test", nil, true},
		{"unconfigured cross host", "https://evil.example.com", nil, false},
		{"unconfigured unparsable", "://bad", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, originAllowed(request(tc.origin), tc.allowed))
		})
	}
}
