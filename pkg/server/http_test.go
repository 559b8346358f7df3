package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, rps float64, burst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return newTestServer(&fakeBackend{}).Router(NewRateLimiter(ctx, rps, burst, time.Hour))
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHTTPHealth(t *testing.T) {
	router := newTestRouter(t, 100, 100)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "k8s-versions-mcp-http", body["server"])
	assert.Equal(t, "1.2.3", body["version"])
	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestHTTPTools(t *testing.T) {
	router := newTestRouter(t, 100, 100)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tools", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tools []Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Tools, 8)
}

func TestHTTPMCP(t *testing.T) {
	router := newTestRouter(t, 100, 100)

	tests := []struct {
		name     string
		body     string
		status   int
		contains string
	}{
		{
			name:     "request",
			body:     `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"compare_versions","arguments":{"component":"redis","currentVersion":"7.0.0","targetVersion":"7.2.4"}}}`,
			status:   http.StatusOK,
			contains: "Upgrade recommended from 7.0.0 to 7.2.4",
		},
		{
			name:   "notification",
			body:   `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			status: http.StatusAccepted,
		},
		{
			name:     "parse error",
			body:     `{`,
			status:   http.StatusOK,
			contains: `"code":-32700`,
		},
		{
			name:     "unknown method",
			body:     `{"jsonrpc":"2.0","id":9,"method":"prompts/list"}`,
			status:   http.StatusOK,
			contains: `"code":-32601`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.contains == "" {
				assert.Empty(t, w.Body.String())
				return
			}
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestHTTPMCPBodyTooLarge(t *testing.T) {
	router := newTestRouter(t, 100, 100)

	w := post(router, strings.Repeat(" ", maxBodySize+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"code":-32600`)
	assert.Contains(t, w.Body.String(), "Request body too large")

	w = post(router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`+strings.Repeat(" ", maxBodySize-64))
	assert.Equal(t, http.StatusOK, w.Code, "bodies under the limit are served")
}

func TestHTTPCORS(t *testing.T) {
	router := newTestRouter(t, 100, 100)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "http://localhost:6274")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestHTTPRateLimit(t *testing.T) {
	router := newTestRouter(t, 0.001, 2)
	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	assert.Equal(t, http.StatusOK, post(router, ping).Code)
	assert.Equal(t, http.StatusOK, post(router, ping).Code)

	w := post(router, ping)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code, "health is not rate limited")
}

func TestRateLimiterPrune(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1000, 1, time.Hour)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
	assert.Equal(t, 2, rl.size())

	time.Sleep(5 * time.Millisecond)
	rl.prune()
	assert.Equal(t, 0, rl.size())
}

func TestListenAndServeShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- newTestServer(&fakeBackend{}).ListenAndServe(ctx, HTTPConfig{Addr: "127.0.0.1:0"})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
