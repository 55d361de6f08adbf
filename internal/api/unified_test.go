package api

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livp123/pddash/internal/eventstore"
	"github.com/livp123/pddash/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*Server, *eventstore.Hub) {
	t.Helper()
	hub := eventstore.NewHub(eventstore.HubOptions{})
	if opts.Workspace == "" {
		opts.Workspace = t.TempDir()
	}
	return NewServer(hub, opts, nil), hub
}

func serve(t *testing.T, s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	handlerOf(t, s).ServeHTTP(rec, req)
	return rec
}

func handlerOf(t *testing.T, s *Server) http.Handler {
	t.Helper()
	h, err := s.Handler()
	require.NoError(t, err)
	return h
}

// readFrame reads one SSE frame (up to the blank line) without the trailing separator.
func readFrame(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			return strings.TrimSuffix(b.String(), "\n")
		}
		b.WriteString(line)
	}
}

func openStream(t *testing.T, ts *httptest.Server, query string) (*http.Response, *bufio.Reader, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events"+query, http.NoBody)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
	})
	return resp, bufio.NewReader(resp.Body), cancel
}

// TestHandleHealthz tests the health check endpoint
// TestHandleHealthz 测试健康检查端点
func TestHandleHealthz(t *testing.T) {
	s, hub := newTestServer(t, Options{})
	hub.Broadcast(eventstore.Event(`{"a":1}`))
	sub := hub.Register()
	defer hub.Unregister(sub)

	rec := serve(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","events":1,"observers":1}`, rec.Body.String())
}

// TestHandleVersion tests the version endpoint
// TestHandleVersion 测试版本端点
func TestHandleVersion(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := serve(t, s, http.MethodGet, "/version", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "version")
}

// TestRouting tests unknown paths and methods
// TestRouting 测试未知路径和方法
func TestRouting(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/index.html", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, s, http.MethodPost, "/history", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/metrics", nil).Code, "metrics disabled")
}

// TestRequestID tests that request ids are generated and echoed
// TestRequestID 测试请求 ID 的生成和回显
func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := serve(t, s, http.MethodGet, "/healthz", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	rec = serve(t, s, http.MethodGet, "/nope", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	// Header keys are matched case-insensitively.
	// 头部键名大小写不敏感。
	rec = serve(t, s, http.MethodGet, "/healthz", http.Header{"x-request-id": {"lower-1"}})
	assert.Equal(t, "lower-1", rec.Header().Get(RequestIDHeader))
}

// TestHandleHistory tests the history endpoint, empty and populated
// TestHandleHistory 测试历史端点（空和非空）
func TestHandleHistory(t *testing.T) {
	s, hub := newTestServer(t, Options{})

	rec := serve(t, s, http.MethodGet, "/history", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	hub.Broadcast(eventstore.Event(`{"a":1}`))
	hub.Broadcast(eventstore.Event(`{"a":2}`))
	rec = serve(t, s, http.MethodGet, "/history", nil)
	assert.JSONEq(t, `[{"a":1},{"a":2}]`, rec.Body.String())
}

// TestHandleHistory_Gzip tests compression for clients that accept it
// TestHandleHistory_Gzip 测试对支持压缩的客户端进行压缩
func TestHandleHistory_Gzip(t *testing.T) {
	s, hub := newTestServer(t, Options{})
	for i := 0; i < 500; i++ {
		hub.Broadcast(eventstore.Event(fmt.Sprintf(`{"step":"build","n":%d}`, i)))
	}

	rec := serve(t, s, http.MethodGet, "/history", http.Header{"Accept-Encoding": {"gzip"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	var events []map[string]any
	require.NoError(t, json.Unmarshal(body, &events))
	assert.Len(t, events, 500)
}

// TestHandleFiles tests the workspace listing endpoint
// TestHandleFiles 测试工作区列表端点
func TestHandleFiles(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "plan.md"), []byte("# plan"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".pdd-events.jsonl"), []byte("{}\n"), 0o644))

	s, _ := newTestServer(t, Options{Workspace: ws})
	rec := serve(t, s, http.MethodGet, "/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var files []workspace.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "plan.md", files[0].Path)
	assert.Equal(t, int64(6), files[0].Size)
	assert.Greater(t, files[0].Modified, float64(0))

	s, _ = newTestServer(t, Options{Workspace: filepath.Join(ws, "missing")})
	rec = serve(t, s, http.MethodGet, "/files", nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

// TestHandleIndex tests the built-in page, a configured page and a missing page
// TestHandleIndex 测试内置页面、配置页面和缺失页面
func TestHandleIndex(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := serve(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "EventSource('/events')")

	page := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(page, []byte("<h1>custom</h1>"), 0o644))
	s, _ = newTestServer(t, Options{IndexPath: page})
	rec = serve(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, "<h1>custom</h1>", rec.Body.String())

	s, _ = newTestServer(t, Options{IndexPath: filepath.Join(t.TempDir(), "index.html")})
	rec = serve(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "index.html not found")
}

// TestHandleMetrics tests that /metrics is served when configured
// TestHandleMetrics 测试配置后提供 /metrics
func TestHandleMetrics(t *testing.T) {
	s, hub := newTestServer(t, Options{MetricsPath: "/metrics"})
	hub.Broadcast(eventstore.Event(`{"a":1}`))

	rec := serve(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pddash_events_ingested_total")
}

// TestHandler_InvalidMetricsPath tests that a metrics path clashing with a route is an error, not a panic
// TestHandler_InvalidMetricsPath 测试与内置路由冲突的 metrics 路径返回错误而不是 panic
func TestHandler_InvalidMetricsPath(t *testing.T) {
	for _, path := range []string{"/history", "/events", "/files", "/healthz", "/version", "/{x"} {
		t.Run(path, func(t *testing.T) {
			s, _ := newTestServer(t, Options{Host: "127.0.0.1", Port: 0, MetricsPath: path})

			var err error
			assert.NotPanics(t, func() { _, err = s.Handler() })
			assert.Error(t, err)

			assert.NotPanics(t, func() { err = s.Start() })
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid metrics path")
			require.NoError(t, s.Stop(context.Background()))
		})
	}
}

// TestHandleEvents_InvalidFilter tests that a bad filter is rejected before streaming
// TestHandleEvents_InvalidFilter 测试无效过滤器在推流前被拒绝
func TestHandleEvents_InvalidFilter(t *testing.T) {
	s, hub := newTestServer(t, Options{})
	rec := serve(t, s, http.MethodGet, "/events?filter="+strings.ReplaceAll("a == ", " ", "%20"), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid event filter")
	assert.Equal(t, 0, hub.Observers())
}

// TestHandleEvents_HistoryThenLive tests the end-to-end stream: replay, live events, headers
// TestHandleEvents_HistoryThenLive 测试端到端流：回放、实时事件和响应头
func TestHandleEvents_HistoryThenLive(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pdd-events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`+"\n"+`{"a":2}`+"\n"+"garbage\n"+`{"a":3}`+"\n"), 0o644))

	s, hub := newTestServer(t, Options{KeepAlive: time.Hour})
	tailer := eventstore.NewTailer(path, hub)
	_, err := tailer.Poll()
	require.NoError(t, err)

	ts := httptest.NewServer(handlerOf(t, s))
	t.Cleanup(ts.Close) // runs after the stream cleanups registered below

	resp, r, cancel := openStream(t, ts, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	assert.Equal(t, `data: {"a":1}`, readFrame(t, r))
	assert.Equal(t, `data: {"a":2}`, readFrame(t, r))
	assert.Equal(t, `data: {"a":3}`, readFrame(t, r))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"a":4}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = tailer.Poll()
	require.NoError(t, err)

	assert.Equal(t, `data: {"a":4}`, readFrame(t, r))

	cancel()
	assert.Eventually(t, func() bool { return hub.Observers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// TestHandleEvents_KeepAlive tests that an idle stream receives ping comments
// TestHandleEvents_KeepAlive 测试空闲流收到 ping 注释
func TestHandleEvents_KeepAlive(t *testing.T) {
	s, hub := newTestServer(t, Options{KeepAlive: 20 * time.Millisecond, AccessLog: true})
	ts := httptest.NewServer(handlerOf(t, s))
	t.Cleanup(ts.Close) // runs after the stream cleanups registered below

	_, r, _ := openStream(t, ts, "")
	assert.Equal(t, ": ping", readFrame(t, r))
	assert.Equal(t, ": ping", readFrame(t, r))

	hub.Broadcast(eventstore.Event(`{"late":true}`))
	for {
		frame := readFrame(t, r)
		if frame == ": ping" {
			continue
		}
		assert.Equal(t, `data: {"late":true}`, frame)
		break
	}
}

// TestHandleEvents_Filter tests per-connection filtering
// TestHandleEvents_Filter 测试每个连接的过滤
func TestHandleEvents_Filter(t *testing.T) {
	s, hub := newTestServer(t, Options{KeepAlive: time.Hour})
	hub.Broadcast(eventstore.Event(`{"kind":"phase","n":1}`))
	hub.Broadcast(eventstore.Event(`{"kind":"log","n":2}`))
	hub.Broadcast(eventstore.Event(`{"kind":"phase","n":3}`))

	ts := httptest.NewServer(handlerOf(t, s))
	t.Cleanup(ts.Close) // runs after the stream cleanups registered below

	_, r, _ := openStream(t, ts, `?filter=kind%20%3D%3D%20%22phase%22`)
	assert.Equal(t, `data: {"kind":"phase","n":1}`, readFrame(t, r))
	assert.Equal(t, `data: {"kind":"phase","n":3}`, readFrame(t, r))
}

// TestServer_StartStop tests binding, serving and a shutdown that ends open streams
// TestServer_StartStop 测试绑定、服务以及结束打开流的关闭流程
func TestServer_StartStop(t *testing.T) {
	hub := eventstore.NewHub(eventstore.HubOptions{})
	s := NewServer(hub, Options{Host: "127.0.0.1", Port: 0, KeepAlive: time.Hour}, nil)
	require.NoError(t, s.Start())

	base := "http://" + s.Addr()
	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stream, err := http.Get(base + "/events")
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Eventually(t, func() bool { return hub.Observers() == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.Stop(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Stop blocked on an open stream")
	}
	assert.Equal(t, 0, hub.Observers())

	// A second server on the same address fails synchronously.
	// 在同一地址上启动第二个服务会同步失败。
	s2 := NewServer(hub, Options{Host: "127.0.0.1", Port: 0}, nil)
	require.NoError(t, s2.Start())
	defer s2.Stop(context.Background())
	_, port, _ := strings.Cut(s2.Addr(), ":")
	s3 := NewServer(hub, Options{Host: "127.0.0.1", Port: mustAtoi(t, port)}, nil)
	assert.Error(t, s3.Start())
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	require.NoError(t, err)
	return n
}
