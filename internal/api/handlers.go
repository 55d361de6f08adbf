package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/livp123/pddash/internal/eventstore"
	"github.com/livp123/pddash/internal/metrics"
	"github.com/livp123/pddash/internal/version"
	"github.com/livp123/pddash/internal/workspace"
	pdderrors "github.com/livp123/pddash/pkg/errors"
)

// handleEvents streams history then live events as Server-Sent Events.
// handleEvents 以 SSE 形式先推送历史事件，再推送实时事件。
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := eventstore.CompileFilter(r.URL.Query().Get("filter"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !canFlush(w) {
		http.Error(w, pdderrors.ErrStreamingUnsupported.Error(), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	transport := newSSETransport(w)
	// Commit headers now so the client sees the stream open even with an empty history.
	if err := transport.rc.Flush(); err != nil {
		return
	}

	session := eventstore.NewSession(s.hub, transport, eventstore.SessionConfig{
		HistoryLimit: s.opts.HistoryLimit,
		KeepAlive:    s.opts.KeepAlive,
		Filter:       filter,
		Logger:       s.logger.With("request_id", RequestID(r.Context())),
		OnFrame: func(kind string) {
			metrics.FramesSent.WithLabelValues(kind).Inc()
		},
	})

	err = session.Run(r.Context())
	if errors.Is(err, pdderrors.ErrObserverEvicted) {
		s.logger.Warnf("[WARN]  Stream %s closed: %v", RequestID(r.Context()), err)
	}
}

// handleHistory returns every cached event as a JSON array.
// handleHistory 以 JSON 数组返回所有缓存事件。
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Snapshot())
}

// handleFiles lists the workspace.
// handleFiles 列出工作区文件。
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := workspace.List(s.opts.Workspace)
	if err != nil {
		s.logger.Warnf("[WARN]  %v", err)
		files = []workspace.FileInfo{}
	}
	writeJSON(w, http.StatusOK, files)
}

// handleIndex serves the dashboard page.
// handleIndex 提供仪表盘页面。
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := []byte(indexHTML)
	if s.opts.IndexPath != "" {
		data, err := os.ReadFile(filepath.Clean(s.opts.IndexPath)) // #nosec G304 // path is operator configuration
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.Error(w, "index.html not found", http.StatusNotFound)
				return
			}
			s.logger.Warnf("[WARN]  Failed to read %s: %v", s.opts.IndexPath, err)
			http.Error(w, "index.html unreadable", http.StatusInternalServerError)
			return
		}
		page = data
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}

// handleHealthz reports liveness with cache and observer counts.
// handleHealthz 报告存活状态以及缓存和观察者数量。
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"events":    s.hub.Len(),
		"observers": s.hub.Observers(),
	})
}

// handleVersion returns the build version.
// handleVersion 返回构建版本。
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
