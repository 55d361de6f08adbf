package api

import (
	"net/http"

	"github.com/livp123/pddash/internal/eventstore"
)

var (
	sseDataPrefix = []byte("data: ")
	sseFrameEnd   = []byte("\n\n")
	ssePing       = []byte(": ping\n\n")
)

// sseTransport writes session frames as Server-Sent Events and flushes each one.
// sseTransport 以 SSE 格式写出会话帧，并逐帧刷新。
type sseTransport struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSETransport(w http.ResponseWriter) *sseTransport {
	return &sseTransport{w: w, rc: http.NewResponseController(w)}
}

// Send writes `data: <json>\n\n`. Events are compact JSON, so they never contain a newline.
func (t *sseTransport) Send(e eventstore.Event) error {
	if _, err := t.w.Write(sseDataPrefix); err != nil {
		return err
	}
	if _, err := t.w.Write(e); err != nil {
		return err
	}
	if _, err := t.w.Write(sseFrameEnd); err != nil {
		return err
	}
	return t.rc.Flush()
}

// KeepAlive writes an SSE comment line.
func (t *sseTransport) KeepAlive() error {
	if _, err := t.w.Write(ssePing); err != nil {
		return err
	}
	return t.rc.Flush()
}

// canFlush reports whether w, or a writer it wraps, supports flushing.
func canFlush(w http.ResponseWriter) bool {
	for {
		if _, ok := w.(http.Flusher); ok {
			return true
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
}
