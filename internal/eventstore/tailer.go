package eventstore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/livp123/pddash/internal/metrics"
	pdderrors "github.com/livp123/pddash/pkg/errors"
)

const readBufferSize = 64 * 1024

// PollResult describes what a single Poll observed and did.
// Every skip path has its own field so callers and tests can tell them apart.
// PollResult 描述单次 Poll 观察到和执行的内容。
type PollResult struct {
	Missing   bool  // source file does not exist yet
	Truncated bool  // file shrank below the cursor; cursor was reset to 0
	Rotated   bool  // path now refers to a different file; cursor was reset to 0
	Partial   bool  // an unterminated trailing line was left for the next poll
	Appended  int   // events parsed and broadcast
	Malformed int   // lines skipped because they were not valid JSON
	Blank     int   // whitespace-only lines skipped
	Offset    int64 // cursor after the poll
}

// Tailer incrementally reads newly appended lines from the source log.
// Tailer 增量读取源日志中新追加的行。
type Tailer struct {
	path   string
	cursor Cursor
	sink   Broadcaster
	last   os.FileInfo
	mu     sync.Mutex
}

// NewTailer creates a tailer for path that hands parsed events to sink.
// NewTailer 为 path 创建一个 Tailer，将解析后的事件交给 sink。
func NewTailer(path string, sink Broadcaster) *Tailer {
	return &Tailer{
		path: filepath.Clean(path),
		sink: sink,
	}
}

// Path returns the watched file path.
func (t *Tailer) Path() string {
	return t.path
}

// Cursor returns the tail cursor.
func (t *Tailer) Cursor() *Cursor {
	return &t.cursor
}

// Poll reads every complete line appended since the previous poll.
// Only newline-terminated lines are consumed: an unterminated trailing line is left in place
// (PollResult.Partial) and retried next poll, so a final line that never gets a newline is
// never delivered.
// A missing file is not an error. Stat, open and read failures are returned wrapped in
// errors.ErrSourceIO and are safe to retry on the next poll.
// Poll 读取自上次轮询以来追加的所有完整行。
// 只消费以换行结尾的行；未结束的末尾行保留到下次轮询，永远没有换行的最后一行不会被投递。
// 文件不存在不是错误；stat、open、read 失败会包装为 errors.ErrSourceIO 返回，可在下次轮询重试。
func (t *Tailer) Poll() (PollResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res PollResult

	info, err := os.Stat(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Missing = true
			res.Offset = t.cursor.Offset()
			return res, nil
		}
		return res, pdderrors.NewSourceError(t.path, "stat", err)
	}

	if t.last != nil && !os.SameFile(t.last, info) {
		t.cursor.Reset()
		res.Rotated = true
	}
	t.last = info

	size := info.Size()
	if t.cursor.Reconcile(size) {
		res.Truncated = true
		metrics.Truncations.Inc()
	}

	offset := t.cursor.Offset()
	res.Offset = offset
	if size <= offset {
		return res, nil
	}

	f, err := os.Open(t.path) // #nosec G304 // path is operator configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Missing = true
			return res, nil
		}
		return res, pdderrors.NewSourceError(t.path, "open", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return res, pdderrors.NewSourceError(t.path, "seek", err)
	}

	reader := bufio.NewReaderSize(f, readBufferSize)
	for {
		line, readErr := reader.ReadBytes('\n')
		if n := len(line); n > 0 {
			if line[n-1] == '\n' {
				t.cursor.Advance(int64(n))
				t.handleLine(line, &res)
			} else {
				// The writer has not finished this line; leave it for the next poll.
				res.Partial = true
			}
		}
		if readErr != nil {
			res.Offset = t.cursor.Offset()
			metrics.TailOffset.Set(float64(res.Offset))
			if readErr == io.EOF {
				return res, nil
			}
			return res, pdderrors.NewSourceError(t.path, "read", readErr)
		}
	}
}

func (t *Tailer) handleLine(line []byte, res *PollResult) {
	event, err := ParseLine(line)
	switch {
	case err == nil:
		t.sink.Broadcast(event)
		res.Appended++
	case errors.Is(err, ErrBlankLine):
		res.Blank++
	case errors.Is(err, pdderrors.ErrMalformedLine):
		res.Malformed++
		metrics.MalformedLines.Inc()
	}
}
