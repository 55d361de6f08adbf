package eventstore

import (
	"context"
	"errors"
	"io"

	"github.com/livp123/pddash/internal/metrics"
	pdderrors "github.com/livp123/pddash/pkg/errors"
	"github.com/nxadm/tail"
	"go.uber.org/zap"
)

// Follower streams the source log with nxadm/tail instead of interval polling.
// It resumes from the Tailer's cursor, so the startup load is not replayed.
// Rotation and truncation are handled by tail's ReOpen logic.
// Follower 使用 nxadm/tail 跟随源日志，替代定时轮询。
type Follower struct {
	tailer  *Tailer
	usePoll bool
	logger  *zap.SugaredLogger
}

// NewFollower creates a follower sharing path, cursor and sink with tailer.
// usePoll selects stat polling instead of inotify.
// NewFollower 创建与 tailer 共享路径、游标和接收端的跟随器。
func NewFollower(tailer *Tailer, usePoll bool, logger *zap.SugaredLogger) *Follower {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Follower{tailer: tailer, usePoll: usePoll, logger: logger}
}

// Run follows the file until ctx is cancelled.
// Run 跟随文件直到 ctx 被取消。
func (f *Follower) Run(ctx context.Context) error {
	path := f.tailer.Path()
	cursor := f.tailer.Cursor()

	cfg := tail.Config{
		Location:  &tail.SeekInfo{Offset: cursor.Offset(), Whence: io.SeekStart},
		Follow:    true,
		ReOpen:    true, // Handle log rotation
		MustExist: false,
		Poll:      f.usePoll,
		Logger:    tail.DiscardingLogger,
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return pdderrors.NewSourceError(path, "tail", err)
	}
	defer t.Cleanup()

	f.logger.Infof("Following %s from offset %d (poll=%v)", path, cursor.Offset(), f.usePoll)

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil

		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Err(); err != nil {
					return pdderrors.NewSourceError(path, "follow", err)
				}
				return nil
			}
			if line.Err != nil {
				metrics.PollErrors.Inc()
				f.logger.Debugf("Error reading %s: %v", path, line.Err)
				continue
			}

			event, err := ParseLine([]byte(line.Text))
			switch {
			case err == nil:
				f.tailer.sink.Broadcast(event)
			case errors.Is(err, pdderrors.ErrMalformedLine):
				metrics.MalformedLines.Inc()
			}

			if pos, err := t.Tell(); err == nil {
				cursor.Set(pos)
				metrics.TailOffset.Set(float64(pos))
			}
		}
	}
}
