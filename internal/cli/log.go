package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autotag/pkg/pipeline"
)

// newLogger writes to w with "HH:MM:SS.ms" timestamps, dropping messages
// below level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// runLog reports the apply phase of one run. Every line carries the run ID.
type runLog struct {
	logger *log.Logger
	stats  pipeline.Stats
	start  time.Time
}

// newRunLog starts timing the application of res.
func newRunLog(l *log.Logger, res *pipeline.Result) *runLog {
	return &runLog{
		logger: l.With("run", res.RunID.String()),
		stats:  res.Stats,
		start:  time.Now(),
	}
}

// applied logs e.g. "Applied 42 tags (12ms)" with the run's element and
// placement counts.
func (r *runLog) applied(report *pipeline.ApplyReport) {
	r.logger.Infof("Applied %d tags (%s)", report.Placed(), time.Since(r.start).Round(time.Millisecond))
	r.logger.Debug("run counts", "elements", r.stats.Elements, "placed", r.stats.Placed, "skipped", r.stats.Skipped())
}

// rolledBack logs a failed apply; nothing from the run was committed.
func (r *runLog) rolledBack(err error) {
	r.logger.Error("transaction rolled back", "elements", r.stats.Elements, "placed", 0, "error", err)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger the root command attached, falling
// back to log.Default() outside a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}
