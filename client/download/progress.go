package download

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// progressInterval is the minimum time between two progress records.
const progressInterval = time.Second

// progressLogger counts bytes written through it and reports them to
// logger. The final record is emitted once total bytes were seen.
type progressLogger struct {
	ctx    context.Context
	dst    io.Writer
	logger *slog.Logger
	path   string
	total  int64

	written  int64
	started  time.Time
	reported time.Time
}

func newProgressLogger(ctx context.Context, dst io.Writer, logger *slog.Logger, path string, total int64) *progressLogger {
	return &progressLogger{ctx: ctx, dst: dst, logger: logger, path: path, total: total, started: time.Now()}
}

func (p *progressLogger) Write(b []byte) (int, error) {
	n, err := p.dst.Write(b)
	p.written += int64(n)

	switch {
	case p.total > 0 && p.written == p.total:
		p.report("download finished")
	case time.Since(p.reported) >= progressInterval:
		p.report("download progress")
	}

	return n, err
}

func (p *progressLogger) report(msg string) {
	p.reported = time.Now()
	elapsed := p.reported.Sub(p.started)

	attrs := []slog.Attr{
		slog.String("path", p.path),
		slog.Int64("bytes", p.written),
		slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
	}
	// Unknown lengths are reported as -1 and have no percentage.
	if p.total > 0 {
		attrs = append(attrs,
			slog.Int64("total", p.total),
			slog.Float64("percent", float64(p.written*1000/p.total)/10),
		)
	}
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, slog.Float64("kib_per_sec", float64(p.written)/1024/secs))
	}

	p.logger.LogAttrs(p.ctx, slog.LevelInfo, msg, attrs...)
}
