package progress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Counter tracks encoded cells of one tile layer. A finished cell is either
// written or skipped as empty.
type Counter struct {
	total   int64
	written atomic.Int64
	skipped atomic.Int64
	start   time.Time
}

// NewCounter creates a counter expecting total cells
func NewCounter(total int64) *Counter {
	return &Counter{total: total, start: time.Now()}
}

// Written records one written tile
func (c *Counter) Written() {
	c.written.Add(1)
}

// Skipped records one cell that encoded to an empty tile
func (c *Counter) Skipped() {
	c.skipped.Add(1)
}

// SkippedCount returns the number of skipped cells so far
func (c *Counter) SkippedCount() int {
	return int(c.skipped.Load())
}

// Snapshot is a point-in-time view of a Counter
type Snapshot struct {
	Written int64
	Skipped int64
	Total   int64
	Percent float64
	Elapsed time.Duration
	ETA     time.Duration
	Rate    float64 // cells per second
}

// Done returns the number of finished cells
func (s Snapshot) Done() int64 {
	return s.Written + s.Skipped
}

// Snapshot returns current counts, rate and ETA
func (c *Counter) Snapshot() Snapshot {
	s := Snapshot{
		Written: c.written.Load(),
		Skipped: c.skipped.Load(),
		Total:   c.total,
		Elapsed: time.Since(c.start),
	}
	done := s.Done()
	if secs := s.Elapsed.Seconds(); secs > 0 {
		s.Rate = float64(done) / secs
	}
	if s.Total > 0 {
		s.Percent = float64(done) / float64(s.Total) * 100
		if done < s.Total && s.Rate > 0 {
			s.ETA = time.Duration(float64(s.Total-done) / s.Rate * float64(time.Second))
		}
	}
	return s
}

// Fields renders the snapshot as log fields
func (s Snapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("written", s.Written),
		zap.Int64("skipped", s.Skipped),
		zap.String("pct", fmt.Sprintf("%.1f%%", s.Percent)),
		zap.String("rate", FormatThroughput(s.Rate)),
		zap.String("eta", FormatETA(s.ETA)),
	}
}

// Every calls fn each interval until ctx is done. It blocks.
func Every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// FormatETA formats a remaining duration; zero means not yet known
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatThroughput formats a per-second rate with K/M suffixes
func FormatThroughput(perSec float64) string {
	switch {
	case perSec >= 1e6:
		return fmt.Sprintf("%.1fM/s", perSec/1e6)
	case perSec >= 1e3:
		return fmt.Sprintf("%.1fK/s", perSec/1e3)
	default:
		return fmt.Sprintf("%.0f/s", perSec)
	}
}

// FormatBytes formats a byte count with binary units
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 2; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}
