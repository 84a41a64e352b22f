package progress

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestFormatETA(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "calculating..."},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + time.Minute + 9*time.Second, "2h 1m 9s"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.d); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatThroughput(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{12, "12/s"},
		{2500, "2.5K/s"},
		{3_200_000, "3.2M/s"},
	}
	for _, tt := range tests {
		if got := FormatThroughput(tt.v); got != tt.want {
			t.Errorf("FormatThroughput(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCounterSnapshot(t *testing.T) {
	c := NewCounter(200)
	for i := 0; i < 60; i++ {
		c.Written()
	}
	for i := 0; i < 40; i++ {
		c.Skipped()
	}

	got := c.Snapshot()
	if got.Written != 60 || got.Skipped != 40 || got.Total != 200 {
		t.Errorf("Snapshot() = %+v", got)
	}
	if got.Done() != 100 {
		t.Errorf("Done() = %d, want 100", got.Done())
	}
	if got.Percent != 50 {
		t.Errorf("Percent = %f, want 50", got.Percent)
	}
	if c.SkippedCount() != 40 {
		t.Errorf("SkippedCount() = %d, want 40", c.SkippedCount())
	}
	if len(got.Fields()) != 5 {
		t.Errorf("Fields() returned %d fields", len(got.Fields()))
	}
}

func TestEveryStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		Every(ctx, time.Millisecond, func() { calls.Add(1) })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
	if calls.Load() == 0 {
		t.Error("callback never fired")
	}
}
