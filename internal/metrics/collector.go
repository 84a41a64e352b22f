package metrics

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/progress"
)

// DefaultInterval is used when a non-positive or sub-second interval is given
const DefaultInterval = 30 * time.Second

// Snapshot holds one sample of system and process metrics
type Snapshot struct {
	CPUPercent        float64 // System-wide CPU usage (0-100%)
	ProcessCPUPercent float64 // Can exceed 100% on multi-core
	ProcessRSS        uint64
	MemoryUsed        uint64
	MemoryPercent     float64
	DiskWriteBps      float64
	Stage             string
	Timestamp         time.Time
}

// Fields returns the snapshot as log fields
func (s *Snapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.String("stage", s.Stage),
		zap.Float64("sys_cpu", s.CPUPercent),
		zap.Float64("proc_cpu", s.ProcessCPUPercent),
		zap.String("rss", progress.FormatBytes(int64(s.ProcessRSS))),
		zap.String("mem_used", progress.FormatBytes(int64(s.MemoryUsed))),
		zap.Float64("mem_pct", s.MemoryPercent),
		zap.String("disk_w", progress.FormatBytes(int64(s.DiskWriteBps))+"/s"),
	}
}

// Collector periodically samples and logs system metrics
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	proc     *process.Process

	mu         sync.RWMutex
	stage      string
	lastWrite  uint64
	lastSample time.Time
	last       *Snapshot
}

// NewCollector creates a new metrics collector
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = DefaultInterval
	}
	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}
}

// SetStage labels subsequent samples with the running pipeline stage
func (c *Collector) SetStage(stage string) {
	c.mu.Lock()
	c.stage = stage
	c.mu.Unlock()
}

// Start samples until ctx is cancelled
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// First sample sets the disk baseline
	c.Collect()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.logger.Info("System metrics", c.Collect().Fields()...)
		}
	}
}

// Last returns the most recent snapshot, or nil before the first sample
func (c *Collector) Last() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Collect takes one sample
func (c *Collector) Collect() *Snapshot {
	s := &Snapshot{Timestamp: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			s.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSS = info.RSS
		}
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		s.MemoryUsed = vmem.Used
		s.MemoryPercent = vmem.UsedPercent
	}

	written := diskWriteBytes()

	c.mu.Lock()
	defer c.mu.Unlock()
	s.Stage = c.stage
	if !c.lastSample.IsZero() && written >= c.lastWrite {
		if elapsed := s.Timestamp.Sub(c.lastSample).Seconds(); elapsed > 0.1 {
			s.DiskWriteBps = float64(written-c.lastWrite) / elapsed
		}
	}
	c.lastWrite = written
	c.lastSample = s.Timestamp
	c.last = s
	return s
}

func diskWriteBytes() uint64 {
	counters, err := disk.IOCounters()
	if err != nil {
		return 0
	}
	var total uint64
	for _, counter := range counters {
		total += counter.WriteBytes
	}
	return total
}
