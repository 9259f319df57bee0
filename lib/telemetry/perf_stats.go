package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("nesdc.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var rssGauge, _ = meter.Int64Gauge("rss_mb")
var liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// PerfStats is one sample of process resource usage.
type PerfStats struct {
	CpuPercent  float64
	AllocatedMb int64
	RssMb       int64
	LiveObjects int64
	Goroutines  int64
}

// SamplePerfStats measures cpu usage over `window`, a zero window compares
// against the previous call.
func SamplePerfStats(ctx context.Context, window time.Duration) (PerfStats, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := PerfStats{
		AllocatedMb: int64(memStats.Alloc / 1_000_000),
		LiveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err == nil {
		mem, err := proc.MemoryInfoWithContext(ctx)
		if err == nil {
			stats.RssMb = int64(mem.RSS / 1_000_000)
		}
	}

	cpuUsage, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return stats, err
	}
	if len(cpuUsage) > 0 {
		stats.CpuPercent = cpuUsage[0]
	}
	return stats, nil
}

// InstrumentPerfStats records process perf stats to the global meter every
// 30 seconds until ctx is done.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second * 30)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats, err := SamplePerfStats(ctx, time.Second*10)
				if err != nil {
					slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
				} else {
					cpuGauge.Record(ctx, stats.CpuPercent)
				}
				memoryGauge.Record(ctx, stats.AllocatedMb)
				rssGauge.Record(ctx, stats.RssMb)
				liveObjectsGauge.Record(ctx, stats.LiveObjects)
				goroutineGauge.Record(ctx, stats.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
