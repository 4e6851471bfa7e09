package concurrent

import (
	"context"
	"sync"
	"time"

	"histotrek/pkg/logger"
	"histotrek/pkg/metrics"
)

// PoolSource is what the collector samples; *database.ConnectionManager
// satisfies it.
type PoolSource interface {
	Size() int
	InUse() int
	GetStats() map[string]interface{}
}

type Stats struct {
	Samples   int64
	Size      int
	InUse     int
	PeakInUse int
	LastAt    time.Time
}

type StatsCollector struct {
	source   PoolSource
	interval time.Duration
	logger   logger.Logger

	mutex sync.RWMutex
	stats Stats
}

func NewStatsCollector(source PoolSource, interval time.Duration, logger logger.Logger) *StatsCollector {
	return &StatsCollector{
		source:   source,
		interval: interval,
		logger:   logger.WithFields(map[string]interface{}{"component": "stats_collector"}),
	}
}

// Sample records the pool's current occupancy and pushes it to the gauges.
func (sc *StatsCollector) Sample() Stats {
	size, inUse := sc.source.Size(), sc.source.InUse()
	metrics.UpdatePoolStats(size, inUse)

	sc.mutex.Lock()
	sc.stats.Samples++
	sc.stats.Size = size
	sc.stats.InUse = inUse
	if inUse > sc.stats.PeakInUse {
		sc.stats.PeakInUse = inUse
	}
	sc.stats.LastAt = time.Now()
	stats := sc.stats
	sc.mutex.Unlock()

	return stats
}

// Run samples every interval until ctx is done.
func (sc *StatsCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sc.Sample()
			fields := sc.source.GetStats()
			fields["peak_in_use"] = stats.PeakInUse
			sc.logger.Debug("Pool stats", fields)
		}
	}
}

func (sc *StatsCollector) GetStats() Stats {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.stats
}

func (sc *StatsCollector) Reset() {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	sc.stats = Stats{}
}
