// Package cleanup provides the background cache eviction worker
package cleanup

import (
	"context"
	"time"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/interfaces"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

// Config controls the cleanup cadence.
type Config struct {
	Interval         time.Duration
	VerboseReporting bool
}

// Worker periodically evicts expired cache entries.
type Worker struct {
	cache  interfaces.Cleaner
	config *Config
	logger *logging.ChanneledLogger
}

func NewWorker(cache interfaces.Cleaner, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{cache: cache, config: config, logger: logger}
}

// Start blocks until ctx is cancelled, sweeping at the configured interval.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started", "interval", w.config.Interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.performCleanup()
		}
	}
}

func (w *Worker) performCleanup() {
	start := time.Now()
	stats := w.cache.Cleanup()

	var totalEvicted int
	for _, s := range stats {
		totalEvicted += s.Evicted
		if w.config.VerboseReporting {
			w.logger.Cache().Debug("Store cleanup", "store", s.Name, "entries", s.Entries, "evicted", s.Evicted)
		}
	}

	if totalEvicted > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "evicted", totalEvicted, "duration", time.Since(start))
	} else if w.config.VerboseReporting {
		w.logger.Cache().Debug("Cache cleanup completed, no expired items", "duration", time.Since(start))
	}
}
