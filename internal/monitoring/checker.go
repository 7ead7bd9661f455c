package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/trip-export/internal/config"
)

const defaultCheckInterval = 5 * time.Minute

// Checker re-evaluates the export archive on an interval and notifies the
// webhook when an alert condition starts. A condition that holds across
// checks is delivered once and again only after it has cleared.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	lookback  int
	interval  time.Duration

	mu     sync.Mutex
	firing map[AlertType]bool
}

// NewChecker creates a Checker reading the archive through collector.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	interval := time.Duration(cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		lookback:  cfg.LookbackWindowHours,
		interval:  interval,
		firing:    make(map[AlertType]bool),
	}
}

// Run checks the archive every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().Named("export-alerts")
	log.Info("watching export archive",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped watching export archive")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check evaluates the archive once and returns how many newly started
// alerts were delivered. Undelivered alerts stay eligible for the next check.
func (c *Checker) Check(ctx context.Context) int {
	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		zap.L().Error("monitoring: collect export snapshot", zap.Error(err))
		return 0
	}

	fresh := c.started(c.alerter.Evaluate(snap))
	zap.L().Debug("monitoring: export archive checked",
		zap.Int("published", snap.Published),
		zap.Int("failed", snap.Failed),
		zap.Float64("fail_rate", snap.FailRate),
		zap.Int("new_alerts", len(fresh)),
	)

	sent := 0
	for _, alert := range fresh {
		if c.alerter.SendAlerts(ctx, []Alert{alert}) == 0 {
			continue
		}
		c.mu.Lock()
		c.firing[alert.Type] = true
		c.mu.Unlock()
		sent++
	}
	return sent
}

// started forgets conditions that cleared and returns the alerts that are
// not already firing.
func (c *Checker) started(alerts []Alert) []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := make(map[AlertType]bool, len(alerts))
	var fresh []Alert
	for _, a := range alerts {
		current[a.Type] = true
		if !c.firing[a.Type] {
			fresh = append(fresh, a)
		}
	}
	for t := range c.firing {
		if !current[t] {
			delete(c.firing, t)
		}
	}
	return fresh
}
