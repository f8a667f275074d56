// Package status keeps the last known network status in memory and refreshes
// it on a fixed schedule.
package status

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

var refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hederaops_status_refresh_total",
	Help: "Network status refresh attempts, labeled by result",
}, []string{"result"})

// Fetcher reads the live network status.
type Fetcher func(ctx context.Context) (domain.NetworkStatusSnapshot, error)

// Cache holds a single snapshot. Reads never block on a refresh; a failed
// refresh keeps the previous snapshot.
type Cache struct {
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	current atomic.Pointer[domain.NetworkStatusSnapshot]

	mu        sync.Mutex
	scheduler *cron.Cron
	wg        sync.WaitGroup
}

func NewCache(fetch Fetcher, interval time.Duration, log *zap.Logger) *Cache {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Cache{
		fetch:    fetch,
		interval: interval,
		timeout:  time.Minute,
		log:      log.Named("status"),
	}
}

// Get returns the cached snapshot, or domain.UnavailableSnapshot before the
// first successful refresh.
func (c *Cache) Get() domain.NetworkStatusSnapshot {
	if s := c.current.Load(); s != nil {
		return *s
	}
	return domain.UnavailableSnapshot
}

// Refresh fetches and installs a new snapshot. When refreshes overlap, a
// snapshot captured before the current one is dropped and the current one
// is returned.
func (c *Cache) Refresh(ctx context.Context) (domain.NetworkStatusSnapshot, error) {
	snap, err := c.fetch(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("failure").Inc()
		c.log.Warn("network status refresh failed, keeping previous snapshot", zap.Error(err))
		return c.Get(), fmt.Errorf("refresh network status: %w", err)
	}
	if !c.install(&snap) {
		refreshTotal.WithLabelValues("stale").Inc()
		c.log.Debug("dropping stale network status", zap.Time("captured_at", snap.CapturedAt))
		return c.Get(), nil
	}
	refreshTotal.WithLabelValues("success").Inc()
	c.log.Debug("network status refreshed",
		zap.String("services_version", snap.ServicesVersion.String()),
		zap.Time("captured_at", snap.CapturedAt))
	return snap, nil
}

// install stores snap unless a newer snapshot is already in place.
func (c *Cache) install(snap *domain.NetworkStatusSnapshot) bool {
	for {
		cur := c.current.Load()
		if cur != nil && snap.CapturedAt.Before(cur.CapturedAt) {
			return false
		}
		if c.current.CompareAndSwap(cur, snap) {
			return true
		}
	}
}

// refreshDetached runs a scheduled refresh that no request can cancel.
func (c *Cache) refreshDetached() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_, _ = c.Refresh(ctx)
}

// Start triggers an initial refresh in the background and schedules the
// periodic one.
func (c *Cache) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scheduler != nil {
		return nil
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", c.interval), c.refreshDetached); err != nil {
		return fmt.Errorf("schedule status refresh: %w", err)
	}
	scheduler.Start()
	c.scheduler = scheduler

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.refreshDetached()
	}()
	return nil
}

// Stop cancels the schedule and waits for running refreshes.
func (c *Cache) Stop() {
	c.mu.Lock()
	scheduler := c.scheduler
	c.scheduler = nil
	c.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	c.wg.Wait()
}
