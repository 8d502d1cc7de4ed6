// Package poller periodically fetches status from the per-device probe
// endpoints on the inspection host and feeds the readings into the state
// store through the same validation path the HTTP API uses.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"visionix/internal/config"
	"visionix/internal/state"
)

// Target is one device probe endpoint and the status field it reports.
type Target struct {
	Name  string
	URL   string
	Field string
}

// TargetsFromConfig builds the poll targets for the configured devices.
func TargetsFromConfig(devices map[string]config.DeviceTarget) []Target {
	targets := make([]Target, 0, len(devices))
	for _, name := range config.DeviceNames {
		dev, ok := devices[name]
		if !ok {
			continue
		}
		targets = append(targets, Target{
			Name:  name,
			URL:   fmt.Sprintf("http://%s:%d/status", dev.Host, dev.Port),
			Field: config.DeviceField[name],
		})
	}
	return targets
}

// Poller drives the background collection loop.
type Poller struct {
	store    *state.Store
	logger   *zap.Logger
	client   *http.Client
	targets  []Target
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a poller; interval is the loop cadence and timeout bounds each
// device fetch.
func New(store *state.Store, logger *zap.Logger, targets []Target, interval, timeout time.Duration) *Poller {
	return &Poller{
		store:    store,
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		targets:  targets,
		interval: interval,
	}
}

// Start launches the collection loop. Calling Start on a running poller is
// a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.pollOnce(context.Background())
		for {
			select {
			case <-ticker.C:
				p.pollOnce(context.Background())
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	p.wg.Wait()
}

// pollOnce fans out one fetch per device and applies each reading on its
// own. A device that is down, slow or talking nonsense only costs its own
// field; the other devices' readings still land.
func (p *Poller) pollOnce(ctx context.Context) {
	type reading struct {
		name  string
		field string
		value any
	}
	results := make(chan reading, len(p.targets))

	var wg sync.WaitGroup
	for _, t := range p.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			value, err := p.fetch(ctx, t)
			if err != nil {
				p.logger.Warn("device poll failed",
					zap.String("device", t.Name),
					zap.String("url", t.URL),
					zap.Error(err))
				return
			}
			results <- reading{name: t.Name, field: t.Field, value: value}
		}(t)
	}
	wg.Wait()
	close(results)

	applied := 0
	for r := range results {
		if _, err := p.store.Apply(map[string]any{r.field: r.value}); err != nil {
			p.logger.Warn("device reading rejected",
				zap.String("device", r.name),
				zap.Any("value", r.value),
				zap.Error(err))
			continue
		}
		applied++
	}
	if applied > 0 {
		p.logger.Debug("device poll applied", zap.Int("fields", applied))
	}
}

// fetch reads one device's /status JSON and extracts the expected field.
func (p *Poller) fetch(ctx context.Context, t Target) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	value, ok := data[t.Field]
	if !ok {
		return nil, fmt.Errorf("response missing %s", t.Field)
	}
	return value, nil
}
