package predict

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// healthTTL is how long a probe result stays fresh.
const healthTTL = 30 * time.Second

// Prober is anything whose availability the monitor tracks.
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor caches health probes across named services so chat turns do not
// pay a probe round-trip each time.
type Monitor struct {
	services map[string]Prober
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	checked time.Time
	status  map[string]error
}

// NewMonitor creates a monitor over the given named services.
func NewMonitor(services map[string]Prober) *Monitor {
	return &Monitor{
		services: services,
		ttl:      healthTTL,
		now:      time.Now,
	}
}

// Status returns the health of every service, probing concurrently when the
// cache has expired. The map holds nil for healthy services.
func (m *Monitor) Status(ctx context.Context) map[string]error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != nil && m.now().Sub(m.checked) < m.ttl {
		return m.snapshot()
	}

	status := make(map[string]error, len(m.services))
	var smu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, p := range m.services {
		g.Go(func() error {
			err := p.Health(gctx)
			smu.Lock()
			status[name] = err
			smu.Unlock()
			return nil
		})
	}
	g.Wait()

	m.status = status
	m.checked = m.now()
	return m.snapshot()
}

// Healthy reports whether the named service's last probe succeeded.
func (m *Monitor) Healthy(ctx context.Context, name string) bool {
	return m.Status(ctx)[name] == nil
}

// Invalidate drops the cache so the next Status call probes again.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.status = nil
	m.mu.Unlock()
}

func (m *Monitor) snapshot() map[string]error {
	out := make(map[string]error, len(m.status))
	for k, v := range m.status {
		out[k] = v
	}
	return out
}
