package aggregation

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrDashboardClosed = errors.New("dashboard closed")

type chartsRefresher interface {
	RefreshAll(ctx context.Context) (*Charts, error)
}

// Dashboard is the observable charts state of one session.
// Only the latest refresh publishes, and nothing publishes after Close.
type Dashboard struct {
	engine chartsRefresher

	mu        sync.Mutex
	started   uint64
	published uint64
	closed    bool
	charts    Charts
	lastErr   error
}

func NewDashboard(engine chartsRefresher) *Dashboard {
	return &Dashboard{
		engine: engine,
	}
}

// Refresh reloads all charts and publishes the series that loaded.
// It returns the refresh failure, or ErrDashboardClosed when the dashboard was closed meanwhile.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDashboardClosed
	}
	d.started++
	generation := d.started
	d.mu.Unlock()

	charts, err := d.engine.RefreshAll(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Debugf("dashboard: refresh %d completed after close, dropped", generation)
		return ErrDashboardClosed
	}
	if generation < d.published {
		log.Debugf("dashboard: refresh %d superseded by %d, dropped", generation, d.published)
		return err
	}

	d.published = generation
	if charts != nil {
		d.charts = *charts
	}
	d.lastErr = err
	return err
}

// Snapshot returns the last published charts.
func (d *Dashboard) Snapshot() Charts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.charts
}

// Failed reports whether the last published refresh had failures.
func (d *Dashboard) Failed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr != nil
}

func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
