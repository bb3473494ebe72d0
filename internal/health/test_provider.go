package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

var _ Provider = (*TestProvider)(nil)

// TestProvider is an in-memory Provider used in tests and local development.
type TestProvider struct {
	mu         sync.Mutex
	samples    []Sample
	workouts   []Workout
	authorized map[Metric]bool

	// FailAggregate, if set, decides whether an aggregate query should fail
	FailAggregate func(metric Metric, start, end time.Time) error
	// FailSamples, if set, is returned by every samples query
	FailSamples  error
	FailWorkouts error

	aggregateCalls int
	samplesCalls   int
}

func NewTestProvider() *TestProvider {
	return &TestProvider{
		authorized: make(map[Metric]bool),
	}
}

func (p *TestProvider) AddSamples(samples ...Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, samples...)
}

func (p *TestProvider) AddWorkouts(workouts ...Workout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workouts = append(p.workouts, workouts...)
}

func (p *TestProvider) Authorize(metrics ...Metric) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range metrics {
		p.authorized[m] = true
	}
}

func (p *TestProvider) AggregateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aggregateCalls
}

func (p *TestProvider) SamplesCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samplesCalls
}

func (p *TestProvider) QueryAggregateTotal(_ context.Context, metric Metric, start, end time.Time) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aggregateCalls++

	if p.FailAggregate != nil {
		if err := p.FailAggregate(metric, start, end); err != nil {
			return 0, err
		}
	}

	var total float64
	for _, s := range p.samples {
		if s.Metric == metric && inRange(s.Timestamp, start, end) {
			total += s.Value
		}
	}
	return total, nil
}

func (p *TestProvider) QueryCategorySamples(_ context.Context, metric Metric, start, end time.Time) ([]Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samplesCalls++

	if p.FailSamples != nil {
		return nil, p.FailSamples
	}

	samples := make([]Sample, 0)
	for _, s := range p.samples {
		if s.Metric == metric && inRange(s.Timestamp, start, end) {
			samples = append(samples, s)
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	return samples, nil
}

func (p *TestProvider) QueryAuthorization(_ context.Context, metrics []Metric) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range metrics {
		if !m.IsValid() {
			return fmt.Errorf("%w: %w: %s", ErrProviderQuery, ErrUnknownMetric, m)
		}
		if !p.authorized[m] {
			return fmt.Errorf("%w: %w: %s", ErrProviderQuery, ErrNotAuthorized, m)
		}
	}
	return nil
}

func (p *TestProvider) QueryWorkouts(_ context.Context, start, end time.Time) ([]Workout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailWorkouts != nil {
		return nil, p.FailWorkouts
	}

	workouts := make([]Workout, 0)
	for _, w := range p.workouts {
		if inRange(w.Start, start, end) {
			workouts = append(workouts, w)
		}
	}
	sort.SliceStable(workouts, func(i, j int) bool {
		return workouts[i].Start.After(workouts[j].Start)
	})
	return workouts, nil
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}
