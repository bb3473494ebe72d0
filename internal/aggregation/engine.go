package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/fitboard/internal/calendar"
	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/internal/telemetry/metrics"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg/fanout"

	"go.opentelemetry.io/otel/attribute"
)

// Charts holds the step series of every window preset. A nil series failed to load.
type Charts struct {
	Week        *Series[DailyPoint]   `json:"week,omitempty"`
	Month       *Series[DailyPoint]   `json:"month,omitempty"`
	ThreeMonths *Series[DailyPoint]   `json:"threeMonths,omitempty"`
	YearToDate  *Series[MonthlyPoint] `json:"yearToDate,omitempty"`
	OneYear     *Series[MonthlyPoint] `json:"oneYear,omitempty"`
}

// Engine turns the raw samples of one device into chart series.
type Engine struct {
	provider       health.Provider
	loc            *time.Location
	now            func() time.Time
	metricsManager *metrics.Manager
}

type EngineOption func(*Engine)

func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		e.loc = loc
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithMetrics(metricsManager *metrics.Manager) EngineOption {
	return func(e *Engine) {
		e.metricsManager = metricsManager
	}
}

func NewEngine(provider health.Provider, opts ...EngineOption) *Engine {
	e := &Engine{
		provider: provider,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DailySteps returns the daily step series of a daily preset, today being the last point.
// All samples come from one provider query, so its failure fails the whole series.
func (e *Engine) DailySteps(ctx context.Context, preset Preset) (_ *Series[DailyPoint], err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.charts.daily")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("preset", preset.String()))

	if !preset.IsDaily() {
		return nil, fmt.Errorf("%w: %s is not a daily preset", ErrUnknownPreset, preset)
	}

	now := e.now()
	end := calendar.StartOfDay(now, e.loc).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -preset.Days())

	samples, err := e.provider.QueryCategorySamples(ctx, health.MetricSteps, start, end)
	if err != nil {
		return nil, fmt.Errorf("query %s steps: %w", preset, err)
	}

	series := BuildDailySeries(samples, start, end, e.loc)
	return &series, nil
}

// YearToDateAndOneYear derives both monthly series from a single 12 month sweep.
func (e *Engine) YearToDateAndOneYear(ctx context.Context) (ytd, oneYear *Series[MonthlyPoint], err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.charts.monthly")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := e.now()
	sweep, degraded := BuildMonthlySeries(ctx, e.provider, health.MetricSteps, monthsInSweep, now, e.loc)
	span.SetAttributes(attribute.Int("degraded", degraded))
	if degraded > 0 && e.metricsManager != nil {
		e.metricsManager.CounterDegradedBuckets.Add(float64(degraded))
	}
	// an abandoned sweep degrades every month, do not pass that on as data
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("monthly sweep: %w", err)
	}

	ytdSeries := YearToDate(sweep, now)
	oneYearSeries := newSeries(sweep.Points, Summary{
		Total:   sweep.Total,
		Average: sweep.Total / monthsInSweep,
	})
	return &ytdSeries, &oneYearSeries, nil
}

// RefreshAll loads the week, month, three months and the monthly series concurrently.
// Charts always holds every series that loaded, err joins the failures of the rest.
func (e *Engine) RefreshAll(ctx context.Context) (_ *Charts, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.charts.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	begin := time.Now()
	daily := func(preset Preset, set func(*Charts, *Series[DailyPoint])) fanout.Task[func(*Charts)] {
		return func(ctx context.Context) (func(*Charts), error) {
			series, err := e.DailySteps(ctx, preset)
			if err != nil {
				return nil, err
			}
			return func(c *Charts) { set(c, series) }, nil
		}
	}

	results := fanout.All[func(*Charts)](ctx,
		daily(PresetWeek, func(c *Charts, s *Series[DailyPoint]) { c.Week = s }),
		daily(PresetMonth, func(c *Charts, s *Series[DailyPoint]) { c.Month = s }),
		daily(PresetThreeMonths, func(c *Charts, s *Series[DailyPoint]) { c.ThreeMonths = s }),
		func(ctx context.Context) (func(*Charts), error) {
			ytd, oneYear, err := e.YearToDateAndOneYear(ctx)
			if err != nil {
				return nil, err
			}
			return func(c *Charts) {
				c.YearToDate = ytd
				c.OneYear = oneYear
			}, nil
		},
	)

	charts := &Charts{}
	for _, res := range results {
		if res.OK() {
			res.Value(charts)
		}
	}
	err = fanout.Errors(results)

	if e.metricsManager != nil {
		e.metricsManager.CounterChartRefreshes.WithLabelValues(metrics.Outcome(err)).Inc()
		e.metricsManager.HistChartsRefreshDuration.Observe(time.Since(begin).Seconds())
	}

	return charts, err
}

// CurrentWeekSteps is the step total since Monday 00:00 of the current week.
// The window is closed at the end of today, there are no samples from the future.
func (e *Engine) CurrentWeekSteps(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.steps.week")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := e.now()
	start := calendar.StartOfWeek(now, e.loc)
	end := calendar.StartOfDay(now, e.loc).AddDate(0, 0, 1)
	total, err := e.provider.QueryAggregateTotal(ctx, health.MetricSteps, start, end)
	if err != nil {
		return 0, fmt.Errorf("query week steps: %w", err)
	}
	return health.Count(total), nil
}
