package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/fitboard/internal/calendar"
	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg/fanout"

	"go.opentelemetry.io/otel/attribute"
)

// Today sums up the activity of the current day. A value that failed to load is
// reported as 0 and listed in Failed.
type Today struct {
	CaloriesKcal    int      `json:"caloriesKcal"`
	ExerciseMinutes int      `json:"exerciseMinutes"`
	StandHours      int      `json:"standHours"`
	Steps           int      `json:"steps"`
	Failed          []string `json:"failed,omitempty"`
}

// WeekActivity is the time spent on one activity type since Monday.
type WeekActivity struct {
	ActivityType health.ActivityType `json:"activityType"`
	Name         string              `json:"name"`
	Minutes      int                 `json:"minutes"`
}

// WorkoutSummary is a workout as listed on the home screen.
type WorkoutSummary struct {
	ID           int64               `json:"id"`
	ActivityType health.ActivityType `json:"activityType"`
	Name         string              `json:"name"`
	Start        time.Time           `json:"start"`
	Minutes      int                 `json:"minutes"`
	EnergyKcal   *float64            `json:"energyKcal,omitempty"`
}

// TrackedWeekActivities are the activity types of the weekly overview, in display order.
var TrackedWeekActivities = []health.ActivityType{
	health.ActivityRunning,
	health.ActivityStrengthTraining,
	health.ActivitySoccer,
	health.ActivityBasketball,
	health.ActivityStairClimbing,
	health.ActivityKickboxing,
}

// todayParts names the values of Today in query order.
var todayParts = []string{"calories", "exercise", "stand", "steps"}

type Service struct {
	provider health.Provider
	loc      *time.Location
	now      func() time.Time
}

func NewService(provider health.Provider, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		provider: provider,
		loc:      loc,
		now:      now,
	}
}

// Today loads calories, exercise time, stand hours and steps of today concurrently.
// The error joins the failed parts, every part that loaded is still set.
func (s *Service) Today(ctx context.Context) (_ *Today, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.today")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	start := calendar.StartOfDay(s.now(), s.loc)
	end := start.AddDate(0, 0, 1)

	total := func(metric health.Metric) fanout.Task[int] {
		return func(ctx context.Context) (int, error) {
			v, err := s.provider.QueryAggregateTotal(ctx, metric, start, end)
			if err != nil {
				return 0, fmt.Errorf("%s today: %w", metric, err)
			}
			return health.Count(v), nil
		}
	}
	standHours := func(ctx context.Context) (int, error) {
		samples, err := s.provider.QueryCategorySamples(ctx, health.MetricStandHour, start, end)
		if err != nil {
			return 0, fmt.Errorf("%s today: %w", health.MetricStandHour, err)
		}
		stood := 0
		for _, sample := range samples {
			if sample.Value == health.StandHourStood {
				stood++
			}
		}
		return stood, nil
	}

	results := fanout.All(ctx,
		total(health.MetricActiveEnergy),
		total(health.MetricExerciseTime),
		standHours,
		total(health.MetricSteps),
	)

	today := &Today{
		CaloriesKcal:    results[0].Value,
		ExerciseMinutes: results[1].Value,
		StandHours:      results[2].Value,
		Steps:           results[3].Value,
	}
	for i, res := range results {
		if !res.OK() {
			today.Failed = append(today.Failed, todayParts[i])
		}
	}

	return today, fanout.Errors(results)
}

// CurrentWeekWorkoutStats returns the minutes of each tracked activity type since Monday.
func (s *Service) CurrentWeekWorkoutStats(ctx context.Context) (_ []WeekActivity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.week")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := s.now()
	workouts, err := s.provider.QueryWorkouts(ctx, calendar.StartOfWeek(now, s.loc), now)
	if err != nil {
		return nil, fmt.Errorf("week workouts: %w", err)
	}
	span.SetAttributes(attribute.Int("workouts", len(workouts)))

	minutes := make(map[health.ActivityType]time.Duration)
	for _, w := range workouts {
		minutes[w.ActivityType] += w.Duration()
	}

	stats := make([]WeekActivity, 0, len(TrackedWeekActivities))
	for _, activityType := range TrackedWeekActivities {
		stats = append(stats, WeekActivity{
			ActivityType: activityType,
			Name:         activityType.Name(),
			Minutes:      int(minutes[activityType] / time.Minute),
		})
	}
	return stats, nil
}

// WorkoutsForMonth lists the workouts started in the calendar month of month, newest first.
func (s *Service) WorkoutsForMonth(ctx context.Context, month time.Time) (_ []WorkoutSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.month")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	start := calendar.StartOfMonth(month, s.loc)
	workouts, err := s.provider.QueryWorkouts(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("workouts of %s: %w", start.Format("2006-01"), err)
	}

	summaries := make([]WorkoutSummary, 0, len(workouts))
	for _, w := range workouts {
		summaries = append(summaries, WorkoutSummary{
			ID:           w.ID,
			ActivityType: w.ActivityType,
			Name:         w.ActivityType.Name(),
			Start:        w.Start,
			Minutes:      w.Minutes(),
			EnergyKcal:   w.EnergyKcal,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Start.After(summaries[j].Start)
	})
	return summaries, nil
}
