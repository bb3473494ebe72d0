package activity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2beens/fitboard/internal/health"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Saturday
var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newTestService(p health.Provider) *Service {
	return NewService(p, time.UTC, func() time.Time { return testNow })
}

func sample(metric health.Metric, ts time.Time, value float64) health.Sample {
	return health.Sample{Metric: metric, Timestamp: ts, Value: value}
}

func workout(id int64, activityType health.ActivityType, start time.Time, d time.Duration) health.Workout {
	return health.Workout{ID: id, ActivityType: activityType, Start: start, End: start.Add(d)}
}

func TestService_Today(t *testing.T) {
	p := health.NewTestProvider()
	yesterday := testNow.AddDate(0, 0, -1)
	p.AddSamples(
		sample(health.MetricActiveEnergy, testNow.Add(-time.Hour), 120.7),
		sample(health.MetricActiveEnergy, testNow.Add(-2*time.Hour), 80),
		sample(health.MetricActiveEnergy, yesterday, 999),
		sample(health.MetricExerciseTime, testNow.Add(-3*time.Hour), 25),
		sample(health.MetricStandHour, testNow.Add(-4*time.Hour), health.StandHourStood),
		sample(health.MetricStandHour, testNow.Add(-3*time.Hour), health.StandHourIdle),
		sample(health.MetricStandHour, testNow.Add(-2*time.Hour), health.StandHourStood),
		sample(health.MetricStandHour, yesterday, health.StandHourStood),
	)

	today, err := newTestService(p).Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, today.CaloriesKcal)
	assert.Equal(t, 25, today.ExerciseMinutes)
	assert.Equal(t, 2, today.StandHours)
	// no steps recorded yet
	assert.Equal(t, 0, today.Steps)
	assert.Empty(t, today.Failed)
}

func TestService_Today_UnusableTotals(t *testing.T) {
	p := health.NewTestProvider()
	p.AddSamples(
		sample(health.MetricActiveEnergy, testNow.Add(-time.Hour), math.NaN()),
		sample(health.MetricExerciseTime, testNow.Add(-time.Hour), -50),
		sample(health.MetricSteps, testNow.Add(-time.Hour), math.Inf(1)),
	)

	today, err := newTestService(p).Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, today.CaloriesKcal)
	assert.Equal(t, 0, today.ExerciseMinutes)
	assert.Equal(t, math.MaxInt32, today.Steps)
	assert.Empty(t, today.Failed)
}

func TestService_Today_PartialFailure(t *testing.T) {
	p := health.NewTestProvider()
	p.AddSamples(sample(health.MetricSteps, testNow.Add(-time.Hour), 4321))
	p.FailAggregate = func(metric health.Metric, _, _ time.Time) error {
		if metric == health.MetricActiveEnergy {
			return health.ErrProviderQuery
		}
		return nil
	}
	p.FailSamples = health.ErrProviderQuery

	today, err := newTestService(p).Today(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, health.ErrProviderQuery))
	assert.Equal(t, []string{"calories", "stand"}, today.Failed)
	assert.Equal(t, 4321, today.Steps)
	assert.Equal(t, 0, today.CaloriesKcal)
}

func TestService_CurrentWeekWorkoutStats(t *testing.T) {
	p := health.NewTestProvider()
	monday := time.Date(2026, 10, 12, 7, 0, 0, 0, time.UTC)
	p.AddWorkouts(
		workout(1, health.ActivityRunning, monday, 30*time.Minute),
		workout(2, health.ActivityRunning, monday.AddDate(0, 0, 2), 45*time.Minute+30*time.Second),
		workout(3, health.ActivityBasketball, monday.AddDate(0, 0, 1), time.Hour),
		workout(4, health.ActivityKickboxing, monday.AddDate(0, 0, 3), 50*time.Minute),
		workout(5, health.ActivityYoga, monday.AddDate(0, 0, 3), 20*time.Minute),
		// last sunday, before the week started
		workout(6, health.ActivitySoccer, monday.Add(-10*time.Hour), 90*time.Minute),
	)

	stats, err := newTestService(p).CurrentWeekWorkoutStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, len(TrackedWeekActivities))

	minutes := make(map[health.ActivityType]int)
	for i, s := range stats {
		assert.Equal(t, TrackedWeekActivities[i], s.ActivityType)
		assert.Equal(t, s.ActivityType.Name(), s.Name)
		minutes[s.ActivityType] = s.Minutes
	}
	assert.Equal(t, 75, minutes[health.ActivityRunning])
	assert.Equal(t, 60, minutes[health.ActivityBasketball])
	assert.Equal(t, 50, minutes[health.ActivityKickboxing])
	assert.Equal(t, 0, minutes[health.ActivitySoccer])
	assert.Equal(t, 0, minutes[health.ActivityStrengthTraining])
	assert.Equal(t, 0, minutes[health.ActivityStairClimbing])
}

func TestService_CurrentWeekWorkoutStats_Error(t *testing.T) {
	p := health.NewTestProvider()
	p.FailWorkouts = health.ErrProviderQuery

	stats, err := newTestService(p).CurrentWeekWorkoutStats(context.Background())
	assert.ErrorIs(t, err, health.ErrProviderQuery)
	assert.Nil(t, stats)
}

func TestService_WorkoutsForMonth(t *testing.T) {
	p := health.NewTestProvider()
	kcal := 310.0
	p.AddWorkouts(
		workout(1, health.ActivityRunning, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), 40*time.Minute),
		workout(2, health.ActivityCycling, time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC), 95*time.Minute),
		workout(3, health.ActivityRunning, time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC), 10*time.Minute),
		workout(4, health.ActivitySwimming, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), 10*time.Minute),
	)
	w := workout(5, health.ActivityStrengthTraining, time.Date(2026, 10, 7, 12, 0, 0, 0, time.UTC), 61*time.Minute)
	w.EnergyKcal = &kcal
	p.AddWorkouts(w)

	workouts, err := newTestService(p).WorkoutsForMonth(context.Background(), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, workouts, 3)

	assert.Equal(t, int64(2), workouts[0].ID)
	assert.Equal(t, 95, workouts[0].Minutes)
	assert.Equal(t, health.ActivityCycling.Name(), workouts[0].Name)
	assert.Nil(t, workouts[0].EnergyKcal)

	assert.Equal(t, int64(5), workouts[1].ID)
	assert.Equal(t, 61, workouts[1].Minutes)
	require.NotNil(t, workouts[1].EnergyKcal)
	assert.Equal(t, 310.0, *workouts[1].EnergyKcal)

	assert.Equal(t, int64(1), workouts[2].ID)
}
