package health

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	// ErrProviderQuery wraps every failure of the underlying health data source,
	// including denied authorization.
	ErrProviderQuery = errors.New("health provider query failed")
	ErrNotAuthorized = errors.New("metric not authorized")
	ErrUnknownMetric = errors.New("unknown metric")
)

// Metric is a health data type a device can record and share.
type Metric string

const (
	MetricSteps        Metric = "steps"
	MetricActiveEnergy Metric = "active_energy" // kcal
	MetricExerciseTime Metric = "exercise_time" // minutes
	MetricStandHour    Metric = "stand_hour"    // category sample, 0 = stood, 1 = idle
	MetricWorkouts     Metric = "workouts"
)

// AllMetrics lists the metrics the app reads.
var AllMetrics = []Metric{
	MetricSteps,
	MetricActiveEnergy,
	MetricExerciseTime,
	MetricStandHour,
	MetricWorkouts,
}

func (m Metric) String() string {
	return string(m)
}

func (m Metric) IsValid() bool {
	switch m {
	case MetricSteps,
		MetricActiveEnergy,
		MetricExerciseTime,
		MetricStandHour,
		MetricWorkouts:
		return true
	default:
		return false
	}
}

// IsQuantity reports whether samples of the metric are summed (as opposed to counted).
func (m Metric) IsQuantity() bool {
	return m == MetricSteps || m == MetricActiveEnergy || m == MetricExerciseTime
}

const (
	StandHourStood = 0
	StandHourIdle  = 1
)

type Sample struct {
	Metric    Metric    `json:"metric"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Provider is the source of raw health data for one device.
// No data in a range is not an error: totals are 0 and sample lists are empty.
type Provider interface {
	QueryAggregateTotal(ctx context.Context, metric Metric, start, end time.Time) (float64, error)
	QueryCategorySamples(ctx context.Context, metric Metric, start, end time.Time) ([]Sample, error)
	QueryAuthorization(ctx context.Context, metrics []Metric) error
	QueryWorkouts(ctx context.Context, start, end time.Time) ([]Workout, error)
}

// Count truncates a summed sample value to a non-negative integer count.
// NaN and negative totals are 0, huge ones saturate.
func Count(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
