package aggregation

import (
	"context"
	"time"

	"github.com/2beens/fitboard/internal/calendar"
	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/pkg/fanout"

	log "github.com/sirupsen/logrus"
)

// BuildDailySeries buckets samples into one point per calendar day, from the start of
// the day of windowStart until windowEnd (exclusive). Days without samples are 0.
// Samples outside the window and negative values are ignored.
func BuildDailySeries(samples []health.Sample, windowStart, windowEnd time.Time, loc *time.Location) Series[DailyPoint] {
	days := make([]time.Time, 0, 32)
	index := make(map[time.Time]int)
	for day := calendar.StartOfDay(windowStart, loc); day.Before(windowEnd); day = day.AddDate(0, 0, 1) {
		index[day] = len(days)
		days = append(days, day)
	}

	sums := make([]float64, len(days))
	for _, s := range samples {
		if s.Value < 0 || s.Timestamp.Before(windowStart) || !s.Timestamp.Before(windowEnd) {
			continue
		}
		if i, ok := index[calendar.StartOfDay(s.Timestamp, loc)]; ok {
			sums[i] += s.Value
		}
	}

	points := make([]DailyPoint, len(days))
	for i, day := range days {
		points[i] = DailyPoint{Date: day, Count: health.Count(sums[i])}
	}
	return NewSeries(points)
}

// BuildMonthlySeries queries the total of each of the monthsBack calendar months ending
// with the month of now, all months in parallel. Points are emitted oldest first.
// A month whose query fails is reported as 0, degraded is the number of such months.
func BuildMonthlySeries(
	ctx context.Context,
	provider health.Provider,
	metric health.Metric,
	monthsBack int,
	now time.Time,
	loc *time.Location,
) (_ Series[MonthlyPoint], degraded int) {
	if monthsBack <= 0 {
		return NewSeries([]MonthlyPoint{}), 0
	}

	current := calendar.StartOfMonth(now, loc)
	months := make([]time.Time, monthsBack)
	tasks := make([]fanout.Task[float64], monthsBack)
	for i := range months {
		month := current.AddDate(0, -(monthsBack - 1 - i), 0)
		months[i] = month
		tasks[i] = func(ctx context.Context) (float64, error) {
			return provider.QueryAggregateTotal(ctx, metric, month, month.AddDate(0, 1, 0))
		}
	}

	results := fanout.All(ctx, tasks...)

	points := make([]MonthlyPoint, monthsBack)
	for i, res := range results {
		points[i] = MonthlyPoint{Month: months[i]}
		if !res.OK() {
			log.Warnf("%s total for %s failed, reporting 0: %s", metric, months[i].Format("2006-01"), res.Err)
			degraded++
			continue
		}
		points[i].Count = health.Count(res.Value)
	}

	return NewSeries(points), degraded
}
