package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func monthlyPoints(year int, counts ...int) []MonthlyPoint {
	points := make([]MonthlyPoint, len(counts))
	for i, c := range counts {
		points[i] = MonthlyPoint{
			Month: time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Count: c,
		}
	}
	return points
}

func TestSummarize(t *testing.T) {
	day := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	points := []DailyPoint{
		{Date: day, Count: 500},
		{Date: day.AddDate(0, 0, 1), Count: 0},
		{Date: day.AddDate(0, 0, 2), Count: 1200},
	}
	assert.Equal(t, Summary{Total: 1700, Average: 566}, Summarize(points))

	assert.Equal(t, Summary{}, Summarize([]DailyPoint{}))
	assert.Equal(t, Summary{}, Summarize[MonthlyPoint](nil))
}

func TestSummarizeYearToDate_DividesByMonthNumber(t *testing.T) {
	points := monthlyPoints(2026, 1000, 2000, 3000)

	march := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Summary{Total: 6000, Average: 2000}, SummarizeYearToDate(points, march))

	// only one month of history in october still divides by 10
	october := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Summary{Total: 3000, Average: 300}, SummarizeYearToDate(points[2:], october))

	january := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Summary{Total: 1000, Average: 1000}, SummarizeYearToDate(points[:1], january))
}

func TestFilterYearToDate(t *testing.T) {
	points := append(monthlyPoints(2025, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 11, 12)[10:], monthlyPoints(2026, 1, 2, 3)...)
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	ytd := FilterYearToDate(points, now)
	assert.Equal(t, monthlyPoints(2026, 1, 2, 3), ytd)
	for _, p := range ytd {
		assert.Equal(t, 2026, p.Month.Year())
	}

	assert.Empty(t, FilterYearToDate(points[:2], now))
}

func TestNewSeries_TotalIsSumOfPoints(t *testing.T) {
	series := NewSeries(monthlyPoints(2026, 5, 7, 0, 11))
	sum := 0
	for _, p := range series.Points {
		sum += p.Count
	}
	assert.Equal(t, sum, series.Total)
	assert.Equal(t, 23/4, series.Average)

	empty := NewSeries[DailyPoint](nil)
	assert.NotNil(t, empty.Points)
	assert.Equal(t, 0, empty.Total)
}
