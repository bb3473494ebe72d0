package aggregation

import (
	"time"
)

// DailyPoint is the total of one calendar day, Date is the start of the day.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// MonthlyPoint is the total of one calendar month, Month is its first day.
type MonthlyPoint struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

func (p DailyPoint) Value() int   { return p.Count }
func (p MonthlyPoint) Value() int { return p.Count }

type Point interface {
	DailyPoint | MonthlyPoint
	Value() int
}

// Series is a chronological run of buckets and its summary.
type Series[P Point] struct {
	Points  []P `json:"points"`
	Total   int `json:"total"`
	Average int `json:"average"`
}

type Summary struct {
	Total   int `json:"total"`
	Average int `json:"average"`
}

// Summarize sums the points and divides by their count (integer division).
// An empty series has a zero average.
func Summarize[P Point](points []P) Summary {
	return summarize(points, len(points))
}

// SummarizeYearToDate divides the total by the number of the month of now (1..12)
// instead of the bucket count.
func SummarizeYearToDate(points []MonthlyPoint, now time.Time) Summary {
	return summarize(points, int(now.Month()))
}

func summarize[P Point](points []P, divisor int) Summary {
	var total int
	for _, p := range points {
		total += p.Value()
	}
	if divisor <= 0 {
		return Summary{Total: total}
	}
	return Summary{
		Total:   total,
		Average: total / divisor,
	}
}

// NewSeries wraps the points with their bucket count summary.
func NewSeries[P Point](points []P) Series[P] {
	return newSeries(points, Summarize(points))
}

func newSeries[P Point](points []P, summary Summary) Series[P] {
	if points == nil {
		points = []P{}
	}
	return Series[P]{
		Points:  points,
		Total:   summary.Total,
		Average: summary.Average,
	}
}

// FilterYearToDate keeps the points of the calendar year of now, order preserved.
func FilterYearToDate(points []MonthlyPoint, now time.Time) []MonthlyPoint {
	filtered := make([]MonthlyPoint, 0, len(points))
	for _, p := range points {
		if p.Month.Year() == now.Year() {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// YearToDate derives the year-to-date series out of a monthly sweep.
func YearToDate(sweep Series[MonthlyPoint], now time.Time) Series[MonthlyPoint] {
	points := FilterYearToDate(sweep.Points, now)
	return newSeries(points, SummarizeYearToDate(points, now))
}
