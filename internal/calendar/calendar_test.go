package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeek(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, berlin)
	for d := 0; d < 7; d++ {
		ts := monday.AddDate(0, 0, d).Add(13*time.Hour + 7*time.Minute)
		assert.Equal(t, monday, StartOfWeek(ts, berlin), ts.Weekday().String())
	}

	// sunday late evening stays in the week
	sunday := time.Date(2026, 10, 18, 23, 59, 59, 0, berlin)
	assert.Equal(t, monday, StartOfWeek(sunday, berlin))
	// monday midnight starts the next one
	assert.Equal(t, monday.AddDate(0, 0, 7), StartOfWeek(sunday.Add(time.Second), berlin))
}

func TestStartOfWeek_UsesLocalCalendar(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// sunday 20:00 UTC is already monday in Tokyo
	ts := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), StartOfWeek(ts, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, tokyo), StartOfWeek(ts, tokyo))
}

func TestStartOfDayAndMonth(t *testing.T) {
	ts := time.Date(2026, 3, 29, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC), StartOfDay(ts, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(ts, time.UTC))
	// DST switch in Berlin happens on this day, the bucket still starts at local midnight
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 29, 0, 0, 0, 0, berlin), StartOfDay(ts, berlin))
}
