package leaderboard

import (
	"time"

	"github.com/2beens/fitboard/internal/calendar"
)

const collectionSuffix = "-leaderboard"

// StartOfWeek returns Monday 00:00 of the week of now in the given calendar.
func StartOfWeek(now time.Time, loc *time.Location) time.Time {
	return calendar.StartOfWeek(now, loc)
}

// CollectionKey names the collection of the week of now, e.g. "10-12-2026-leaderboard".
// Every moment of a Monday to Sunday week maps to the same key.
func CollectionKey(now time.Time, loc *time.Location) string {
	return StartOfWeek(now, loc).Format("01-02-2006") + collectionSuffix
}
