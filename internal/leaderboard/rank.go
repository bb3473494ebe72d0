package leaderboard

import (
	"sort"
)

// TopN is the number of entries on the board.
const TopN = 10

// Rank orders the entries by count, highest first, equal counts by username,
// and returns at most n of them. The input is not modified.
func Rank(entries []Entry, n int) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Username < ranked[j].Username
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// BuildView ranks the entries of a week. Self is set only when username is
// not empty, has an entry, and that entry did not make the top.
func BuildView(entries []Entry, username string) *View {
	view := &View{
		Top: Rank(entries, TopN),
	}
	if username == "" {
		return view
	}

	for _, e := range view.Top {
		if e.Username == username {
			return view
		}
	}
	for _, e := range entries {
		if e.Username == username {
			self := e
			view.Self = &self
			break
		}
	}
	return view
}
