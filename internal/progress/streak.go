package progress

import (
	"sort"
	"time"
)

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Streak counts consecutive UTC days with at least one completion, ending at
// the most recent completion day. The streak is broken (0) when that day is
// more than one day before today. Completions dated after today count as
// today.
func Streak(completions []time.Time, now time.Time) int {
	if len(completions) == 0 {
		return 0
	}

	today := Day(now)
	seen := make(map[time.Time]struct{}, len(completions))
	days := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		d := Day(c)
		if d.After(today) {
			d = today
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	if days[0].Before(today.AddDate(0, 0, -1)) {
		return 0
	}

	streak := 1
	current := days[0]
	for _, d := range days[1:] {
		if !d.Equal(current.AddDate(0, 0, -1)) {
			break
		}
		streak++
		current = d
	}

	return streak
}
