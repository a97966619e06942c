package schedule

import (
	"sort"
	"time"
)

// FutureOccurrences returns every occurrence of hour:minute on the given
// days of month strictly after now, scanning now's month and the next one.
// Days that don't exist in a month (e.g. 31 in April) are skipped via the
// date-normalization check. Pure function of now, so callers can inject a
// clock.
func FutureOccurrences(days []int, hour, minute int, now time.Time) []time.Time {
	loc := now.Location()
	year, month, _ := now.Date()

	var out []time.Time
	for _, m := range []time.Month{month, month + 1} {
		for _, d := range days {
			t := time.Date(year, m, d, hour, minute, 0, 0, loc)
			// time.Date normalizes month overflow (Dec+1 -> Jan next
			// year) and day overflow (Apr 31 -> May 1); the Day check
			// drops the latter.
			if t.After(now) && t.Day() == d {
				out = append(out, t)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ShouldFire reports whether a tick observed at now hits today's
// occurrence: today's day of month is selected and the tick is no more
// than grace past hour:minute. A tick later than the grace window is a
// missed occurrence, permanently skipped.
func ShouldFire(days []int, hour, minute int, now time.Time, grace time.Duration) bool {
	if !containsDay(days, now.Day()) {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	diff := now.Sub(at)
	return diff >= 0 && diff <= grace
}

func containsDay(days []int, d int) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}
