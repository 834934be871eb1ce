package app

import (
	"fmt"
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// mergeRanges coalesces overlapping or touching ranges. The result is sorted
// by start and pairwise disjoint. The input is not modified.
func mergeRanges(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]TimeRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// subtractRanges removes the busy ranges from the available ones and returns
// the free leftovers. Busy ranges are merged first; busy ranges that do not
// intersect an available range are skipped. Never emits a degenerate range.
func subtractRanges(available, busy []TimeRange) []TimeRange {
	if len(available) == 0 {
		return nil
	}
	if len(busy) == 0 {
		return append([]TimeRange(nil), available...)
	}
	busyMerged := mergeRanges(busy)

	var free []TimeRange
	for _, av := range available {
		cur := av.Start
		for _, b := range busyMerged {
			if b.End <= av.Start || b.Start >= av.End {
				continue
			}
			if cur < b.Start {
				free = append(free, TimeRange{Start: cur, End: min(b.Start, av.End)})
			}
			if b.End > cur {
				cur = b.End
			}
		}
		if cur < av.End {
			free = append(free, TimeRange{Start: cur, End: av.End})
		}
	}
	return free
}

// enumerateStarts lists candidate session start minutes inside the free
// ranges, stepping from each range's start. A start is admissible as long as
// start+duration fits within the range; the session may end exactly at the
// range's end.
func enumerateStarts(free []TimeRange, durationMins, stepMins int) []int {
	if len(free) == 0 || durationMins <= 0 || stepMins <= 0 {
		return nil
	}
	var starts []int
	for _, r := range free {
		for cur := r.Start; cur+durationMins <= r.End; cur += stepMins {
			starts = append(starts, cur)
		}
	}
	return starts
}

// parseHHMM converts "HH:MM" into minutes since midnight. Longer strings such
// as "09:00:00" are truncated to their first five characters.
func parseHHMM(s string) (int, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	tt, err := time.Parse("15:04", s[:5])
	if err != nil {
		return 0, err
	}
	return tt.Hour()*60 + tt.Minute(), nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
