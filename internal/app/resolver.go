package app

import (
	"context"
	"time"
)

const defaultStepMinutes = 30

// startTimesForDay is the pure composition at the heart of the resolver:
// subtract the busy ranges from the declared availability, then enumerate
// admissible session starts. Availability is merged first; add-mode upserts
// may leave overlapping rows in the store, and the output must stay
// ascending and duplicate-free regardless.
func startTimesForDay(available, busy []TimeRange, durationMins, stepMins int) []string {
	free := subtractRanges(mergeRanges(available), busy)
	starts := enumerateStarts(free, durationMins, stepMins)
	out := make([]string, 0, len(starts))
	for _, m := range starts {
		out = append(out, formatMinutes(m))
	}
	return out
}

// clampToDay projects an absolute booking interval onto minutes-of-day within
// the given day. Returns false when the interval misses the day entirely.
func clampToDay(start, end, dayStart time.Time) (TimeRange, bool) {
	s := int(start.Sub(dayStart).Minutes())
	e := int(end.Sub(dayStart).Minutes())
	if s < 0 {
		s = 0
	}
	if e > minutesPerDay {
		e = minutesPerDay
	}
	if e <= s {
		return TimeRange{}, false
	}
	return TimeRange{Start: s, End: e}, true
}

// AvailableStartTimes returns the legally bookable "HH:MM" start times for a
// coach's course on a date, ascending and duplicate-free. A coach with no
// declared availability that day is not bookable, even with zero bookings.
// The result is a snapshot, not a reservation; CreateBooking re-checks
// overlap inside its own transaction.
func (a *App) AvailableStartTimes(ctx context.Context, coach *CoachProfile, course *Course, date string, stepMins int) ([]string, error) {
	if stepMins <= 0 {
		stepMins = defaultStepMinutes
	}
	loc := a.coachLocation(coach)
	dayStart, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, &ValidationError{Msg: "invalid date format, use YYYY-MM-DD"}
	}
	dayEnd := dayStart.Add(minutesPerDay * time.Minute)

	rows, err := a.DB.Query(ctx,
		`SELECT start_minute, end_minute FROM availability_ranges
		 WHERE coach_id=$1 AND date=$2 AND active
		 ORDER BY start_minute`, coach.ID, date)
	if err != nil {
		return nil, err
	}
	var available []TimeRange
	for rows.Next() {
		var r TimeRange
		if err := rows.Scan(&r.Start, &r.End); err != nil {
			rows.Close()
			return nil, err
		}
		available = append(available, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return []string{}, nil
	}

	rows, err = a.DB.Query(ctx,
		`SELECT start_at, end_at FROM bookings
		 WHERE coach_id=$1 AND status = ANY($2)
		 AND start_at < $3 AND end_at > $4`,
		coach.ID, []string{StatusPending, StatusPaid, StatusConfirmed}, dayEnd, dayStart)
	if err != nil {
		return nil, err
	}
	var busy []TimeRange
	for rows.Next() {
		var s, e time.Time
		if err := rows.Scan(&s, &e); err != nil {
			rows.Close()
			return nil, err
		}
		if r, ok := clampToDay(s.In(loc), e.In(loc), dayStart); ok {
			busy = append(busy, r)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return startTimesForDay(available, busy, course.DurationMinutes, stepMins), nil
}
