package app

import (
	"context"
	"fmt"
	"time"
)

// Upsert modes. replace and merge leave the stored set for (coach, date)
// disjoint and sorted; add inserts the rows as-is and may store overlapping
// rows (fast multi-entry editing). Callers that rely on disjointness must use
// replace or merge.
const (
	ModeReplace = "replace"
	ModeMerge   = "merge"
	ModeAdd     = "add"
)

// NewRange is one incoming availability window in minutes since midnight.
type NewRange struct {
	Start  int
	End    int
	Active bool
}

type UpsertResult struct {
	Ranges        []AvailabilityRange
	OriginalCount int
	MergedCount   int
}

// validateRanges rejects the whole batch if any range is malformed, so an
// upsert is never partially applied.
func validateRanges(incoming []NewRange) error {
	if len(incoming) == 0 {
		return &ValidationError{Msg: "at least one time range is required"}
	}
	for i, r := range incoming {
		if r.Start < 0 || r.End > minutesPerDay {
			return &ValidationError{Msg: fmt.Sprintf("range %d: times must fall within one day", i+1)}
		}
		if r.End <= r.Start {
			return &ValidationError{Msg: fmt.Sprintf("range %d: end time must be after start time", i+1)}
		}
	}
	return nil
}

// planUpsert computes the set of rows to store for (coach, date) given the
// already-stored ranges and the incoming batch. On the replace and merge
// paths every resulting range inherits the active flag of the first incoming
// range; add keeps each row exactly as given.
func planUpsert(existing []TimeRange, incoming []NewRange, mode string) ([]NewRange, error) {
	if err := validateRanges(incoming); err != nil {
		return nil, err
	}
	switch mode {
	case ModeAdd:
		return incoming, nil
	case ModeReplace, ModeMerge:
		pool := make([]TimeRange, 0, len(existing)+len(incoming))
		if mode == ModeMerge {
			pool = append(pool, existing...)
		}
		for _, r := range incoming {
			pool = append(pool, TimeRange{Start: r.Start, End: r.End})
		}
		active := incoming[0].Active
		merged := mergeRanges(pool)
		out := make([]NewRange, 0, len(merged))
		for _, r := range merged {
			out = append(out, NewRange{Start: r.Start, End: r.End, Active: active})
		}
		return out, nil
	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown upsert mode %q", mode)}
	}
}

// UpsertAvailability stores a coach's availability for one date. Delete and
// insert run in a single transaction so a concurrent read never observes an
// empty intermediate state.
func (a *App) UpsertAvailability(ctx context.Context, coachID int64, date string, incoming []NewRange, mode string) (*UpsertResult, error) {
	if mode == "" {
		mode = ModeReplace
	}
	if err := validateRanges(incoming); err != nil {
		return nil, err
	}

	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return nil, wrapTxError(err)
	}
	defer tx.Rollback(ctx)

	var existing []TimeRange
	if mode == ModeMerge {
		rows, err := tx.Query(ctx,
			`SELECT start_minute, end_minute FROM availability_ranges
			 WHERE coach_id=$1 AND date=$2 FOR UPDATE`, coachID, date)
		if err != nil {
			return nil, wrapTxError(err)
		}
		for rows.Next() {
			var r TimeRange
			if err := rows.Scan(&r.Start, &r.End); err != nil {
				rows.Close()
				return nil, err
			}
			existing = append(existing, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	stored, err := planUpsert(existing, incoming, mode)
	if err != nil {
		return nil, err
	}

	if mode != ModeAdd {
		if _, err := tx.Exec(ctx,
			`DELETE FROM availability_ranges WHERE coach_id=$1 AND date=$2`, coachID, date); err != nil {
			return nil, wrapTxError(err)
		}
	}

	now := time.Now().UTC()
	result := &UpsertResult{OriginalCount: len(incoming), MergedCount: len(stored)}
	for _, r := range stored {
		ar := AvailabilityRange{
			CoachID:     coachID,
			Date:        date,
			StartMinute: r.Start,
			EndMinute:   r.End,
			Start:       formatMinutes(r.Start),
			End:         formatMinutes(r.End),
			Active:      r.Active,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		q := `INSERT INTO availability_ranges
		      (coach_id, date, start_minute, end_minute, active, created_at, updated_at)
		      VALUES ($1,$2,$3,$4,$5,$6,$6) RETURNING id`
		if err := tx.QueryRow(ctx, q, coachID, date, r.Start, r.End, r.Active, now).Scan(&ar.ID); err != nil {
			return nil, wrapTxError(err)
		}
		result.Ranges = append(result.Ranges, ar)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapTxError(err)
	}
	return result, nil
}

// DeleteAvailabilityByID removes a single range owned by the coach.
func (a *App) DeleteAvailabilityByID(ctx context.Context, coachID, id int64) error {
	res, err := a.DB.Exec(ctx,
		`DELETE FROM availability_ranges WHERE id=$1 AND coach_id=$2`, id, coachID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return &NotFoundError{Entity: "availability range"}
	}
	return nil
}

// DeleteAvailabilityByDate removes all of the coach's ranges on a date and
// reports how many were deleted.
func (a *App) DeleteAvailabilityByDate(ctx context.Context, coachID int64, date string) (int64, error) {
	res, err := a.DB.Exec(ctx,
		`DELETE FROM availability_ranges WHERE coach_id=$1 AND date=$2`, coachID, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// ListAvailability returns the coach's ranges with date in [from, to],
// ordered by (date, start).
func (a *App) ListAvailability(ctx context.Context, coachID int64, from, to string) ([]AvailabilityRange, error) {
	q := `SELECT id, coach_id, date::text, start_minute, end_minute, active, created_at, updated_at
	      FROM availability_ranges
	      WHERE coach_id=$1 AND date >= $2 AND date <= $3
	      ORDER BY date, start_minute`
	rows, err := a.DB.Query(ctx, q, coachID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AvailabilityRange
	for rows.Next() {
		var r AvailabilityRange
		if err := rows.Scan(&r.ID, &r.CoachID, &r.Date, &r.StartMinute, &r.EndMinute,
			&r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Start = formatMinutes(r.StartMinute)
		r.End = formatMinutes(r.EndMinute)
		out = append(out, r)
	}
	return out, rows.Err()
}
