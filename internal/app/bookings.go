package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// coachSettable are the statuses a coach may set through UpdateBookingStatus.
// The chain is not enforced here: a coach may jump paid -> done directly.
var coachSettable = map[string]bool{
	StatusPaid:      true,
	StatusConfirmed: true,
	StatusDone:      true,
	StatusCanceled:  true,
}

func isTerminal(status string) bool {
	return status == StatusDone || status == StatusCanceled
}

// creditOnDone reports whether a save that persists next as the status should
// award the coach's minutes and balance, given the previously persisted
// status. Only the first arrival at done pays out.
func creditOnDone(prior, next string) bool {
	return next == StatusDone && prior != StatusDone
}

// combineDateTime builds the absolute start instant of a session from a
// calendar date and an "HH:MM" wall-clock time in the coach's zone. The
// minute-of-day is returned alongside so callers need not re-parse.
func combineDateTime(date, hhmm string, loc *time.Location) (time.Time, int, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, 0, &ValidationError{Msg: "invalid date format, use YYYY-MM-DD"}
	}
	startMin, err := parseHHMM(hhmm)
	if err != nil {
		return time.Time{}, 0, &ValidationError{Msg: "invalid start time, use HH:MM"}
	}
	return dayStart.Add(time.Duration(startMin) * time.Minute), startMin, nil
}

// CreateBooking books a session for the trainee. The overlap check and the
// insert run as one unit serialized per coach: the transaction first takes an
// advisory lock keyed by the coach id (two creates into an empty window have
// no rows to contend on otherwise), then locks and inspects the coach's
// active bookings intersecting the candidate window. Exactly one of any set
// of mutually overlapping concurrent creates succeeds.
func (a *App) CreateBooking(ctx context.Context, actor Actor, coach *CoachProfile, course *Course, date, startTime string) (*Booking, error) {
	if course.DurationMinutes <= 0 {
		return nil, &ValidationError{Msg: "course has no duration"}
	}
	loc := a.coachLocation(coach)
	startAt, startMin, err := combineDateTime(date, startTime, loc)
	if err != nil {
		return nil, err
	}
	endAt := startAt.Add(time.Duration(course.DurationMinutes) * time.Minute)

	if a.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.TxTimeout)
		defer cancel()
	}

	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return nil, wrapTxError(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, coach.ID); err != nil {
		return nil, wrapTxError(err)
	}

	// The session must lie inside a declared open window for that date.
	rows, err := tx.Query(ctx,
		`SELECT start_minute, end_minute FROM availability_ranges
		 WHERE coach_id=$1 AND date=$2 AND active`, coach.ID, date)
	if err != nil {
		return nil, wrapTxError(err)
	}
	var declared []TimeRange
	for rows.Next() {
		var r TimeRange
		if err := rows.Scan(&r.Start, &r.End); err != nil {
			rows.Close()
			return nil, err
		}
		declared = append(declared, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !covers(mergeRanges(declared), startMin, startMin+course.DurationMinutes) {
		return nil, &ConflictError{Msg: "time slot not available"}
	}

	// Open-interval overlap test against the coach's active bookings,
	// locking any matches for the life of the transaction.
	rows, err = tx.Query(ctx,
		`SELECT id FROM bookings
		 WHERE coach_id=$1 AND status = ANY($2)
		 AND start_at < $3 AND end_at > $4
		 FOR UPDATE`,
		coach.ID, []string{StatusPending, StatusPaid, StatusConfirmed}, endAt, startAt)
	if err != nil {
		return nil, wrapTxError(err)
	}
	conflicting := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapTxError(err)
	}
	if conflicting {
		return nil, &ConflictError{Msg: "time slot not available"}
	}

	now := time.Now().UTC()
	b := &Booking{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		CoachID:   coach.ID,
		CourseID:  course.ID,
		StartAt:   startAt,
		EndAt:     endAt,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q := `INSERT INTO bookings
	      (id, user_id, coach_id, course_id, start_at, end_at, status, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)`
	if _, err := tx.Exec(ctx, q,
		b.ID, b.UserID, b.CoachID, b.CourseID, b.StartAt, b.EndAt, b.Status, now); err != nil {
		return nil, wrapTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapTxError(err)
	}
	return b, nil
}

// covers reports whether [start, end) lies inside one of the merged ranges.
func covers(merged []TimeRange, start, end int) bool {
	for _, r := range merged {
		if start >= r.Start && end <= r.End {
			return true
		}
	}
	return false
}

// CancelBooking: the owning trainee may cancel while still pending; the coach
// may cancel at any non-terminal stage.
func (a *App) CancelBooking(ctx context.Context, actor Actor, b *Booking) (*Booking, error) {
	switch {
	case actor.CoachID != 0 && actor.CoachID == b.CoachID:
	case actor.UserID == b.UserID && b.Status == StatusPending:
	case actor.UserID == b.UserID:
		return nil, &AuthorizationError{Msg: "only pending bookings can be canceled by the trainee"}
	default:
		return nil, &AuthorizationError{Msg: "not allowed to cancel this booking"}
	}
	return a.transition(ctx, b, StatusCanceled)
}

// MarkPaid is called by the payment collaborator after a successful charge.
func (a *App) MarkPaid(ctx context.Context, actor Actor, b *Booking) (*Booking, error) {
	if actor.UserID != b.UserID {
		return nil, &AuthorizationError{Msg: "not allowed to pay for this booking"}
	}
	if b.Status != StatusPending {
		return nil, &ConflictError{Msg: "booking is not awaiting payment"}
	}
	return a.transition(ctx, b, StatusPaid)
}

// UpdateBookingStatus is the coach-facing status progression.
func (a *App) UpdateBookingStatus(ctx context.Context, actor Actor, b *Booking, newStatus string) (*Booking, error) {
	if actor.CoachID == 0 || actor.CoachID != b.CoachID {
		return nil, &AuthorizationError{Msg: "only the coach can update booking status"}
	}
	if !coachSettable[newStatus] {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid status %q", newStatus)}
	}
	return a.transition(ctx, b, newStatus)
}

// transition persists a status change. The previously persisted status is
// read under lock so the done payout happens exactly once no matter how many
// times the booking is re-saved as done.
func (a *App) transition(ctx context.Context, b *Booking, newStatus string) (*Booking, error) {
	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return nil, wrapTxError(err)
	}
	defer tx.Rollback(ctx)

	var prior string
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id=$1 FOR UPDATE`, b.ID).Scan(&prior)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "booking"}
	}
	if err != nil {
		return nil, wrapTxError(err)
	}
	if isTerminal(prior) && prior != newStatus {
		return nil, &ConflictError{Msg: fmt.Sprintf("booking already %s", prior)}
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE bookings SET status=$1, updated_at=$2 WHERE id=$3`, newStatus, now, b.ID); err != nil {
		return nil, wrapTxError(err)
	}

	if creditOnDone(prior, newStatus) {
		minutes := int64(b.EndAt.Sub(b.StartAt) / time.Minute)
		var price int64
		if err := tx.QueryRow(ctx, `SELECT price FROM courses WHERE id=$1`, b.CourseID).Scan(&price); err != nil {
			return nil, wrapTxError(err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE coach_profiles
			 SET total_minutes_coached = total_minutes_coached + $1,
			     balance = balance + $2,
			     updated_at = $3
			 WHERE id=$4`, minutes, price, now, b.CoachID); err != nil {
			return nil, wrapTxError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapTxError(err)
	}

	updated := *b
	updated.Status = newStatus
	updated.UpdatedAt = now
	if newStatus == StatusConfirmed {
		a.mirrorConfirmed(ctx, &updated)
	}
	return &updated, nil
}
