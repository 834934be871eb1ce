package app

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (a *App) GetCoach(ctx context.Context, id int64) (*CoachProfile, error) {
	q := `SELECT id, user_id, display_name, COALESCE(timezone,''), total_minutes_coached, balance, google_token
	      FROM coach_profiles WHERE id=$1`
	var c CoachProfile
	err := a.DB.QueryRow(ctx, q, id).Scan(&c.ID, &c.UserID, &c.DisplayName, &c.Timezone,
		&c.TotalMinutesCoached, &c.Balance, &c.GoogleToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "coach"}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *App) GetCourse(ctx context.Context, id int64) (*Course, error) {
	q := `SELECT id, coach_id, title, duration_minutes, price FROM courses WHERE id=$1`
	var c Course
	err := a.DB.QueryRow(ctx, q, id).Scan(&c.ID, &c.CoachID, &c.Title, &c.DurationMinutes, &c.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "course"}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *App) GetBooking(ctx context.Context, id string) (*Booking, error) {
	q := `SELECT id, user_id, coach_id, course_id, start_at, end_at, status, created_at, updated_at
	      FROM bookings WHERE id=$1`
	var b Booking
	err := a.DB.QueryRow(ctx, q, id).Scan(&b.ID, &b.UserID, &b.CoachID, &b.CourseID,
		&b.StartAt, &b.EndAt, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "booking"}
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookingsForUser returns a trainee's bookings, most recent first.
func (a *App) ListBookingsForUser(ctx context.Context, userID int64) ([]Booking, error) {
	q := `SELECT id, user_id, coach_id, course_id, start_at, end_at, status, created_at, updated_at
	      FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`
	return a.scanBookings(ctx, q, userID)
}

// ListBookingsForCoach returns the sessions on a coach's book, ordered by
// start time.
func (a *App) ListBookingsForCoach(ctx context.Context, coachID int64) ([]Booking, error) {
	q := `SELECT id, user_id, coach_id, course_id, start_at, end_at, status, created_at, updated_at
	      FROM bookings WHERE coach_id=$1 ORDER BY start_at`
	return a.scanBookings(ctx, q, coachID)
}

func (a *App) scanBookings(ctx context.Context, q string, arg any) ([]Booking, error) {
	rows, err := a.DB.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.CoachID, &b.CourseID,
			&b.StartAt, &b.EndAt, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
