package app

import "time"

// Booking statuses. pending -> paid -> confirmed -> done is the intended
// flow; canceled is reachable from any non-terminal status. done and
// canceled are terminal.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusConfirmed = "confirmed"
	StatusDone      = "done"
	StatusCanceled  = "canceled"
)

// TimeRange is a half-open [Start, End) interval of wall-clock time within a
// single date, expressed in minutes since midnight.
type TimeRange struct {
	Start int
	End   int
}

// AvailabilityRange is one declared open window of a coach on a specific date.
type AvailabilityRange struct {
	ID          int64     `json:"id"`
	CoachID     int64     `json:"coach_id"`
	Date        string    `json:"date"`
	StartMinute int       `json:"-"`
	EndMinute   int       `json:"-"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type Booking struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CoachID   int64     `json:"coach_id"`
	CourseID  int64     `json:"course_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Course is resolved by the surrounding application; the engine only reads
// duration, price and the owning coach.
type Course struct {
	ID              int64  `json:"id"`
	CoachID         int64  `json:"coach_id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           int64  `json:"price"`
}

// CoachProfile carries the aggregate stats mutated by the booking state
// machine, plus the coach's timezone and optional Google Calendar token.
type CoachProfile struct {
	ID                  int64   `json:"id"`
	UserID              int64   `json:"user_id"`
	DisplayName         string  `json:"display_name"`
	Timezone            string  `json:"timezone,omitempty"`
	TotalMinutesCoached int64   `json:"total_minutes_coached"`
	Balance             int64   `json:"balance"`
	GoogleToken         *string `json:"-"`
}

// Actor is the already-authenticated identity performing an operation.
// CoachID is zero for plain trainees.
type Actor struct {
	UserID  int64
	CoachID int64
}
