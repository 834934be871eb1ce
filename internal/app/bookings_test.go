package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditOnDone(t *testing.T) {
	assert.True(t, creditOnDone(StatusPending, StatusDone))
	assert.True(t, creditOnDone(StatusPaid, StatusDone))
	assert.True(t, creditOnDone(StatusConfirmed, StatusDone))
	// re-saving done must not pay out again
	assert.False(t, creditOnDone(StatusDone, StatusDone))
	assert.False(t, creditOnDone(StatusPending, StatusCanceled))
	assert.False(t, creditOnDone(StatusPending, StatusConfirmed))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, isTerminal(StatusDone))
	assert.True(t, isTerminal(StatusCanceled))
	assert.False(t, isTerminal(StatusPending))
	assert.False(t, isTerminal(StatusPaid))
	assert.False(t, isTerminal(StatusConfirmed))
}

func TestCovers(t *testing.T) {
	merged := []TimeRange{tr(540, 720), tr(840, 960)}
	assert.True(t, covers(merged, 540, 600))
	assert.True(t, covers(merged, 660, 720)) // may end exactly at window end
	assert.True(t, covers(merged, 840, 960))
	assert.False(t, covers(merged, 700, 760)) // straddles the gap
	assert.False(t, covers(merged, 720, 780))
	assert.False(t, covers(nil, 540, 600))
}

func TestCombineDateTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	got, startMin, err := combineDateTime("2030-05-20", "09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 20, 9, 30, 0, 0, loc), got)
	assert.Equal(t, 570, startMin)

	_, _, err = combineDateTime("20-05-2030", "09:30", loc)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, _, err = combineDateTime("2030-05-20", "9h30", loc)
	require.ErrorAs(t, err, &ve)
}

// The permission rules below are checked synchronously, before any
// transaction is opened, so they are testable on a bare App.

func TestCancelBookingPermissions(t *testing.T) {
	a := &App{}
	ctx := context.Background()
	b := &Booking{ID: "b1", UserID: 7, CoachID: 3, Status: StatusPaid}

	t.Run("trainee cannot cancel once paid", func(t *testing.T) {
		_, err := a.CancelBooking(ctx, Actor{UserID: 7}, b)
		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, StatusPaid, b.Status)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		_, err := a.CancelBooking(ctx, Actor{UserID: 99}, b)
		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
	})

	t.Run("coach of another booking cannot cancel", func(t *testing.T) {
		_, err := a.CancelBooking(ctx, Actor{UserID: 50, CoachID: 4}, b)
		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
	})
}

func TestMarkPaidPermissions(t *testing.T) {
	a := &App{}
	ctx := context.Background()

	t.Run("only the owner may pay", func(t *testing.T) {
		b := &Booking{ID: "b1", UserID: 7, Status: StatusPending}
		_, err := a.MarkPaid(ctx, Actor{UserID: 8}, b)
		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
	})

	t.Run("only pending bookings are payable", func(t *testing.T) {
		b := &Booking{ID: "b1", UserID: 7, Status: StatusConfirmed}
		_, err := a.MarkPaid(ctx, Actor{UserID: 7}, b)
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
	})
}

func TestUpdateBookingStatusPermissions(t *testing.T) {
	a := &App{}
	ctx := context.Background()
	b := &Booking{ID: "b1", UserID: 7, CoachID: 3, Status: StatusPaid}

	t.Run("non-coach rejected", func(t *testing.T) {
		_, err := a.UpdateBookingStatus(ctx, Actor{UserID: 7}, b, StatusDone)
		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
	})

	t.Run("wrong coach rejected", func(t *testing.T) {
		_, err := a.UpdateBookingStatus(ctx, Actor{UserID: 50, CoachID: 4}, b, StatusDone)
		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
	})

	t.Run("unknown status rejected without mutating state", func(t *testing.T) {
		for _, bad := range []string{StatusPending, "archived", ""} {
			_, err := a.UpdateBookingStatus(ctx, Actor{UserID: 3, CoachID: 3}, b, bad)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve, "status %q", bad)
			assert.Equal(t, StatusPaid, b.Status)
		}
	})
}

func TestCreateBookingValidation(t *testing.T) {
	a := &App{DefaultTZ: time.UTC}
	ctx := context.Background()
	coach := &CoachProfile{ID: 3}
	course := &Course{ID: 5, CoachID: 3, DurationMinutes: 60, Price: 500}

	var ve *ValidationError

	_, err := a.CreateBooking(ctx, Actor{UserID: 7}, coach, course, "bad-date", "10:00")
	require.ErrorAs(t, err, &ve)

	_, err = a.CreateBooking(ctx, Actor{UserID: 7}, coach, course, "2030-05-20", "10am")
	require.ErrorAs(t, err, &ve)

	zero := &Course{ID: 6, CoachID: 3, DurationMinutes: 0}
	_, err = a.CreateBooking(ctx, Actor{UserID: 7}, coach, zero, "2030-05-20", "10:00")
	require.ErrorAs(t, err, &ve)
}
