package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// App holds the shared dependencies of the booking engine.
type App struct {
	DB  *pgxpool.Pool
	Log *zap.Logger

	// DefaultTZ is used for coaches that have no timezone of their own.
	DefaultTZ *time.Location

	// TxTimeout bounds the booking-create transaction, so a lock wait
	// surfaces as a retryable error instead of hanging the request.
	TxTimeout time.Duration

	// Google is nil when calendar mirroring is not configured.
	Google *oauth2.Config
}

// coachLocation resolves the timezone used to combine a coach's dates and
// wall-clock times into absolute instants.
func (a *App) coachLocation(coach *CoachProfile) *time.Location {
	if coach.Timezone != "" {
		if loc, err := time.LoadLocation(coach.Timezone); err == nil {
			return loc
		}
		a.Log.Warn("bad coach timezone, falling back to default",
			zap.Int64("coach_id", coach.ID), zap.String("timezone", coach.Timezone))
	}
	return a.DefaultTZ
}
