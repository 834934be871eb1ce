package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewGoogleConfig builds the OAuth2 config for calendar mirroring. Returns
// nil when the integration is not configured, which disables it everywhere.
func NewGoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

// GET /api/calendar/auth — a coach starts linking their Google account.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	actor := actorFrom(c)
	if actor.CoachID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be a coach"})
		return
	}
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := fmt.Sprintf("coach_%d_%d", actor.CoachID, time.Now().Unix())
	url := a.Google.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"auth_url": url, "state": state})
}

// GET /oauth2callback — stores the exchanged token on the coach profile.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	var coachID int64
	var ts int64
	if _, err := fmt.Sscanf(c.Query("state"), "coach_%d_%d", &coachID, &ts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	token, err := a.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		a.respondError(c, err)
		return
	}

	res, err := a.DB.Exec(c.Request.Context(),
		`UPDATE coach_profiles SET google_token=$1, updated_at=$2 WHERE id=$3`,
		string(tokenJSON), time.Now().UTC(), coachID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if res.RowsAffected() == 0 {
		a.respondError(c, &NotFoundError{Entity: "coach"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "calendar linked"})
}

// mirrorConfirmed pushes a confirmed session onto the coach's Google
// Calendar. Best effort: failures are logged and never affect the booking.
func (a *App) mirrorConfirmed(ctx context.Context, b *Booking) {
	if a.Google == nil {
		return
	}
	coach, err := a.GetCoach(ctx, b.CoachID)
	if err != nil || coach.GoogleToken == nil {
		return
	}
	course, err := a.GetCourse(ctx, b.CourseID)
	if err != nil {
		a.Log.Warn("calendar mirror: course lookup failed", zap.Error(err))
		return
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(*coach.GoogleToken), &token); err != nil {
		a.Log.Warn("calendar mirror: stored token unreadable", zap.Int64("coach_id", coach.ID))
		return
	}

	client := a.Google.Client(ctx, &token)
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		a.Log.Warn("calendar mirror: service init failed", zap.Error(err))
		return
	}

	event := &calendar.Event{
		Summary:     fmt.Sprintf("Coaching: %s", course.Title),
		Description: fmt.Sprintf("Booking %s", b.ID),
		Start:       &calendar.EventDateTime{DateTime: b.StartAt.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: b.EndAt.Format(time.RFC3339)},
	}
	if _, err := srv.Events.Insert("primary", event).Do(); err != nil {
		a.Log.Warn("calendar mirror: event insert failed",
			zap.String("booking_id", b.ID), zap.Error(err))
	}
}
