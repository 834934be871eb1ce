package app

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseDateParam(s string) (string, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", &ValidationError{Msg: "invalid date format, use YYYY-MM-DD"}
	}
	return s, nil
}

// GET /api/coaches/:id/start-times?course_id=&date=&step=
func (a *App) GetStartTimesHandler(c *gin.Context) {
	coachID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach id"})
		return
	}
	courseID, err := strconv.ParseInt(c.Query("course_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id required"})
		return
	}
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	step := defaultStepMinutes
	if s := c.Query("step"); s != "" {
		step, err = strconv.Atoi(s)
		if err != nil || step <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step"})
			return
		}
	}

	ctx := c.Request.Context()
	coach, err := a.GetCoach(ctx, coachID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	course, err := a.GetCourse(ctx, courseID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if course.CoachID != coach.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course does not belong to this coach"})
		return
	}

	times, err := a.AvailableStartTimes(ctx, coach, course, date, step)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":            date,
		"start_times":     times,
		"course_duration": course.DurationMinutes,
	})
}

type createBookingReq struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
}

// POST /api/courses/:id/bookings
func (a *App) CreateBookingHandler(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	var req createBookingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	course, err := a.GetCourse(ctx, courseID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	coach, err := a.GetCoach(ctx, course.CoachID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	b, err := a.CreateBooking(ctx, actorFrom(c), coach, course, req.Date, req.StartTime)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking_id": b.ID, "status": b.Status})
}

// GET /api/bookings[?as_coach=true]
func (a *App) ListBookingsHandler(c *gin.Context) {
	actor := actorFrom(c)
	ctx := c.Request.Context()

	if c.Query("as_coach") == "true" {
		if actor.CoachID == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "you must be a coach"})
			return
		}
		bookings, err := a.ListBookingsForCoach(ctx, actor.CoachID)
		if err != nil {
			a.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": bookings})
		return
	}

	bookings, err := a.ListBookingsForUser(ctx, actor.UserID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (a *App) bookingFromPath(c *gin.Context) (*Booking, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return nil, false
	}
	b, err := a.GetBooking(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return nil, false
	}
	return b, true
}

// POST /api/bookings/:id/cancel
func (a *App) CancelBookingHandler(c *gin.Context) {
	b, ok := a.bookingFromPath(c)
	if !ok {
		return
	}
	updated, err := a.CancelBooking(c.Request.Context(), actorFrom(c), b)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /api/bookings/:id/pay — called on successful payment confirmation.
func (a *App) MarkPaidHandler(c *gin.Context) {
	b, ok := a.bookingFromPath(c)
	if !ok {
		return
	}
	updated, err := a.MarkPaid(c.Request.Context(), actorFrom(c), b)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// POST /api/bookings/:id/status
func (a *App) UpdateBookingStatusHandler(c *gin.Context) {
	var req updateStatusReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, ok := a.bookingFromPath(c)
	if !ok {
		return
	}
	updated, err := a.UpdateBookingStatus(c.Request.Context(), actorFrom(c), b, req.Status)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type rangePayload struct {
	Start  string `json:"start" binding:"required"`
	End    string `json:"end" binding:"required"`
	Active *bool  `json:"active"`
}

type upsertAvailabilityReq struct {
	Date   string         `json:"date" binding:"required"`
	Mode   string         `json:"mode"`
	Ranges []rangePayload `json:"ranges" binding:"required"`
}

// POST /api/availability
func (a *App) UpsertAvailabilityHandler(c *gin.Context) {
	actor := actorFrom(c)
	if actor.CoachID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be a coach to set availability"})
		return
	}
	var req upsertAvailabilityReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		a.respondError(c, err)
		return
	}

	incoming := make([]NewRange, 0, len(req.Ranges))
	for i, r := range req.Ranges {
		start, err := parseHHMM(r.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("range %d: invalid time format, use HH:MM", i+1)})
			return
		}
		end, err := parseHHMM(r.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("range %d: invalid time format, use HH:MM", i+1)})
			return
		}
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		incoming = append(incoming, NewRange{Start: start, End: end, Active: active})
	}

	res, err := a.UpsertAvailability(c.Request.Context(), actor.CoachID, date, incoming, req.Mode)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":             date,
		"merged_intervals": res.Ranges,
		"original_count":   res.OriginalCount,
		"merged_count":     res.MergedCount,
	})
}

// GET /api/availability?date= | ?start_date=&end_date=
func (a *App) ListAvailabilityHandler(c *gin.Context) {
	actor := actorFrom(c)
	if actor.CoachID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be a coach"})
		return
	}

	var from, to string
	switch {
	case c.Query("date") != "":
		d, err := parseDateParam(c.Query("date"))
		if err != nil {
			a.respondError(c, err)
			return
		}
		from, to = d, d
	case c.Query("start_date") != "" && c.Query("end_date") != "":
		var err error
		if from, err = parseDateParam(c.Query("start_date")); err != nil {
			a.respondError(c, err)
			return
		}
		if to, err = parseDateParam(c.Query("end_date")); err != nil {
			a.respondError(c, err)
			return
		}
		if to < from {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not precede start_date"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "date or start_date/end_date required"})
		return
	}

	ranges, err := a.ListAvailability(c.Request.Context(), actor.CoachID, from, to)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availabilities": ranges, "count": len(ranges)})
}

// DELETE /api/availability?id= | ?date=
func (a *App) DeleteAvailabilityHandler(c *gin.Context) {
	actor := actorFrom(c)
	if actor.CoachID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must be a coach"})
		return
	}

	if idStr := c.Query("id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := a.DeleteAvailabilityByID(c.Request.Context(), actor.CoachID, id); err != nil {
			a.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted_count": 1})
		return
	}

	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	n, err := a.DeleteAvailabilityByDate(c.Request.Context(), actor.CoachID, date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": n})
}
