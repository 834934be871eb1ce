package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ValidationError reports malformed input. Raised before any transaction is
// opened.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AuthorizationError reports that the acting user may not perform the
// requested mutation on this entity.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// NotFoundError reports an unknown booking/coach/course/availability id.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// ConflictError reports a scheduling conflict detected at commit time, or an
// attempt to mutate a booking out of a terminal state.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// ConcurrencyError reports a lock wait or deadlock. The caller may safely
// retry the operation; create() re-checks overlap on every attempt.
type ConcurrencyError struct {
	Msg string
}

func (e *ConcurrencyError) Error() string { return e.Msg }

// concurrency SQLSTATEs: serialization failure, deadlock, lock not available.
var retryableSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

// wrapTxError converts retryable failures into ConcurrencyError and passes
// everything else through. A context deadline counts as retryable: the create
// transaction is bounded by TxTimeout, and the timeout firing while blocked
// on the advisory lock means another writer held it, not that anything broke.
func wrapTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ConcurrencyError{Msg: "could not serialize booking, retry"}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableSQLStates[pgErr.Code] {
		return &ConcurrencyError{Msg: "could not serialize booking, retry"}
	}
	return err
}

// respondError maps the error taxonomy onto HTTP status codes and emits a
// {"error": ...} body. Unexpected errors are logged and hidden.
func (a *App) respondError(c *gin.Context, err error) {
	var (
		ve *ValidationError
		ae *AuthorizationError
		ne *NotFoundError
		ce *ConflictError
		re *ConcurrencyError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, gin.H{"error": ae.Msg})
	case errors.As(err, &ne):
		c.JSON(http.StatusNotFound, gin.H{"error": ne.Error()})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Msg})
	case errors.As(err, &re):
		c.JSON(http.StatusConflict, gin.H{"error": re.Msg, "retryable": true})
	default:
		a.Log.Error("unexpected failure", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
