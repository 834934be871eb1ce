package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "test-secret"

	router := gin.New()
	router.Use(AuthMiddleware(secret))
	router.GET("/whoami", func(c *gin.Context) {
		actor := actorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "coach_id": actor.CoachID})
	})

	sign := func(secret, subject string, coachID int64) string {
		claims := authClaims{
			CoachID: coachID,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}

	do := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("").Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Basic abc").Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+sign("other-secret", "7", 0)).Code)
	})

	t.Run("non-numeric subject", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+sign(secret, "alice", 0)).Code)
	})

	t.Run("valid trainee token", func(t *testing.T) {
		w := do("Bearer " + sign(secret, "7", 0))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":7,"coach_id":0}`, w.Body.String())
	})

	t.Run("valid coach token", func(t *testing.T) {
		w := do("Bearer " + sign(secret, "7", 3))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":7,"coach_id":3}`, w.Body.String())
	})
}
