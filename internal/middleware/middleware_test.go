package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/testdb"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	claims *types.TokenClaims
	err    error
	got    string
}

func (v *stubValidator) ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error) {
	v.got = token
	return v.claims, v.err
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	newRouter := func(v TokenValidator) *gin.Engine {
		r := gin.New()
		r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
			id, ok := UserID(c)
			require.True(t, ok)
			claims, ok := Claims(c)
			require.True(t, ok)
			c.JSON(http.StatusOK, gin.H{"id": id.String(), "email": claims.Email})
		})
		return r
	}

	t.Run("should store the caller for valid tokens", func(t *testing.T) {
		v := &stubValidator{claims: &types.TokenClaims{UserID: userID, Email: "ana@example.com"}}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		newRouter(v).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc.def.ghi", v.got)
		assert.JSONEq(t, `{"id":"`+userID.String()+`","email":"ana@example.com"}`, w.Body.String())
	})

	cases := []struct {
		name   string
		header string
		err    error
	}{
		{"should reject a missing header", "", nil},
		{"should reject a non bearer scheme", "Basic dXNlcjpwYXNz", nil},
		{"should reject an invalid token", "Bearer nope", errors.New("invalid token")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &stubValidator{claims: &types.TokenClaims{UserID: userID}, err: tc.err}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			newRouter(v).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decodeError(t, w).Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(logger.FromZap(zap.New(core))))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, types.APIError{Message: "Internal Server Error", Code: "internal_error"}, decodeError(t, w))
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, "/boom", logs.All()[0].ContextMap()["path"])
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(logger.FromZap(zap.New(core))))
	r.GET("/ok/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok/:id", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func withUser(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(userIDKey, id)
		c.Next()
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	rl := NewAIRateLimiter(client, 1, time.Minute, logger.FromZap(zap.New(core)))
	r := gin.New()
	r.POST("/ai", withUser(uuid.New()), rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
	assert.Equal(t, 1, logs.FilterMessage("rate limit check failed").Len())
}

func TestRateLimiter_RequiresUser(t *testing.T) {
	rl := NewAIRateLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 1, time.Minute, nil)
	r := gin.New()
	r.POST("/ai", rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter_Redis(t *testing.T) {
	client := testdb.SetupRedis(t)
	rl := NewAIRateLimiter(client, 2, time.Hour, nil)
	user := uuid.New()
	r := gin.New()
	r.POST("/ai", withUser(user), rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i, remaining := range []string{"1", "0"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai", nil))
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, remaining, w.Header().Get("X-RateLimit-Remaining"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decodeError(t, w).Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	allowed, _, _, err := rl.IsAllowed(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.True(t, allowed)
}
