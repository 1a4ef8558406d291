package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(rl *RateLimiter, endpointLimit int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/score", rl.EndpointRateLimitMiddleware("score", endpointLimit), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestEndpointRateLimitMiddleware_SetsHeaders(t *testing.T) {
	r := newLimitedRouter(newFallbackLimiter(DefaultConfig()), 30)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/score", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "30", w.Header().Get("X-RateLimit-Endpoint-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Endpoint-Remaining"))
}

func TestEndpointRateLimitMiddleware_BlocksAfterBurst(t *testing.T) {
	r := newLimitedRouter(newFallbackLimiter(Config{IPLimitPerMin: 60, BurstMultiplier: 1}), 1)

	// Burst floor is 5 tokens; exhaust them
	var blocked bool
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/score", nil)
		r.ServeHTTP(w, req)

		if w.Code == http.StatusTooManyRequests {
			blocked = true
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), "score")
			break
		}
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.True(t, blocked, "expected the endpoint limiter to return 429 after the burst")
}
