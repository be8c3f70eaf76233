package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	ok, _ := l.take("a")
	assert.True(t, ok)
	ok, _ = l.take("a")
	assert.True(t, ok)
	ok, wait := l.take("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.take("b")
	assert.True(t, ok, "clients are limited independently")

	now = now.Add(time.Second)
	ok, _ = l.take("a")
	assert.True(t, ok)
}

func TestTokenBucket_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewTokenBucket(1, 1)
	fixed := time.Now()
	l.now = func() time.Time { return fixed }

	r := gin.New()
	r.Use(SecurityHeaders(), l.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
