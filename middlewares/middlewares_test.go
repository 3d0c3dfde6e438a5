package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("order:1.2.3.4", 2, 10))
	now = now.Add(4 * time.Second)
	assert.True(t, rl.Allow("order:1.2.3.4", 2, 10))
	now = now.Add(4 * time.Second)
	assert.False(t, rl.Allow("order:1.2.3.4", 2, 10))
	assert.True(t, rl.Allow("order:5.6.7.8", 2, 10), "keys are independent")

	// The first admission leaves the window after 10s.
	now = now.Add(2 * time.Second)
	assert.True(t, rl.Allow("order:1.2.3.4", 2, 10))
	assert.False(t, rl.Allow("order:1.2.3.4", 2, 10))
}

func TestRateLimiterDegenerateInputsAdmit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("k", 0, 10))
		assert.True(t, rl.Allow("k", 5, 0))
		assert.True(t, rl.Allow("k", -1, -1))
	}
	assert.Zero(t, rl.Size())
}

func TestRateLimiterPrune(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a", 5, 60)
	now = now.Add(30 * time.Second)
	rl.Allow("b", 5, 60)
	now = now.Add(45 * time.Second)

	rl.Prune(time.Minute)
	assert.Equal(t, 1, rl.Size())
}

func TestLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	router := gin.New()
	router.POST("/orders", rl.Limit("order", 1, 60), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestStrictRateLimiter(t *testing.T) {
	router := gin.New()
	router.POST("/login", NewStrictRateLimiter(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 200, 200, 429}, codes)
}

func TestMaintenanceKey(t *testing.T) {
	tests := []struct {
		name, configured, supplied string
		want                       int
	}{
		{"matching key", "s3cret", "s3cret", http.StatusOK},
		{"wrong key", "s3cret", "nope", http.StatusForbidden},
		{"missing key", "s3cret", "", http.StatusForbidden},
		{"disabled", "", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/sweep", MaintenanceKey(tt.configured), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/sweep", nil)
			if tt.supplied != "" {
				req.Header.Set(MaintenanceKeyHeader, tt.supplied)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddlewareAndRoleCheck(t *testing.T) {
	secret := []byte("test-secret")
	router := gin.New()
	router.GET("/staff/me", AuthMiddleware(secret), RoleCheck(models.RoleStaff), func(c *gin.Context) {
		staff := CurrentStaff(c)
		c.JSON(http.StatusOK, gin.H{"user": staff.UserID, "branch": staff.BranchID})
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/staff/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	token, err := utils.GenerateToken(secret, 7, 3, models.RoleStaff, time.Hour)
	require.NoError(t, err)
	w := call("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":7,"branch":3}`, w.Body.String())

	waiter, err := utils.GenerateToken(secret, 8, 3, models.RoleWaiter, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+waiter).Code)

	admin, err := utils.GenerateToken(secret, 9, 3, models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call("Bearer "+admin).Code)

	forged, err := utils.GenerateToken([]byte("other"), 7, 3, models.RoleStaff, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+forged).Code)
}
