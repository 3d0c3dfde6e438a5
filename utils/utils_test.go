package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMinor(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0.00"},
		{990, "9.90"},
		{1089050, "10,890.50"},
		{123456789, "1,234,567.89"},
		{-2500, "-25.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMinor(tt.amount))
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("placing order: %w", ErrConflict("item %d already reserved", 4))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindConflict))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitLogger()

	tests := []struct {
		err  error
		code int
	}{
		{ErrNotFound("missing"), http.StatusNotFound},
		{ErrForbidden("nope"), http.StatusForbidden},
		{ErrGone("expired"), http.StatusGone},
		{ErrTooManyRequests("slow down"), http.StatusTooManyRequests},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		RespondError(c, tt.err)

		assert.Equal(t, tt.code, w.Code)
		var body JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Status)
		if tt.code == http.StatusInternalServerError {
			assert.Equal(t, "internal server error", body.Message)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := GenerateToken(secret, 7, 3, "staff", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.BranchID)
	assert.Equal(t, "staff", claims.Role)

	_, err = ParseToken([]byte("other"), token)
	assert.Error(t, err)

	expired, err := GenerateToken(secret, 7, 3, "staff", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.Error(t, err)
}
