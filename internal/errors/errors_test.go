package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldsErr struct{}

func (fieldsErr) Error() string { return "bad input" }

func (fieldsErr) ValidationFields() map[string]string {
	return map[string]string{"income": "must be positive", "loanTerm": "must be positive"}
}

func TestToAppError(t *testing.T) {
	sentinel := errors.New("missing")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		status   int
		code     string
	}{
		{"validation fields", fieldsErr{}, CategoryValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrapped validation", fmt.Errorf("score: %w", fieldsErr{}), CategoryValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", NewNotFoundError("history entry", "abc", sentinel), CategoryNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"storage", NewStorageError("append", errors.New("disk I/O error")), CategoryStorage, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"rate limit", NewRateLimitError(0), CategoryRateLimit, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{"unauthorized", NewUnauthorizedError("missing token", nil), CategoryUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"deadline", context.DeadlineExceeded, CategoryTimeout, http.StatusGatewayTimeout, "TIMEOUT_ERROR"},
		{"configuration", NewConfigurationError("bad backend", nil), CategoryConfiguration, http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"plain", errors.New("boom"), CategoryInternal, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.Equal(t, tt.code, appErr.Code())
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestValidationErrorFields(t *testing.T) {
	appErr := ToAppError(fieldsErr{})

	assert.Equal(t, map[string]string{
		"income":   "must be positive",
		"loanTerm": "must be positive",
	}, appErr.Fields)
	assert.Equal(t, "[VALIDATION_ERROR] Invalid applicant", appErr.Error())
}

func TestNotFoundKeepsCause(t *testing.T) {
	sentinel := errors.New("missing")
	err := NewNotFoundError("history entry", "abc", sentinel)

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, IsCategory(err, CategoryNotFound))
	assert.False(t, IsCategory(errors.New("x"), CategoryNotFound))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewStorageError("list", nil)))
	assert.True(t, IsRetryableError(fmt.Errorf("wrapped: %w", NewStorageError("list", nil))))
	assert.False(t, IsRetryableError(NewValidationError("bad", nil)))
	assert.False(t, IsRetryableError(errors.New("plain")))
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(fieldsErr{})
	})
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("X-Request-ID", "req-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, CategoryValidation, body.Category)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Len(t, body.Fields, 2)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryHandler())
	router.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
}
