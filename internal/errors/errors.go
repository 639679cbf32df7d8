package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryUnauthorized  ErrorCategory = "unauthorized"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryStorage       ErrorCategory = "storage"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError wraps an errbuilder error with a category and HTTP status
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory     `json:"category"`
	HTTPStatus int               `json:"http_status"`
	Fields     map[string]string `json:"fields,omitempty"`
	RetryAfter time.Duration     `json:"-"`
	Timestamp  time.Time         `json:"timestamp"`
	StackTrace string            `json:"stack_trace,omitempty"`
}

// ErrorResponse is the JSON body written for a failed request
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
}

// Code returns the display code for the underlying errbuilder code
func (e *AppError) Code() string {
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		return "VALIDATION_ERROR"
	case errbuilder.CodeNotFound:
		return "NOT_FOUND"
	case errbuilder.CodeUnauthenticated:
		return "UNAUTHORIZED"
	case errbuilder.CodeUnavailable:
		return "STORAGE_UNAVAILABLE"
	case errbuilder.CodeDeadlineExceeded:
		return "TIMEOUT_ERROR"
	case errbuilder.CodeResourceExhausted:
		return "RATE_LIMIT_EXCEEDED"
	case errbuilder.CodeInternal:
		return "INTERNAL_ERROR"
	case errbuilder.CodeFailedPrecondition:
		return "CONFIGURATION_ERROR"
	}
	return "UNKNOWN_ERROR"
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// Response builds the JSON body for this error
func (e *AppError) Response(requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     e.ErrBuilder.Msg,
		Code:      e.Code(),
		Category:  e.Category,
		Fields:    e.Fields,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a validation error with one entry per field.
func NewValidationError(message string, fields map[string]string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(fields) > 0 {
		errorMap := errbuilder.ErrorMap{}
		for _, field := range sortedKeys(fields) {
			errorMap.Set(field, errors.New(fields[field]))
		}
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	appErr := NewAppError(builder, CategoryValidation, http.StatusBadRequest)
	appErr.Fields = fields
	return appErr
}

// NewNotFoundError reports a missing resource. cause is kept for errors.Is.
func NewNotFoundError(resource, id string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s %q not found", resource, id))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewUnauthorizedError rejects a request without valid admin credentials
func NewUnauthorizedError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryUnauthorized, http.StatusUnauthorized)
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewRateLimitError creates a rate limit error using errbuilder
func NewRateLimitError(retryAfter time.Duration) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter.String()))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	appErr.RetryAfter = retryAfter
	return appErr
}

// NewStorageError reports a failed history store operation. Storage errors
// are retryable.
func NewStorageError(op string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("operation", errors.New(op))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg("History storage unavailable").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryStorage, http.StatusServiceUnavailable)
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	// Capture stack trace in development/debug mode
	if gin.Mode() == gin.DebugMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("config_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// captureStackTrace captures a stack trace for debugging
func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		LogError(c, appErr)
		Abort(c, appErr)
	}
}

// Abort writes the error response and stops the handler chain
func Abort(c *gin.Context, appErr *AppError) {
	if appErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(appErr.RetryAfter.Seconds()))))
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response(c.GetHeader("X-Request-ID")))
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		Abort(c, appErr)
	})
}

// validationError is implemented by input errors that report per-field reasons
type validationError interface {
	error
	ValidationFields() map[string]string
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var invalid validationError
	if errors.As(err, &invalid) {
		return NewValidationError("Invalid applicant", invalid.ValidationFields())
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.Code(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
	)

	msg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryUnauthorized, CategoryRateLimit:
		if len(err.Fields) > 0 {
			logEntry.Warn(msg, "fields", err.Fields)
		} else {
			logEntry.Warn(msg)
		}
	case CategoryTimeout:
		logEntry.Info(msg, "cause", cause)
	case CategoryStorage:
		logEntry.Warn(msg, "cause", cause)
	default:
		logEntry.Error(msg, "cause", cause)
	}

	if err.StackTrace != "" && gin.Mode() == gin.DebugMode {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError checks if an error should trigger a retry
func IsRetryableError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}

	switch appErr.Category {
	case CategoryStorage, CategoryTimeout:
		return true
	default:
		return false
	}
}

// IsCategory reports whether err is an AppError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == category
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
