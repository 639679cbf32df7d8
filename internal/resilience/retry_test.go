package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryWithConfig(t *testing.T) {
	storageErr := apperrors.NewStorageError("append", errors.New("database is locked"))
	plainErr := errors.New("bad request")

	tests := []struct {
		name          string
		failures      int
		err           error
		expectedCalls int
		expectErr     bool
	}{
		{"succeeds first time", 0, nil, 1, false},
		{"recovers from storage error", 2, storageErr, 3, false},
		{"gives up after max attempts", 5, storageErr, 3, true},
		{"does not retry permanent errors", 5, plainErr, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithConfig(context.Background(), fastConfig(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectErr {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryWithConfig_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithConfig(ctx, fastConfig(), func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestCalculateDelay(t *testing.T) {
	config := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(config, 0))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(config, 2))
	assert.Equal(t, time.Second, calculateDelay(config, 10))

	config.JitterEnabled = true
	d := calculateDelay(config, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 110*time.Millisecond)
}
