package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradingstrategy-ai/reorgmon/internal/common"
	"github.com/tradingstrategy-ai/reorgmon/pkg/config"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name:      "net error",
			err:       timeoutError{},
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       fmt.Errorf("dial: %w", syscall.ECONNREFUSED),
			retryable: true,
		},
		{
			name:      "connection reset",
			err:       fmt.Errorf("read: %w", syscall.ECONNRESET),
			retryable: true,
		},
		{
			name:      "deadline exceeded text",
			err:       errors.New("context deadline exceeded"),
			retryable: true,
		},
		{
			name:      "rate limited",
			err:       errors.New("429 Too Many Requests"),
			retryable: true,
		},
		{
			name:      "bad gateway",
			err:       errors.New("502 Bad Gateway"),
			retryable: true,
		},
		{
			name:      "service unavailable",
			err:       errors.New("service unavailable"),
			retryable: true,
		},
		{
			name: "application error",
			err:  errors.New("invalid argument"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func testRetryConfig() *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    common.NewDuration(time.Second),
		MaxBackoff:        common.NewDuration(4 * time.Second),
		BackoffMultiplier: 2.0,
	}

	require.Equal(t, time.Duration(0), calculateBackoff(1, cfg))

	// Jitter is ±25%, so check the envelope rather than exact values.
	for attempt, base := range map[int]time.Duration{
		2: time.Second,
		3: 2 * time.Second,
		4: 4 * time.Second,
		5: 4 * time.Second, // capped at max backoff
	} {
		backoff := calculateBackoff(attempt, cfg)
		require.GreaterOrEqual(t, backoff, time.Duration(float64(base)*0.75), "attempt %d", attempt)
		require.LessOrEqual(t, backoff, time.Duration(float64(base)*1.25), "attempt %d", attempt)
	}
}

func TestRetryWithBackoff_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), testRetryConfig(), "test_op", func() error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryWithBackoff_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), testRetryConfig(), "test_op", func() error {
		calls++
		return errors.New("invalid argument")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Contains(t, err.Error(), "non-retryable")
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), testRetryConfig(), "test_op", func() error {
		calls++
		return errors.New("timeout")
	})
	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestRetryWithBackoff_NilConfigRunsOnce(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), nil, "test_op", func() error {
		calls++
		return errors.New("timeout")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryWithBackoff(ctx, testRetryConfig(), "test_op", func() error {
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "context cancelled")
}
