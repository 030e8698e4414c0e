package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
)

func TestRetry(t *testing.T) {
	logger := &logging.NoopLogger{}

	tests := []struct {
		name           string
		operation      func() (string, error)
		config         *RetryConfig
		expectedResult string
		expectError    bool
	}{
		{
			name: "success on first try",
			operation: func() (string, error) {
				return "success", nil
			},
			config:         DefaultRetryConfig(),
			expectedResult: "success",
			expectError:    false,
		},
		{
			name: "failure after all retries",
			operation: func() (string, error) {
				return "", errors.New("operation failed")
			},
			config: &RetryConfig{
				MaxRetries:      2,
				InitialDelay:    10 * time.Millisecond,
				MaxDelay:        100 * time.Millisecond,
				BackoffFactor:   2.0,
				JitterFactor:    0.1,
				LogRetryAttempt: false,
			},
			expectedResult: "",
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Retry(context.Background(), tt.operation, tt.config, logger)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	logger := &logging.NoopLogger{}

	attempts := 0
	operation := func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient failure")
		}
		return 42, nil
	}

	config := &RetryConfig{
		MaxRetries:      5,
		InitialDelay:    5 * time.Millisecond,
		MaxDelay:        50 * time.Millisecond,
		BackoffFactor:   2.0,
		JitterFactor:    0,
		LogRetryAttempt: false,
	}

	result, err := Retry(context.Background(), operation, config, logger)
	assert.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
}

func TestRetryRespectsShouldRetry(t *testing.T) {
	logger := &logging.NoopLogger{}

	permanent := errors.New("permanent failure")
	attempts := 0
	operation := func() (string, error) {
		attempts++
		return "", permanent
	}

	config := &RetryConfig{
		MaxRetries:      5,
		InitialDelay:    5 * time.Millisecond,
		MaxDelay:        50 * time.Millisecond,
		BackoffFactor:   2.0,
		JitterFactor:    0,
		LogRetryAttempt: false,
		ShouldRetry: func(err error, attempt int) bool {
			return !errors.Is(err, permanent)
		},
	}

	_, err := Retry(context.Background(), operation, config, logger)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryContextCancellation(t *testing.T) {
	logger := &logging.NoopLogger{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	operation := func() (string, error) {
		return "", errors.New("should not matter")
	}

	_, err := Retry(ctx, operation, DefaultRetryConfig(), logger)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RetryConfig
		wantErr bool
	}{
		{"default config is valid", DefaultRetryConfig(), false},
		{"negative retries", &RetryConfig{MaxRetries: -1, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 2.0}, true},
		{"zero initial delay", &RetryConfig{MaxRetries: 1, InitialDelay: 0, MaxDelay: time.Second, BackoffFactor: 2.0}, true},
		{"backoff below one", &RetryConfig{MaxRetries: 1, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 0.5}, true},
		{"jitter above one", &RetryConfig{MaxRetries: 1, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 2.0, JitterFactor: 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCalculateNextDelay(t *testing.T) {
	next := CalculateNextDelay(time.Second, 2.0, 30*time.Second)
	assert.Equal(t, 2*time.Second, next)

	capped := CalculateNextDelay(20*time.Second, 2.0, 30*time.Second)
	assert.Equal(t, 30*time.Second, capped)
}
