package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts   int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled" yaml:"jitter_enabled"`
}

// DefaultConfig returns a sensible default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Operation is an operation that can be retried
type Operation func(ctx context.Context) error

// Classifier decides whether an error is worth another attempt
type Classifier func(err error) bool

// Do executes op, retrying errors accepted by retryable with exponential backoff
func Do(ctx context.Context, config *Config, retryable Classifier, op Operation) error {
	if config == nil {
		config = DefaultConfig()
	}

	// op always runs at least once
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt >= maxAttempts || retryable == nil || !retryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.Delay(attempt)):
		}
	}

	return lastErr
}

// Delay returns the wait before the attempt following attempt
func (c *Config) Delay(attempt int) time.Duration {
	// delay = initial_delay * (backoff_factor ^ (attempt - 1))
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))

	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterEnabled {
		delay += rand.Float64() * 0.1 * delay // Up to 10% jitter
	}

	return time.Duration(delay)
}
