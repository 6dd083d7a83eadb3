package retry

import (
	"context"
	"errors"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxRetries is how many times a failed attempt is repeated; 0 means one attempt only
	MaxRetries int
	// Delay is the fixed pause between attempts
	Delay time.Duration
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called after each failed attempt that will be retried
	OnRetry func(attempt uint, err error)
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		Delay:      time.Second,
		RetryIf:    DefaultRetryIf,
		Logger:     logger.NewNopLogger(),
	}
}

// DefaultRetryIf retries transport errors whose type is retryable.
// Context cancellation and filesystem failures are never retried.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr *errs.Error
	if errors.As(err, &netErr) {
		return errs.IsRetryable(netErr.Type)
	}
	return false
}

func (c *Config) options(ctx context.Context) []retrygo.Option {
	retryIf := c.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := c.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempts := uint(maxRetries) + 1

	return []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(attempts),
		retrygo.Delay(c.Delay),
		retrygo.DelayType(retrygo.FixedDelay),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(retryIf),
		retrygo.OnRetry(func(n uint, err error) {
			// retry-go also reports the final failed attempt here
			if n+1 >= attempts {
				return
			}
			log.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":     int(n) + 1,
				"error":       err.Error(),
				"delay_ms":    c.Delay.Milliseconds(),
				"max_retries": maxRetries,
			})
			if c.OnRetry != nil {
				c.OnRetry(n+1, err)
			}
		}),
	}
}

// Do executes op until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx is done. The last error is returned.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return retrygo.Do(retrygo.RetryableFunc(op), cfg.options(ctx)...)
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return retrygo.DoWithData(retrygo.RetryableFuncWithData[T](op), cfg.options(ctx)...)
}
