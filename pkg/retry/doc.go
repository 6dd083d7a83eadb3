// Package retry repeats failed network operations with a fixed delay.
//
// It is a thin layer over github.com/avast/retry-go that knows which
// scraper errors are transient (see errors.IsRetryable) and logs each
// retry. The delay between attempts equals the politeness delay so a retry
// never hits the site faster than a first request would.
//
//	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
//		return fetch(url)
//	}, &retry.Config{MaxRetries: 3, Delay: time.Second})
package retry
