// Package ratelimit paces outgoing requests.
//
// Politeness wraps golang.org/x/time/rate with a burst of one so that no two
// requests, retries included, are sent closer together than the configured
// delay:
//
//	limiter := ratelimit.NewPoliteness(time.Second)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
