// Package ratelimit throttles calls to the remote catalog API.
//
// The catalog service documents an average of three requests per second per
// integration; TokenBucket enforces that with a continuously refilled bucket.
//
//	limiter := ratelimit.FromConfig(cfg.RateLimit)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// call the API
package ratelimit
