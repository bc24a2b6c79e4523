package ghclient

import "golang.org/x/time/rate"

// newLimiter builds a token bucket, falling back to 1 rps / burst 1.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
