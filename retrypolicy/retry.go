// Package retrypolicy decides whether and how long to wait before the next
// attempt of a failed request, per spec.md §4.1.
package retrypolicy

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Endpoint names the request family a retry decision applies to, so a
// policy can exclude specific endpoints (e.g. never retry publish).
type Endpoint string

const (
	EndpointSubscribe Endpoint = "subscribe"
	EndpointHeartbeat Endpoint = "heartbeat"
	EndpointLeave     Endpoint = "leave"
	EndpointPublish   Endpoint = "publish"
)

// Outcome describes the result of the attempt the policy is judging.
type Outcome struct {
	// StatusCode is the HTTP status of the response, if one was received.
	StatusCode int
	// RetryAfter is the parsed Retry-After duration, set when an error
	// response carried the header; HasRetryAfter reports whether it did.
	RetryAfter    time.Duration
	HasRetryAfter bool
	// Err is the error the attempt failed with; StatusCode is 0 when the
	// request never produced a response at all. EffectCanceled must never reach this struct: the
	// dispatcher treats cancellation as "give up silently", not a policy
	// question.
	Err error
}

// Policy is the common interface implemented by None, Linear and Exponential.
type Policy interface {
	// RetryDelay returns the delay before the next attempt, or false if the
	// caller should give up.
	RetryDelay(endpoint Endpoint, attempt int, outcome Outcome) (time.Duration, bool)
}

// None never retries.
type None struct{}

// RetryDelay always gives up.
func (None) RetryDelay(Endpoint, int, Outcome) (time.Duration, bool) { return 0, false }

// Linear retries with a constant delay up to max_retry attempts.
type Linear struct {
	Delay             time.Duration
	MaxRetry          int
	ExcludedEndpoints map[Endpoint]struct{}
}

// RetryDelay implements Policy for the Linear strategy.
func (l Linear) RetryDelay(endpoint Endpoint, attempt int, outcome Outcome) (time.Duration, bool) {
	if d, ok := retryAfterOverride(outcome); ok {
		return d, true
	}
	if !isServerError(outcome) {
		return 0, false
	}
	if _, excluded := l.ExcludedEndpoints[endpoint]; excluded {
		return 0, false
	}
	if attempt > l.MaxRetry {
		return 0, false
	}
	b := backoff.NewConstantBackOff(l.Delay)
	return b.NextBackOff(), true
}

// Exponential retries with min(min_delay^attempt, max_delay).
type Exponential struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	MaxRetry          int
	ExcludedEndpoints map[Endpoint]struct{}
}

// RetryDelay implements Policy for the Exponential strategy: the Nth
// attempt waits min(min_delay^attempt, max_delay), the base and result
// both in whole seconds.
func (e Exponential) RetryDelay(endpoint Endpoint, attempt int, outcome Outcome) (time.Duration, bool) {
	if d, ok := retryAfterOverride(outcome); ok {
		return d, true
	}
	if !isServerError(outcome) {
		return 0, false
	}
	if _, excluded := e.ExcludedEndpoints[endpoint]; excluded {
		return 0, false
	}
	if attempt > e.MaxRetry {
		return 0, false
	}
	return e.poweredDelay(attempt), true
}

// poweredDelay raises MinDelay (in seconds) to the attempt power, clamped
// at MaxDelay. Clamping inside the loop also guards the multiplication
// against overflow on large attempt counts.
func (e Exponential) poweredDelay(attempt int) time.Duration {
	base := int64(e.MinDelay / time.Second)
	maxSecs := int64(e.MaxDelay / time.Second)
	if base <= 1 {
		return e.MinDelay
	}
	powered := int64(1)
	for i := 0; i < attempt; i++ {
		powered *= base
		if maxSecs > 0 && powered >= maxSecs {
			return e.MaxDelay
		}
	}
	return time.Duration(powered) * time.Second
}

func retryAfterOverride(outcome Outcome) (time.Duration, bool) {
	if outcome.StatusCode == 429 && outcome.HasRetryAfter {
		return outcome.RetryAfter, true
	}
	return 0, false
}

func isServerError(outcome Outcome) bool {
	if outcome.StatusCode >= 500 && outcome.StatusCode < 600 {
		return true
	}
	// A transport error with no HTTP status at all (connection reset,
	// timeout) is treated the same as a 5xx for retry purposes.
	return outcome.StatusCode == 0 && outcome.Err != nil
}
