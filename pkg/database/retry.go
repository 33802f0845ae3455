package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

// RetryPolicy bounds the optimistic short-retry applied to write
// operations that hit transient storage contention.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetryPolicy mirrors the legacy 3-attempt exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	return p
}

// WithRetry runs fn, retrying with exponential backoff while the failure
// classifies as transient lock contention. Retries are a resilience
// affordance only; fn must be safe to re-run from scratch. When attempts
// exhaust the last error is surfaced as TRANSIENT_STORAGE.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	policy = policy.normalize()
	delay := policy.BaseDelay

	var err error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == policy.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return appErrors.Wrap(err, appErrors.ErrTransientStorage.Code, appErrors.ErrTransientStorage.Status, appErrors.ErrTransientStorage.Message)
}

// Transient pq error classes: serialization failures, deadlocks and lock
// timeouts resolve themselves on re-run.
var transientPqCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// IsTransient reports whether the error is worth a short retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := transientPqCodes[string(pqErr.Code)]
		return ok
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}

// IsUniqueViolation reports whether the error is a uniqueness violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
