package util

import (
	"context"
	"time"
)

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

/*
WaitOrDone sleeps for d unless ctx is cancelled first.

Returns false when the context ended before the wait finished.
*/
func WaitOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
