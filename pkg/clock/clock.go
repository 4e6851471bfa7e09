package clock

import (
	"context"
	"time"
)

// Clock provides the current time. Tests pass a Fixed clock through the context.
type Clock interface {
	Now() time.Time
}

type clockKey struct{}

// WithClock returns a child context carrying c. Repositories stamp created_at,
// login_time and generated_at columns from it.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, c)
}

// Now returns the current UTC time from the Clock in ctx, or time.Now().
func Now(ctx context.Context) time.Time {
	if c, ok := ctx.Value(clockKey{}).(Clock); ok {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
