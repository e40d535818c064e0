package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Options are shared by every backend. The zero value is usable.
type Options struct {
	// Deadline bounds each operation. Zero leaves the caller's context alone.
	Deadline time.Duration
	Logger   *zap.Logger
	// Now stamps updated comments. Defaults to time.Now in UTC.
	Now func() time.Time
}

func (o Options) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Deadline > 0 {
		return context.WithTimeout(ctx, o.Deadline)
	}
	return ctx, func() {}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
