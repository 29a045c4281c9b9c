package discovery

import (
	"context"
	"time"
)

// Pacer inserts the polite delay after every fetch that loads the target
// server.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a pacer that blocks for delay on each call. A zero or
// negative delay never blocks.
func NewPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return NopPacer{}
	}
	return &sleepPacer{delay: delay}
}

type sleepPacer struct {
	delay time.Duration
}

func (p *sleepPacer) Wait(ctx context.Context) error {
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error { return ctx.Err() }
