package provider

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Simulator models the "thinking time" of a response source: a base delay
// plus a per-word component and random jitter. It stands in for network and
// generation latency so the orchestration behaves identically in tests and
// production.
type Simulator struct {
	Base    time.Duration
	PerWord time.Duration
	Jitter  time.Duration

	randFn func() float64
	sleep  func(ctx context.Context, d time.Duration) error
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithRandFn overrides the jitter source for tests.
func WithRandFn(fn func() float64) SimulatorOption {
	return func(s *Simulator) {
		s.randFn = fn
	}
}

// WithSleep overrides the sleep function for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) SimulatorOption {
	return func(s *Simulator) {
		s.sleep = fn
	}
}

// NewSimulator creates a latency simulator.
func NewSimulator(base, perWord, jitter time.Duration, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		Base:    base,
		PerWord: perWord,
		Jitter:  jitter,
		randFn:  rand.Float64,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Duration computes the simulated latency for the given text: latency grows
// with input length and includes random jitter.
func (s *Simulator) Duration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := s.Base + time.Duration(words)*s.PerWord
	if s.Jitter > 0 {
		d += time.Duration(s.randFn() * float64(s.Jitter))
	}
	return d
}

// Wait blocks for the simulated latency or until the context is done.
func (s *Simulator) Wait(ctx context.Context, text string) error {
	return s.sleep(ctx, s.Duration(text))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
