package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimulatorDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   time.Duration
		perW   time.Duration
		jitter time.Duration
		rand   float64
		text   string
		want   time.Duration
	}{
		{
			name: "base only for empty text",
			base: 100 * time.Millisecond,
			perW: 10 * time.Millisecond,
			text: "",
			want: 100 * time.Millisecond,
		},
		{
			name: "per word component",
			base: 100 * time.Millisecond,
			perW: 10 * time.Millisecond,
			text: "one two three",
			want: 130 * time.Millisecond,
		},
		{
			name:   "jitter at top of range",
			base:   100 * time.Millisecond,
			perW:   10 * time.Millisecond,
			jitter: 50 * time.Millisecond,
			rand:   1,
			text:   "one two",
			want:   170 * time.Millisecond,
		},
		{
			name:   "jitter pinned to zero",
			base:   100 * time.Millisecond,
			perW:   10 * time.Millisecond,
			jitter: 50 * time.Millisecond,
			rand:   0,
			text:   "one two",
			want:   120 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			randVal := tt.rand
			s := NewSimulator(tt.base, tt.perW, tt.jitter,
				WithRandFn(func() float64 { return randVal }))
			if got := s.Duration(tt.text); got != tt.want {
				t.Errorf("Duration(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSimulatorWaitHonorsCancellation(t *testing.T) {
	t.Parallel()

	s := NewSimulator(time.Hour, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Wait(ctx, "anything"); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled context error = %v, want context.Canceled", err)
	}
}

func TestSimulatorWaitWithStubSleep(t *testing.T) {
	t.Parallel()

	var slept time.Duration
	s := NewSimulator(50*time.Millisecond, 10*time.Millisecond, 0,
		WithSleep(func(_ context.Context, d time.Duration) error {
			slept = d
			return nil
		}))

	if err := s.Wait(context.Background(), "a b c"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if want := 80 * time.Millisecond; slept != want {
		t.Errorf("slept %v, want %v", slept, want)
	}
}
