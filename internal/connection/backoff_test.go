package connection

import (
	"testing"
	"time"
)

func TestReconnectDelay(t *testing.T) {
	base := 2 * time.Second
	max := 30 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{4, 30 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{1000, 30 * time.Second},
		{-1, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := ReconnectDelay(tt.attempt, base, max); got != tt.want {
			t.Errorf("ReconnectDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestReconnectDelay_Bounds(t *testing.T) {
	base := 2 * time.Second
	max := 30 * time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 200; attempt++ {
		got := ReconnectDelay(attempt, base, max)
		if got > max {
			t.Fatalf("attempt %d: %v exceeds max", attempt, got)
		}
		if got < base {
			t.Fatalf("attempt %d: %v below base", attempt, got)
		}
		if got < prev {
			t.Fatalf("attempt %d: %v decreased from %v", attempt, got, prev)
		}
		prev = got
	}
}

func TestReconnectDelay_Degenerate(t *testing.T) {
	if got := ReconnectDelay(3, 0, time.Second); got != 0 {
		t.Errorf("zero base: got %v, want 0", got)
	}
	if got := ReconnectDelay(3, time.Second, 0); got != 0 {
		t.Errorf("zero max: got %v, want 0", got)
	}
	if got := ReconnectDelay(0, time.Minute, time.Second); got != time.Second {
		t.Errorf("base above max: got %v, want 1s", got)
	}
}
