package scheduler

import (
	"testing"
	"time"
)

func TestBackoffGrowthAndCap(t *testing.T) {
	b := NewBackoff(30*time.Second, 600*time.Second)

	want := []time.Duration{30, 60, 120, 240, 480, 600, 600}
	for i, w := range want {
		if got := b.Failure(); got != w*time.Second {
			t.Errorf("failure %d: got %v, want %v", i+1, got, w*time.Second)
		}
	}
}

func TestBackoffResetOnSuccess(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)
	b.Failure()
	b.Failure()

	if got := b.Success(); got != time.Second {
		t.Errorf("Success() = %v, want 1s", got)
	}
	if got := b.Failure(); got != time.Second {
		t.Errorf("first failure after success = %v, want 1s", got)
	}
}

func TestBackoffCeilingBelowBase(t *testing.T) {
	b := NewBackoff(10*time.Second, 5*time.Second)
	for i := 0; i < 3; i++ {
		if got := b.Failure(); got != 10*time.Second {
			t.Errorf("got %v, want base when ceiling is below it", got)
		}
	}
}
