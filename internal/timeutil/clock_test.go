package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	clock := RealClock{}

	before := time.Now()
	now := clock.Now()
	after := time.Now()
	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}

	start := clock.Now().Add(-time.Second)
	if d := clock.Since(start); d < time.Second {
		t.Errorf("Since() = %v, expected at least 1s", d)
	}
}

func TestMockClockNowAndSet(t *testing.T) {
	base := time.Date(2013, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	if got := clock.Now(); !got.Equal(base) {
		t.Errorf("Now() = %v, want %v", got, base)
	}

	later := base.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClockAdvanceAndSince(t *testing.T) {
	base := time.Date(2013, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	start := clock.Now()
	clock.Advance(90 * time.Second)

	if d := clock.Since(start); d != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", d)
	}
}

func TestMockClockSleepRecords(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))

	done := make(chan struct{})
	go func() {
		clock.Sleep(time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("MockClock.Sleep blocked")
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != time.Hour {
		t.Errorf("Sleeps() = %v, want [1h]", sleeps)
	}
}
