package clock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/xenon-middleware/xenon-go/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := clock.Real{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		move func(c *clock.Fake)
		want time.Time
	}{
		{"stopped", func(*clock.Fake) {}, start},
		{"advance", func(c *clock.Fake) { c.Advance(time.Hour) }, start.Add(time.Hour)},
		{"advance negative", func(c *clock.Fake) { c.Advance(-time.Minute) }, start.Add(-time.Minute)},
		{"set", func(c *clock.Fake) { c.Set(start.AddDate(1, 0, 0)) }, start.AddDate(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clock.NewFake(start)
			tt.move(c)
			for i := 0; i < 3; i++ {
				if got := c.Now(); !got.Equal(tt.want) {
					t.Errorf("call %d: Now() = %v, want %v", i, got, tt.want)
				}
			}
		})
	}
}

func TestFake_Stepping(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewStepping(start, time.Millisecond)

	for i := 0; i < 3; i++ {
		want := start.Add(time.Duration(i) * time.Millisecond)
		if got := c.Now(); !got.Equal(want) {
			t.Errorf("reading %d = %v, want %v", i, got, want)
		}
	}
}

func TestFake_ConcurrentAccess(t *testing.T) {
	c := clock.NewStepping(time.Now(), time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Now()
				c.Advance(time.Second)
			}
		}()
	}
	wg.Wait()
}
