package app

import (
	"testing"
	"time"
)

func TestMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want uint64
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Nanosecond, 1},
		{999 * time.Microsecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{2 * time.Second, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := millis(tt.in); got != tt.want {
				t.Errorf("millis(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
