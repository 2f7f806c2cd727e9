package kafka

import (
	"testing"
	"time"
)

func TestFetchBackoff(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{10, 30 * time.Second},
		{100, 30 * time.Second},
	}

	for _, c := range cases {
		if got := fetchBackoff(c.failures); got != c.want {
			t.Errorf("fetchBackoff(%d) = %v, want %v", c.failures, got, c.want)
		}
	}
}
