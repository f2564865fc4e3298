package storage

import "testing"

func TestClampAlertLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 50},
		{-5, 50},
		{1, 1},
		{50, 50},
		{200, 200},
		{201, 200},
		{5000, 200},
	}
	for _, c := range cases {
		if got := clampAlertLimit(c.in); got != c.want {
			t.Fatalf("clampAlertLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
