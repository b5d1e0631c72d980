package util_test

import (
	"testing"
	"time"

	"github.com/l8smu/rankedbot/internal/util"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in       time.Duration
		expected string
	}{
		{1 * time.Minute, "1m"},
		{90 * time.Second, "1m30s"},
		{1*time.Hour + 20*time.Minute, "1h20m"},
		{2 * time.Hour, "2h"},
		{25 * time.Hour, "1d1h"},
	}

	for _, c := range cases {
		if got := util.FormatDuration(c.in); got != c.expected {
			t.Errorf("FormatDuration(%s) = %q, want %q", c.in, got, c.expected)
		}
	}
}
