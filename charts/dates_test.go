package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2022-01-05", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"2022-01-05 08:30", time.Date(2022, 1, 5, 8, 30, 0, 0, time.UTC), true},
		{"01/05/2022", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"Jan 5, 2022", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"12", time.Time{}, false},
		{"10:30", time.Time{}, false},
		{"Q1 2022", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}
