package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func iv(a, b string) Interval {
	return Interval{Start: MustDate(a), End: MustDate(b)}
}

func TestInterval_Overlaps(t *testing.T) {
	stored := iv("2023-01-01", "2023-01-31")

	tests := []struct {
		name  string
		query Interval
		want  bool
	}{
		{"touching end boundary", iv("2023-01-31", "2023-02-15"), true},
		{"touching start boundary", iv("2022-12-15", "2023-01-01"), true},
		{"day after end", iv("2023-02-01", "2023-02-15"), false},
		{"day before start", iv("2022-12-01", "2022-12-31"), false},
		{"contained", iv("2023-01-10", "2023-01-12"), true},
		{"containing", iv("2022-01-01", "2024-01-01"), true},
		{"single day inside", iv("2023-01-15", "2023-01-15"), true},
		{"inverted query", iv("2023-02-15", "2023-01-31"), true},
		{"inverted query outside", iv("2023-02-15", "2023-02-01"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stored.Overlaps(tt.query))
			assert.Equal(t, tt.want, tt.query.Overlaps(stored), "overlap must be symmetric")
		})
	}
}

func TestInterval_InvertedStored(t *testing.T) {
	stored := iv("2023-01-31", "2023-01-01")
	assert.True(t, stored.Inverted())
	assert.True(t, stored.Overlaps(iv("2023-01-15", "2023-01-20")))
	assert.False(t, stored.Overlaps(iv("2023-03-01", "2023-03-02")))
	assert.Equal(t, iv("2023-01-01", "2023-01-31"), stored.Normalized())
}

func TestInterval_Contains(t *testing.T) {
	i := iv("2024-01-01", "2024-01-31")
	assert.True(t, i.Contains(MustDate("2024-01-01")))
	assert.True(t, i.Contains(MustDate("2024-01-31")))
	assert.False(t, i.Contains(MustDate("2024-02-01")))
}
