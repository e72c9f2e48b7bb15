package slot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, Enumerate())

	// All is restartable.
	first := 0
	for h := range All() {
		first = h
		break
	}
	assert.Equal(t, FirstHour, first)
	assert.Len(t, Enumerate(), 12)
}

func TestMaxDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12, MaxDuration(8))
	assert.Equal(t, 1, MaxDuration(19))
	for h := range All() {
		require.NoError(t, Validate(h, MaxDuration(h)))
		require.Error(t, Validate(h, MaxDuration(h)+1))
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    int
		duration int
		wantErr  bool
	}{
		{name: "first hour", start: 8, duration: 1},
		{name: "whole day", start: 8, duration: 12},
		{name: "last hour", start: 19, duration: 1},
		{name: "before opening", start: 7, duration: 1, wantErr: true},
		{name: "at closing", start: 20, duration: 1, wantErr: true},
		{name: "zero duration", start: 10, duration: 0, wantErr: true},
		{name: "negative duration", start: 10, duration: -2, wantErr: true},
		{name: "runs past closing", start: 18, duration: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.start, tt.duration)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var rangeErr *InvalidRangeError
			require.True(t, errors.As(err, &rangeErr), "expected InvalidRangeError, got %v", err)
			assert.Equal(t, tt.start, rangeErr.Slot)
			assert.Equal(t, tt.duration, rangeErr.Duration)
		})
	}
}

func TestRangeOverlaps(t *testing.T) {
	t.Parallel()

	existing := OccupiedRange(10, 1)
	assert.False(t, existing.Overlaps(OccupiedRange(11, 1)), "touching ranges must not overlap")
	assert.False(t, existing.Overlaps(OccupiedRange(9, 1)))
	assert.True(t, existing.Overlaps(OccupiedRange(10, 1)))
	assert.True(t, OccupiedRange(9, 2).Overlaps(OccupiedRange(10, 1)))
	assert.True(t, OccupiedRange(10, 1).Overlaps(OccupiedRange(8, 4)))

	shared, ok := OccupiedRange(9, 3).Intersect(OccupiedRange(11, 2))
	require.True(t, ok)
	assert.Equal(t, Range{Start: 11, End: 12}, shared)
}

func TestRangeHoursAndLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{9, 10}, OccupiedRange(9, 2).Hours())
	assert.Nil(t, Range{Start: 5, End: 5}.Hours())
	assert.Nil(t, Range{Start: 7, End: 5}.Hours())
	assert.Equal(t, 2, OccupiedRange(9, 2).Len())
	assert.Equal(t, 0, Range{Start: 7, End: 5}.Len())
	assert.Equal(t, "09:00 - 10:00", Label(9))
	assert.Equal(t, "18:00 - 20:00", OccupiedRange(18, 2).String())
	assert.Equal(t, 1, NormalizeDuration(0))
	assert.Equal(t, 3, NormalizeDuration(3))
}
