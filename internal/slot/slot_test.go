package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name  string
		date  string
		label string
		loc   *time.Location
		want  time.Time
	}{
		{"morning utc", "2025-06-01", "10:00 AM", time.UTC, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"half hour", "2025-06-01", "10:30 AM", time.UTC, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{"afternoon", "2025-06-01", "01:30 PM", time.UTC, time.Date(2025, 6, 1, 13, 30, 0, 0, time.UTC)},
		{"nil location is utc", "2025-06-01", "04:00 PM", nil, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC)},
		{"other zone", "2025-06-01", "09:00 AM", ny, time.Date(2025, 6, 1, 9, 0, 0, 0, ny)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.date, tt.label, tt.loc)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestResolveRejects(t *testing.T) {
	_, err := Resolve("2025-06-01", "12:00 PM", time.UTC)
	assert.True(t, errors.Is(err, ErrUnknownLabel))

	_, err = Resolve("2025-06-01", "10:00", time.UTC)
	assert.True(t, errors.Is(err, ErrUnknownLabel))

	_, err = Resolve("06/01/2025", "10:00 AM", time.UTC)
	assert.True(t, errors.Is(err, ErrBadDate))

	_, err = Resolve("2025-02-30", "10:00 AM", time.UTC)
	assert.True(t, errors.Is(err, ErrBadDate))
}

func TestLabelRoundTrip(t *testing.T) {
	day, err := ParseDay("2025-06-01", time.UTC)
	require.NoError(t, err)
	for _, l := range Labels() {
		at, err := At(day, l)
		require.NoError(t, err)
		assert.Equal(t, l, Label(at))
	}
}

func TestLabelsIsACopy(t *testing.T) {
	l := Labels()
	l[0] = "nope"
	assert.Equal(t, "09:00 AM", Labels()[0])
	assert.Len(t, Labels(), 13)
}

func TestDayRange(t *testing.T) {
	at := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	start, end := DayRange(at)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, "2025-06-01", FormatDay(start))
}
