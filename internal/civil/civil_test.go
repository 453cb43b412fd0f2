package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestParseYMD(t *testing.T) {
	tests := []struct {
		in      string
		want    YMD
		wantErr bool
	}{
		{"2025-09-04", YMD{2025, time.September, 4}, false},
		{"2025-02-29", YMD{}, true}, // not a leap year
		{"2024-02-29", YMD{2024, time.February, 29}, false},
		{"04/09/2025", YMD{}, true},
		{"2025-9-4", YMD{}, true},
		{"", YMD{}, true},
		{"2025-13-01", YMD{}, true},
	}
	for _, tt := range tests {
		got, err := ParseYMD(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDateFormat, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCivilToUTC_SaoPaulo(t *testing.T) {
	// Sao Paulo has had a fixed -03:00 offset since DST was abolished in 2019.
	sp := mustLoad(t, "America/Sao_Paulo")

	got := CivilToUTC(sp, 2025, time.September, 4, 19, 5, 0)
	want := time.Date(2025, time.September, 4, 22, 5, 0, 0, time.UTC)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestCivilToUTC_DSTTransitions(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// Spring forward 2025-03-09: every wall-clock input in the surrounding
	// week must resolve deterministically, including the 02:xx gap.
	for day := 6; day <= 12; day++ {
		for hour := 0; hour < 24; hour++ {
			a := CivilToUTC(ny, 2025, time.March, day, hour, 30, 0)
			b := CivilToUTC(ny, 2025, time.March, day, hour, 30, 0)
			assert.True(t, a.Equal(b))
			assert.False(t, a.IsZero())
		}
	}

	// Fall back 2025-11-02: the repeated 01:xx hour still yields one instant.
	a := CivilToUTC(ny, 2025, time.November, 2, 1, 30, 0)
	b := CivilToUTC(ny, 2025, time.November, 2, 1, 30, 0)
	assert.True(t, a.Equal(b))

	// Outside the ambiguous window the mapping is exact.
	got := CivilToUTC(ny, 2025, time.November, 2, 12, 0, 0)
	want := time.Date(2025, time.November, 2, 17, 0, 0, 0, time.UTC) // EST, -05:00
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestOffsetMinutesAt(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	summer := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	winter := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, -240, OffsetMinutesAt(summer, ny)) // EDT
	assert.Equal(t, -300, OffsetMinutesAt(winter, ny)) // EST
}

func TestDayRangeFor_RoundTrip(t *testing.T) {
	zones := []string{"America/Sao_Paulo", "America/New_York", "Europe/Lisbon", "Asia/Tokyo"}
	days := []YMD{
		{2025, time.March, 9},    // US spring forward
		{2025, time.November, 2}, // US fall back
		{2025, time.June, 15},
		{2024, time.February, 29},
	}
	for _, zone := range zones {
		loc := mustLoad(t, zone)
		for _, d := range days {
			r := DayRangeFor(loc, d)
			assert.Equal(t, d, YMDOf(r.StartUTC, loc), "zone %s day %s", zone, d)
			assert.True(t, r.EndUTC.Equal(r.StartUTC.Add(24*time.Hour)))
		}
	}
}

func TestNextDayRange(t *testing.T) {
	sp := mustLoad(t, "America/Sao_Paulo")

	// 2025-09-04 23:30 in Sao Paulo is already 02:30 UTC on the 5th; tomorrow
	// must follow the civil date in the clinic zone, not UTC.
	now := time.Date(2025, time.September, 5, 2, 30, 0, 0, time.UTC)
	r := NextDayRange(sp, now)

	assert.Equal(t, YMD{2025, time.September, 5}, YMDOf(r.StartUTC, sp))
}

func TestWeekRangeUntilSunday(t *testing.T) {
	sp := mustLoad(t, "America/Sao_Paulo")

	tests := []struct {
		name      string
		now       time.Time // UTC
		wantStart YMD
		wantDays  int
	}{
		{
			name:      "monday spans full week",
			now:       time.Date(2025, time.September, 1, 15, 0, 0, 0, time.UTC),
			wantStart: YMD{2025, time.September, 1},
			wantDays:  7,
		},
		{
			name:      "thursday",
			now:       time.Date(2025, time.September, 4, 15, 0, 0, 0, time.UTC),
			wantStart: YMD{2025, time.September, 4},
			wantDays:  4,
		},
		{
			name:      "sunday counts itself only",
			now:       time.Date(2025, time.September, 7, 15, 0, 0, 0, time.UTC),
			wantStart: YMD{2025, time.September, 7},
			wantDays:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekRangeUntilSunday(sp, tt.now)
			assert.Equal(t, tt.wantStart, w.StartYMD)
			assert.Equal(t, tt.wantDays, w.TotalDays)
			dayAfter := AddDays(tt.wantStart, tt.wantDays)
			assert.True(t, w.EndUTC.Equal(DayRangeFor(sp, dayAfter).StartUTC))
		})
	}
}

func TestWeekRangeUntilSunday_FallBack(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// DST ends Sunday 2025-11-02, giving that week a 25-hour Sunday. The
	// window must still reach Monday midnight, keeping Sunday 23:30 inside.
	now := time.Date(2025, time.October, 27, 9, 0, 0, 0, ny)
	w := WeekRangeUntilSunday(ny, now)

	assert.Equal(t, YMD{2025, time.October, 27}, w.StartYMD)
	assert.Equal(t, 7, w.TotalDays)

	wantEnd := CivilToUTC(ny, 2025, time.November, 3, 0, 0, 0)
	assert.True(t, w.EndUTC.Equal(wantEnd), "got %s want %s", w.EndUTC, wantEnd)

	lateSunday := CivilToUTC(ny, 2025, time.November, 2, 23, 30, 0)
	assert.True(t, lateSunday.Before(w.EndUTC))
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, YMD{2025, time.October, 1}, AddDays(YMD{2025, time.September, 30}, 1))
	assert.Equal(t, YMD{2024, time.February, 29}, AddDays(YMD{2024, time.February, 28}, 1))
	assert.Equal(t, YMD{2025, time.December, 31}, AddDays(YMD{2026, time.January, 1}, -1))
}
