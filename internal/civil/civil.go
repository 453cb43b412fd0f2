package civil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// DayRange is the half-open UTC interval [StartUTC, EndUTC) covering one
// civil day in the clinic's time zone. Never persisted.
type DayRange struct {
	StartUTC time.Time
	EndUTC   time.Time
}

// WeekRange covers civil "today" through civil Sunday inclusive.
type WeekRange struct {
	StartYMD  YMD
	TotalDays int
	EndUTC    time.Time
}

// YMD is a calendar date with no time zone attached.
type YMD struct {
	Year  int
	Month time.Month
	Day   int
}

var ymdPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ParseYMD accepts strict YYYY-MM-DD and rejects impossible dates.
func ParseYMD(s string) (YMD, error) {
	m := ymdPattern.FindStringSubmatch(s)
	if m == nil {
		return YMD{}, ErrInvalidDateFormat
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	d := YMD{Year: year, Month: time.Month(month), Day: day}
	norm := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if norm.Year() != year || norm.Month() != time.Month(month) || norm.Day() != day {
		return YMD{}, ErrInvalidDateFormat
	}
	return d, nil
}

func (d YMD) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// YMDOf extracts the civil date of an instant in loc.
func YMDOf(t time.Time, loc *time.Location) YMD {
	local := t.In(loc)
	return YMD{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// OffsetMinutesAt reports the UTC offset, in minutes, in effect for loc at
// the given instant, per the timezone database (DST included).
func OffsetMinutesAt(instant time.Time, loc *time.Location) int {
	_, offsetSeconds := instant.In(loc).Zone()
	return offsetSeconds / 60
}

// CivilToUTC converts a wall-clock time in loc to the corresponding UTC
// instant. Two-pass fixed point: guess the instant ignoring the offset,
// look up the offset there, re-guess, then resolve with a second lookup at
// the corrected guess. Deterministic across spring-forward gaps and
// fall-back overlaps.
func CivilToUTC(loc *time.Location, year int, month time.Month, day, hour, min, sec int) time.Time {
	naive := time.Date(year, month, day, hour, min, sec, 0, time.UTC)

	first := OffsetMinutesAt(naive, loc)
	corrected := naive.Add(-time.Duration(first) * time.Minute)
	second := OffsetMinutesAt(corrected, loc)

	return naive.Add(-time.Duration(second) * time.Minute)
}

// DayRangeFor returns the 24-hour UTC window for one civil day in loc.
func DayRangeFor(loc *time.Location, d YMD) DayRange {
	start := CivilToUTC(loc, d.Year, d.Month, d.Day, 0, 0, 0)
	return DayRange{StartUTC: start, EndUTC: start.Add(24 * time.Hour)}
}

// NextDayRange is the day range for "tomorrow" relative to now's civil
// date in loc.
func NextDayRange(loc *time.Location, now time.Time) DayRange {
	today := YMDOf(now, loc)
	tomorrow := time.Date(today.Year, today.Month, today.Day+1, 12, 0, 0, 0, time.UTC)
	return DayRangeFor(loc, YMD{Year: tomorrow.Year(), Month: tomorrow.Month(), Day: tomorrow.Day()})
}

// WeekRangeUntilSunday spans civil "today" through the coming civil Sunday
// inclusive. TotalDays counts from today, so a Sunday yields 1. EndUTC is
// the start of the civil day after Sunday, so a DST transition inside the
// week cannot push Sunday's last hours out of the window.
func WeekRangeUntilSunday(loc *time.Location, now time.Time) WeekRange {
	today := YMDOf(now, loc)

	weekday := int(now.In(loc).Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	totalDays := 8 - weekday

	return WeekRange{
		StartYMD:  today,
		TotalDays: totalDays,
		EndUTC:    CivilToUTC(loc, today.Year, today.Month, today.Day+totalDays, 0, 0, 0),
	}
}

// AddDays shifts a civil date by n days, normalizing month boundaries.
func AddDays(d YMD, n int) YMD {
	t := time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC)
	return YMD{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}
