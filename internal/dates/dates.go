package dates

import "time"

const Layout = "2006-01-02"

// DateOnly drops the clock part and pins the date to UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func New(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Parse(raw string) (time.Time, error) {
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func Today() time.Time {
	return DateOnly(time.Now())
}

func AddDays(t time.Time, days int) time.Time {
	return DateOnly(t).AddDate(0, 0, days)
}

// AddMonths moves t by n calendar months, clamping the day to the
// length of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	t = DateOnly(t)
	idx := t.Year()*12 + int(t.Month()) - 1 + n
	year, month := idx/12, time.Month(idx%12+1)
	day := t.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return New(year, month, day)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func FirstDayOfMonth(t time.Time) time.Time {
	return New(t.Year(), t.Month(), 1)
}

func LastDayOfMonth(t time.Time) time.Time {
	return New(t.Year(), t.Month(), DaysIn(t.Year(), t.Month()))
}

// IntervalMonths counts month boundaries between two dates, ignoring days.
func IntervalMonths(from, to time.Time) int {
	return (to.Year()*12 + int(to.Month())) - (from.Year()*12 + int(from.Month()))
}

// YearMonth packs a year and month into a sortable integer (2020-08 -> 202008).
func YearMonth(year, month int) int {
	return year*100 + month
}

func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}
