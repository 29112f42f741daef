package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonthsClampsDay(t *testing.T) {
	cases := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{New(2020, time.January, 31), 1, New(2020, time.February, 29)},
		{New(2021, time.January, 31), 1, New(2021, time.February, 28)},
		{New(2020, time.December, 31), 12, New(2021, time.December, 31)},
		{New(2020, time.November, 15), 1, New(2020, time.December, 15)},
		{New(2020, time.March, 31), -1, New(2020, time.February, 29)},
		{New(2020, time.January, 1), 7, New(2020, time.August, 1)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AddMonths(tc.in, tc.months), "%s %+d", Format(tc.in), tc.months)
	}
}

func TestMonthBounds(t *testing.T) {
	d := New(2020, time.February, 10)
	assert.Equal(t, New(2020, time.February, 1), FirstDayOfMonth(d))
	assert.Equal(t, New(2020, time.February, 29), LastDayOfMonth(d))
}

func TestIntervalMonthsIgnoresDays(t *testing.T) {
	assert.Equal(t, 6, IntervalMonths(New(2018, time.January, 31), New(2018, time.July, 1)))
	assert.Equal(t, 0, IntervalMonths(New(2018, time.January, 1), New(2018, time.January, 31)))
	assert.Equal(t, 13, IntervalMonths(New(2018, time.December, 1), New(2020, time.January, 1)))
}

func TestDateOnlyNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	got := DateOnly(time.Date(2020, time.March, 1, 23, 30, 0, 0, loc))
	assert.Equal(t, New(2020, time.March, 1), got)
}
