// Package vacation computes statutory paid-vacation grants from tenure.
//
// A Schedule is a list of tenure bands sorted by month range. Bands cover the
// irregular ramp after joining (6, 18, 30 ... months); past the last band the
// grant repeats every 12 months with the days of the last band.
package vacation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/sales-backoffice/internal/dates"
)

// cadence of the grants past the configured ramp.
const (
	steadyOffsetMonths = 6
	steadyPeriodMonths = 12
)

type Band struct {
	StartMonths int
	EndMonths   int
	Days        decimal.Decimal
}

func (b Band) contains(months int) bool {
	return b.StartMonths <= months && months < b.EndMonths
}

type Schedule []Band

type Grant struct {
	StartMonths int
	EndMonths   int
	Days        decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
}

// ParseSchedule reads "start:end:days" entries separated by commas,
// e.g. "6:18:10,18:30:11".
func ParseSchedule(raw string) (Schedule, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty paid vacation schedule")
	}
	var schedule Schedule
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid band %q: want start:end:days", item)
		}
		start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid band %q: %w", item, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid band %q: %w", item, err)
		}
		days, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid band %q: %w", item, err)
		}
		if start < 0 || end <= start {
			return nil, fmt.Errorf("invalid band %q: end must be greater than start", item)
		}
		schedule = append(schedule, Band{StartMonths: start, EndMonths: end, Days: days})
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty paid vacation schedule")
	}
	for i := 1; i < len(s); i++ {
		if s[i].StartMonths < s[i-1].EndMonths {
			return fmt.Errorf("paid vacation bands overlap or are unsorted at %d:%d", s[i].StartMonths, s[i].EndMonths)
		}
	}
	return nil
}

// MaxEndMonths is the tenure past which the steady yearly cadence applies.
func (s Schedule) MaxEndMonths() int {
	max := 0
	for _, b := range s {
		if b.EndMonths > max {
			max = b.EndMonths
		}
	}
	return max
}

// BandFor returns the band the tenure falls into. The second result is false
// when the tenure sits before the first band or in a gap between bands.
func (s Schedule) BandFor(months int) (Band, bool) {
	if len(s) == 0 {
		return Band{}, false
	}
	if months >= s.MaxEndMonths() {
		last := s[len(s)-1]
		start := steadyOffsetMonths + steadyPeriodMonths*((months-steadyOffsetMonths)/steadyPeriodMonths)
		return Band{StartMonths: start, EndMonths: start + steadyPeriodMonths, Days: last.Days}, true
	}
	for _, b := range s {
		if b.contains(months) {
			return b, true
		}
	}
	return Band{}, false
}

// NextGrant computes the grant due at asOf for a member who joined at joinDate.
// The window starts on the first day of the band's start month and ends on the
// last day of the month before the band's end.
func (s Schedule) NextGrant(joinDate, asOf time.Time) (Grant, bool) {
	months := dates.IntervalMonths(joinDate, asOf)
	band, ok := s.BandFor(months)
	if !ok {
		return Grant{}, false
	}
	return Grant{
		StartMonths: band.StartMonths,
		EndMonths:   band.EndMonths,
		Days:        band.Days,
		StartDate:   dates.FirstDayOfMonth(dates.AddMonths(joinDate, band.StartMonths)),
		EndDate:     dates.LastDayOfMonth(dates.AddMonths(joinDate, band.EndMonths-1)),
	}, true
}

// Unused returns what is left of a grant after usage. Usage draws on the
// carried-over days first, and only the grant's own days can be carried again.
func Unused(days, carryover, used decimal.Decimal) decimal.Decimal {
	fromGrant := used.Sub(carryover)
	if fromGrant.IsNegative() {
		fromGrant = decimal.Zero
	}
	left := days.Sub(fromGrant)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
