package period

import (
	"time"

	"github.com/fitelo/sales-dashboard/pkg/numeric"
)

// WorkingDaysPerMonth is the divisor used for daily targets. It is a business
// constant and deliberately independent of the calendar month length.
const WorkingDaysPerMonth = 26

// Calendar holds the reporting windows derived from a reference instant.
// Reports always describe complete days, so every window ends on Yesterday.
type Calendar struct {
	Yesterday   time.Time `json:"yesterday"`
	WeekStart   time.Time `json:"weekStart"`
	MonthStart  time.Time `json:"monthStart"`
	DaysInMonth int       `json:"daysInMonth"`
	DaysWTD     int       `json:"wtdDays"`
	DaysMTD     int       `json:"mtdDays"`
}

// New derives the calendar for ref, in ref's location.
func New(ref time.Time) Calendar {
	loc := ref.Location()
	y, m, d := ref.Date()
	yesterday := time.Date(y, m, d-1, 0, 0, 0, 0, loc)

	// ISO weekday: Sunday closes the week that started the previous Monday.
	weekday := int(yesterday.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	yy, ym, yd := yesterday.Date()
	weekStart := time.Date(yy, ym, yd-weekday+1, 0, 0, 0, 0, loc)
	monthStart := time.Date(yy, ym, 1, 0, 0, 0, 0, loc)

	return Calendar{
		Yesterday:   yesterday,
		WeekStart:   weekStart,
		MonthStart:  monthStart,
		DaysInMonth: time.Date(yy, ym+1, 0, 0, 0, 0, 0, loc).Day(),
		DaysWTD:     daysBetween(weekStart, yesterday),
		DaysMTD:     daysBetween(monthStart, yesterday),
	}
}

// daysBetween counts calendar days from start to end, both inclusive, and
// never returns less than 1. Dates are compared in UTC so DST shifts in the
// source location cannot shorten or stretch a day.
func daysBetween(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	days := int(e.Sub(s).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Days returns the number of days covered by p.
func (c Calendar) Days(p Period) int {
	switch p {
	case WeekToDate:
		return c.DaysWTD
	case MonthToDate:
		return c.DaysMTD
	default:
		return 1
	}
}

// Scale turns a monthly target into yesterday / week-to-date / month-to-date
// targets. Y and W use the fixed working-day divisor, M uses the real month
// length.
func (c Calendar) Scale(monthly float64) Scaled {
	y := numeric.Round(monthly / WorkingDaysPerMonth)
	return Scaled{
		Y: y,
		W: numeric.Round(y * float64(c.DaysWTD)),
		M: numeric.Round(monthly / float64(c.DaysInMonth) * float64(c.DaysMTD)),
	}
}
