package analytics

import (
	"time"

	"growthtrack/internal/models"
)

// AgeInMonths returns the number of whole calendar months from dob to asOf.
// When asOf is before dob the result is negative, with a partial month
// counted as a whole one, so any date before birth gives at most -1.
func AgeInMonths(dob, asOf time.Time) int {
	dob, asOf = models.Day(dob), models.Day(asOf)
	if asOf.Before(dob) {
		before := AgeInMonths(asOf, dob)
		if !addMonthsClamped(asOf, before).Equal(dob) {
			before++
		}
		return -before
	}
	months := (asOf.Year()-dob.Year())*12 + int(asOf.Month()-dob.Month())
	if asOf.Day() < dob.Day() {
		months--
	}
	return months
}

// Age is a calendar period broken into whole years, months and days
type Age struct {
	Years  int
	Months int
	Days   int
}

// AgeBetween returns the calendar period from dob to asOf. When asOf is
// before dob the zero Age is returned.
func AgeBetween(dob, asOf time.Time) Age {
	dob, asOf = models.Day(dob), models.Day(asOf)
	if asOf.Before(dob) {
		return Age{}
	}
	total := AgeInMonths(dob, asOf)
	anchor := addMonthsClamped(dob, total)
	days := int(asOf.Sub(anchor).Hours() / 24)
	return Age{Years: total / 12, Months: total % 12, Days: days}
}

// addMonthsClamped adds n months, clamping the day to the end of the
// target month instead of overflowing into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
