// Package dateutil provides the calendar arithmetic behind billing-date
// projection and the Spanish relative-time phrasing shown next to payments.
//
// Every function that depends on "today" takes it explicitly so callers can
// pin the clock.
package dateutil

import (
	"fmt"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the lower-case Spanish month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// AddMonths shifts t by n calendar months. A day that does not exist in the
// target month clamps to its last day (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// DaysDifference returns the number of calendar days from a to b; positive
// when b is later.
func DaysDifference(a, b time.Time) int {
	return dayNumber(b) - dayNumber(a)
}

// IsCurrentMonth reports whether t falls in the same calendar month as now.
func IsCurrentMonth(t, now time.Time) bool {
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// IsOverdue reports whether t is before now.
func IsOverdue(t, now time.Time) bool {
	return t.Before(now)
}

// NextPaymentDate projects a monthly billing day: that day in current's month
// when it has not passed yet (today counts as not passed), otherwise the same
// day next month. Days beyond the end of a month clamp to its last day.
func NextPaymentDate(current time.Time, day int, now time.Time) time.Time {
	if day < 1 {
		day = 1
	}
	loc := now.Location()
	current = current.In(loc)
	candidate := clampDay(current.Year(), current.Month(), day, loc)
	if candidate.Before(StartOfDay(now)) {
		next := time.Date(current.Year(), current.Month()+1, 1, 0, 0, 0, 0, loc)
		candidate = clampDay(next.Year(), next.Month(), day, loc)
	}
	return candidate
}

// DaysUntilNextPayment counts the days from now to the next billing day.
func DaysUntilNextPayment(day int, now time.Time) int {
	return DaysDifference(now, NextPaymentDate(now, day, now))
}

// FormatRelative phrases t relative to now: Hoy, Mañana, Ayer, "En 3 días",
// "Hace 2 semanas" and so on.
func FormatRelative(t, now time.Time) string {
	days := DaysDifference(now, t)
	switch days {
	case 0:
		return "Hoy"
	case 1:
		return "Mañana"
	case -1:
		return "Ayer"
	}
	abs := days
	if abs < 0 {
		abs = -abs
	}
	var phrase string
	switch {
	case abs <= 7:
		phrase = plural(abs, "día", "días")
	case abs <= 30:
		phrase = plural(abs/7, "semana", "semanas")
	case abs <= 365:
		phrase = plural(abs/30, "mes", "meses")
	default:
		phrase = plural(abs/365, "año", "años")
	}
	if days > 0 {
		return "En " + phrase
	}
	return "Hace " + phrase
}

// MonthRange returns the first and last instants of t's month.
func MonthRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// FormatMonth renders "octubre 2026".
func FormatMonth(t time.Time) string {
	return fmt.Sprintf("%s %d", MonthName(t.Month()), t.Year())
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func clampDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysIn(year, month, loc); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
