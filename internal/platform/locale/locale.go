// Package locale holds the Argentina-specific rendering rules shared by the
// booking, reminder and confirmation flows: the fixed UTC-3 clock, Spanish
// date text and phone number normalization.
package locale

import (
	"fmt"
	"strings"
	"time"
)

// TimeZoneName is the IANA zone sent to the calendar provider.
const TimeZoneName = "America/Argentina/Buenos_Aires"

// Zone is a fixed UTC-3 offset. Argentina does not observe daylight saving,
// so a fixed zone avoids depending on the host tzdata.
var Zone = time.FixedZone("-03", -3*60*60)

// ISOLayout renders timestamps with an explicit -03:00 offset.
const ISOLayout = "2006-01-02T15:04:05-07:00"

var weekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// In converts t to the local clinic clock.
func In(t time.Time) time.Time {
	return t.In(Zone)
}

// FormatISO renders t as 2026-02-13T10:30:00-03:00.
func FormatISO(t time.Time) string {
	return In(t).Format(ISOLayout)
}

// FormatDate renders t as "viernes 13 de febrero".
func FormatDate(t time.Time) string {
	lt := In(t)
	return fmt.Sprintf("%s %d de %s", weekdays[lt.Weekday()], lt.Day(), months[lt.Month()-1])
}

// FormatLongDate renders t as "viernes, 13 de febrero".
func FormatLongDate(t time.Time) string {
	lt := In(t)
	return fmt.Sprintf("%s, %d de %s", weekdays[lt.Weekday()], lt.Day(), months[lt.Month()-1])
}

// FormatTime renders the 24h clock time, e.g. "09:05".
func FormatTime(t time.Time) string {
	return In(t).Format("15:04")
}

// ParseLocalDateTime parses a YYYY-MM-DD date and HH:mm time on the clinic clock.
func ParseLocalDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}

// ParseDay parses a YYYY-MM-DD calendar day at local midnight.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", day, Zone)
}

// DigitsOnly strips everything that is not 0-9.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone converts a local Argentine number into the international
// mobile form expected by the messaging provider (549 + area + number).
// Numbers already starting with the 54 country code are returned as digits only.
func NormalizePhone(raw string) string {
	digits := DigitsOnly(raw)
	if strings.HasPrefix(digits, "54") {
		return digits
	}
	digits = strings.TrimPrefix(digits, "0")
	if strings.HasPrefix(digits, "15") {
		digits = "11" + digits[2:]
	}
	return "549" + digits
}

// PhonesMatch reports whether two numbers refer to the same line by comparing
// their trailing ten digits, tolerating country and mobile prefixes.
func PhonesMatch(a, b string) bool {
	da, db := lastDigits(DigitsOnly(a), 10), lastDigits(DigitsOnly(b), 10)
	if da == "" || db == "" {
		return false
	}
	return strings.HasSuffix(da, db) || strings.HasSuffix(db, da)
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
