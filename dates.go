package sheetcalc

import "time"

// excelDateBase is the day-serial offset between this dialect's date
// epoch (1899-12-30, serial 0) and the proleptic Gregorian "days from
// CE" numbering `time.Date(...).AddDate` style arithmetic would
// otherwise produce. Taken verbatim from the original source's
// fn_today comment: "693_594 is computed as
// NaiveDate::from_ymd(1900,1,1).num_days_from_ce() - 2, ...because of
// the Excel 1900 bug" (§3 SUPPLEMENTED FEATURES).
const excelDateBase = 693594

// civilToSerial converts a proleptic Gregorian calendar date to this
// dialect's serial-number day count, preserving the historical "1900
// was a leap year" bug: serial 60 is 1900-02-29, a date that never
// existed, so dates from 1900-03-01 on count days from 1899-12-30 and
// every earlier date is one lower than that count would give.
func civilToSerial(year, month, day int) float64 {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	days := int(t.Unix()/86400) + 719163 // unix epoch -> days from CE (0001-01-01 is day 1)
	serial := days - excelDateBase
	if serial < 61 {
		serial--
	}
	return float64(serial)
}

// serialToCivil is the inverse of civilToSerial: given a serial day
// count, returns the proleptic Gregorian year/month/day it names.
func serialToCivil(serial int) (year, month, day int) {
	if serial == 60 {
		// 1900-02-29: not a real date; treat as 1900-02-28 + fractional
		// day for the handful of callers that might construct it.
		serial = 59
	}
	if serial < 61 {
		serial++
	}
	days := serial + excelDateBase - 719163
	t := time.Unix(int64(days)*86400, 0).UTC()
	return t.Year(), int(t.Month()), t.Day()
}

// SerialFromTime converts a wall-clock instant in loc to a fractional
// spreadsheet serial (integer part = date, fractional part = time of
// day), the representation TODAY()/NOW() return (§4.6, §8 scenario 7).
func SerialFromTime(t time.Time, loc *time.Location) float64 {
	local := t.In(loc)
	dateSerial := civilToSerial(local.Year(), int(local.Month()), local.Day())
	secondsSinceMidnight := local.Hour()*3600 + local.Minute()*60 + local.Second()
	frac := float64(secondsSinceMidnight) / 86400.0
	return dateSerial + frac
}

// daysInMonth returns the number of days in the given proleptic
// Gregorian month, used by EDATE's day-of-month clamping (§3 "EDATE's
// exact month-arithmetic contract").
func daysInMonth(year, month int) int {
	firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// addMonths adds (possibly negative) whole calendar months to a serial
// date, clamping the day-of-month to the shorter target month (EDATE's
// contract, ported from the original's fn_edate rather than naive
// serial-number arithmetic).
func addMonths(serial float64, months int) float64 {
	y, m, d := serialToCivil(int(serial))
	totalMonths := y*12 + (m - 1) + months
	newYear := totalMonths / 12
	newMonth := totalMonths%12 + 1
	if newMonth <= 0 {
		newMonth += 12
		newYear--
	}
	maxDay := daysInMonth(newYear, newMonth)
	if d > maxDay {
		d = maxDay
	}
	return civilToSerial(newYear, newMonth, d)
}
