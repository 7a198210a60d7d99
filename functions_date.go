package sheetcalc

import "time"

func init() {
	register("DATE", 3, 3, fnDate)
	register("EDATE", 2, 2, fnEdate)
	register("EOMONTH", 2, 2, fnEomonth)
	register("TODAY", 0, 0, fnToday)
	register("NOW", 0, 0, fnNow)
	register("YEAR", 1, 1, fnYear)
	register("MONTH", 1, 1, fnMonth)
	register("DAY", 1, 1, fnDay)
	register("HOUR", 1, 1, fnHour)
	register("MINUTE", 1, 1, fnMinute)
	register("SECOND", 1, 1, fnSecond)
	register("WEEKDAY", 1, 2, fnWeekday)
	register("DAYS", 2, 2, fnDays)
	register("DATEVALUE", 1, 1, fnDatevalue)
}

// fnDate implements DATE(year, month, day): out-of-range month/day
// values spill into neighboring months/years the same way Excel's does,
// which civilToSerial/addMonths already gives for free since
// time.Date normalizes overflowing components (§3 SUPPLEMENTED
// FEATURES "DATE/EDATE family").
func fnDate(fc *FuncCall) Primitive {
	y, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	m, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	d, errv := fc.Number(2)
	if errv != nil {
		return errv
	}
	return civilToSerial(int(y), int(m), int(d))
}

func fnEdate(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	months, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	return addMonths(serial, int(months))
}

// fnEomonth returns the serial of the last day of the month months away
// from the given date (§3 SUPPLEMENTED FEATURES).
func fnEomonth(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	months, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	shifted := addMonths(serial, int(months))
	y, m, _ := serialToCivil(int(shifted))
	return civilToSerial(y, m, daysInMonth(y, m))
}

func fnToday(fc *FuncCall) Primitive {
	env := fc.Env()
	t := time.UnixMilli(env.Clock.NowMillis()).In(env.TimeZone)
	y, m, d := t.Year(), int(t.Month()), t.Day()
	return civilToSerial(y, m, d)
}

func fnNow(fc *FuncCall) Primitive {
	env := fc.Env()
	return SerialFromTime(time.UnixMilli(env.Clock.NowMillis()), env.TimeZone)
}

func fnYear(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	y, _, _ := serialToCivil(int(serial))
	return float64(y)
}

func fnMonth(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	_, m, _ := serialToCivil(int(serial))
	return float64(m)
}

func fnDay(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	_, _, d := serialToCivil(int(serial))
	return float64(d)
}

func fnHour(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	return float64(fractionalDaySeconds(serial) / 3600)
}

func fnMinute(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	return float64((fractionalDaySeconds(serial) / 60) % 60)
}

func fnSecond(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	return float64(fractionalDaySeconds(serial) % 60)
}

func fractionalDaySeconds(serial float64) int {
	frac := serial - float64(int(serial))
	if frac < 0 {
		frac += 1
	}
	total := int(frac*86400 + 0.5)
	if total >= 86400 {
		total = 86399
	}
	return total
}

// fnWeekday returns a day-of-week number; the optional return_type
// argument selects which day the week starts on (1: Sunday=1 (default),
// 2: Monday=1, both 1-7; 3: Monday=0, 0-6) (§3 SUPPLEMENTED FEATURES).
func fnWeekday(fc *FuncCall) Primitive {
	serial, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	returnType := 1
	if fc.Count() >= 2 {
		v, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		returnType = int(v)
	}
	y, m, d := serialToCivil(int(serial))
	goWeekday := int(time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Weekday()) // 0=Sunday .. 6=Saturday
	switch returnType {
	case 2:
		return float64((goWeekday+6)%7 + 1)
	case 3:
		return float64((goWeekday + 6) % 7)
	default:
		return float64(goWeekday + 1)
	}
}

// fnDays returns the signed day count between two dates, DAYS(end_date,
// start_date) (§3 SUPPLEMENTED FEATURES, needed for the `_xlfn.DAYS`
// stringify entry in functions.go).
func fnDays(fc *FuncCall) Primitive {
	end, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	start, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	return end - start
}

func fnDatevalue(fc *FuncCall) Primitive {
	s := fc.Text(0)
	if serial, ok := parseDateLiteral(s); ok {
		y, m, d := serialToCivil(int(serial))
		return civilToSerial(y, m, d)
	}
	return NewSpreadsheetError(ErrorCodeValue, "cannot parse as date")
}
