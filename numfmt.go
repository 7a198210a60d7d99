package sheetcalc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/nfp"
)

// numfmt.go is the formatter seam (§6 "the formatter collaborator is
// external; this engine only parses the number-format token string into
// a structure good enough to drive get_formatted_cell_value / TEXT()").
// Format-string tokenising is delegated entirely to github.com/xuri/nfp,
// the same library TsubasaBE-go-xlsb's numfmt package and
// artukn-excelize both depend on for this; the rendering logic below is
// a trimmed adaptation of that package's renderNumber/renderDateTime
// pair to this engine's value lattice (float64/bool/string/Error rather
// than a cell-record type, and this package's own serial<->civil-date
// arithmetic in dates.go rather than a worksheet's Date1904 flag).

// FormatValueWithPattern renders v (a Primitive already produced by
// evaluation) using an Excel-style format-code string. "General" (or an
// empty string) uses General-style rendering; anything else is parsed
// with nfp and rendered per-section.
func FormatValueWithPattern(v Primitive, pattern string, env *Environment) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case *SpreadsheetError:
		return x.Literal()
	case string:
		if pattern == "" || strings.EqualFold(pattern, "General") {
			return x
		}
		return x // text values ignore a numeric format's numeric sections
	case float64:
		return formatNumberWithPattern(x, pattern, env)
	}
	return ""
}

func formatNumberWithPattern(val float64, pattern string, env *Environment) string {
	if pattern == "" || strings.EqualFold(pattern, "General") {
		return renderGeneralNumber(val)
	}
	parser := nfp.NumberFormatParser()
	sections := parser.Parse(pattern)
	if len(sections) == 0 {
		return renderGeneralNumber(val)
	}
	sec := selectFormatSection(sections, val)
	if isDateFormatPattern(pattern) {
		return renderDateSection(val, sec, env)
	}
	return renderNumberSection(val, sec, len(sections))
}

// renderGeneralNumber is the "General" number-format rendering: integer
// values print without a decimal point, fractional values use Go's
// shortest round-tripping representation.
func renderGeneralNumber(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

// selectFormatSection picks the section that applies to val, following
// Excel's 1/2/3/4-section convention (positive[;negative[;zero[;text]]]).
func selectFormatSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

// isDateFormatPattern scans a custom format string's unquoted content for
// date/time token characters, the same heuristic TsubasaBE-go-xlsb's
// numfmt.isDateFormat falls back to for custom (non-built-in) formats —
// this engine only ever sees custom pattern strings, never a numFmtId.
func isDateFormatPattern(pattern string) bool {
	inQuote, inBracket := false, false
	for _, ch := range pattern {
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' || ch == 'm' || ch == 'M' ||
			ch == 'y' || ch == 'Y' || ch == 'h' || ch == 'H':
			return true
		}
	}
	return false
}

func renderDateSection(serial float64, sec nfp.Section, env *Environment) string {
	year, month, day := serialToCivil(int(math.Floor(serial)))
	frac := serial - math.Floor(serial)
	totalSeconds := int(math.Round(frac * 86400))
	hour, minute, second := totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60

	hasAMPM := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			upper := strings.ToUpper(tok.TValue)
			if upper == "AM/PM" || upper == "A/P" {
				hasAMPM = true
			}
		}
	}

	var sb strings.Builder
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			sb.WriteString(renderDateToken(strings.ToUpper(tok.TValue), year, month, day, hour, minute, second, hasAMPM))
		case nfp.TokenTypeElapsedDateTimes:
			sb.WriteString(renderElapsedToken(strings.ToUpper(tok.TValue), serial))
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		}
	}
	if sb.Len() == 0 {
		return renderGeneralNumber(serial)
	}
	return sb.String()
}

func renderDateToken(upper string, year, month, day, hour, minute, second int, hasAMPM bool) string {
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", year)
	case "YY":
		return fmt.Sprintf("%02d", year%100)
	case "MMMM":
		return monthNamesLong[month-1]
	case "MMM":
		return monthNamesLong[month-1][:3]
	case "MM":
		return fmt.Sprintf("%02d", month)
	case "M":
		return strconv.Itoa(month)
	case "DD":
		return fmt.Sprintf("%02d", day)
	case "D":
		return strconv.Itoa(day)
	case "HH":
		h := hour
		if hasAMPM {
			h = to12Hour(hour)
		}
		return fmt.Sprintf("%02d", h)
	case "H":
		h := hour
		if hasAMPM {
			h = to12Hour(hour)
		}
		return strconv.Itoa(h)
	case "MM:": // not a real token; defensive no-op
		return ""
	case "SS":
		return fmt.Sprintf("%02d", second)
	case "S":
		return strconv.Itoa(second)
	case "AM/PM", "A/P":
		if hour < 12 {
			return "AM"
		}
		return "PM"
	}
	return ""
}

func to12Hour(h int) int {
	h = h % 12
	if h == 0 {
		return 12
	}
	return h
}

var monthNamesLong = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// renderElapsedToken renders a bracketed elapsed-time token ([h], [mm],
// [ss]) against the raw fractional-day serial rather than a wrapped
// clock time.
func renderElapsedToken(upper string, serial float64) string {
	totalSeconds := int64(math.Round(serial * 86400))
	switch upper {
	case "H", "[H]", "HH", "[HH]":
		return strconv.FormatInt(totalSeconds/3600, 10)
	case "M", "[M]", "MM", "[MM]":
		return strconv.FormatInt(totalSeconds/60, 10)
	case "S", "[S]", "SS", "[SS]":
		return strconv.FormatInt(totalSeconds, 10)
	}
	return ""
}

// renderNumberSection is a trimmed port of the placeholder/decimal/
// thousands-separator/percent rendering pass described above, adapted
// to this engine's Primitive lattice.
func renderNumberSection(val float64, sec nfp.Section, sectionCount int) string {
	var hasPercent, hasThousands, hasDecimal, hasExplicitSign bool
	var decZeros, decHashes, intZeros int
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			hasPercent = true
		case nfp.TokenTypeThousandsSeparator:
			hasThousands = true
		case nfp.TokenTypeDecimalPoint:
			hasDecimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				decZeros += len(tok.TValue)
			} else {
				intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				hasExplicitSign = true
			}
		}
	}
	totalDecPlaces := decZeros + decHashes

	absVal := math.Abs(val)
	if hasPercent {
		absVal *= 100
	}

	var intStr, fracStr string
	if hasDecimal {
		formatted := strconv.FormatFloat(absVal, 'f', totalDecPlaces, 64)
		if dot := strings.IndexByte(formatted, '.'); dot >= 0 {
			intStr, fracStr = formatted[:dot], formatted[dot+1:]
		} else {
			intStr, fracStr = formatted, strings.Repeat("0", totalDecPlaces)
		}
		if decHashes > 0 && len(fracStr) > decZeros {
			trimTo := len(fracStr)
			for trimTo > decZeros && fracStr[trimTo-1] == '0' {
				trimTo--
			}
			fracStr = fracStr[:trimTo]
		}
	} else {
		intStr = strconv.FormatFloat(absVal, 'f', 0, 64)
	}
	for len(intStr) < intZeros {
		intStr = "0" + intStr
	}
	if hasThousands && len(intStr) > 3 {
		intStr = insertThousandsSeparator(intStr)
	}

	needsMinus := val < 0 && !hasExplicitSign && sectionCount < 2

	var sb strings.Builder
	if needsMinus {
		sb.WriteByte('-')
	}
	intConsumed, fracConsumed := false, false
	afterDecimal = false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if len(fracStr) > 0 {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				if !fracConsumed {
					sb.WriteString(fracStr)
					fracConsumed = true
				}
			} else if !intConsumed {
				sb.WriteString(intStr)
				intConsumed = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !intConsumed && !afterDecimal {
		sb.WriteString(intStr)
	}
	return sb.String()
}

func insertThousandsSeparator(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// GetFormattedCellValue implements §4.3's "get_formatted_cell_value":
// evaluate addr, then render it with its style's number-format code
// (looked up through styleFormats, the opaque per-style pattern table a
// document container collaborator populates).
func (wb *Workbook) GetFormattedCellValue(addr CellAddress, styleFormats map[uint32]string) string {
	ws := wb.sheets[addr.WorksheetID]
	if ws == nil {
		return ""
	}
	cell := ws.GetCell(addr.Row, addr.Column)
	pattern := styleFormats[cellStyle(cell)]
	return FormatValueWithPattern(wb.GetCellValue(addr), pattern, wb.Env)
}

func cellStyle(cell *Cell) uint32 {
	if cell == nil {
		return 0
	}
	return cell.Style
}
