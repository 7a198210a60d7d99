package sheetcalc

import (
	"strings"
)

func init() {
	register("CONCATENATE", 1, -1, fnConcatenate)
	register("CONCAT", 1, -1, fnConcatenate)
	register("LEFT", 1, 2, fnLeft)
	register("RIGHT", 1, 2, fnRight)
	register("MID", 3, 3, fnMid)
	register("LEN", 1, 1, fnLen)
	register("FIND", 2, 3, fnFind)
	register("SEARCH", 2, 3, fnSearch)
	register("SUBSTITUTE", 3, 4, fnSubstitute)
	register("REPLACE", 4, 4, fnReplace)
	register("TEXT", 2, 2, fnText)
	register("VALUE", 1, 1, fnValue)
	register("T", 1, 1, fnT)
	register("UPPER", 1, 1, fnUpper)
	register("LOWER", 1, 1, fnLower)
	register("PROPER", 1, 1, fnProper)
	register("TRIM", 1, 1, fnTrim)
	register("EXACT", 2, 2, fnExact)
	register("VALUETOTEXT", 1, 2, fnValueToText)
	register("REPT", 2, 2, fnRept)
	register("TEXTJOIN", 3, -1, fnTextjoin)
}

func fnConcatenate(fc *FuncCall) Primitive {
	var sb strings.Builder
	for _, v := range fc.FlattenAll() {
		if e, ok := v.(*SpreadsheetError); ok {
			return e
		}
		sb.WriteString(fc.ev.toText(v))
	}
	return sb.String()
}

func fnLeft(fc *FuncCall) Primitive {
	s := fc.Text(0)
	n := 1
	if fc.Count() >= 2 {
		v, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		n = int(v)
	}
	runes := []rune(s)
	if n < 0 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n])
}

func fnRight(fc *FuncCall) Primitive {
	s := fc.Text(0)
	n := 1
	if fc.Count() >= 2 {
		v, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		n = int(v)
	}
	runes := []rune(s)
	if n < 0 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[len(runes)-n:])
}

func fnMid(fc *FuncCall) Primitive {
	s := []rune(fc.Text(0))
	start, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	count, errv := fc.Number(2)
	if errv != nil {
		return errv
	}
	if start < 1 || count < 0 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	from := int(start) - 1
	if from >= len(s) {
		return ""
	}
	to := from + int(count)
	if to > len(s) {
		to = len(s)
	}
	return string(s[from:to])
}

func fnLen(fc *FuncCall) Primitive {
	return float64(len([]rune(fc.Text(0))))
}

func fnFind(fc *FuncCall) Primitive {
	needle := fc.Text(0)
	haystack := fc.Text(1)
	start := 1
	if fc.Count() >= 3 {
		v, errv := fc.Number(2)
		if errv != nil {
			return errv
		}
		start = int(v)
	}
	return findSubstring(needle, haystack, start, true)
}

func fnSearch(fc *FuncCall) Primitive {
	needle := fc.Text(0)
	haystack := fc.Text(1)
	start := 1
	if fc.Count() >= 3 {
		v, errv := fc.Number(2)
		if errv != nil {
			return errv
		}
		start = int(v)
	}
	return findSubstring(needle, haystack, start, false)
}

// findSubstring implements FIND (exact, case-sensitive) and SEARCH
// (wildcard, case-insensitive) over rune offsets (§4.6).
func findSubstring(needle, haystack string, start int, caseSensitive bool) Primitive {
	if start < 1 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	runes := []rune(haystack)
	if start-1 > len(runes) {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	sub := runes[start-1:]
	if !caseSensitive {
		pat := append(compileWildcard(needle), patternToken{kind: '*'})
		for i := 0; i <= len(sub); i++ {
			if matchWildcard(sub[i:], pat, 0, 0) {
				return float64(start + i)
			}
		}
		return NewSpreadsheetError(ErrorCodeValue, "substring not found")
	}
	needleRunes := []rune(needle)
	for i := 0; i+len(needleRunes) <= len(sub); i++ {
		match := true
		for j, nr := range needleRunes {
			if sub[i+j] != nr {
				match = false
				break
			}
		}
		if match {
			return float64(start + i)
		}
	}
	return NewSpreadsheetError(ErrorCodeValue, "substring not found")
}

func fnSubstitute(fc *FuncCall) Primitive {
	s := fc.Text(0)
	old := fc.Text(1)
	new := fc.Text(2)
	if old == "" {
		return s
	}
	if fc.Count() < 4 {
		return strings.ReplaceAll(s, old, new)
	}
	occurrence, errv := fc.Number(3)
	if errv != nil {
		return errv
	}
	target := int(occurrence)
	if target < 1 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	count := 0
	var sb strings.Builder
	rest := s
	for {
		idx := strings.Index(rest, old)
		if idx < 0 {
			sb.WriteString(rest)
			break
		}
		count++
		if count == target {
			sb.WriteString(rest[:idx])
			sb.WriteString(new)
			sb.WriteString(rest[idx+len(old):])
			break
		}
		sb.WriteString(rest[:idx+len(old)])
		rest = rest[idx+len(old):]
	}
	return sb.String()
}

func fnReplace(fc *FuncCall) Primitive {
	old := []rune(fc.Text(0))
	start, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	count, errv := fc.Number(2)
	if errv != nil {
		return errv
	}
	newText := fc.Text(3)
	if start < 1 || count < 0 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	from := int(start) - 1
	if from > len(old) {
		from = len(old)
	}
	to := from + int(count)
	if to > len(old) {
		to = len(old)
	}
	return string(old[:from]) + newText + string(old[to:])
}

func fnText(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	if e, ok := v.(*SpreadsheetError); ok {
		return e
	}
	format := fc.Text(1)
	return FormatValueWithPattern(v, format, fc.Env())
}

func fnValue(fc *FuncCall) Primitive {
	s := fc.Text(0)
	if n, ok := parseLocaleNumber(s, fc.Env().Locale); ok {
		return n
	}
	if serial, ok := parseDateLiteral(s); ok {
		return serial
	}
	return NewSpreadsheetError(ErrorCodeValue, "cannot parse as number")
}

func fnT(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(*SpreadsheetError); ok {
		return e
	}
	return ""
}

func fnUpper(fc *FuncCall) Primitive   { return strings.ToUpper(fc.Text(0)) }
func fnLower(fc *FuncCall) Primitive   { return strings.ToLower(fc.Text(0)) }
func fnTrim(fc *FuncCall) Primitive {
	fields := strings.Fields(fc.Text(0))
	return strings.Join(fields, " ")
}

func fnProper(fc *FuncCall) Primitive {
	s := fc.Text(0)
	runes := []rune(s)
	startOfWord := true
	for i, r := range runes {
		switch {
		case isASCIILetter(r):
			if startOfWord {
				runes[i] = []rune(strings.ToUpper(string(r)))[0]
			} else {
				runes[i] = []rune(strings.ToLower(string(r)))[0]
			}
			startOfWord = false
		default:
			startOfWord = true
		}
	}
	return string(runes)
}

// fnExact implements EXACT(text1, text2): a case-sensitive, exact string
// comparison (§3 SUPPLEMENTED FEATURES), distinct from the
// case-insensitive "=" comparison operator.
func fnExact(fc *FuncCall) Primitive {
	a := fc.Eval(0)
	b := fc.Eval(1)
	if e, ok := a.(*SpreadsheetError); ok {
		return e
	}
	if e, ok := b.(*SpreadsheetError); ok {
		return e
	}
	return fc.ev.toText(a) == fc.ev.toText(b)
}

// fnValueToText renders value as text the way it would display, with an
// optional second argument selecting 0 ("unformatted", the default) or 1
// ("strict", quoting string results) (§3 SUPPLEMENTED FEATURES).
func fnValueToText(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	if e, ok := v.(*SpreadsheetError); ok {
		return e
	}
	strict := false
	if fc.Count() >= 2 {
		n, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		strict = n == 1
	}
	text := fc.ev.toText(v)
	if strict {
		if s, ok := v.(string); ok {
			return "\"" + s + "\""
		}
	}
	return text
}

func fnRept(fc *FuncCall) Primitive {
	s := fc.Text(0)
	count, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	if count < 0 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	return strings.Repeat(s, int(count))
}

// fnTextjoin implements TEXTJOIN(delimiter, ignore_empty, text1, [text2, ...])
// (§4.6, xlfn-prefixed on write per functions.go's xlfnFunctions): every
// text/range argument from index 2 onward is flattened and joined,
// skipping empty cells when ignore_empty is TRUE.
func fnTextjoin(fc *FuncCall) Primitive {
	delim := fc.Text(0)
	ignoreEmpty, errv := fc.Bool(1)
	if errv != nil {
		return errv
	}
	var parts []string
	for _, a := range fc.args[2:] {
		for _, v := range fc.Flatten(a) {
			if e, ok := v.(*SpreadsheetError); ok {
				return e
			}
			if ignoreEmpty && v == nil {
				continue
			}
			if ignoreEmpty {
				if s, ok := v.(string); ok && s == "" {
					continue
				}
			}
			parts = append(parts, fc.ev.toText(v))
		}
	}
	return strings.Join(parts, delim)
}
