package sheetcalc

import "math"

func init() {
	register("SUM", 0, -1, fnSum)
	register("SUMIF", 2, 3, fnSumif)
	register("SUMIFS", 3, -1, fnSumifs)
	register("PRODUCT", 0, -1, fnProduct)
	register("MIN", 0, -1, fnMin)
	register("MAX", 0, -1, fnMax)
	register("ABS", 1, 1, fnMathUnary(math.Abs))
	register("INT", 1, 1, fnInt)
	register("MOD", 2, 2, fnMod)
	register("SQRT", 1, 1, fnSqrt)
	register("POWER", 2, 2, fnPower)
	register("EXP", 1, 1, fnMathUnary(math.Exp))
	register("LN", 1, 1, fnLn)
	register("LOG10", 1, 1, fnMathUnary(math.Log10))
	register("LOG", 1, 2, fnLog)
	register("PI", 0, 0, func(fc *FuncCall) Primitive { return math.Pi })
	register("SIN", 1, 1, fnMathUnary(math.Sin))
	register("COS", 1, 1, fnMathUnary(math.Cos))
	register("TAN", 1, 1, fnMathUnary(math.Tan))
	register("ASIN", 1, 1, fnMathUnary(math.Asin))
	register("ACOS", 1, 1, fnMathUnary(math.Acos))
	register("ATAN", 1, 1, fnMathUnary(math.Atan))
	register("ATAN2", 2, 2, fnAtan2)
	register("SIGN", 1, 1, fnSign)
	register("ROUND", 2, 2, fnRound)
	register("ROUNDUP", 2, 2, fnRoundUpDown(true))
	register("ROUNDDOWN", 2, 2, fnRoundUpDown(false))
	register("TRUNC", 1, 2, fnTrunc)
	register("CEILING", 1, 2, fnCeiling)
	register("FLOOR", 1, 2, fnFloor)
	register("GCD", 1, -1, fnGcd)
	register("LCM", 1, -1, fnLcm)
	register("RAND", 0, 0, fnRand)
	register("RANDBETWEEN", 2, 2, fnRandBetween)
	register("SUBTOTAL", 2, -1, fnSubtotal)
}

// checkNumResult implements §4.5's "numeric NaN/±∞ results ⇒ #NUM!" rule,
// the guard every financial/engineering function funnels its result
// through before returning a bare float64.
func checkNumResult(v float64) Primitive {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewSpreadsheetError(ErrorCodeNum, "")
	}
	return v
}

// fnSubtotal implements SUBTOTAL(function_num, ref1, ...) (§4.6): codes
// 1-11 aggregate normally; 101-111 are defined identically here since
// this engine has no hidden-row concept to exclude (no row-hiding state
// is modeled anywhere in the workbook).
func fnSubtotal(fc *FuncCall) Primitive {
	code, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	n := int(code)
	if n >= 100 {
		n -= 100
	}
	var nums []float64
	for _, a := range fc.args[1:] {
		for _, v := range fc.Flatten(a) {
			num, skip, errv := numberOrSkip(v)
			if errv != nil {
				return errv
			}
			if !skip {
				nums = append(nums, num)
			}
		}
	}
	switch n {
	case 1: // AVERAGE
		if len(nums) == 0 {
			return NewSpreadsheetError(ErrorCodeDiv0, "")
		}
		sum := 0.0
		for _, v := range nums {
			sum += v
		}
		return sum / float64(len(nums))
	case 2: // COUNT
		return float64(len(nums))
	case 3: // COUNTA
		count := 0
		for _, a := range fc.args[1:] {
			for _, v := range fc.Flatten(a) {
				if v != nil {
					count++
				}
			}
		}
		return float64(count)
	case 4: // MAX
		if len(nums) == 0 {
			return 0.0
		}
		m := nums[0]
		for _, v := range nums[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case 5: // MIN
		if len(nums) == 0 {
			return 0.0
		}
		m := nums[0]
		for _, v := range nums[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case 6: // PRODUCT
		p := 1.0
		for _, v := range nums {
			p *= v
		}
		return p
	case 9: // SUM
		sum := 0.0
		for _, v := range nums {
			sum += v
		}
		return sum
	case 7, 8, 10, 11: // STDEV/STDEVP/VAR/VARP
		return varianceSubtotal(n, nums)
	}
	return NewSpreadsheetError(ErrorCodeValue, "unsupported SUBTOTAL function_num")
}

func varianceSubtotal(code int, nums []float64) Primitive {
	if len(nums) == 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "")
	}
	mean := 0.0
	for _, v := range nums {
		mean += v
	}
	mean /= float64(len(nums))
	sq := 0.0
	for _, v := range nums {
		sq += (v - mean) * (v - mean)
	}
	population := code == 8 || code == 11
	divisor := float64(len(nums) - 1)
	if population {
		divisor = float64(len(nums))
	}
	if divisor <= 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "")
	}
	variance := sq / divisor
	if code == 7 || code == 8 {
		return math.Sqrt(variance)
	}
	return variance
}

func fnSum(fc *FuncCall) Primitive {
	total := 0.0
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if !skip {
			total += n
		}
	}
	return total
}

// fnSumif implements SUMIF(range, criterion, [sum_range]) — sum the
// values of sum_range (or range itself) wherever the parallel cell in
// range matches criterion (§4.6, criterion.go).
func fnSumif(fc *FuncCall) Primitive {
	return sumLikeIf(fc, func(matched []float64) Primitive {
		total := 0.0
		for _, n := range matched {
			total += n
		}
		return total
	})
}

func fnSumifs(fc *FuncCall) Primitive {
	return sumifsLike(fc, func(matched []float64) Primitive {
		total := 0.0
		for _, n := range matched {
			total += n
		}
		return total
	})
}

// sumLikeIf factors the single-criterion SUMIF/AVERAGEIF shape:
// criteriaRange is arg 0, criterion is arg 1, and an optional separate
// value range is arg 2 (defaulting to criteriaRange itself).
func sumLikeIf(fc *FuncCall, reduce func([]float64) Primitive) Primitive {
	criteriaRange, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	criterion := ParseCriterion(fc.Eval(1), fc.Env().Locale)
	valueRange := criteriaRange
	if fc.Count() >= 3 {
		vr, err := fc.RangeOf(2)
		if err != nil {
			return err
		}
		valueRange = vr
	}
	matched, err := collectMatches(fc, criteriaRange, []Criterion{criterion}, valueRange)
	if err != nil {
		return err
	}
	return reduce(matched)
}

// sumifsLike factors the multi-criteria …IFS shape: arg 0 is always the
// value range, followed by criteria_range/criterion pairs (§4.6).
func sumifsLike(fc *FuncCall, reduce func([]float64) Primitive) Primitive {
	if (fc.Count()-1)%2 != 0 {
		return NewSpreadsheetError(ErrorCodeValue, "…IFS requires range/criterion pairs")
	}
	valueRange, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	var criteriaRanges []RangeValue
	var criteria []Criterion
	for i := 1; i+1 < fc.Count(); i += 2 {
		r, err := fc.RangeOf(i)
		if err != nil {
			return err
		}
		criteriaRanges = append(criteriaRanges, r)
		criteria = append(criteria, ParseCriterion(fc.Eval(i+1), fc.Env().Locale))
	}
	matched, err := collectMatchesMulti(fc, criteriaRanges, criteria, valueRange)
	if err != nil {
		return err
	}
	return reduce(matched)
}

func collectMatches(fc *FuncCall, criteriaRange RangeValue, criteria []Criterion, valueRange RangeValue) ([]float64, *SpreadsheetError) {
	return collectMatchesMulti(fc, []RangeValue{criteriaRange}, criteria, valueRange)
}

func collectMatchesMulti(fc *FuncCall, criteriaRanges []RangeValue, criteria []Criterion, valueRange RangeValue) ([]float64, *SpreadsheetError) {
	var results []float64
	valueAddrs := rangeAddrList(valueRange.Addr)
	for idx, addr := range valueAddrs {
		allMatch := true
		for ci, cr := range criteriaRanges {
			criteriaAddrs := rangeAddrList(cr.Addr)
			if idx >= len(criteriaAddrs) {
				allMatch = false
				break
			}
			v := fc.ev.EvaluateCell(criteriaAddrs[idx])
			if !criteria[ci].Matches(v, fc.ev) {
				allMatch = false
				break
			}
		}
		if !allMatch {
			continue
		}
		v := fc.ev.EvaluateCell(addr)
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return nil, errv
		}
		if !skip {
			results = append(results, n)
		}
	}
	return results, nil
}

func rangeAddrList(r RangeAddress) []CellAddress {
	n := r.Normalized()
	var out []CellAddress
	for row := n.StartRow; row <= n.EndRow; row++ {
		for col := n.StartColumn; col <= n.EndColumn; col++ {
			out = append(out, CellAddress{WorksheetID: n.WorksheetID, Row: row, Column: col})
		}
	}
	return out
}

func fnProduct(fc *FuncCall) Primitive {
	total := 1.0
	any := false
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if !skip {
			total *= n
			any = true
		}
	}
	if !any {
		return 0.0
	}
	return total
}

func fnMin(fc *FuncCall) Primitive {
	best := math.Inf(1)
	found := false
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if skip {
			continue
		}
		if n < best {
			best = n
		}
		found = true
	}
	if !found {
		return 0.0
	}
	return best
}

func fnMax(fc *FuncCall) Primitive {
	best := math.Inf(-1)
	found := false
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if skip {
			continue
		}
		if n > best {
			best = n
		}
		found = true
	}
	if !found {
		return 0.0
	}
	return best
}

func fnMathUnary(f func(float64) float64) func(*FuncCall) Primitive {
	return func(fc *FuncCall) Primitive {
		n, errv := fc.Number(0)
		if errv != nil {
			return errv
		}
		return f(n)
	}
}

func fnInt(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	return math.Floor(n)
}

func fnMod(fc *FuncCall) Primitive {
	a, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	b, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	if b == 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "")
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func fnSqrt(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	if n < 0 {
		return NewSpreadsheetError(ErrorCodeNum, "")
	}
	return math.Sqrt(n)
}

func fnPower(fc *FuncCall) Primitive {
	base, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	exp, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	if base == 0 && exp == 0 {
		return NewSpreadsheetError(ErrorCodeNum, "")
	}
	return checkNumResult(math.Pow(base, exp))
}

func fnLn(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	if n <= 0 {
		return NewSpreadsheetError(ErrorCodeNum, "")
	}
	return math.Log(n)
}

func fnLog(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	base := 10.0
	if fc.Count() >= 2 {
		b, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		base = b
	}
	if n <= 0 || base <= 0 || base == 1 {
		return NewSpreadsheetError(ErrorCodeNum, "")
	}
	return math.Log(n) / math.Log(base)
}

func fnAtan2(fc *FuncCall) Primitive {
	x, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	y, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	return math.Atan2(y, x)
}

func fnSign(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	switch {
	case n > 0:
		return 1.0
	case n < 0:
		return -1.0
	default:
		return 0.0
	}
}

// roundHalfAwayFromZero implements the ROUND family's tie-breaking rule
// decided in SPEC_FULL.md §0: ties round away from zero at every scale.
// It scales by 10^digits in float64, truncates, and rounds the remaining
// fraction away from zero when it is within 1e-9 of 0.5 or more.
func roundHalfAwayFromZero(value float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	scaled := value * pow
	whole := math.Trunc(scaled)
	frac := scaled - whole
	const eps = 1e-9
	switch {
	case frac >= 0.5-eps:
		whole++
	case frac <= -0.5+eps:
		whole--
	}
	return whole / pow
}

func fnRound(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	digits, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	return roundHalfAwayFromZero(n, int(digits))
}

func fnRoundUpDown(up bool) func(*FuncCall) Primitive {
	return func(fc *FuncCall) Primitive {
		n, errv := fc.Number(0)
		if errv != nil {
			return errv
		}
		digits, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		pow := math.Pow(10, digits)
		scaled := n * pow
		var rounded float64
		if up {
			if scaled >= 0 {
				rounded = math.Ceil(scaled - 1e-9)
			} else {
				rounded = math.Floor(scaled + 1e-9)
			}
		} else {
			if scaled >= 0 {
				rounded = math.Floor(scaled + 1e-9)
			} else {
				rounded = math.Ceil(scaled - 1e-9)
			}
		}
		return rounded / pow
	}
}

func fnTrunc(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	digits := 0.0
	if fc.Count() >= 2 {
		d, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		digits = d
	}
	pow := math.Pow(10, digits)
	return math.Trunc(n*pow) / pow
}

func fnCeiling(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	significance := 1.0
	if fc.Count() >= 2 {
		s, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		significance = s
	}
	if significance == 0 {
		return 0.0
	}
	return math.Ceil(n/significance) * significance
}

func fnFloor(fc *FuncCall) Primitive {
	n, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	significance := 1.0
	if fc.Count() >= 2 {
		s, errv := fc.Number(1)
		if errv != nil {
			return errv
		}
		significance = s
	}
	if significance == 0 {
		return 0.0
	}
	return math.Floor(n/significance) * significance
}

func fnGcd(fc *FuncCall) Primitive {
	result := int64(0)
	for i := 0; i < fc.Count(); i++ {
		n, errv := fc.Number(i)
		if errv != nil {
			return errv
		}
		result = gcdInt(result, int64(n))
	}
	return float64(result)
}

func gcdInt(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func fnLcm(fc *FuncCall) Primitive {
	result := int64(1)
	for i := 0; i < fc.Count(); i++ {
		n, errv := fc.Number(i)
		if errv != nil {
			return errv
		}
		v := int64(n)
		if v == 0 {
			return 0.0
		}
		g := gcdInt(result, v)
		result = result / g * v
		if result < 0 {
			result = -result
		}
	}
	return float64(result)
}

func fnRand(fc *FuncCall) Primitive {
	return fc.Env().RNG.Float64()
}

func fnRandBetween(fc *FuncCall) Primitive {
	lo, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	hi, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	if hi < lo {
		return NewSpreadsheetError(ErrorCodeNum, "")
	}
	span := math.Floor(hi) - math.Ceil(lo) + 1
	if span <= 0 {
		return math.Ceil(lo)
	}
	return math.Ceil(lo) + math.Floor(fc.Env().RNG.Float64()*span)
}
