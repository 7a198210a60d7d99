package sheetcalc

import (
	"math"
	"sort"
)

func init() {
	register("AVERAGE", 1, -1, fnAverage)
	register("AVERAGEA", 1, -1, fnAverageA)
	register("AVERAGEIF", 2, 3, fnAverageif)
	register("AVERAGEIFS", 3, -1, fnAverageifs)
	register("COUNT", 0, -1, fnCount)
	register("COUNTA", 0, -1, fnCounta)
	register("COUNTBLANK", 1, 1, fnCountblank)
	register("COUNTIF", 2, 2, fnCountif)
	register("COUNTIFS", 2, -1, fnCountifs)
	register("MAXIFS", 3, -1, fnMaxifs)
	register("MINIFS", 3, -1, fnMinifs)
	register("MEDIAN", 1, -1, fnMedian)
	register("MODE", 1, -1, fnMode)
	register("STDEV", 1, -1, fnStdev(false))
	register("STDEVP", 1, -1, fnStdev(true))
	register("VAR", 1, -1, fnVar(false))
	register("VARP", 1, -1, fnVar(true))
}

func fnAverage(fc *FuncCall) Primitive {
	total, count := 0.0, 0
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if !skip {
			total += n
			count++
		}
	}
	if count == 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "AVERAGE of no numeric values")
	}
	return total / float64(count)
}

// fnAverageA differs from AVERAGE in that text and FALSE count as 0 and
// TRUE counts as 1, rather than being skipped (§3 SUPPLEMENTED FEATURES
// "AVERAGEA").
func fnAverageA(fc *FuncCall) Primitive {
	total, count := 0.0, 0
	for _, v := range fc.FlattenAll() {
		if v == nil {
			continue
		}
		if e, ok := v.(*SpreadsheetError); ok {
			return e
		}
		n, _ := parseNumberStrict(v, fc.Env().Locale)
		if s, ok := v.(string); ok {
			_ = s
			n = 0
		}
		total += n
		count++
	}
	if count == 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "AVERAGEA of no values")
	}
	return total / float64(count)
}

func fnAverageif(fc *FuncCall) Primitive {
	return sumLikeIf(fc, averageReduce)
}

func fnAverageifs(fc *FuncCall) Primitive {
	return sumifsLike(fc, averageReduce)
}

func averageReduce(matched []float64) Primitive {
	if len(matched) == 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "no matching rows")
	}
	total := 0.0
	for _, n := range matched {
		total += n
	}
	return total / float64(len(matched))
}

func fnCount(fc *FuncCall) Primitive {
	count := 0
	for _, v := range fc.FlattenAll() {
		if _, ok := v.(float64); ok {
			count++
		}
	}
	return float64(count)
}

func fnCounta(fc *FuncCall) Primitive {
	count := 0
	for _, v := range fc.FlattenAll() {
		if v != nil {
			count++
		}
	}
	return float64(count)
}

func fnCountblank(fc *FuncCall) Primitive {
	count := 0
	for _, v := range fc.Flatten(fc.Raw(0)) {
		if v == nil {
			count++
		}
	}
	return float64(count)
}

func fnCountif(fc *FuncCall) Primitive {
	r, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	criterion := ParseCriterion(fc.Eval(1), fc.Env().Locale)
	count := 0
	for _, addr := range rangeAddrList(r.Addr) {
		if criterion.Matches(fc.ev.EvaluateCell(addr), fc.ev) {
			count++
		}
	}
	return float64(count)
}

func fnCountifs(fc *FuncCall) Primitive {
	if fc.Count()%2 != 0 {
		return NewSpreadsheetError(ErrorCodeValue, "COUNTIFS requires range/criterion pairs")
	}
	var ranges []RangeValue
	var criteria []Criterion
	for i := 0; i+1 < fc.Count(); i += 2 {
		r, err := fc.RangeOf(i)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
		criteria = append(criteria, ParseCriterion(fc.Eval(i+1), fc.Env().Locale))
	}
	addrs := rangeAddrList(ranges[0].Addr)
	count := 0
	for idx := range addrs {
		allMatch := true
		for ci, r := range ranges {
			criteriaAddrs := rangeAddrList(r.Addr)
			if idx >= len(criteriaAddrs) || !criteria[ci].Matches(fc.ev.EvaluateCell(criteriaAddrs[idx]), fc.ev) {
				allMatch = false
				break
			}
		}
		if allMatch {
			count++
		}
	}
	return float64(count)
}

func fnMaxifs(fc *FuncCall) Primitive {
	return sumifsLike(fc, func(matched []float64) Primitive {
		if len(matched) == 0 {
			return 0.0
		}
		best := matched[0]
		for _, n := range matched[1:] {
			if n > best {
				best = n
			}
		}
		return best
	})
}

func fnMinifs(fc *FuncCall) Primitive {
	return sumifsLike(fc, func(matched []float64) Primitive {
		if len(matched) == 0 {
			return 0.0
		}
		best := matched[0]
		for _, n := range matched[1:] {
			if n < best {
				best = n
			}
		}
		return best
	})
}

func fnMedian(fc *FuncCall) Primitive {
	var nums []float64
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if !skip {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return NewSpreadsheetError(ErrorCodeNum, "MEDIAN of no numeric values")
	}
	sort.Float64s(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return nums[mid]
	}
	return (nums[mid-1] + nums[mid]) / 2
}

func fnMode(fc *FuncCall) Primitive {
	var nums []float64
	counts := make(map[float64]int)
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if !skip {
			nums = append(nums, n)
			counts[n]++
		}
	}
	if len(nums) == 0 {
		return NewSpreadsheetError(ErrorCodeNA, "MODE of no numeric values")
	}
	best, bestCount := nums[0], 0
	for _, n := range nums {
		if counts[n] > bestCount {
			best, bestCount = n, counts[n]
		}
	}
	if bestCount < 2 {
		return NewSpreadsheetError(ErrorCodeNA, "no value repeats")
	}
	return best
}

func fnStdev(population bool) func(*FuncCall) Primitive {
	return func(fc *FuncCall) Primitive {
		v := varianceOf(fc, population)
		if e, ok := v.(*SpreadsheetError); ok {
			return e
		}
		return math.Sqrt(v.(float64))
	}
}

func fnVar(population bool) func(*FuncCall) Primitive {
	return func(fc *FuncCall) Primitive { return varianceOf(fc, population) }
}

func varianceOf(fc *FuncCall, population bool) Primitive {
	var nums []float64
	for _, v := range fc.FlattenAll() {
		n, skip, errv := numberOrSkip(v)
		if errv != nil {
			return errv
		}
		if !skip {
			nums = append(nums, n)
		}
	}
	denom := len(nums)
	if !population {
		denom--
	}
	if denom <= 0 {
		return NewSpreadsheetError(ErrorCodeDiv0, "not enough values")
	}
	mean := 0.0
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	sumSquares := 0.0
	for _, n := range nums {
		d := n - mean
		sumSquares += d * d
	}
	return sumSquares / float64(denom)
}
