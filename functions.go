package sheetcalc

// FunctionSpec describes one registered builtin: its arity bounds and
// its implementation (§4.6 "the function library is a closed registry
// resolved once at parse time, not a dynamic lookup per evaluation").
type FunctionSpec struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means unbounded
	Fn      func(*FuncCall) Primitive
}

var functionRegistry = make(map[string]FunctionSpec)

// register adds a function to the closed registry. Called from each
// functions_*.go file's init(), the way the teacher's builtin.go built
// one switch-dispatch table but split here across files grouped by
// domain, matching functions_*.go's layout (§4 PACKAGE LAYOUT).
func register(name string, minArgs, maxArgs int, fn func(*FuncCall) Primitive) {
	functionRegistry[name] = FunctionSpec{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Fn: fn}
}

// LookupFunction resolves an upper-cased function name to its spec. The
// parser calls this once, at parse time, to decide NodeFunctionCall vs
// NodeInvalidFunction (§4.2); the evaluator calls it again at
// evaluation time using the same resolved name.
func LookupFunction(upper string) (FunctionSpec, bool) {
	spec, ok := functionRegistry[upper]
	return spec, ok
}

// xlfnFunctions are functions introduced after the original 1997 set
// that a document container prefixes with "_xlfn." on disk (§4.1 "only
// the _xlfn. prefix is stripped on read"); stringifyFunctionName restores
// it on write so a round-tripped formula matches what was read.
var xlfnFunctions = map[string]struct{}{
	"IFS": {}, "IFNA": {}, "SWITCH": {}, "MAXIFS": {}, "MINIFS": {}, "XLOOKUP": {},
	"ISFORMULA": {}, "NUMBERVALUE": {}, "SHEET": {}, "DAYS": {},
	"VALUETOTEXT": {}, "TEXTJOIN": {}, "CONCAT": {}, "XOR": {},
	"RRI": {}, "PDURATION": {},
	"BITAND": {}, "BITOR": {}, "BITXOR": {}, "BITLSHIFT": {}, "BITRSHIFT": {},
	"ERF.PRECISE": {}, "ERFC.PRECISE": {},
	"IMTAN": {}, "IMSINH": {}, "IMCOSH": {}, "IMCOT": {}, "IMCSC": {}, "IMCSCH": {}, "IMSEC": {},
}

// stringifyFunctionName renders a resolved function name back to its
// on-disk spelling (§4.2 "Node.String()"/transform.go's Stringify).
func stringifyFunctionName(name string) string {
	if _, needsPrefix := xlfnFunctions[name]; needsPrefix {
		return "_xlfn." + name
	}
	return name
}
