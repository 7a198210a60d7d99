package sheetcalc

import (
	"math/rand/v2"
	"time"
)

// Clock is the host environment's single injected operation (§6 "Host
// environment contract"): milliseconds since the Unix epoch. Tests
// replace it with a fixed-value injection so TODAY()/NOW() are
// deterministic (§8 scenario 7).
type Clock interface {
	NowMillis() int64
}

// WallClock is the default Clock, backed by the system time.
type WallClock struct{}

func (WallClock) NowMillis() int64 { return time.Now().UnixMilli() }

// FixedClock is a Clock that always returns the same instant, the shape
// tests inject (§5 "Shared resources... tests replace it with a
// fixed-value injection").
type FixedClock int64

func (c FixedClock) NowMillis() int64 { return int64(c) }

// RandomSource provides the randomness RAND/RANDBETWEEN consume. Tests
// inject a deterministic source; the default wraps math/rand/v2.
type RandomSource interface {
	Float64() float64
}

// DefaultRandomSource is math/rand/v2 without an explicit seed (a fresh,
// unpredictable stream per process) — the engine never reseeds a single
// source mid-evaluation, matching the single-pass non-goal on volatile
// recomputation scheduling (§1 Non-goals).
type DefaultRandomSource struct{}

func (DefaultRandomSource) Float64() float64 { return rand.Float64() }

// Environment bundles everything injected at workbook construction (§6,
// §9 "Global mutable state: none in the core"): the clock, the RNG, and
// the locale/language pair used by the lexer and by locale-aware
// coercions in the evaluator. Timezone is a static IANA tag resolved
// once at construction; an unknown zone fails construction (§5).
type Environment struct {
	Clock    Clock
	RNG      RandomSource
	Locale   *Locale
	Language *Language
	TimeZone *time.Location
	TZName   string
}

// NewEnvironment validates localeTag/languageTag/timezone and builds an
// Environment, or returns an EngineError (§7 layer 1) without touching
// any workbook state.
func NewEnvironment(localeTag, languageTag, timezone string) (*Environment, error) {
	locale, err := LoadLocale(localeTag)
	if err != nil {
		return nil, wrapEngineError(AppErrorUnknownLocale, "unknown locale tag: "+localeTag, err)
	}
	language, err := LoadLanguage(languageTag)
	if err != nil {
		return nil, wrapEngineError(AppErrorUnknownLocale, "unknown language tag: "+languageTag, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, wrapEngineError(AppErrorUnknownTimezone, "unknown timezone: "+timezone, err)
	}
	return &Environment{
		Clock:    WallClock{},
		RNG:      DefaultRandomSource{},
		Locale:   locale,
		Language: language,
		TimeZone: loc,
		TZName:   timezone,
	}, nil
}

// DefaultEnvironment is en-US locale/language, UTC, wall clock and RNG —
// used whenever a workbook is created without an explicit Environment.
func DefaultEnvironment() *Environment {
	return &Environment{
		Clock:    WallClock{},
		RNG:      DefaultRandomSource{},
		Locale:   DefaultLocale(),
		Language: DefaultLanguage(),
		TimeZone: time.UTC,
		TZName:   "UTC",
	}
}
