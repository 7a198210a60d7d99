package sheetcalc

import (
	"embed"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// localeDoc is the on-disk shape of a locales/*.yaml file.
type localeDoc struct {
	Tag                string   `yaml:"tag"`
	DecimalSeparator   string   `yaml:"decimal_separator"`
	ThousandsSeparator string   `yaml:"thousands_separator"`
	ArgumentSeparator  string   `yaml:"argument_separator"`
	BooleanTrueWords   []string `yaml:"boolean_true_words"`
	BooleanFalseWords  []string `yaml:"boolean_false_words"`
}

// Locale carries the punctuation a lexer needs to read locale-formatted
// numbers and argument lists (§1.3 of the ambient stack: formula syntax
// is locale-sensitive the way a spreadsheet's "use system separators"
// setting is).
type Locale struct {
	Tag                string
	DecimalSeparator   rune
	ThousandsSeparator rune
	ArgumentSeparator  rune
}

// Language carries the word lists used to recognise boolean literals in
// a dialect other than English, independent of number punctuation (a
// workbook can be, say, German-languaged but US-punctuated).
type Language struct {
	Tag         string
	trueWords   map[string]struct{}
	falseWords  map[string]struct{}
	foldCaser   cases.Caser
}

// IsBooleanTrue reports whether word is this language's spelling of TRUE,
// case-insensitively.
func (lang *Language) IsBooleanTrue(word string) bool {
	_, ok := lang.trueWords[lang.fold(word)]
	return ok
}

// IsBooleanFalse reports whether word is this language's spelling of
// FALSE, case-insensitively.
func (lang *Language) IsBooleanFalse(word string) bool {
	_, ok := lang.falseWords[lang.fold(word)]
	return ok
}

func (lang *Language) fold(s string) string {
	return lang.foldCaser.String(strings.ToLower(s))
}

func firstRune(s, fallback string) rune {
	if s == "" {
		s = fallback
	}
	for _, r := range s {
		return r
	}
	return 0
}

func loadLocaleDoc(tag string) (localeDoc, error) {
	if _, err := language.Parse(tag); err != nil {
		return localeDoc{}, errors.Wrapf(err, "invalid locale tag %q", tag)
	}
	raw, err := localeFiles.ReadFile(fmt.Sprintf("locales/%s.yaml", tag))
	if err != nil {
		return localeDoc{}, errors.Wrapf(err, "no locale resource for %q", tag)
	}
	var doc localeDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return localeDoc{}, errors.Wrapf(err, "malformed locale resource for %q", tag)
	}
	return doc, nil
}

// LoadLocale loads the number-punctuation table for a BCP-47 locale tag
// (e.g. "en-US", "de-DE") from the embedded locales/ directory.
func LoadLocale(tag string) (*Locale, error) {
	doc, err := loadLocaleDoc(tag)
	if err != nil {
		return nil, err
	}
	return &Locale{
		Tag:                tag,
		DecimalSeparator:   firstRune(doc.DecimalSeparator, "."),
		ThousandsSeparator: firstRune(doc.ThousandsSeparator, ","),
		ArgumentSeparator:  firstRune(doc.ArgumentSeparator, ","),
	}, nil
}

// LoadLanguage loads the boolean-literal word list for a BCP-47 locale
// tag from the embedded locales/ directory.
func LoadLanguage(tag string) (*Language, error) {
	doc, err := loadLocaleDoc(tag)
	if err != nil {
		return nil, err
	}
	base, _ := language.Parse(tag)
	lang := &Language{
		Tag:        tag,
		trueWords:  map[string]struct{}{},
		falseWords: map[string]struct{}{},
		foldCaser:  cases.Fold(cases.Compact),
	}
	_ = base
	trueWords := doc.BooleanTrueWords
	if len(trueWords) == 0 {
		trueWords = []string{"TRUE"}
	}
	falseWords := doc.BooleanFalseWords
	if len(falseWords) == 0 {
		falseWords = []string{"FALSE"}
	}
	for _, w := range trueWords {
		lang.trueWords[lang.fold(w)] = struct{}{}
	}
	for _, w := range falseWords {
		lang.falseWords[lang.fold(w)] = struct{}{}
	}
	return lang, nil
}

// collatorTag returns the BCP-47 language.Tag this locale's collation
// should use for case-insensitive, locale-aware string comparison
// (evaluator.go's compareValues), falling back to English on a tag that
// no longer parses (should not happen for a Locale built via LoadLocale,
// which already validated it).
func (l *Locale) collatorTag() language.Tag {
	tag, err := language.Parse(l.Tag)
	if err != nil {
		return language.English
	}
	return tag
}

// DefaultLocale is en-US punctuation, used whenever a workbook doesn't
// specify a locale explicitly.
func DefaultLocale() *Locale {
	return &Locale{Tag: "en-US", DecimalSeparator: '.', ThousandsSeparator: ',', ArgumentSeparator: ','}
}

// DefaultLanguage is the English TRUE/FALSE spelling.
func DefaultLanguage() *Language {
	lang := &Language{
		Tag:        "en-US",
		trueWords:  map[string]struct{}{"true": {}},
		falseWords: map[string]struct{}{"false": {}},
		foldCaser:  cases.Fold(cases.Compact),
	}
	return lang
}
