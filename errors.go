package sheetcalc

import "github.com/pkg/errors"

// AppErrorCode enumerates the construction/configuration failures (§7
// layer 1): these are returned as Go errors from API calls that mutate
// workbook structure, never produced while evaluating a formula.
type AppErrorCode int

const (
	AppErrorUnknown AppErrorCode = iota
	AppErrorUnknownLocale
	AppErrorUnknownTimezone
	AppErrorDuplicateSheetName
	AppErrorInvalidSheetName
	AppErrorLastVisibleSheet
	AppErrorSheetNotFound
	AppErrorCellOutOfRange
	AppErrorInvalidReference
)

// EngineError is the Go error type for construction/configuration
// failures. It carries a stable Code a caller can switch on, plus a
// human-readable Message; the chain is wrapped with github.com/pkg/errors
// at each layer boundary so a misconfigured workbook keeps a stack trace
// without that ever leaking into the formula value lattice (evaluation
// never raises, it returns Error values, see cell.go/evaluator.go).
type EngineError struct {
	Code    AppErrorCode
	Message string
	cause   error
}

func (e *EngineError) Error() string {
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.cause
}

// NewEngineError builds a fresh EngineError, stamping a stack trace via
// github.com/pkg/errors' errors.New so the construction failure can be traced back through
// Workbook/locale/sheet-table call sites.
func NewEngineError(code AppErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message, cause: errors.New(message)}
}

// wrapEngineError wraps an underlying error (e.g. from LoadLocale) into an
// EngineError, preserving the cause for errors.Cause()/errors.Is() chains.
func wrapEngineError(code AppErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, cause: errors.Wrap(cause, message)}
}
