/*
warning.go - Structured, non-fatal generation warnings

PURPOSE:
  A single bad day must not abort a month-wide query. Data-quality problems
  (missing shift-type mappings, ambiguous exceptions, inverted ranges) are
  recorded as Warnings attached to the result and logged through zerolog;
  the pipeline then degrades to an empty or partial result.

USAGE:
  warnings are plain values; components return them alongside results:

    base, warns := provider.GenerateForDate(date, pattern, scope)

  and emit them on an injected logger:

    w.Log(logger)

SEE ALSO:
  - errors.go: The loud counterpart for contract violations
*/
package schedule

import (
	"github.com/rs/zerolog"
)

type WarningCode string

const (
	WarnInvalidRange        WarningCode = "invalid_range"
	WarnMissingShiftMapping WarningCode = "missing_shift_mapping"
	WarnUnknownShiftType    WarningCode = "unknown_shift_type"
	WarnAmbiguousExceptions WarningCode = "ambiguous_exceptions"
	WarnUnsupportedPattern  WarningCode = "unsupported_pattern"
	WarnInvalidPattern      WarningCode = "invalid_pattern"
	WarnMissingReplacement  WarningCode = "missing_replacement_shift"
)

// Warning is a structured data-quality signal. It never aborts generation.
type Warning struct {
	Code    WarningCode
	Message string
	Date    TimePoint
	Scope   string
}

func NewWarning(code WarningCode, msg string) Warning {
	return Warning{Code: code, Message: msg}
}

func (w Warning) At(date TimePoint) Warning {
	w.Date = date
	return w
}

func (w Warning) For(scope Scope) Warning {
	w.Scope = scope.Key()
	return w
}

// Log emits the warning as a structured zerolog event.
func (w Warning) Log(logger zerolog.Logger) {
	ev := logger.Warn().Str("code", string(w.Code))
	if !w.Date.IsZero() {
		ev = ev.Str("date", w.Date.String())
	}
	if w.Scope != "" {
		ev = ev.Str("scope", w.Scope)
	}
	ev.Msg(w.Message)
}

// LogAll emits a batch of warnings.
func LogAll(logger zerolog.Logger, warnings []Warning) {
	for _, w := range warnings {
		w.Log(logger)
	}
}
