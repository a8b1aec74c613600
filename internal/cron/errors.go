package cron

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedExpression matches every *MalformedExpressionError.
	ErrMalformedExpression = errors.New("malformed cron expression")

	// ErrSearchExhausted matches every *SearchExhaustedError.
	ErrSearchExhausted = errors.New("no matching time found")

	// ErrRebootEntry is returned when asking an @reboot entry for its next
	// occurrence. It only runs at system start.
	ErrRebootEntry = errors.New("@reboot entry has no next occurrence")
)

// MalformedExpressionError reports text that does not follow the schedule
// grammar. Field is the field name, or "line" for whole-line problems.
type MalformedExpressionError struct {
	Field  string
	Expr   string
	Reason string
}

func malformedf(field, expr, format string, args ...any) *MalformedExpressionError {
	return &MalformedExpressionError{
		Field:  field,
		Expr:   expr,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("cron: malformed %s expression %q: %s", e.Field, e.Expr, e.Reason)
}

func (e *MalformedExpressionError) Is(target error) bool {
	return target == ErrMalformedExpression
}

// SearchExhaustedError reports a schedule that has no occurrence within
// Years years of From, such as "0 0 31 2 *".
type SearchExhaustedError struct {
	Expr  string
	From  time.Time
	Years int
}

func (e *SearchExhaustedError) Error() string {
	return fmt.Sprintf("cron: no occurrence of %q within %d years of %s",
		e.Expr, e.Years, e.From.Format(time.RFC3339))
}

func (e *SearchExhaustedError) Is(target error) bool {
	return target == ErrSearchExhausted
}
