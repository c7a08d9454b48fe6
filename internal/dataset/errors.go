package dataset

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrSchema              = errors.New("schema error")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrUndefinedImputation = errors.New("undefined imputation")
)

// SchemaError reports a column name collision, a missing expected column or
// a shape violation (a step that changed the row count).
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: column %q: %s", e.Column, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// UnknownCategoryError reports a value outside a declared categorical domain.
// Row is 0-based.
type UnknownCategoryError struct {
	Column string
	Row    int
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("column %q row %d: unknown category %q", e.Column, e.Row, e.Value)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

// InvalidCategoryError reports an unrecognized literal in a yes/no field.
type InvalidCategoryError struct {
	Column string
	Row    int
	Value  string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("column %q row %d: %q is not a yes/no value", e.Column, e.Row, e.Value)
}

func (e *InvalidCategoryError) Is(target error) bool { return target == ErrInvalidCategory }

// UndefinedImputationError reports a column with no usable values to derive
// a mean or mode from.
type UndefinedImputationError struct {
	Column   string
	Strategy string
}

func (e *UndefinedImputationError) Error() string {
	return fmt.Sprintf("column %q: %s undefined, no non-missing values", e.Column, e.Strategy)
}

func (e *UndefinedImputationError) Is(target error) bool { return target == ErrUndefinedImputation }

// ColumnOf extracts the offending column from any of the typed errors in
// err's chain. It returns "" when none is found.
func ColumnOf(err error) string {
	var (
		se *SchemaError
		ue *UnknownCategoryError
		ie *InvalidCategoryError
		de *UndefinedImputationError
	)
	switch {
	case errors.As(err, &se):
		return se.Column
	case errors.As(err, &ue):
		return ue.Column
	case errors.As(err, &ie):
		return ie.Column
	case errors.As(err, &de):
		return de.Column
	}
	return ""
}
