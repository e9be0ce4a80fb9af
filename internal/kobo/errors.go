package kobo

import (
	"errors"
	"fmt"
)

var (
	// ErrDatabase means the content database cannot be used at all.
	ErrDatabase = errors.New("kobo database error")

	// ErrRowParse matches every *RowError.
	ErrRowParse = errors.New("malformed row")

	// ErrOrphanHighlight is reported for a bookmark whose book row is missing.
	ErrOrphanHighlight = errors.New("highlight references a book that is not in the content table")
)

// RowError describes one skipped row.
type RowError struct {
	Table string
	Key   string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("malformed %s row %s: %v", e.Table, e.Key, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func (e *RowError) Is(target error) bool {
	return target == ErrRowParse
}
