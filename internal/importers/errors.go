package importers

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound means no valid Kobo is mounted.
var ErrDeviceNotFound = errors.New("no kobo device found")

// StageError is a failure that aborted a whole import or export.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
