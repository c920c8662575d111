// internal/sniping/errors.go
package sniping

import (
	"fmt"
)

// Stage - этап конвейера сделки.
type Stage string

const (
	StageMetadata     Stage = "metadata"
	StageAssembly     Stage = "assembly"
	StageSigning      Stage = "signing"
	StageSubmission   Stage = "submission"
	StageConfirmation Stage = "confirmation"
)

// StageError представляет ошибку при выполнении сделки на конкретном этапе
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("trade error at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
