package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-progression/repositories"
)

// Errors shared by the services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")

	// Finish-match rules
	ErrMatchAlreadyFinished = errors.New("match is already finished")
	ErrMatchNotFinishable   = errors.New("match cannot be finished until both teams are known")
	ErrKnockoutDraw         = errors.New("knockout matches cannot end in a draw")

	// Knockout source links
	ErrCyclicSource  = errors.New("source link would create a cycle")
	ErrForeignSource = errors.New("source match belongs to another stage")
)

// handleRepositoryError folds the repositories' not-found sentinels into ErrNotFound so
// callers can test a single error kind. Other errors are returned with context only.
func handleRepositoryError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrStageNotFound),
		errors.Is(err, repositories.ErrGroupNotFound),
		errors.Is(err, repositories.ErrTournamentNotFound):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, msg, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
