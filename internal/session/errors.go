package session

import (
	"errors"
	"fmt"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

var (
	// ErrLoadFailure is terminal: the session never reaches Answering.
	ErrLoadFailure = errors.New("failed to load questions")
	// ErrSelectionRequired means the current question has no answer yet.
	ErrSelectionRequired = errors.New("selection required")
	// ErrSubmissionFailure leaves the session answering with answers intact.
	ErrSubmissionFailure = errors.New("failed to submit assessment")
	// ErrInvalidState is returned for operations outside their valid state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrAnswerResolution matches any *AnswerResolutionError.
	ErrAnswerResolution = errors.New("answer does not match any option")
)

// AnswerResolutionError reports a recorded answer whose value matches no
// option of its question.
type AnswerResolutionError struct {
	Index      int
	QuestionID autismquiz.ID
	Value      int
}

func (e *AnswerResolutionError) Error() string {
	return fmt.Sprintf("question %d (id %s): value %d does not match any option",
		e.Index+1, e.QuestionID, e.Value)
}

func (e *AnswerResolutionError) Is(target error) bool {
	return target == ErrAnswerResolution
}
