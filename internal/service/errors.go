package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so the transport layer can pick a
// status code without knowing individual errors.
type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindAuthorization  ErrorKind = "AUTHORIZATION"
	KindEligibility    ErrorKind = "ELIGIBILITY"
	KindConflict       ErrorKind = "CONFLICT"
	KindAuthentication ErrorKind = "AUTHENTICATION"
	KindInternal       ErrorKind = "INTERNAL"
)

// Error is a classified service error carrying a human readable message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationErrorf(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// KindOf returns the kind of err. Errors that carry no kind are internal.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// --- Error Definitions ---
var (
	ErrClientNotFound     = &Error{KindNotFound, "client not found"}
	ErrTrainerNotFound    = &Error{KindNotFound, "trainer not found"}
	ErrExerciseNotFound   = &Error{KindNotFound, "exercise not found"}
	ErrWorkoutNotFound    = &Error{KindNotFound, "workout not found"}
	ErrProgramNotFound    = &Error{KindNotFound, "program not found"}
	ErrAssignmentNotFound = &Error{KindNotFound, "assignment not found"}
	ErrEnrollmentNotFound = &Error{KindNotFound, "program enrollment not found"}

	ErrForbidden          = &Error{KindAuthorization, "access denied"}
	ErrNotTemplateCreator = &Error{KindAuthorization, "only the creator or an admin may modify this template"}
	ErrTemplateChanged    = &Error{KindConflict, "template was modified concurrently, reload and retry"}
	ErrNotExerciseCreator = &Error{KindAuthorization, "only the creator or an admin may modify this exercise"}
	ErrClientNotManaged   = &Error{KindAuthorization, "client is not assigned to you"}
	ErrNotAssignedTrainer = &Error{KindAuthorization, "only the client's current trainer may unassign"}

	ErrInactiveSubscription = &Error{KindEligibility, "inactive subscription"}
	ErrClientHasTrainer     = &Error{KindEligibility, "client already has a trainer"}

	ErrWorkoutInUse        = &Error{KindConflict, "workout is in use by client assignments"}
	ErrProgramInUse        = &Error{KindConflict, "program is in use by client enrollments"}
	ErrExerciseInUse       = &Error{KindConflict, "exercise is in use by workouts or programs"}
	ErrExerciseNameTaken   = &Error{KindConflict, "an exercise with this name already exists"}
	ErrDuplicateAssignment = &Error{KindConflict, "workout already scheduled for this client on that date"}
)
