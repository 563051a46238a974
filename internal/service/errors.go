package service

import "errors"

// Sentinel errors forming the session engine's error taxonomy. Handlers map
// these to response.ErrCode values; collaborator errors are surfaced
// unchanged, never retried.
var (
	// ErrNotFound: a referenced exam, session, question or answer does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the caller lacks the role or ownership required.
	ErrForbidden = errors.New("forbidden")

	// ErrSessionAlreadyActive: a session already exists for the (exam, student) pair.
	ErrSessionAlreadyActive = errors.New("session already active")

	// ErrSessionNotActive: mutation attempted on a session that is not
	// in_progress, or whose deadline has passed.
	ErrSessionNotActive = errors.New("session not active")

	// ErrValidation: malformed input (missing selection, option from another
	// question, missing text).
	ErrValidation = errors.New("validation failed")

	// ErrExamWindow: start attempted outside [exam.StartTime, exam.EndTime].
	ErrExamWindow = errors.New("exam window closed")

	// ErrDuplicateCode: session code collided with an existing one. Internal;
	// Start regenerates the code and retries once.
	ErrDuplicateCode = errors.New("duplicate session code")
)
