package assessment

import "errors"

// Engine errors. Callers compare with errors.Is; wrapped variants carry detail.
var (
	// ErrInvalidTest rejects session creation for an empty or malformed test.
	ErrInvalidTest = errors.New("invalid test definition")
	// ErrSessionFinished is returned by mutators once the session is finished.
	// State is unchanged; callers treat it as a no-op.
	ErrSessionFinished = errors.New("session already finished")
	// ErrInvalidOption rejects an option index outside the current question.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrIndexOutOfRange rejects a jump outside the question list.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrTestUnavailable is returned by a TestSource that cannot produce a test.
	ErrTestUnavailable = errors.New("test unavailable")
)
