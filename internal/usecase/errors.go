package usecase

// DomainError is a per-record problem (malformed submission, missing email).
// It never aborts a cycle; the orchestrator counts it and moves on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError is an infrastructure failure (store or connector down).
// It is cycle-fatal: the run is marked failed and the checkpoint stays put.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}
