package device

import "time"

// OutcomeKind enumerates the results of a repository mutation.
type OutcomeKind int

// Outcome kinds. Exactly one is returned per call.
const (
	Success OutcomeKind = iota
	Added
	Updated
	NoOperation
	ArgumentError
	CanNotBeRemoved
	LockTimeout
	Error
)

var outcomeNames = [...]string{
	Success:         "Success",
	Added:           "Added",
	Updated:         "Updated",
	NoOperation:     "NoOperation",
	ArgumentError:   "ArgumentError",
	CanNotBeRemoved: "CanNotBeRemoved",
	LockTimeout:     "LockTimeout",
	Error:           "Error",
}

func (k OutcomeKind) String() string {
	if int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return "Unknown"
}

// Outcome is the result of a repository mutation.
//
// Entity is the stored entity for Success, Added and Updated, the existing
// entity for NoOperation, and the argument entity otherwise. Reason is set
// for ArgumentError and CanNotBeRemoved. Waited is set for LockTimeout. Err
// is set for every failing kind.
type Outcome struct {
	Kind   OutcomeKind
	Entity *Entity
	Reason string
	Waited time.Duration
	Err    error
}

// Succeeded reports whether the repository holds the intended state after
// the call (Success, Added, Updated or NoOperation).
func (o Outcome) Succeeded() bool {
	switch o.Kind {
	case Success, Added, Updated, NoOperation:
		return true
	default:
		return false
	}
}

func argumentError(e *Entity, err error) Outcome {
	return Outcome{Kind: ArgumentError, Entity: e, Reason: err.Error(), Err: err}
}
