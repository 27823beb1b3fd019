package device

import "errors"

// Domain errors for the device package.
//
// Repository operations return an Outcome; these errors appear in
// Outcome.Err and can be checked using errors.Is():
//
//	if errors.Is(out.Err, device.ErrEntityExists) {
//	    // handle duplicate
//	}
var (
	// ErrNilEntity is returned when an operation receives a nil entity.
	ErrNilEntity = errors.New("device: entity is nil")

	// ErrNilMutator is returned when UpdateWith receives a nil mutator.
	ErrNilMutator = errors.New("device: mutator is nil")

	// ErrInvalidEntity is returned when entity validation fails.
	ErrInvalidEntity = errors.New("device: invalid entity")

	// ErrEntityExists is returned when adding an id that is already stored.
	ErrEntityExists = errors.New("device: already exists")

	// ErrEntityNotFound is returned when an id is not stored.
	ErrEntityNotFound = errors.New("device: not found")

	// ErrAttachedElsewhere is returned when an entity belongs to another repository.
	ErrAttachedElsewhere = errors.New("device: attached to another repository")

	// ErrNotAttached is returned when an entity does not belong to this repository.
	ErrNotAttached = errors.New("device: not attached to this repository")

	// ErrRemovalVetoed is returned when the removal check rejects a delete.
	ErrRemovalVetoed = errors.New("device: removal vetoed")

	// ErrLockTimeout is returned when the repository lock was not acquired in time.
	ErrLockTimeout = errors.New("device: lock timeout")

	// ErrInternal wraps a panic recovered inside the critical section.
	ErrInternal = errors.New("device: internal error")
)
