package device

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nerrad567/chargebox-core/internal/fanout"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// DefaultLockTimeout is how long a mutation waits for the repository lock.
const DefaultLockTimeout = 5 * time.Second

const moduleName = "device.Repository"

// Logger defines the logging interface used by the Repository.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RemovalCheck decides whether an entity may be deleted.
// A false result vetoes the delete with the given reason.
type RemovalCheck func(e *Entity) (ok bool, reason string)

// Event is passed to added, updated and deleted observers.
// Previous is set for updates that replaced a stored entity.
type Event struct {
	Timestamp time.Time
	Entity    *Entity
	Previous  *Entity
}

// Observer receives repository events.
type Observer = fanout.Observer[Event]

// Option configures a Repository.
type Option func(*Repository)

// WithLockTimeout sets the bounded wait for the repository lock.
// Non-positive values are ignored.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.lockTimeout = d
		}
	}
}

// WithRemovalCheck installs a veto hook for Delete.
func WithRemovalCheck(check RemovalCheck) Option {
	return func(r *Repository) { r.removalCheck = check }
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(r *Repository) { r.SetLogger(logger) }
}

// Repository is the in-memory store of device entities.
// All public methods are safe for concurrent use.
type Repository struct {
	lock        *semaphore.Weighted
	lockTimeout time.Duration

	mu       sync.RWMutex // protects entities and removalCheck
	entities map[ocpp.ChargeBoxID]*Entity

	removalCheck RemovalCheck

	added   fanout.Set[Event]
	updated fanout.Set[Event]
	deleted fanout.Set[Event]

	logger Logger
	now    func() time.Time
}

// NewRepository creates an empty repository.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		lock:        semaphore.NewWeighted(1),
		lockTimeout: DefaultLockTimeout,
		entities:    make(map[ocpp.ChargeBoxID]*Entity),
		logger:      noopLogger{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLogger sets the logger for the repository.
func (r *Repository) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// SetRemovalCheck replaces the delete veto hook. nil allows every delete.
func (r *Repository) SetRemovalCheck(check RemovalCheck) {
	r.mu.Lock()
	r.removalCheck = check
	r.mu.Unlock()
}

// OnAdded subscribes fn to added events.
func (r *Repository) OnAdded(fn Observer) (unsubscribe func()) { return r.added.Subscribe(fn) }

// OnUpdated subscribes fn to updated events.
func (r *Repository) OnUpdated(fn Observer) (unsubscribe func()) { return r.updated.Subscribe(fn) }

// OnDeleted subscribes fn to deleted events.
func (r *Repository) OnDeleted(fn Observer) (unsubscribe func()) { return r.deleted.Subscribe(fn) }

// LockTimeout returns the configured bounded wait.
func (r *Repository) LockTimeout() time.Duration { return r.lockTimeout }

// Exists reports whether an entity with id is stored.
func (r *Repository) Exists(id ocpp.ChargeBoxID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[id]
	return ok
}

// Get returns the stored entity for id.
func (r *Repository) Get(id ocpp.ChargeBoxID) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

// List returns all stored entities ordered by id.
func (r *Repository) List() []*Entity {
	r.mu.RLock()
	out := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Entity) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Count returns the number of stored entities.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Add attaches and stores e. Returns ArgumentError if e belongs to another
// repository or its id is already stored.
func (r *Repository) Add(ctx context.Context, e *Entity) Outcome {
	return r.mutate(ctx, "Add", e, func() (Outcome, *notification) {
		release, out, ok := r.claim(e)
		if !ok {
			return out, nil
		}
		if _, exists := r.entities[e.ID]; exists {
			release()
			return argumentError(e, fmt.Errorf("%w: %s", ErrEntityExists, e.ID)), nil
		}
		r.store(e, nil)
		return Outcome{Kind: Success, Entity: e}, r.note(&r.added, e, nil)
	})
}

// AddIfNotExists is Add, except that an existing id yields NoOperation with
// the stored entity and leaves the repository unchanged.
func (r *Repository) AddIfNotExists(ctx context.Context, e *Entity) Outcome {
	return r.mutate(ctx, "AddIfNotExists", e, func() (Outcome, *notification) {
		release, out, ok := r.claim(e)
		if !ok {
			return out, nil
		}
		if existing, exists := r.entities[e.ID]; exists {
			release()
			return Outcome{Kind: NoOperation, Entity: existing}, nil
		}
		r.store(e, nil)
		return Outcome{Kind: Success, Entity: e}, r.note(&r.added, e, nil)
	})
}

// AddOrUpdate stores e, returning Added for a new id and Updated when it
// replaced a stored entity. Linked data of the replaced entity is carried
// over.
func (r *Repository) AddOrUpdate(ctx context.Context, e *Entity) Outcome {
	return r.mutate(ctx, "AddOrUpdate", e, func() (Outcome, *notification) {
		if _, out, ok := r.claim(e); !ok {
			return out, nil
		}
		prev, exists := r.entities[e.ID]
		if !exists {
			r.store(e, nil)
			return Outcome{Kind: Added, Entity: e}, r.note(&r.added, e, nil)
		}
		r.store(e, prev)
		return Outcome{Kind: Updated, Entity: e}, r.note(&r.updated, e, prev)
	})
}

// Update replaces the stored entity with the same id as e.
// Returns ArgumentError if the id is unknown or e belongs to another
// repository.
func (r *Repository) Update(ctx context.Context, e *Entity) Outcome {
	return r.mutate(ctx, "Update", e, func() (Outcome, *notification) {
		release, out, ok := r.claim(e)
		if !ok {
			return out, nil
		}
		prev, exists := r.entities[e.ID]
		if !exists {
			release()
			return argumentError(e, fmt.Errorf("%w: %s", ErrEntityNotFound, e.ID)), nil
		}
		r.store(e, prev)
		return Outcome{Kind: Success, Entity: e}, r.note(&r.updated, e, prev)
	})
}

// UpdateWith clones the entity stored under id, applies mutate to the clone
// and swaps the result in.
func (r *Repository) UpdateWith(ctx context.Context, id ocpp.ChargeBoxID, mutate Mutator) Outcome {
	return r.mutate(ctx, "UpdateWith", nil, func() (Outcome, *notification) {
		if mutate == nil {
			return argumentError(nil, ErrNilMutator), nil
		}
		prev, exists := r.entities[id]
		if !exists {
			return argumentError(nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)), nil
		}
		if !prev.AttachedTo(r) {
			return argumentError(prev, ErrNotAttached), nil
		}

		b := prev.ToBuilder()
		mutate(b)
		next := b.Build()

		if err := ValidateEntity(next); err != nil {
			return argumentError(next, err), nil
		}
		r.store(next, prev)
		return Outcome{Kind: Success, Entity: next}, r.note(&r.updated, next, prev)
	})
}

// Delete removes e. Returns ArgumentError if e is not attached here or not
// stored, and CanNotBeRemoved if the removal check vetoes it.
func (r *Repository) Delete(ctx context.Context, e *Entity) Outcome {
	return r.mutate(ctx, "Delete", e, func() (Outcome, *notification) {
		if e == nil {
			return argumentError(nil, ErrNilEntity), nil
		}
		if !e.AttachedTo(r) {
			return argumentError(e, ErrNotAttached), nil
		}
		stored, exists := r.entities[e.ID]
		if !exists || stored != e {
			return argumentError(e, fmt.Errorf("%w: %s", ErrEntityNotFound, e.ID)), nil
		}

		r.mu.RLock()
		check := r.removalCheck
		r.mu.RUnlock()
		if check != nil {
			if ok, reason := check(e); !ok {
				return Outcome{
					Kind:   CanNotBeRemoved,
					Entity: e,
					Reason: reason,
					Err:    fmt.Errorf("%w: %s", ErrRemovalVetoed, reason),
				}, nil
			}
		}

		r.mu.Lock()
		delete(r.entities, e.ID)
		r.mu.Unlock()
		e.owner.Store(nil)

		return Outcome{Kind: Success, Entity: e}, r.note(&r.deleted, e, nil)
	})
}

// claim validates e and makes r its owner. A detached entity is claimed with
// a compare-and-swap, so two repositories adding it at once cannot both win.
// release undoes a fresh claim and is a no-op when e was already attached to
// r. Called inside the critical section.
func (r *Repository) claim(e *Entity) (release func(), out Outcome, ok bool) {
	if err := ValidateEntity(e); err != nil {
		return nil, argumentError(e, err), false
	}
	if e.owner.CompareAndSwap(nil, r) {
		return func() { e.owner.CompareAndSwap(r, nil) }, Outcome{}, true
	}
	if !e.AttachedTo(r) {
		return nil, argumentError(e, ErrAttachedElsewhere), false
	}
	return func() {}, Outcome{}, true
}

// store inserts next, replacing prev if set. Called inside the critical
// section.
func (r *Repository) store(next, prev *Entity) {
	if prev != nil && prev != next {
		carryLinked(prev, next)
	}
	next.owner.Store(r)

	r.mu.Lock()
	r.entities[next.ID] = next
	r.mu.Unlock()

	if prev != nil && prev != next {
		prev.owner.Store(nil)
	}
}

type notification struct {
	set   *fanout.Set[Event]
	event Event
}

func (r *Repository) note(set *fanout.Set[Event], e, prev *Entity) *notification {
	return &notification{
		set:   set,
		event: Event{Timestamp: r.now(), Entity: e, Previous: prev},
	}
}

// mutate runs critical under the bounded-wait lock and raises its
// notification after the lock is released.
func (r *Repository) mutate(ctx context.Context, caller string, e *Entity, critical func() (Outcome, *notification)) Outcome {
	start := time.Now()

	acquireCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	err := r.lock.Acquire(acquireCtx, 1)
	cancel()
	if err != nil {
		waited := time.Since(start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{Kind: Error, Entity: e, Waited: waited, Err: fmt.Errorf("%s: %w", caller, ctxErr)}
		}
		r.logger.Warn("repository lock timeout",
			"operation", caller,
			"waited", waited,
		)
		return Outcome{Kind: LockTimeout, Entity: e, Waited: waited, Err: ErrLockTimeout}
	}

	out, n := r.runCritical(caller, e, critical)

	if n != nil {
		ev := n.event
		fanout.Notify(ctx, r.logger, moduleName, caller, n.set.Snapshot(), func() Event { return ev })
	}
	return out
}

// runCritical executes critical, converts a panic into an Error outcome and
// always releases the lock.
func (r *Repository) runCritical(caller string, e *Entity, critical func() (Outcome, *notification)) (out Outcome, n *notification) {
	defer r.release(caller)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("repository operation panicked",
				"operation", caller,
				"panic", rec,
			)
			out = Outcome{Kind: Error, Entity: e, Err: fmt.Errorf("%w: %v", ErrInternal, rec)}
			n = nil
		}
	}()
	return critical()
}

func (r *Repository) release(caller string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("releasing repository lock",
				"operation", caller,
				"panic", rec,
			)
		}
	}()
	r.lock.Release(1)
}
