// Package device provides the in-memory Device Entity Repository.
//
// The repository stores one Entity per charge box id. Every mutating
// operation takes a single repository-wide lock with a bounded wait and
// reports its result as an Outcome rather than an error:
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                      Repository                                │
//	│                                                                │
//	│  Add / AddIfNotExists / AddOrUpdate / Update / UpdateWith /    │
//	│  Delete                                                        │
//	│        │                                                       │
//	│        ▼                                                       │
//	│  bounded-wait lock ──timeout──▶ Outcome{LockTimeout}           │
//	│        │                                                       │
//	│        ▼                                                       │
//	│  critical section ──panic────▶ Outcome{Error}                  │
//	│        │                                                       │
//	│        ▼                                                       │
//	│  release lock, notify observers, return Outcome                │
//	└────────────────────────────────────────────────────────────────┘
//
// # Ownership
//
// An Entity is attached to at most one Repository. Adding an entity that is
// attached elsewhere yields ArgumentError. Replacing an entity carries over
// the Linked data of the old record that the new record does not hold.
//
// # Partial updates
//
// UpdateWith clones the stored entity into a Builder, applies the caller's
// mutator and swaps the result into the map. Stored entities are never
// modified in place.
//
// # Notifications
//
// Added, updated and deleted observers are invoked through the fanout
// package after the lock has been released and before the operation
// returns. Observer failures are logged and never change the Outcome.
package device
