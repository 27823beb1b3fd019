package device

import (
	"sync/atomic"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Entity is the stored representation of one managed charge box.
//
// Attributes is an opaque bag of device attributes. Linked holds data other
// subsystems attach to the device; it survives replacement of the entity.
// Stored entities must be treated as read-only; use ToBuilder to derive a
// changed copy.
type Entity struct {
	ID         ocpp.ChargeBoxID `json:"id"`
	Attributes map[string]any   `json:"attributes,omitempty"`
	Linked     map[string]any   `json:"linked,omitempty"`

	owner atomic.Pointer[Repository]
}

// NewEntity creates a detached entity. attrs is deep-copied.
func NewEntity(id ocpp.ChargeBoxID, attrs map[string]any) *Entity {
	return &Entity{
		ID:         id,
		Attributes: deepCopyMap(attrs),
	}
}

// AttachedTo reports whether the entity belongs to r.
func (e *Entity) AttachedTo(r *Repository) bool {
	return e != nil && e.owner.Load() == r
}

// Attached reports whether the entity belongs to any repository.
func (e *Entity) Attached() bool {
	return e != nil && e.owner.Load() != nil
}

// DeepCopy returns a detached copy with cloned maps.
func (e *Entity) DeepCopy() *Entity {
	if e == nil {
		return nil
	}
	return &Entity{
		ID:         e.ID,
		Attributes: deepCopyMap(e.Attributes),
		Linked:     deepCopyMap(e.Linked),
	}
}

// ToBuilder clones the entity into a mutable Builder.
func (e *Entity) ToBuilder() *Builder {
	return &Builder{
		id:         e.ID,
		Attributes: deepCopyMap(e.Attributes),
		Linked:     deepCopyMap(e.Linked),
	}
}

// Builder is a mutable draft of an Entity. The id is fixed.
type Builder struct {
	id         ocpp.ChargeBoxID
	Attributes map[string]any
	Linked     map[string]any
}

// ID returns the id the built entity will carry.
func (b *Builder) ID() ocpp.ChargeBoxID { return b.id }

// Set stores one attribute.
func (b *Builder) Set(key string, value any) *Builder {
	if b.Attributes == nil {
		b.Attributes = make(map[string]any)
	}
	b.Attributes[key] = value
	return b
}

// Unset removes one attribute.
func (b *Builder) Unset(key string) *Builder {
	delete(b.Attributes, key)
	return b
}

// Merge stores every entry of attrs, replacing existing keys.
func (b *Builder) Merge(attrs map[string]any) *Builder {
	for k, v := range attrs {
		b.Set(k, deepCopyValue(v))
	}
	return b
}

// Build returns a new detached entity.
func (b *Builder) Build() *Entity {
	return &Entity{
		ID:         b.id,
		Attributes: deepCopyMap(b.Attributes),
		Linked:     deepCopyMap(b.Linked),
	}
}

// Mutator changes a Builder in place.
type Mutator func(b *Builder)

// carryLinked copies Linked entries of prev that next does not hold.
func carryLinked(prev, next *Entity) {
	if prev == nil || len(prev.Linked) == 0 {
		return
	}
	if next.Linked == nil {
		next.Linked = make(map[string]any, len(prev.Linked))
	}
	for k, v := range prev.Linked {
		if _, ok := next.Linked[k]; !ok {
			next.Linked[k] = deepCopyValue(v)
		}
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}
