package device

import "fmt"

// Size limits for attribute and linked maps, guarding against memory
// exhaustion through the admin API.
const (
	maxTopLevelKeys   = 100
	maxNestedKeys     = 50
	maxArrayLen       = 100
	maxStringValueLen = 1024
	maxNestingDepth   = 10
)

// ValidateEntity checks an entity before it is stored.
func ValidateEntity(e *Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntity)
	}
	if len(e.Attributes) > maxTopLevelKeys {
		return fmt.Errorf("%w: too many attributes", ErrInvalidEntity)
	}
	if err := validateMapSize(e.Attributes, "attributes", 0); err != nil {
		return err
	}
	if len(e.Linked) > maxTopLevelKeys {
		return fmt.Errorf("%w: too much linked data", ErrInvalidEntity)
	}
	return validateMapSize(e.Linked, "linked", 0)
}

func validateMapSize(m map[string]any, field string, depth int) error {
	if depth > maxNestingDepth {
		return fmt.Errorf("%w: %s exceeds maximum nesting depth", ErrInvalidEntity, field)
	}
	for k, v := range m {
		if len(k) > maxStringValueLen {
			return fmt.Errorf("%w: %s key too long", ErrInvalidEntity, field)
		}
		if err := validateValueSize(v, field, depth); err != nil {
			return err
		}
	}
	return nil
}

func validateValueSize(v any, field string, depth int) error {
	switch val := v.(type) {
	case string:
		if len(val) > maxStringValueLen {
			return fmt.Errorf("%w: %s string value too long", ErrInvalidEntity, field)
		}
	case map[string]any:
		if len(val) > maxNestedKeys {
			return fmt.Errorf("%w: %s nested map too large", ErrInvalidEntity, field)
		}
		return validateMapSize(val, field, depth+1)
	case []any:
		if len(val) > maxArrayLen {
			return fmt.Errorf("%w: %s array too large", ErrInvalidEntity, field)
		}
		for _, elem := range val {
			if err := validateValueSize(elem, field, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
