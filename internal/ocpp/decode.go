package ocpp

import (
	"encoding/json"
	"fmt"
)

// DecodePayload returns payload as a T.
//
// A payload that already has type T (or *T) is returned as is. A
// json.RawMessage is unmarshalled. Any other value is converted through its
// JSON form, which lets in-process fakes answer with maps or foreign structs.
func DecodePayload[T any](payload any) (T, error) {
	var zero T

	switch p := payload.(type) {
	case nil:
		return zero, ErrNoPayload
	case T:
		return p, nil
	case *T:
		if p == nil {
			return zero, ErrNoPayload
		}
		return *p, nil
	case json.RawMessage:
		return unmarshalInto[T](p)
	case []byte:
		return unmarshalInto[T](p)
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrPayloadType, err)
		}
		return unmarshalInto[T](raw)
	}
}

func unmarshalInto[T any](raw []byte) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, ErrNoPayload
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrPayloadType, err)
	}
	return out, nil
}
