package dispatcher

import (
	"encoding/json"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// dataTransfer accepts requests of the configured vendor and echoes their
// data through TransformData. Other vendors are rejected without data.
func (d *Dispatcher) dataTransfer(req ocpp.DataTransferRequest) any {
	if req.VendorID != d.cfg.VendorID {
		return ocpp.DataTransferResponse{Status: ocpp.StatusRejected}
	}
	return ocpp.DataTransferResponse{
		Status: ocpp.StatusAccepted,
		Data:   TransformData(req.Data),
	}
}

// TransformData maps DataTransfer data to the echoed response data:
//
//   - a string is reversed
//   - an object keeps only its string members, each reversed
//   - an array keeps only its string elements, each reversed
//   - anything else (number, bool, null, absent, invalid JSON) yields nil
//
// Only the first level is inspected; nested objects and arrays are dropped.
func TransformData(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	switch val := v.(type) {
	case string:
		return reverse(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, member := range val {
			if s, ok := member.(string); ok {
				out[k] = reverse(s)
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, elem := range val {
			if s, ok := elem.(string); ok {
				out = append(out, reverse(s))
			}
		}
		return out
	default:
		return nil
	}
}

// reverse reverses s by rune.
func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
