package ocpp

import "strings"

// ChargeBoxID names one charge box. Values are case-normalised (upper case)
// and never empty when obtained through ParseChargeBoxID.
type ChargeBoxID string

// ParseChargeBoxID trims and upper-cases raw.
// Returns ErrEmptyChargeBoxID if nothing remains.
func ParseChargeBoxID(raw string) (ChargeBoxID, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if id == "" {
		return "", ErrEmptyChargeBoxID
	}
	return ChargeBoxID(id), nil
}

// MustChargeBoxID is ParseChargeBoxID for literals. It panics on empty input.
func MustChargeBoxID(raw string) ChargeBoxID {
	id, err := ParseChargeBoxID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ChargeBoxID) String() string { return string(id) }
