package ocpp

import (
	"math/rand/v2"
	"strconv"
	"sync/atomic"
)

// RequestID correlates one outbound request with its response.
// On the wire it is rendered as a decimal string.
type RequestID uint64

func (id RequestID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseRequestID parses the decimal wire form of a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return RequestID(v), nil
}

// IDAllocator hands out strictly increasing request ids.
// It is safe for concurrent use; the zero value starts at 1.
type IDAllocator struct {
	last atomic.Uint64
}

// NewIDAllocator returns an allocator seeded at a random value above zero,
// so ids from successive process runs are unlikely to collide.
func NewIDAllocator() *IDAllocator {
	return NewIDAllocatorFrom(rand.Uint64N(1<<24) + 1)
}

// NewIDAllocatorFrom returns an allocator whose first id is seed+1.
func NewIDAllocatorFrom(seed uint64) *IDAllocator {
	a := &IDAllocator{}
	a.last.Store(seed)
	return a
}

// Next returns a new id. Ids are never reused and not necessarily contiguous
// from the point of view of any single caller.
func (a *IDAllocator) Next() RequestID {
	return RequestID(a.last.Add(1))
}
