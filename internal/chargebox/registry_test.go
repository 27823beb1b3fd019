package chargebox

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// stubConn is a Connection that is never called in these tests.
type stubConn struct{ name string }

func (c *stubConn) Call(context.Context, *ocpp.Request) (*ocpp.Response, error) {
	return nil, fmt.Errorf("stub %s", c.name)
}

func TestRegistry_UpsertAndResolve(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{name: "a"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_, ok := r.Resolve("CP001")
	assert.False(t, ok)

	r.Upsert("CP001", conn, now)

	rec, ok := r.Resolve("CP001")
	require.True(t, ok)
	assert.Same(t, conn, rec.Conn)
	assert.Equal(t, now, rec.LastSeen)
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry()
	first, second := &stubConn{name: "1"}, &stubConn{name: "2"}
	t0 := time.Now()

	r.Upsert("CP001", first, t0)
	r.Upsert("CP001", second, t0.Add(-time.Minute)) // stale timestamp still wins

	rec, _ := r.Resolve("CP001")
	assert.Same(t, second, rec.Conn)
	assert.Equal(t, t0.Add(-time.Minute), rec.LastSeen)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UpsertIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{}
	now := time.Now()

	r.Upsert("CP001", conn, now)
	r.Upsert("CP001", conn, now)

	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Enumeration(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Upsert("CP002", &stubConn{}, now)
	r.Upsert("CP001", &stubConn{}, now)

	assert.Equal(t, []ocpp.ChargeBoxID{"CP001", "CP002"}, r.ChargeBoxIDs())

	boxes := r.ChargeBoxes()
	assert.Len(t, boxes, 2)

	// The returned map is a copy.
	delete(boxes, "CP001")
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Forget(t *testing.T) {
	r := NewRegistry()
	old, fresh := &stubConn{name: "old"}, &stubConn{name: "fresh"}
	now := time.Now()

	r.Upsert("CP001", old, now)
	r.Upsert("CP001", fresh, now)

	assert.False(t, r.Forget("CP001", old), "stale connection must not remove newer record")
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Forget("CP001", fresh))
	assert.Zero(t, r.Len())
	assert.False(t, r.Forget("CP001", fresh))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Upsert(ocpp.ChargeBoxID(fmt.Sprintf("CP%03d", i%10)), &stubConn{}, now)
		}()
		go func() {
			defer wg.Done()
			r.Resolve("CP001")
			r.ChargeBoxIDs()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}

func TestRegistry_NilLoggerFallsBackToNoop(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(nil)

	require.NotPanics(t, func() {
		r.Upsert("CP001", &stubConn{name: "a"}, time.Now())
	})
	assert.Equal(t, 1, r.Len())
}
