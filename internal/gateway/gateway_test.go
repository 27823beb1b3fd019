package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// fakeConn answers calls through a configurable function and records them.
type fakeConn struct {
	mu     sync.Mutex
	calls  []*ocpp.Request
	answer func(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error)
}

func (c *fakeConn) Call(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()
	return c.answer(ctx, req)
}

func (c *fakeConn) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func acceptingConn() *fakeConn {
	return &fakeConn{answer: func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		return ocpp.NewResult(req, json.RawMessage(`{"status":"Accepted"}`), time.Now()), nil
	}}
}

func blockingConn() *fakeConn {
	return &fakeConn{answer: func(ctx context.Context, _ *ocpp.Request) (*ocpp.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

func newGateway(t *testing.T, opts ...Option) (*Gateway, *chargebox.Registry) {
	t.Helper()
	reg := chargebox.NewRegistry()
	return New(reg, opts...), reg
}

func TestGateway_UnreachableChargeBox(t *testing.T) {
	g, reg := newGateway(t)
	other := acceptingConn()
	reg.Upsert("CP999", other, time.Now())

	var responses atomic.Int32
	g.Hooks().OnResponse(ocpp.ActionReset, func(_ context.Context, ev ocpp.ResponseEvent) error {
		responses.Add(1)
		return nil
	})

	res, err := g.Reset(context.Background(), "CP404", ocpp.ResetRequest{Type: "Immediate"})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.OK())
	assert.Equal(t, ocpp.ClassServer, res.Response.Error.Class)
	assert.Equal(t, "Unknown or unreachable charge box!", res.Response.Error.Description)
	assert.Zero(t, other.callCount(), "no connection is used")
	assert.Equal(t, int32(1), responses.Load())
}

func TestGateway_PassThrough(t *testing.T) {
	g, reg := newGateway(t)
	conn := &fakeConn{}
	var produced *ocpp.Response
	conn.answer = func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		produced = ocpp.NewResult(req, ocpp.ResetResponse{Status: "Scheduled"}, time.Now())
		return produced, nil
	}
	reg.Upsert("CP001", conn, time.Now())

	res, err := g.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "OnIdle"})

	require.NoError(t, err)
	assert.Same(t, produced, res.Response)
	assert.Equal(t, "Scheduled", res.Payload.Status)
	require.Equal(t, 1, conn.callCount())
	assert.Equal(t, ocpp.ActionReset, conn.calls[0].Action)
	assert.Equal(t, ocpp.ResetRequest{Type: "OnIdle"}, conn.calls[0].Payload)
}

func TestGateway_RequestDefaults(t *testing.T) {
	g, reg := newGateway(t, WithRequestTimeout(10*time.Second), WithIDAllocator(ocpp.NewIDAllocatorFrom(99)))
	conn := acceptingConn()
	reg.Upsert("CP001", conn, time.Now())

	before := time.Now()
	res, err := g.ClearCache(context.Background(), "CP001", ocpp.ClearCacheRequest{})
	require.NoError(t, err)

	req := res.Request
	assert.Equal(t, ocpp.RequestID(100), req.ID)
	assert.False(t, req.Timestamp.Before(before))
	assert.WithinDuration(t, req.Timestamp.Add(10*time.Second), req.Deadline, time.Second)
	assert.NotEmpty(t, req.EventTrackingID)
	assert.Equal(t, ocpp.StatusAccepted, res.Payload.Status)
}

func TestGateway_CallOptions(t *testing.T) {
	g, reg := newGateway(t)
	conn := acceptingConn()
	reg.Upsert("CP001", conn, time.Now())

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := g.TriggerMessage(context.Background(), "CP001",
		ocpp.TriggerMessageRequest{RequestedMessage: "Heartbeat"},
		WithRequestID(7),
		WithTimestamp(ts),
		WithCustomData(ocpp.CustomData{"vendorId": "GraphDefined"}),
		WithEventTrackingID("trk-1"),
	)
	require.NoError(t, err)

	req := res.Request
	assert.Equal(t, ocpp.RequestID(7), req.ID)
	assert.Equal(t, ts, req.Timestamp)
	assert.Equal(t, "trk-1", req.EventTrackingID)
	assert.Equal(t, "GraphDefined", req.CustomData["vendorId"])
}

func TestGateway_FailingObserverIsIsolated(t *testing.T) {
	g, reg := newGateway(t)
	conn := acceptingConn()
	reg.Upsert("CP001", conn, time.Now())

	var ok1, ok2, failing atomic.Int32
	g.Hooks().OnRequest(ocpp.ActionReset, func(context.Context, ocpp.RequestEvent) error { ok1.Add(1); return nil })
	g.Hooks().OnRequest(ocpp.ActionReset, func(context.Context, ocpp.RequestEvent) error {
		failing.Add(1)
		panic("observer crashed")
	})
	g.Hooks().OnRequest(ocpp.ActionReset, func(context.Context, ocpp.RequestEvent) error {
		failing.Add(1)
		return errors.New("observer failed")
	})
	g.Hooks().OnAnyRequest(func(context.Context, ocpp.RequestEvent) error { ok2.Add(1); return nil })

	res, err := g.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "Immediate"})

	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, int32(1), ok1.Load())
	assert.Equal(t, int32(1), ok2.Load())
	assert.Equal(t, int32(2), failing.Load())
	assert.Equal(t, 1, conn.callCount(), "request sent exactly once")
}

func TestGateway_EventOrdering(t *testing.T) {
	g, reg := newGateway(t)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	conn := &fakeConn{answer: func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		record("call")
		return ocpp.NewResult(req, ocpp.StatusResponse{Status: ocpp.StatusAccepted}, time.Now()), nil
	}}
	reg.Upsert("CP001", conn, time.Now())

	g.Hooks().OnRequest(ocpp.ActionUnlockConnector, func(context.Context, ocpp.RequestEvent) error {
		record("request")
		return nil
	})
	g.Hooks().OnResponse(ocpp.ActionUnlockConnector, func(_ context.Context, ev ocpp.ResponseEvent) error {
		record("response")
		assert.GreaterOrEqual(t, ev.Elapsed, time.Duration(0))
		assert.Equal(t, ocpp.Outbound, ev.Direction)
		return nil
	})

	_, err := g.UnlockConnector(context.Background(), "CP001", ocpp.UnlockConnectorRequest{EVSEID: 1, ConnectorID: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"request", "call", "response"}, order)
}

func TestGateway_DeadlineExpires(t *testing.T) {
	g, reg := newGateway(t)
	reg.Upsert("CP001", blockingConn(), time.Now())

	var seen atomic.Pointer[ocpp.ResponseEvent]
	g.Hooks().OnAnyResponse(func(_ context.Context, ev ocpp.ResponseEvent) error {
		seen.Store(&ev)
		return nil
	})

	start := time.Now()
	res, err := g.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "Immediate"}, WithTimeout(30*time.Millisecond))

	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.NotNil(t, res)
	assert.Equal(t, ocpp.ClassTimeout, res.Response.Error.Class)

	ev := seen.Load()
	require.NotNil(t, ev, "response observers still run")
	assert.Equal(t, "timeout", ev.Outcome())
}

func TestGateway_CallerCancels(t *testing.T) {
	g, reg := newGateway(t)
	reg.Upsert("CP001", blockingConn(), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := g.GetLocalListVersion(ctx, "CP001", ocpp.GetLocalListVersionRequest{})

	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ocpp.ClassTimeout, res.Response.Error.Class)
}

func TestGateway_TransportFailure(t *testing.T) {
	g, reg := newGateway(t)
	boom := errors.New("socket closed")
	reg.Upsert("CP001", &fakeConn{answer: func(context.Context, *ocpp.Request) (*ocpp.Response, error) {
		return nil, boom
	}}, time.Now())

	res, err := g.ClearCache(context.Background(), "CP001", ocpp.ClearCacheRequest{})

	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ocpp.ClassNetwork, res.Response.Error.Class)
}

func TestGateway_ProtocolErrorFromChargeBox(t *testing.T) {
	g, reg := newGateway(t)
	reg.Upsert("CP001", &fakeConn{answer: func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		return ocpp.NewErrorResponse(req, ocpp.ClassProtocol, ocpp.CodeNotSupported, "nope", time.Now()), nil
	}}, time.Now())

	res, err := g.SetDisplayMessage(context.Background(), "CP001", ocpp.SetDisplayMessageRequest{})

	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, ocpp.CodeNotSupported, res.Response.Error.Code)
}

func TestGateway_InvalidResponsePayload(t *testing.T) {
	g, reg := newGateway(t)
	reg.Upsert("CP001", &fakeConn{answer: func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		return ocpp.NewResult(req, json.RawMessage(`{"versionNumber":"not a number"}`), time.Now()), nil
	}}, time.Now())

	res, err := g.GetLocalListVersion(context.Background(), "CP001", ocpp.GetLocalListVersionRequest{})

	assert.ErrorIs(t, err, ErrInvalidResponse)
	require.NotNil(t, res)
	assert.True(t, res.Response.OK())
}

func TestGateway_SendRejectsInboundOnlyAction(t *testing.T) {
	g, _ := newGateway(t)

	resp, err := g.Send(context.Background(), "CP001", ocpp.ActionBootNotification, nil)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNotOutbound)
}

func TestGateway_ConcurrentIDsDistinct(t *testing.T) {
	g, reg := newGateway(t)
	conn := acceptingConn()
	reg.Upsert("CP001", conn, time.Now())

	const callers = 64
	ids := make([]ocpp.RequestID, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := g.ClearCache(context.Background(), "CP001", ocpp.ClearCacheRequest{})
			if assert.NoError(t, err) {
				ids[i] = res.Request.ID
			}
		}()
	}
	wg.Wait()

	seen := make(map[ocpp.RequestID]struct{}, callers)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, callers)
}
