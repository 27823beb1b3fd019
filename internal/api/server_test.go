package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/audit"
	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/device"
	"github.com/nerrad567/chargebox-core/internal/gateway"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/config"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/database"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargebox-core/internal/journal"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
	"github.com/nerrad567/chargebox-core/internal/telemetry"
	"github.com/nerrad567/chargebox-core/migrations"
)

type connFunc func(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error)

func (f connFunc) Call(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error) {
	return f(ctx, req)
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	registry *chargebox.Registry
	devices  *device.Repository
	gateway  *gateway.Gateway
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	registry := chargebox.NewRegistry()
	devices := device.NewRepository()
	gw := gateway.New(registry, gateway.WithRequestTimeout(2*time.Second))

	deps := Deps{
		Config:   config.APIConfig{Host: "127.0.0.1"},
		WS:       config.WebSocketConfig{Path: "/ocpp"},
		Logger:   logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard),
		Registry: registry,
		Devices:  devices,
		Gateway:  gw,
		Version:  "test",
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	require.NoError(t, err)

	return &testEnv{srv: srv, handler: srv.Handler(), registry: registry, devices: devices, gateway: gw}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type failingCheck struct{ err error }

func (c failingCheck) HealthCheck(context.Context) error { return c.err }

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Logger: logging.Default()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.registry.Upsert("CP001", nil, time.Now())

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Equal(t, 1, body.ChargeBoxes)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealth_DegradedComponent(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.HealthChecks = map[string]HealthChecker{
			"mqtt":     failingCheck{err: errors.New("not connected")},
			"database": failingCheck{},
		}
	})

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[healthResponse](t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Components["database"])
	assert.Equal(t, "not connected", body.Components["mqtt"])
}

func TestRequestIDIsKept(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, decode[Error](t, rec).Code)
}

func TestChargeBoxes(t *testing.T) {
	env := newTestEnv(t)
	seen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.registry.Upsert("CP002", nil, seen)
	env.registry.Upsert("CP001", connFunc(nil), seen)

	rec := env.do(t, http.MethodGet, "/api/v1/chargeboxes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		ChargeBoxes []ChargeBoxView `json:"charge_boxes"`
		Count       int             `json:"count"`
	}](t, rec)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "CP001", body.ChargeBoxes[0].ID)
	assert.True(t, body.ChargeBoxes[0].Connected)
	assert.False(t, body.ChargeBoxes[1].Connected)
	assert.True(t, seen.Equal(body.ChargeBoxes[1].LastSeen))

	rec = env.do(t, http.MethodGet, "/api/v1/chargeboxes/cp001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CP001", decode[ChargeBoxView](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/v1/chargeboxes/CP404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendCommand_Answered(t *testing.T) {
	env := newTestEnv(t)

	var mu sync.Mutex
	var got *ocpp.Request
	env.registry.Upsert("CP001", connFunc(func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		mu.Lock()
		got = req
		mu.Unlock()
		return ocpp.NewResult(req, json.RawMessage(`{"status":"Accepted"}`), time.Now()), nil
	}), time.Now())

	rec := env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP001/commands/Reset?request_id=4711", `{"type":"Immediate"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[CommandResponse](t, rec)
	assert.True(t, body.OK)
	assert.Equal(t, "4711", body.RequestID)
	assert.Equal(t, "Reset", body.Action)
	assert.JSONEq(t, `{"status":"Accepted"}`, string(body.Payload))
	assert.Nil(t, body.Error)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, ocpp.RequestID(4711), got.ID)
	raw, err := got.EncodePayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Immediate"}`, string(raw))
}

func TestSendCommand_CallErrorIsAnAnswer(t *testing.T) {
	env := newTestEnv(t)
	env.registry.Upsert("CP001", connFunc(func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		return ocpp.NewErrorResponse(req, ocpp.ClassProtocol, ocpp.CodeNotSupported, "nope", time.Now()), nil
	}), time.Now())

	rec := env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP001/commands/ClearCache", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[CommandResponse](t, rec)
	assert.False(t, body.OK)
	require.NotNil(t, body.Error)
	assert.Equal(t, ocpp.CodeNotSupported, body.Error.Code)
}

func TestSendCommand_Unreachable(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP404/commands/Reset", `{"type":"Immediate"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[CommandResponse](t, rec)
	assert.False(t, body.OK)
	require.NotNil(t, body.Error)
	assert.Equal(t, ocpp.ClassServer, body.Error.Class)
	assert.Equal(t, ocpp.UnreachableDescription, body.Error.Description)
	assert.Equal(t, "CP404", body.ChargeBoxID)
}

func TestSendCommand_Timeout(t *testing.T) {
	env := newTestEnv(t)
	env.registry.Upsert("CP001", connFunc(func(ctx context.Context, _ *ocpp.Request) (*ocpp.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), time.Now())

	rec := env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP001/commands/Reset?timeout=50ms", `{"type":"Immediate"}`)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	body := decode[CommandResponse](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, ocpp.ClassTimeout, body.Error.Class)
}

func TestSendCommand_TransportFailure(t *testing.T) {
	env := newTestEnv(t)
	env.registry.Upsert("CP001", connFunc(func(context.Context, *ocpp.Request) (*ocpp.Response, error) {
		return nil, errors.New("broken pipe")
	}), time.Now())

	rec := env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP001/commands/Reset", `{"type":"Immediate"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ocpp.ClassNetwork, decode[CommandResponse](t, rec).Error.Class)
}

func TestSendCommand_BadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"inbound action", "/api/v1/chargeboxes/CP001/commands/BootNotification", `{}`},
		{"unknown action", "/api/v1/chargeboxes/CP001/commands/SelfDestruct", `{}`},
		{"bad timeout", "/api/v1/chargeboxes/CP001/commands/Reset?timeout=soon", `{}`},
		{"negative timeout", "/api/v1/chargeboxes/CP001/commands/Reset?timeout=-1s", `{}`},
		{"bad request id", "/api/v1/chargeboxes/CP001/commands/Reset?request_id=x", `{}`},
		{"bad json", "/api/v1/chargeboxes/CP001/commands/Reset", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDevices_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/devices", `{"id":"cp001","attributes":{"vendor":"Acme"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ocpp.ChargeBoxID("CP001"), decode[*device.Entity](t, rec).ID)

	rec = env.do(t, http.MethodPost, "/api/v1/devices", `{"id":"CP001","attributes":{"vendor":"Other"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decode[*device.Entity](t, rec).Attributes["vendor"])

	rec = env.do(t, http.MethodPatch, "/api/v1/devices/CP001", `{"attributes":{"model":"X1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[*device.Entity](t, rec)
	assert.Equal(t, "Acme", patched.Attributes["vendor"])
	assert.Equal(t, "X1", patched.Attributes["model"])

	rec = env.do(t, http.MethodPatch, "/api/v1/devices/CP001", `{"unset":["vendor"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decode[*device.Entity](t, rec).Attributes, "vendor")

	rec = env.do(t, http.MethodGet, "/api/v1/devices/cp001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "X1", decode[*device.Entity](t, rec).Attributes["model"])

	rec = env.do(t, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[struct {
		Count int `json:"count"`
	}](t, rec).Count)

	rec = env.do(t, http.MethodDelete, "/api/v1/devices/CP001", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/devices/CP001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/devices/CP001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDevices_Put(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/devices/CP001", `{"attributes":{"vendor":"Acme"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/devices/CP001", `{"id":"cp001","attributes":{"vendor":"Other"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Other", decode[*device.Entity](t, rec).Attributes["vendor"])

	rec = env.do(t, http.MethodPut, "/api/v1/devices/CP001", `{"id":"CP002"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDevices_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.devices.SetRemovalCheck(func(*device.Entity) (bool, string) { return false, "charging session active" })

	rec := env.do(t, http.MethodPost, "/api/v1/devices", `{"attributes":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/devices", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/devices/CP404", `{"attributes":{"a":1}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/devices", `{"id":"CP001"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/devices/CP001", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[Error](t, rec)
	assert.Equal(t, ErrCodeVetoed, body.Code)
	assert.Equal(t, "charging session active", body.Message)
	assert.True(t, env.devices.Exists("CP001"))
}

func TestWriteOutcome(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		out  device.Outcome
		want int
	}{
		{"lock timeout", device.Outcome{Kind: device.LockTimeout, Err: device.ErrLockTimeout}, http.StatusServiceUnavailable},
		{"error", device.Outcome{Kind: device.Error, Err: device.ErrInternal}, http.StatusInternalServerError},
		{"exists elsewhere", device.Outcome{Kind: device.ArgumentError, Err: device.ErrAttachedElsewhere, Reason: "x"}, http.StatusConflict},
		{"not found", device.Outcome{Kind: device.ArgumentError, Err: device.ErrEntityNotFound, Reason: "x"}, http.StatusNotFound},
		{"invalid", device.Outcome{Kind: device.ArgumentError, Err: device.ErrInvalidEntity, Reason: "x"}, http.StatusBadRequest},
		{"added", device.Outcome{Kind: device.Added, Entity: device.NewEntity("CP001", nil)}, http.StatusCreated},
		{"updated", device.Outcome{Kind: device.Updated, Entity: device.NewEntity("CP001", nil)}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.srv.writeOutcome(rec, tt.out, http.StatusOK)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestJournal_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/journal", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJournal_List(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	require.NoError(t, db.Migrate(ctx, migrations.FS))

	repo := journal.NewSQLiteRepository(db.DB)
	env := newTestEnv(t, func(d *Deps) { d.Journal = repo })

	detach := env.gateway.Hooks().OnAnyResponse(journal.Observer(repo))
	defer detach()

	_, err = env.gateway.Send(ctx, "CP001", ocpp.ActionReset, json.RawMessage(`{"type":"Immediate"}`))
	require.NoError(t, err)
	_, err = env.gateway.Send(ctx, "CP002", ocpp.ActionClearCache, nil)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/journal?charge_box_id=cp001", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[journal.ListResult](t, rec)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "Reset", res.Entries[0].Action)
	assert.Equal(t, "server_error", res.Entries[0].Outcome)

	rec = env.do(t, http.MethodGet, "/api/v1/journal?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[journal.ListResult](t, rec)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Entries, 1)

	for _, q := range []string{"limit=-1", "offset=x", "since=yesterday"} {
		rec = env.do(t, http.MethodGet, "/api/v1/journal?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAudit_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/audit", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAudit_RecordsOperatorActions(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	require.NoError(t, db.Migrate(ctx, migrations.FS))

	env := newTestEnv(t, func(d *Deps) { d.Audit = audit.NewSQLiteRepository(db.DB) })

	rec := env.do(t, http.MethodPost, "/api/v1/devices", `{"id":"meter-1","attributes":{"phase":"L1"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	// A repeated create changes nothing and is not audited.
	rec = env.do(t, http.MethodPost, "/api/v1/devices", `{"id":"meter-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/devices/meter-1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP002/commands/ClearCache", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[audit.ListResult](t, rec)
	require.Equal(t, 3, res.Total)
	assert.Equal(t, audit.ActionCommand, res.Logs[0].Action)
	assert.Equal(t, "CP002", res.Logs[0].EntityID)
	assert.Equal(t, "ClearCache", res.Logs[0].Details["action"])
	assert.NotEmpty(t, res.Logs[0].RequestID)

	rec = env.do(t, http.MethodGet, "/api/v1/audit?entity_type=device", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[audit.ListResult](t, rec)
	require.Equal(t, 2, res.Total)
	for _, l := range res.Logs {
		assert.Equal(t, "METER-1", l.EntityID)
		assert.Equal(t, audit.SourceAPI, l.Source)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/audit?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(reg)
	require.NoError(t, err)

	env := newTestEnv(t, func(d *Deps) { d.Gatherer = reg })
	detach := telemetry.Attach(env.gateway.Hooks(), metrics)
	defer detach()

	rec := env.do(t, http.MethodPost, "/api/v1/chargeboxes/CP001/commands/Reset", `{"type":"Immediate"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `chargebox_ocpp_requests_total{action="Reset",direction="outbound"} 1`)
}

func TestMetricsEndpoint_NotMountedWithoutGatherer(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Connections = func() int { return 3 } })
	env.registry.Upsert("CP001", nil, time.Now())

	rec := env.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[SystemStats](t, rec)
	assert.Equal(t, 1, stats.OCPP.ChargeBoxes)
	assert.Equal(t, 3, stats.OCPP.Connections)
	assert.Equal(t, "test", stats.Version)
	assert.Positive(t, stats.Runtime.Goroutines)
}

func TestOCPPRouteMounted(t *testing.T) {
	var gotPath string
	env := newTestEnv(t, func(d *Deps) {
		d.WS.Path = "/ocpp/"
		d.OCPP = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusTeapot)
		})
	})

	rec := env.do(t, http.MethodGet, "/ocpp/CP001", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/ocpp/CP001", gotPath)
}
