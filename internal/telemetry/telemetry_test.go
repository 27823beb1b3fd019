package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/gateway"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

type connFunc func(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error)

func (f connFunc) Call(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error) {
	return f(ctx, req)
}

func accepting() connFunc {
	return func(_ context.Context, req *ocpp.Request) (*ocpp.Response, error) {
		return ocpp.NewResult(req, json.RawMessage(`{"status":"Accepted"}`), time.Now()), nil
	}
}

type published struct {
	topic string
	body  EventMessage
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) PublishJSON(topic string, v any, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, body: v.(EventMessage)})
	return nil
}

type fakeWriter struct {
	mu     sync.Mutex
	points []influxdb.Exchange
}

func (w *fakeWriter) WriteExchange(e influxdb.Exchange) {
	w.mu.Lock()
	w.points = append(w.points, e)
	w.mu.Unlock()
}

func newGateway(conn chargebox.Connection) *gateway.Gateway {
	reg := chargebox.NewRegistry()
	if conn != nil {
		reg.Upsert("CP001", conn, time.Now())
	}
	return gateway.New(reg)
}

func TestMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m, err := NewMetrics(promReg)
	require.NoError(t, err)

	gw := newGateway(accepting())
	detach := Attach(gw.Hooks(), m)
	defer detach()

	_, err = gw.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "Immediate"})
	require.NoError(t, err)
	_, err = gw.Reset(context.Background(), "CP404", ocpp.ResetRequest{Type: "Immediate"})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("outbound", "Reset")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.latency))

	counts := histogramCounts(t, promReg, "chargebox_ocpp_response_seconds")
	assert.Equal(t, map[string]uint64{"ok": 1, "server_error": 1}, counts)
}

// histogramCounts returns the sample count per outcome label.
func histogramCounts(t *testing.T, g prometheus.Gatherer, name string) map[string]uint64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)

	out := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					out[label.GetValue()] = metric.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return out
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	promReg := prometheus.NewRegistry()
	_, err := NewMetrics(promReg)
	require.NoError(t, err)

	_, err = NewMetrics(promReg)
	assert.Error(t, err)
}

func TestMetrics_GaugeAndHandler(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m, err := NewMetrics(promReg)
	require.NoError(t, err)
	require.NoError(t, m.TrackGauge("registry_records", "Known charge boxes.", func() float64 { return 3 }))

	rec := httptest.NewRecorder()
	Handler(promReg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "chargebox_registry_records 3")
}

func TestEventPublisher(t *testing.T) {
	pub := &fakePublisher{}
	gw := newGateway(accepting())
	defer Attach(gw.Hooks(), NewEventPublisher(pub))()

	res, err := gw.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "Immediate"})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 2)
	id := res.Request.ID.String()

	req := pub.msgs[0]
	assert.Equal(t, "chargebox/events/CP001/outbound/Reset/request", req.topic)
	assert.Equal(t, id, req.body.RequestID)
	assert.Equal(t, "gateway", req.body.Sender)
	assert.JSONEq(t, `{"type":"Immediate"}`, string(req.body.Payload))
	assert.Nil(t, req.body.ElapsedMS)

	resp := pub.msgs[1]
	assert.Equal(t, "chargebox/events/CP001/outbound/Reset/response", resp.topic)
	assert.Equal(t, "ok", resp.body.Outcome)
	require.NotNil(t, resp.body.ElapsedMS)
	assert.JSONEq(t, `{"status":"Accepted"}`, string(resp.body.Payload))
	assert.Nil(t, resp.body.Error)
}

func TestEventPublisher_ErrorResponse(t *testing.T) {
	pub := &fakePublisher{}
	gw := newGateway(nil)
	defer Attach(gw.Hooks(), NewEventPublisher(pub))()

	_, err := gw.Reset(context.Background(), "CP404", ocpp.ResetRequest{Type: "Immediate"})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 2)
	resp := pub.msgs[1].body
	assert.Equal(t, "server_error", resp.Outcome)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ocpp.UnreachableDescription, resp.Error.Description)
	assert.Empty(t, resp.Payload)
}

func TestExchangeWriter(t *testing.T) {
	w := &fakeWriter{}
	gw := newGateway(accepting())
	defer Attach(gw.Hooks(), NewExchangeWriter(w))()

	_, err := gw.ClearCache(context.Background(), "CP001", ocpp.ClearCacheRequest{})
	require.NoError(t, err)

	require.Len(t, w.points, 1)
	p := w.points[0]
	assert.Equal(t, "CP001", p.ChargeBoxID)
	assert.Equal(t, "ClearCache", p.Action)
	assert.Equal(t, "outbound", p.Direction)
	assert.Equal(t, "ok", p.Outcome)
	assert.GreaterOrEqual(t, p.Elapsed, time.Duration(0))
}

func TestFailingSinkDoesNotAffectOthers(t *testing.T) {
	broken := &fakePublisher{err: errors.New("broker down")}
	w := &fakeWriter{}
	gw := newGateway(accepting())
	defer Attach(gw.Hooks(), NewEventPublisher(broken), NewExchangeWriter(w))()

	res, err := gw.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "Immediate"})
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Len(t, w.points, 1)
}

func TestAttach_Detach(t *testing.T) {
	w := &fakeWriter{}
	gw := newGateway(accepting())

	detach := Attach(gw.Hooks(), NewExchangeWriter(w), nil)
	detach()

	_, err := gw.Reset(context.Background(), "CP001", ocpp.ResetRequest{Type: "Immediate"})
	require.NoError(t, err)
	assert.Empty(t, w.points)
}
