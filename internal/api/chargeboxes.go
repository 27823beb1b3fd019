package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/chargebox-core/internal/audit"
	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/gateway"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// ChargeBoxView is the JSON form of a registry record.
type ChargeBoxView struct {
	ID         string    `json:"id"`
	LastSeen   time.Time `json:"last_seen"`
	Connected  bool      `json:"connected"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
}

// CommandResponse is the body returned by the command endpoint.
type CommandResponse struct {
	RequestID   string          `json:"request_id"`
	ChargeBoxID string          `json:"charge_box_id"`
	Action      string          `json:"action"`
	Timestamp   time.Time       `json:"timestamp"`
	OK          bool            `json:"ok"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Error       *ocpp.CallError `json:"error,omitempty"`
}

type remoteAddresser interface {
	RemoteAddr() string
}

func chargeBoxView(id ocpp.ChargeBoxID, rec chargebox.Record) ChargeBoxView {
	v := ChargeBoxView{ID: string(id), LastSeen: rec.LastSeen, Connected: rec.Conn != nil}
	if ra, ok := rec.Conn.(remoteAddresser); ok {
		v.RemoteAddr = ra.RemoteAddr()
	}
	return v
}

// handleListChargeBoxes returns every registered charge box, sorted by id.
func (s *Server) handleListChargeBoxes(w http.ResponseWriter, _ *http.Request) {
	records := s.registry.ChargeBoxes()
	views := make([]ChargeBoxView, 0, len(records))
	for id, rec := range records {
		views = append(views, chargeBoxView(id, rec))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	writeJSON(w, http.StatusOK, map[string]any{"charge_boxes": views, "count": len(views)})
}

// handleGetChargeBox returns one registry record.
func (s *Server) handleGetChargeBox(w http.ResponseWriter, r *http.Request) {
	id, err := ocpp.ParseChargeBoxID(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid charge box id")
		return
	}

	rec, ok := s.registry.Resolve(id)
	if !ok {
		writeNotFound(w, "charge box not found")
		return
	}
	writeJSON(w, http.StatusOK, chargeBoxView(id, rec))
}

// handleSendCommand forwards the request body as the payload of action.
//
// Query parameters:
//   - timeout: response timeout as a Go duration (e.g. "10s")
//   - request_id: numeric request id to use instead of an allocated one
//
// The status tells whether an answer arrived, not what it said: 200 for
// any answer including a CALLERROR and the unreachable response, 504 when
// the charge box did not answer in time and 502 when the transport failed.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	id, err := ocpp.ParseChargeBoxID(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid charge box id")
		return
	}
	action := ocpp.Action(chi.URLParam(r, "action"))
	if !action.IsOutbound() {
		writeBadRequest(w, "unknown command: "+string(action))
		return
	}

	var opts []gateway.CallOption
	q := r.URL.Query()
	if raw := q.Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeBadRequest(w, "invalid timeout")
			return
		}
		opts = append(opts, gateway.WithTimeout(d))
	}
	if raw := q.Get("request_id"); raw != "" {
		reqID, err := ocpp.ParseRequestID(raw)
		if err != nil || reqID == 0 {
			writeBadRequest(w, "invalid request_id")
			return
		}
		opts = append(opts, gateway.WithRequestID(reqID))
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}
	var payload any
	if len(body) > 0 {
		if !json.Valid(body) {
			writeBadRequest(w, "invalid JSON body")
			return
		}
		payload = json.RawMessage(body)
	}

	resp, err := s.gateway.Send(r.Context(), id, action, payload, opts...)
	if resp == nil {
		if errors.Is(err, gateway.ErrNotOutbound) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("command produced no response", "charge_box_id", id, "action", action, "error", err)
		writeInternalError(w, "command failed")
		return
	}

	out := CommandResponse{
		ChargeBoxID: string(id),
		Action:      string(action),
		Timestamp:   resp.Timestamp,
		OK:          resp.OK(),
		Error:       resp.Error,
	}
	if resp.Request != nil {
		out.RequestID = resp.Request.ID.String()
	}
	if resp.OK() {
		raw, merr := ocpp.MarshalPayload(resp.Payload)
		if merr != nil {
			writeInternalError(w, "failed to encode response payload")
			return
		}
		out.Payload = raw
	}

	s.recordAudit(r, audit.ActionCommand, audit.EntityChargeBox, string(id), map[string]any{
		"action":     string(action),
		"request_id": out.RequestID,
		"ok":         out.OK,
	})
	writeJSON(w, commandStatus(resp, err), out)
}

func commandStatus(resp *ocpp.Response, err error) int {
	if err == nil || resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Class {
	case ocpp.ClassTimeout:
		return http.StatusGatewayTimeout
	case ocpp.ClassNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
