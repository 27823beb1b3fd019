package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/chargebox-core/internal/journal"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// handleListJournal returns journalled exchanges, newest first.
//
// Query parameters:
//   - charge_box_id, action, direction, outcome: exact filters
//   - since: RFC 3339 timestamp
//   - limit (default 50, max 500), offset
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "message journal is not enabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Action:    q.Get("action"),
		Direction: q.Get("direction"),
		Outcome:   q.Get("outcome"),
	}
	if raw := q.Get("charge_box_id"); raw != "" {
		id, err := ocpp.ParseChargeBoxID(raw)
		if err != nil {
			writeBadRequest(w, "invalid charge_box_id")
			return
		}
		filter.ChargeBoxID = string(id)
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	var ok bool
	if filter.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, q.Get("offset"), "offset"); !ok {
		return
	}

	res, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing journal", "error", err)
		writeInternalError(w, "failed to list journal")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
