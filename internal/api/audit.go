package api

import (
	"net/http"

	"github.com/nerrad567/chargebox-core/internal/audit"
)

// handleListAudit returns operator audit logs, newest first.
//
// Query parameters: action, entity_type, entity_id, limit (max 200), offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeUnavailable(w, "audit trail is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	var ok bool
	if filter.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, q.Get("offset"), "offset"); !ok {
		return
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// recordAudit writes an audit entry for a completed operator action.
// Failures are logged and never affect the response.
func (s *Server) recordAudit(r *http.Request, action, entityType, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Create(r.Context(), &audit.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestIDFrom(r.Context()),
		Source:     audit.SourceAPI,
		Details:    details,
	})
	if err != nil {
		s.logger.Warn("recording audit log", "action", action, "entity_id", entityID, "error", err)
	}
}
