package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/chargebox-core/internal/audit"
	"github.com/nerrad567/chargebox-core/internal/device"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// deviceRequest is the body of POST and PUT.
type deviceRequest struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

// devicePatch is the body of PATCH. Attributes are merged into the stored
// entity; keys listed in Unset are removed afterwards.
type devicePatch struct {
	Attributes map[string]any `json:"attributes"`
	Unset      []string       `json:"unset"`
}

// handleListDevices returns all devices, sorted by id.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.devices.List()
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	e, found := s.devices.Get(id)
	if !found {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleCreateDevice adds a device unless its id is already stored, in
// which case the stored device is returned unchanged.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	id, err := ocpp.ParseChargeBoxID(req.ID)
	if err != nil {
		writeBadRequest(w, "id is required")
		return
	}

	out := s.devices.AddIfNotExists(r.Context(), device.NewEntity(id, req.Attributes))
	if out.Kind == device.Success {
		s.recordAudit(r, audit.ActionCreate, audit.EntityDevice, string(id), nil)
	}
	s.writeOutcome(w, out, http.StatusCreated)
}

// handlePutDevice stores the device under the path id, replacing any
// stored device.
func (s *Server) handlePutDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ID != "" {
		if bodyID, err := ocpp.ParseChargeBoxID(req.ID); err != nil || bodyID != id {
			writeBadRequest(w, "id in body does not match path")
			return
		}
	}

	out := s.devices.AddOrUpdate(r.Context(), device.NewEntity(id, req.Attributes))
	switch out.Kind {
	case device.Added:
		s.recordAudit(r, audit.ActionCreate, audit.EntityDevice, string(id), nil)
	case device.Updated:
		s.recordAudit(r, audit.ActionUpdate, audit.EntityDevice, string(id), nil)
	}
	s.writeOutcome(w, out, http.StatusOK)
}

// handlePatchDevice merges attributes into the stored device.
func (s *Server) handlePatchDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var patch devicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	out := s.devices.UpdateWith(r.Context(), id, func(b *device.Builder) {
		b.Merge(patch.Attributes)
		for _, key := range patch.Unset {
			b.Unset(key)
		}
	})
	if out.Kind == device.Success {
		s.recordAudit(r, audit.ActionPatch, audit.EntityDevice, string(id), map[string]any{
			"attributes": len(patch.Attributes),
			"unset":      patch.Unset,
		})
	}
	s.writeOutcome(w, out, http.StatusOK)
}

// handleDeleteDevice removes a device by ID.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	e, found := s.devices.Get(id)
	if !found {
		writeNotFound(w, "device not found")
		return
	}

	out := s.devices.Delete(r.Context(), e)
	if out.Kind == device.Success {
		s.recordAudit(r, audit.ActionDelete, audit.EntityDevice, string(id), nil)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeOutcome(w, out, http.StatusOK)
}

func deviceID(w http.ResponseWriter, r *http.Request) (ocpp.ChargeBoxID, bool) {
	id, err := ocpp.ParseChargeBoxID(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return "", false
	}
	return id, true
}

// writeOutcome maps a repository outcome onto an HTTP response. created is
// the status for a fresh insert reported as Success.
func (s *Server) writeOutcome(w http.ResponseWriter, out device.Outcome, created int) {
	switch out.Kind {
	case device.Success:
		writeJSON(w, created, out.Entity)
	case device.Added:
		writeJSON(w, http.StatusCreated, out.Entity)
	case device.Updated, device.NoOperation:
		writeJSON(w, http.StatusOK, out.Entity)
	case device.ArgumentError:
		switch {
		case errors.Is(out.Err, device.ErrEntityNotFound):
			writeNotFound(w, out.Reason)
		case errors.Is(out.Err, device.ErrInvalidEntity), errors.Is(out.Err, device.ErrNilEntity):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, out.Reason)
		default:
			writeError(w, http.StatusConflict, ErrCodeConflict, out.Reason)
		}
	case device.CanNotBeRemoved:
		writeError(w, http.StatusConflict, ErrCodeVetoed, out.Reason)
	case device.LockTimeout:
		writeError(w, http.StatusServiceUnavailable, ErrCodeLockTimeout, "device repository busy")
	default:
		s.logger.Error("device repository error", "kind", out.Kind.String(), "error", out.Err)
		writeInternalError(w, "device repository error")
	}
}
