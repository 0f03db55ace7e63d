package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"homeline/internal/device"
)

// deviceIDParam extracts the integer device ID from the URL.
func deviceIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleListDevices returns all devices, optionally filtered by kind.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		kind := device.Kind(kindStr)
		if !kind.IsValid() {
			writeBadRequest(w, "unknown device kind")
			return
		}
		devices, err := s.registry.ListByKind(ctx, kind)
		if err != nil {
			s.logger.Error("listing devices by kind failed", "kind", kindStr, "error", err)
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	devices, err := s.registry.List(ctx)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	dev, err := s.registry.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice provisions a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var dev device.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.Create(r.Context(), &dev); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice replaces a device's registration. The ID comes
// from the path; one in the body is ignored.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	var dev device.Device
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	dev.ID = id

	if err := s.registry.Update(r.Context(), &dev); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	if err := s.registry.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// controlRequest is the body of a device control call.
type controlRequest struct {
	Action string `json:"action"`

	// ActorID optionally names who issued the command; defaults to the
	// home owner.
	ActorID int64 `json:"actor_id,omitempty"`
}

// handleControlDevice executes an on/off/toggle command on a device.
func (s *Server) handleControlDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actorID := req.ActorID
	if actorID == 0 {
		actorID = s.actorID
	}

	result, err := s.controller.Control(r.Context(), id, req.Action, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"state":     result.State,
	})
}

// handleReadSensor returns a live reading from a sensor device.
func (s *Server) handleReadSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	reading, err := s.controller.ReadSensor(r.Context(), id, s.actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"reading":   reading,
	})
}

// handleDeviceHistory returns recent raw readings for a device, newest
// first. ?limit= caps the page; the store clamps it.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceIDParam(r)
	if !ok {
		writeBadRequest(w, "invalid device id")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "invalid limit")
			return
		}
		limit = parsed
	}

	// The device must exist even though history rows alone would answer;
	// a 404 here beats an empty list for a typo'd ID.
	if _, err := s.registry.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	readings, err := s.history.History(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("listing sensor history failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"readings":  readings,
		"count":     len(readings),
	})
}
