package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"homeline/internal/adapter"
	"homeline/internal/automation"
	"homeline/internal/controller"
	"homeline/internal/device"
)

// Error is the structured error response body.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeUnreachable = "device_unreachable"
	ErrCodeInternal    = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps domain sentinel errors onto HTTP statuses.
// Unrecognized errors become opaque 500s; the detail goes to the log,
// not the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, automation.ErrRuleNotFound):
		writeNotFound(w, err.Error())

	case errors.Is(err, device.ErrDeviceExists),
		errors.Is(err, device.ErrDeviceInUse):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, device.ErrInvalidDevice),
		errors.Is(err, device.ErrInvalidKind),
		errors.Is(err, device.ErrInvalidSubtype),
		errors.Is(err, device.ErrInvalidAddress),
		errors.Is(err, device.ErrInvalidName),
		errors.Is(err, device.ErrNotOutput),
		errors.Is(err, device.ErrNotSensor),
		errors.Is(err, automation.ErrInvalidRule),
		errors.Is(err, automation.ErrInvalidName),
		errors.Is(err, automation.ErrMalformedPayload),
		errors.Is(err, automation.ErrUnsupportedSchedule),
		errors.Is(err, controller.ErrInvalidAction),
		errors.Is(err, adapter.ErrUnsupportedAction):
		writeBadRequest(w, err.Error())

	case errors.Is(err, adapter.ErrUnreachable):
		writeError(w, http.StatusBadGateway, ErrCodeUnreachable, err.Error())

	default:
		writeInternalError(w, "internal server error")
	}
}
