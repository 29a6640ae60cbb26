package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
)

const kindUnauthenticated = "unauthenticated"

type errorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string, fields map[string]string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error": errorBody{
			Kind:    kind,
			Message: message,
			Fields:  fields,
		},
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

var statusByKind = map[workflow.Kind]int{
	workflow.KindValidation:    http.StatusBadRequest,
	workflow.KindAuthorization: http.StatusForbidden,
	workflow.KindNotFound:      http.StatusNotFound,
	workflow.KindConflict:      http.StatusConflict,
	workflow.KindInvalidState:  http.StatusUnprocessableEntity,
}

// handleServiceError is the single place where error kinds become status
// codes. Anything that is not a workflow error is logged and hidden.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		status, ok := statusByKind[wfErr.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		writeError(w, status, string(wfErr.Kind), wfErr.Message, wfErr.Fields)
		return
	}

	h.logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Service error")
	writeError(w, http.StatusInternalServerError, "internal", "Internal server error", nil)
}
