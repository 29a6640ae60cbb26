package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError mirrors the API error envelope for failures raised before a
// handler runs.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}
