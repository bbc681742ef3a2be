package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/athletiq/socialgraph/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeResult maps a facade result onto the wire: soft failures are 200s
// with success=false so the client renders the message inline.
func writeResult(w http.ResponseWriter, result services.Result) {
	writeJSON(w, http.StatusOK, result)
}
