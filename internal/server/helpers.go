package server

import (
	"encoding/json"
	"net/http"
)

// apiResponse is the envelope every admin endpoint answers with.
type apiResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, apiResponse{Status: "success", Data: data}, http.StatusOK)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeSuccess(w, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, apiResponse{
		Status: "error",
		Data:   map[string]string{"message": message},
	}, status)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
