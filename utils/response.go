package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"eventgo/apperr"
)

// Result is the envelope every API response uses.
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, Result{Success: false, Message: msg})
}

// RespondWithErr maps a classified error onto its status and message.
// Unclassified errors are logged and reported as 500.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	RespondWithJSON(w, apperr.Status(kind), Result{
		Success: false,
		Message: apperr.Message(err),
		Errors:  apperr.Fields(err),
	})
}

func SendResponse(w http.ResponseWriter, status int, data any, message string) {
	RespondWithJSON(w, status, Result{Success: true, Message: message, Data: data})
}

type M map[string]any
