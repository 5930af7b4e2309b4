package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"eventgo/apperr"
)

// DecodeJSON reads a JSON request body into dst, capped at maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(fmt.Sprintf("Invalid request body: %v", err))
	}
	return nil
}

// SplitList takes a comma-separated string and returns its trimmed,
// non-empty parts.
func SplitList(input string) []string {
	if input == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
