package utils

import (
	"net/http"

	"eventgo/globals"
	"eventgo/models"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return requestingUserID
}

// GetIdentityFromRequest returns the identity placed in the context by the
// auth middleware, or false for anonymous requests.
func GetIdentityFromRequest(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(globals.IdentityKey).(models.Identity)
	if !ok || id.ID == "" {
		return models.Identity{}, false
	}
	return id, true
}
