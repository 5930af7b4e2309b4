package utils

import (
	"net/http"
	"strconv"
)

// ParsePagination reads page and limit query parameters and returns the
// skip/limit pair for a store query. limit is clamped to maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int64) (skip, limit int64) {
	q := r.URL.Query()

	page, err := strconv.ParseInt(q.Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.ParseInt(q.Get("limit"), 10, 64)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return (page - 1) * limit, limit
}

// ParseBool treats "1", "true" and "yes" as true.
func ParseBool(r *http.Request, key string) bool {
	switch r.URL.Query().Get(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}
