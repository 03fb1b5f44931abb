package handlers

import (
	"encoding/json"
	"net/http"
)

// Guard wraps handlers with session checks. *middleware.Sessions satisfies it.
type Guard interface {
	Require(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
}

const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
