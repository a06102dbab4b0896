package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as the response body with the given status. An
// encode failure after the header is written can only be logged by
// middleware, so it is dropped here.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// NoContent is the empty success reply for deletes and logout
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
