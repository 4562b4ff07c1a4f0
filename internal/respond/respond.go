// Package respond holds the JSON response convention shared by every
// handler package.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes v with the given status and a JSON content type.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
