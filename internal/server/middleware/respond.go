package middleware

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

// reject ends the request with a JSON error body, the same shape the
// handlers use.
func reject(w http.ResponseWriter, status int, msg string) {
	body, _ := jsoniter.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
