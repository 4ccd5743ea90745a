package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader carries the static key for clients that cannot send a bearer
// token.
const APIKeyHeader = "X-API-Key"

// credentialSources are tried in order; the first non-empty value wins. The
// query parameter exists for websocket handshakes, where browsers cannot set
// headers.
var credentialSources = []func(*http.Request) string{
	bearerToken,
	func(r *http.Request) string { return r.Header.Get(APIKeyHeader) },
	func(r *http.Request) string { return r.URL.Query().Get("api_key") },
}

// Auth requires apiKey on every path except the public ones. An empty apiKey
// disables the check.
func Auth(apiKey string, public ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(public))
	for _, p := range public {
		skip[p] = struct{}{}
	}
	want := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			got := credential(r)
			switch {
			case got == "":
				w.Header().Set("WWW-Authenticate", `Bearer realm="hedgesim"`)
				reject(w, http.StatusUnauthorized, "missing authentication token")
			case subtle.ConstantTimeCompare([]byte(got), want) != 1:
				w.Header().Set("WWW-Authenticate", `Bearer realm="hedgesim", error="invalid_token"`)
				reject(w, http.StatusUnauthorized, "invalid authentication token")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func credential(r *http.Request) string {
	for _, src := range credentialSources {
		if v := strings.TrimSpace(src(r)); v != "" {
			return v
		}
	}
	return ""
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return token
}
