// Package auth implements shared-secret API key checks for the analyze endpoint.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// HeaderAPIKey carries the caller's shared secret.
const HeaderAPIKey = "X-API-Key"

// Rejection reasons passed to the deny handler.
var (
	ErrMissingKey = errors.New("missing api key")
	ErrInvalidKey = errors.New("invalid api key")
)

// Authorizer decides whether a presented key may call protected routes.
type Authorizer interface {
	IsAuthorized(candidate string) bool
}

// AllowList is the immutable set of keys parsed from an ALLOWED_KEYS value.
type AllowList struct {
	keys []string
}

// ParseAllowList reads "label1:key1|label2:key2". Only the segment after the first
// colon of each pair is kept as a key; pairs without one are dropped. Anything after
// a second colon is ignored.
func ParseAllowList(raw string) AllowList {
	var keys []string
	for _, pair := range strings.Split(raw, "|") {
		parts := strings.Split(pair, ":")
		if len(parts) < 2 || parts[1] == "" {
			continue
		}
		keys = append(keys, parts[1])
	}
	return AllowList{keys: keys}
}

// Len reports how many keys were configured.
func (a AllowList) Len() int {
	return len(a.keys)
}

// IsAuthorized reports whether candidate exactly matches one configured key.
func (a AllowList) IsAuthorized(candidate string) bool {
	if candidate == "" {
		return false
	}
	ok := false
	for _, key := range a.keys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			ok = true
		}
	}
	return ok
}

// KeyFromHeader extracts the first x-api-key value. The boolean is false when the
// header is absent.
func KeyFromHeader(h http.Header) (string, bool) {
	values := h.Values(HeaderAPIKey)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Middleware rejects requests whose key is missing or not accepted by authz.
// deny writes the rejection response and receives ErrMissingKey or ErrInvalidKey.
func Middleware(authz Authorizer, deny func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := KeyFromHeader(r.Header)
			if !ok {
				deny(w, r, ErrMissingKey)
				return
			}
			if !authz.IsAuthorized(key) {
				deny(w, r, ErrInvalidKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
