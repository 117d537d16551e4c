package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAllowList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single pair", raw: "web:abc", want: []string{"abc"}},
		{name: "many pairs", raw: "web:abc|cli:def|ops:ghi", want: []string{"abc", "def", "ghi"}},
		{name: "pair without colon dropped", raw: "nolabel|web:abc", want: []string{"abc"}},
		{name: "empty key dropped", raw: "web:|cli:def", want: []string{"def"}},
		{name: "extra segments ignored", raw: "a:b:c", want: []string{"b"}},
		{name: "empty label kept", raw: ":xyz", want: []string{"xyz"}},
		{name: "trailing separator", raw: "web:abc|", want: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list := ParseAllowList(tt.raw)
			require.Equal(t, tt.want, list.keys)
			require.Equal(t, len(tt.want), list.Len())
		})
	}
}

func TestAllowListIsAuthorized(t *testing.T) {
	t.Parallel()

	list := ParseAllowList("web:abc|cli:def")
	require.True(t, list.IsAuthorized("abc"))
	require.True(t, list.IsAuthorized("def"))
	require.False(t, list.IsAuthorized(""))
	require.False(t, list.IsAuthorized("web"))
	require.False(t, list.IsAuthorized("web:abc"))
	require.False(t, list.IsAuthorized("ABC"))
	require.False(t, ParseAllowList("").IsAuthorized("abc"))
}

func TestKeyFromHeader(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	_, ok := KeyFromHeader(h)
	require.False(t, ok)

	h.Add("x-api-key", "first")
	h.Add("X-Api-Key", "second")
	key, ok := KeyFromHeader(h)
	require.True(t, ok)
	require.Equal(t, "first", key)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	list := ParseAllowList("web:abc")
	handler := Middleware(list, func(w http.ResponseWriter, _ *http.Request, reason error) {
		w.Header().Set("X-Reason", reason.Error())
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		keys   []string
		want   int
		reason string
	}{
		{name: "missing", want: http.StatusUnauthorized, reason: ErrMissingKey.Error()},
		{name: "empty", keys: []string{""}, want: http.StatusUnauthorized, reason: ErrInvalidKey.Error()},
		{name: "wrong", keys: []string{"nope"}, want: http.StatusUnauthorized, reason: ErrInvalidKey.Error()},
		{name: "valid", keys: []string{"abc"}, want: http.StatusNoContent},
		{name: "first value wins", keys: []string{"nope", "abc"}, want: http.StatusUnauthorized, reason: ErrInvalidKey.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			for _, k := range tt.keys {
				req.Header.Add(HeaderAPIKey, k)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			require.Equal(t, tt.reason, rec.Header().Get("X-Reason"))
		})
	}
}
