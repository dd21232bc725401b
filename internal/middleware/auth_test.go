package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func runAuth(t *testing.T, expected, provided string) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("passed"))
	})
	handler := RequireToken(expected)(next)

	req := httptest.NewRequest(http.MethodPost, "/n8n/users", nil)
	if provided != "" {
		req.Header.Set(TokenHeader, provided)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireTokenUnconfigured(t *testing.T) {
	rec := runAuth(t, "", "anything")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"N8N_TOKEN is not configured"}`, rec.Body.String())
}

func TestRequireTokenMissing(t *testing.T) {
	rec := runAuth(t, "secret", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTokenMismatch(t *testing.T) {
	rec := runAuth(t, "secret", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestRequireTokenMatch(t *testing.T) {
	rec := runAuth(t, "secret", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "passed", rec.Body.String())
}
