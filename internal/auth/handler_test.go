package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.service, 15*time.Minute)
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, f
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegister(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"firstName": "Ann",
		"lastName":  "Chovey",
		"email":     "ann@example.com",
		"password":  "Sup3rSecret!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ann@example.com", resp["email"])
	require.NotContains(t, rec.Body.String(), "Sup3rSecret!")
	require.NotContains(t, resp, "passwordHash")
}

func TestHandlerRegisterWeakPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"firstName": "Ann",
		"lastName":  "Chovey",
		"email":     "ann@example.com",
		"password":  "abc",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "at least 8 characters")
}

func TestHandlerLoginAndRefresh(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"firstName": "Ann",
		"lastName":  "Chovey",
		"email":     "ann@example.com",
		"password":  "Sup3rSecret!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ann@example.com",
		"password": "Sup3rSecret!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	rec = postJSON(t, router, "/auth/refresh", map[string]string{
		"refreshToken": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerLoginFailuresUniform(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "Sup3rSecret!",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRefreshReplay(t *testing.T) {
	router, f := newTestRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"firstName": "Ann",
		"lastName":  "Chovey",
		"email":     "ann@example.com",
		"password":  "Sup3rSecret!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ann@example.com",
		"password": "Sup3rSecret!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	*f.clock = f.clock.Add(time.Minute)
	rec = postJSON(t, router, "/auth/refresh", map[string]string{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replay of a spent token is a plain 401 with no hint of why.
	rec = postJSON(t, router, "/auth/refresh", map[string]string{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotContains(t, rec.Body.String(), "revoked")
}

func TestHandlerClientCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/auth/token", map[string]string{
		"clientId":     "svc-client",
		"clientSecret": "svc-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
		ExpiresIn   int64  `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, int64(900), resp.ExpiresIn)
}
