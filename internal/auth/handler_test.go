package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/gymflow/internal/auth"
)

func setupRouter(t *testing.T) (*mux.Router, *MockloginService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	serviceMock := NewMockloginService(ctrl)
	r := mux.NewRouter()
	auth.NewHandler(serviceMock).SetupRoutes(r)
	return r, serviceMock
}

func TestHandler_HandleLogin(t *testing.T) {
	r, serviceMock := setupRouter(t)
	creds := auth.Credentials{Username: "admin", Password: "secret"}

	serviceMock.EXPECT().Login(gomock.Any(), creds, gomock.Any()).Return("token-1", nil)
	req := httptest.NewRequest(http.MethodPost, "/a/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token-1", resp.Token)

	// form encoded
	serviceMock.EXPECT().Login(gomock.Any(), creds, gomock.Any()).Return("", auth.ErrWrongCredentials)
	form := url.Values{"username": {"admin"}, "password": {"secret"}}
	req = httptest.NewRequest(http.MethodPost, "/a/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	serviceMock.EXPECT().Login(gomock.Any(), creds, gomock.Any()).Return("", assert.AnError)
	req = httptest.NewRequest(http.MethodPost, "/a/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_HandleLogin_BadRequest(t *testing.T) {
	r, _ := setupRouter(t)

	for _, body := range []string{`{"password":"x"}`, `{"username":"admin"}`, `{nope`} {
		req := httptest.NewRequest(http.MethodPost, "/a/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandler_HandleLogout(t *testing.T) {
	r, serviceMock := setupRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/a/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	serviceMock.EXPECT().Logout(gomock.Any(), "token-1").Return(nil)
	req := httptest.NewRequest(http.MethodPost, "/a/logout", nil)
	req.Header.Set(auth.TokenHeader, "token-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logged-out", rec.Body.String())

	serviceMock.EXPECT().Logout(gomock.Any(), "token-1").Return(auth.ErrNotLoggedIn)
	req = httptest.NewRequest(http.MethodPost, "/a/logout", nil)
	req.Header.Set(auth.TokenHeader, "token-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
