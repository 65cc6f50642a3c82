package test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/auth"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cases := map[string]struct {
		creds              auth.Credentials
		expectedStatusCode int
		expectedBody       string
	}{
		"good creds": {
			creds:              auth.Credentials{Username: testUsername, Password: testPassword},
			expectedStatusCode: http.StatusOK,
		},
		"bad password": {
			creds:              auth.Credentials{Username: testUsername, Password: "bad-password"},
			expectedStatusCode: http.StatusUnauthorized,
			expectedBody:       "error, wrong credentials",
		},
		"unknown user": {
			creds:              auth.Credentials{Username: "someone", Password: testPassword},
			expectedStatusCode: http.StatusUnauthorized,
			expectedBody:       "error, wrong credentials",
		},
		"empty password": {
			creds:              auth.Credentials{Username: testUsername},
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       "error, password empty",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := s.doRequest(ctx, http.MethodPost, "/a/login", "", tc.creds)
			require.Equal(t, tc.expectedStatusCode, resp.StatusCode, string(body))
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, strings.TrimSpace(string(body)))
				return
			}
			var loginResp auth.LoginResponse
			require.NoError(t, json.Unmarshal(body, &loginResp))
			assert.NotEmpty(t, loginResp.Token)
		})
	}
}

func (s *IntegrationTestSuite) TestLoginLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, _ := s.doRequest(ctx, http.MethodGet, "/members", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := s.doLogin(ctx)

	resp, body := s.doRequest(ctx, http.MethodGet, "/members", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.doRequest(ctx, http.MethodGet, "/a/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "logged-out", strings.TrimSpace(string(body)))

	resp, _ = s.doRequest(ctx, http.MethodGet, "/members", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.doRequest(ctx, http.MethodGet, "/a/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestVersion() {
	resp, body := s.doRequest(context.Background(), http.MethodGet, "/version", "", nil)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), "test-version-info", string(body))
}
