package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/auth"
)

func (s *IntegrationTestSuite) doLogin(ctx context.Context) string {
	resp, body := s.doRequest(ctx, http.MethodPost, "/a/login", "", auth.Credentials{
		Username: testUsername,
		Password: testPassword,
	})
	require.Equal(s.T(), http.StatusOK, resp.StatusCode, string(body))

	var loginResp auth.LoginResponse
	require.NoError(s.T(), json.Unmarshal(body, &loginResp))
	require.NotEmpty(s.T(), loginResp.Token)
	return loginResp.Token
}

// doRequest sends payload as JSON when it is not nil and returns the
// response with its body already read.
func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, token string, payload any) (*http.Response, []byte) {
	t := s.T()

	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, body)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBytes
}

// doJSON is doRequest for calls expected to answer wantStatus with a JSON body.
func (s *IntegrationTestSuite) doJSON(ctx context.Context, method, path, token string, payload any, wantStatus int, dst any) {
	resp, body := s.doRequest(ctx, method, path, token, payload)
	require.Equal(s.T(), wantStatus, resp.StatusCode, "%s %s: %s", method, path, body)
	if dst != nil {
		require.NoError(s.T(), json.Unmarshal(body, dst), string(body))
	}
}
