package test

import (
	"context"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/middleware"
)

type mcpSecretTransport struct {
	secret string
}

func (t mcpSecretTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(middleware.MCPSecretHeader, t.secret)
	return http.DefaultTransport.RoundTrip(req)
}

func (s *IntegrationTestSuite) TestMCP() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, _ := s.doRequest(ctx, http.MethodPost, "/mcp", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := s.doLogin(ctx)
	member := s.addMember(ctx, token)

	client := mcp.NewClient(&mcp.Implementation{Name: "gymflow-test", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   serverEndpoint + "/mcp",
		HTTPClient: &http.Client{Transport: mcpSecretTransport{secret: testMCPSecret}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"get_gymflow_schema", "list_members", "get_member_history", "get_session_detail", "parse_utterance",
	}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_gymflow_schema",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	schema := result.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, schema, "# Gymflow DB Schema")
	assert.Contains(t, schema, "set_results")

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_members",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, member.Name)

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_member_history",
		Arguments: map[string]any{"member_id": "not-a-uuid"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(result.Content[0].(*mcp.TextContent).Text, "Invalid member_id"))
}
