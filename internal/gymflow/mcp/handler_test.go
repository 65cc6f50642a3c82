package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

// mockContextService implements contextService for handler tests.
type mockContextService struct {
	schema     string
	schemaErr  error
	members    []*gymflow.Member
	membersErr error
	history    []*sessions.SessionDetail
	historyErr error
	detail     *sessions.SessionDetail
	detailErr  error

	gotFilter    storage.SessionFilter
	gotSessionID uuid.UUID
}

func (m *mockContextService) GetSchema(context.Context) (string, error) {
	return m.schema, m.schemaErr
}

func (m *mockContextService) ListMembers(context.Context) ([]*gymflow.Member, error) {
	return m.members, m.membersErr
}

func (m *mockContextService) MemberHistory(_ context.Context, filter storage.SessionFilter) ([]*sessions.SessionDetail, error) {
	m.gotFilter = filter
	return m.history, m.historyErr
}

func (m *mockContextService) SessionDetail(_ context.Context, id uuid.UUID) (*sessions.SessionDetail, error) {
	m.gotSessionID = id
	return m.detail, m.detailErr
}

func (m *mockContextService) ParseUtterance(transcript string) UtteranceParse {
	return (&ContextService{}).ParseUtterance(transcript)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandler_GetGymflowSchemaTool(t *testing.T) {
	t.Run("returns_schema", func(t *testing.T) {
		want := "## members\n| col | type |\n"
		fn := NewHandler(&mockContextService{schema: want}).GetGymflowSchemaTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, nil)
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, want, resultText(t, res))
	})

	t.Run("returns_error_when_schema_fails", func(t *testing.T) {
		fn := NewHandler(&mockContextService{schemaErr: errors.New("db gone")}).GetGymflowSchemaTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, nil)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Error fetching schema: db gone", resultText(t, res))
	})
}

func TestHandler_ListMembersTool(t *testing.T) {
	member := &gymflow.Member{ID: uuid.New(), Name: "Ana"}
	fn := NewHandler(&mockContextService{members: []*gymflow.Member{member}}).ListMembersTool()
	res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got []*gymflow.Member
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, member.ID, got[0].ID)

	fn = NewHandler(&mockContextService{membersErr: errors.New("timeout")}).ListMembersTool()
	res, _, err = fn(context.Background(), &mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error listing members: timeout", resultText(t, res))
}

func TestHandler_GetMemberHistoryTool(t *testing.T) {
	memberID := uuid.New()

	testCases := []struct {
		name    string
		in      MemberHistoryInput
		wantErr string
	}{
		{name: "invalid_member", in: MemberHistoryInput{MemberID: "ana"}, wantErr: "Invalid member_id: use a member uuid"},
		{name: "invalid_from_date", in: MemberHistoryInput{MemberID: memberID.String(), FromDate: "bad"}, wantErr: "Invalid from_date: use YYYY-MM-DD"},
		{name: "invalid_to_date", in: MemberHistoryInput{MemberID: memberID.String(), ToDate: "01/02/2025"}, wantErr: "Invalid to_date: use YYYY-MM-DD"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn := NewHandler(&mockContextService{}).GetMemberHistoryTool()
			res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, tc.in)
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Equal(t, tc.wantErr, resultText(t, res))
		})
	}

	t.Run("passes_filter", func(t *testing.T) {
		svc := &mockContextService{history: []*sessions.SessionDetail{}}
		fn := NewHandler(svc).GetMemberHistoryTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, MemberHistoryInput{
			MemberID: memberID.String(),
			FromDate: "2025-01-01",
			ToDate:   "2025-01-31",
		})
		require.NoError(t, err)
		require.False(t, res.IsError, resultText(t, res))
		assert.Equal(t, "[]", resultText(t, res))

		require.NotNil(t, svc.gotFilter.MemberID)
		assert.Equal(t, memberID, *svc.gotFilter.MemberID)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *svc.gotFilter.From)
		assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *svc.gotFilter.To)
	})

	t.Run("open_range", func(t *testing.T) {
		svc := &mockContextService{}
		fn := NewHandler(svc).GetMemberHistoryTool()
		_, _, err := fn(context.Background(), &mcp.CallToolRequest{}, MemberHistoryInput{MemberID: memberID.String()})
		require.NoError(t, err)
		assert.Nil(t, svc.gotFilter.From)
		assert.Nil(t, svc.gotFilter.To)
	})

	t.Run("returns_error_when_history_fails", func(t *testing.T) {
		fn := NewHandler(&mockContextService{historyErr: errors.New("connection refused")}).GetMemberHistoryTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, MemberHistoryInput{MemberID: memberID.String()})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Error fetching member history: connection refused", resultText(t, res))
	})
}

func TestHandler_GetSessionDetailTool(t *testing.T) {
	sessionID := uuid.New()
	svc := &mockContextService{detail: &sessions.SessionDetail{
		Session: &gymflow.Session{ID: sessionID, MemberName: "Ana"},
	}}
	fn := NewHandler(svc).GetSessionDetailTool()

	res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, SessionDetailInput{SessionID: sessionID.String()})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, sessionID, svc.gotSessionID)
	assert.Contains(t, resultText(t, res), sessionID.String())

	res, _, err = fn(context.Background(), &mcp.CallToolRequest{}, SessionDetailInput{SessionID: "nope"})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	svc.detailErr = storage.ErrSessionNotFound
	res, _, err = fn(context.Background(), &mcp.CallToolRequest{}, SessionDetailInput{SessionID: sessionID.String()})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error fetching session: session not found", resultText(t, res))
}

func TestHandler_ParseUtteranceTool(t *testing.T) {
	fn := NewHandler(&mockContextService{}).ParseUtteranceTool()

	res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, ParseUtteranceInput{Transcript: "12 reps at 60 kg"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got UtteranceParse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.True(t, got.Parsed)
	require.NotNil(t, got.Result)
	assert.Equal(t, 12, got.Result.Reps)
	require.NotNil(t, got.Result.Weight)
	assert.InDelta(t, 60, *got.Result.Weight, 0.001)
	assert.Equal(t, gymflow.UnitKg, got.Result.Unit)

	res, _, err = fn(context.Background(), &mcp.CallToolRequest{}, ParseUtteranceInput{Transcript: "  "})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestContextService_ParseUtterance(t *testing.T) {
	svc := &ContextService{}

	scheme := svc.ParseUtterance("3 sets of 10 reps at 135 pounds")
	assert.True(t, scheme.Parsed)
	require.NotNil(t, scheme.Scheme)
	assert.Equal(t, capture.SetScheme{Sets: 3, Reps: 10, Weight: scheme.Scheme.Weight, Unit: gymflow.UnitLb}, *scheme.Scheme)
	require.NotNil(t, scheme.Scheme.Weight)
	assert.InDelta(t, 135, *scheme.Scheme.Weight, 0.001)

	none := svc.ParseUtterance("felt heavy today")
	assert.False(t, none.Parsed)
	assert.Nil(t, none.Result)
	assert.Nil(t, none.Scheme)
}
