package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2beens/gymflow/internal/gymflow/storage"
)

const dateLayout = "2006-01-02"

// Handler adapts MCP tool calls to the context service and formats the results.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}

// GetGymflowSchemaTool returns the handler for get_gymflow_schema.
func (h *Handler) GetGymflowSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

// ListMembersTool returns the handler for list_members.
func (h *Handler) ListMembersTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		members, err := h.service.ListMembers(ctx)
		if err != nil {
			return errorResult("Error listing members: " + err.Error()), nil, nil
		}
		return jsonResult(members), nil, nil
	}
}

// MemberHistoryInput is the input for get_member_history.
type MemberHistoryInput struct {
	MemberID string `json:"member_id" jsonschema:"Member id (uuid), see list_members"`
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD), inclusive"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
}

// GetMemberHistoryTool returns the handler for get_member_history.
func (h *Handler) GetMemberHistoryTool() func(context.Context, *mcp.CallToolRequest, MemberHistoryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in MemberHistoryInput) (*mcp.CallToolResult, any, error) {
		memberID, err := uuid.Parse(strings.TrimSpace(in.MemberID))
		if err != nil {
			return errorResult("Invalid member_id: use a member uuid"), nil, nil
		}
		filter := storage.SessionFilter{MemberID: &memberID}
		if in.FromDate != "" {
			from, err := time.Parse(dateLayout, in.FromDate)
			if err != nil {
				return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
			}
			filter.From = &from
		}
		if in.ToDate != "" {
			to, err := time.Parse(dateLayout, in.ToDate)
			if err != nil {
				return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
			}
			filter.To = &to
		}

		details, err := h.service.MemberHistory(ctx, filter)
		if err != nil {
			return errorResult("Error fetching member history: " + err.Error()), nil, nil
		}
		return jsonResult(details), nil, nil
	}
}

// SessionDetailInput is the input for get_session_detail.
type SessionDetailInput struct {
	SessionID string `json:"session_id" jsonschema:"Session id (uuid)"`
}

// GetSessionDetailTool returns the handler for get_session_detail.
func (h *Handler) GetSessionDetailTool() func(context.Context, *mcp.CallToolRequest, SessionDetailInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SessionDetailInput) (*mcp.CallToolResult, any, error) {
		sessionID, err := uuid.Parse(strings.TrimSpace(in.SessionID))
		if err != nil {
			return errorResult("Invalid session_id: use a session uuid"), nil, nil
		}
		detail, err := h.service.SessionDetail(ctx, sessionID)
		if err != nil {
			return errorResult("Error fetching session: " + err.Error()), nil, nil
		}
		return jsonResult(detail), nil, nil
	}
}

// ParseUtteranceInput is the input for parse_utterance.
type ParseUtteranceInput struct {
	Transcript string `json:"transcript" jsonschema:"Spoken set, e.g. 10 reps at 135 pounds or 3 sets of 8 reps at 60 kg"`
}

// ParseUtteranceTool returns the handler for parse_utterance.
func (h *Handler) ParseUtteranceTool() func(context.Context, *mcp.CallToolRequest, ParseUtteranceInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in ParseUtteranceInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(in.Transcript) == "" {
			return errorResult("Empty transcript"), nil, nil
		}
		return jsonResult(h.service.ParseUtterance(in.Transcript)), nil, nil
	}
}
