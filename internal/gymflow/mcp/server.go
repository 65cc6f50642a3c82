package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

// NewServer builds the gymflow context MCP server. It is served over stdio by
// cmd/gymflow_mcp and mounted on the backend at /mcp.
func NewServer(schemaRepo SchemaRepo, store storage.Store) *mcp.Server {
	svc := NewContextService(schemaRepo, store, sessions.NewHistory(store))
	h := NewHandler(svc)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gymflow-context",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_gymflow_schema",
		Description: "Returns the DB schema of the gymflow tables (members, exercises, sessions, session_planned_exercises, set_results): columns, types, nullable, default.",
	}, h.GetGymflowSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_members",
		Description: "Returns all gym members (id, name, created at). Use it to find the member_id for the other tools.",
	}, h.ListMembersTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_member_history",
		Description: "Returns the sessions of a member, newest first, each with its planned exercises and recorded sets. Args: member_id; optional from_date, to_date (YYYY-MM-DD).",
	}, h.GetMemberHistoryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_session_detail",
		Description: "Returns one session with its exercises in plan order and the recorded sets of each. Arg: session_id.",
	}, h.GetSessionDetailTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "parse_utterance",
		Description: "Parses a spoken set the way voice capture does, both as a single set (reps, weight, unit) and as a set scheme (sets of reps). Arg: transcript.",
	}, h.ParseUtteranceTool())

	return s
}
