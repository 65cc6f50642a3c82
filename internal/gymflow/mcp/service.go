package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

type membersLister interface {
	ListMembers(ctx context.Context) ([]*gymflow.Member, error)
}

type historyReader interface {
	Detail(ctx context.Context, id uuid.UUID) (*sessions.SessionDetail, error)
	MemberHistory(ctx context.Context, filter storage.SessionFilter) ([]*sessions.SessionDetail, error)
}

// contextService is what the tool handlers need, split out for tests.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	ListMembers(ctx context.Context) ([]*gymflow.Member, error)
	MemberHistory(ctx context.Context, filter storage.SessionFilter) ([]*sessions.SessionDetail, error)
	SessionDetail(ctx context.Context, id uuid.UUID) (*sessions.SessionDetail, error)
	ParseUtterance(transcript string) UtteranceParse
}

// UtteranceParse reports how a transcript reads both as a single set and as a set scheme.
type UtteranceParse struct {
	Transcript string                  `json:"transcript"`
	Parsed     bool                    `json:"parsed"`
	Result     *capture.CapturedResult `json:"result,omitempty"`
	Scheme     *capture.SetScheme      `json:"scheme,omitempty"`
}

type ContextService struct {
	schema  SchemaRepo
	members membersLister
	history historyReader
}

func NewContextService(schemaRepo SchemaRepo, members membersLister, history historyReader) *ContextService {
	return &ContextService{
		schema:  schemaRepo,
		members: members,
		history: history,
	}
}

// GetSchema renders the gymflow tables as markdown.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetGymflowColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatGymflowSchema(cols), nil
}

func formatGymflowSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Gymflow DB Schema\n\nNo gymflow tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}
	tableOrder := make([]string, 0, len(byTable))
	for t := range byTable {
		tableOrder = append(tableOrder, t)
	}
	sort.Strings(tableOrder)

	var b strings.Builder
	b.WriteString("# Gymflow DB Schema\n\n")
	b.WriteString("Tables: ")
	b.WriteString(strings.Join(gymflowTables, ", "))
	b.WriteString(" (schema: public).\n\n")

	for _, tableName := range tableOrder {
		b.WriteString("## ")
		b.WriteString(tableName)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|--------|\n")
		for _, c := range byTable[tableName] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def)
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}

func (s *ContextService) ListMembers(ctx context.Context) ([]*gymflow.Member, error) {
	return s.members.ListMembers(ctx)
}

func (s *ContextService) MemberHistory(ctx context.Context, filter storage.SessionFilter) ([]*sessions.SessionDetail, error) {
	return s.history.MemberHistory(ctx, filter)
}

func (s *ContextService) SessionDetail(ctx context.Context, id uuid.UUID) (*sessions.SessionDetail, error) {
	return s.history.Detail(ctx, id)
}

func (s *ContextService) ParseUtterance(transcript string) UtteranceParse {
	parse := UtteranceParse{Transcript: transcript}
	if result, ok := capture.ParseTranscript(transcript); ok {
		parse.Parsed = true
		parse.Result = &result
	}
	if scheme, ok := capture.ParseSetScheme(transcript); ok {
		parse.Parsed = true
		parse.Scheme = &scheme
	}
	return parse
}
