package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

var _ Store = (*SQLiteStore)(nil)

const (
	sqliteDateLayout = "2006-01-02"
	// fixed width, so text order is time order
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS members (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS exercises (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	muscle_group TEXT NOT NULL DEFAULT '',
	is_custom    INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_exercises_name ON exercises (name COLLATE NOCASE);
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	member_id  TEXT NOT NULL REFERENCES members (id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	notes      TEXT,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS session_planned_exercises (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
	exercise_id TEXT NOT NULL REFERENCES exercises (id),
	order_index INTEGER NOT NULL,
	UNIQUE (session_id, order_index),
	UNIQUE (session_id, exercise_id)
);
CREATE TABLE IF NOT EXISTS set_results (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
	exercise_id TEXT NOT NULL REFERENCES exercises (id),
	set_number  INTEGER NOT NULL,
	reps        INTEGER NOT NULL CHECK (reps > 0),
	weight      REAL,
	unit        TEXT NOT NULL DEFAULT 'lb',
	source      TEXT NOT NULL DEFAULT 'manual',
	created_at  TEXT NOT NULL,
	UNIQUE (session_id, exercise_id, set_number)
);
`

// SQLiteStore keeps everything in a single local file. Used by the CLI.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database file at path and makes sure
// the schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer at a time, sqlite locks the whole file anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSQLiteForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func (s *SQLiteStore) AddMember(ctx context.Context, member gymflow.Member) (_ *gymflow.Member, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.members.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := prepareMember(&member); err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO members (id, name, created_at) VALUES (?, ?, ?)`,
		member.ID.String(), member.Name, formatTime(member.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return &member, nil
}

func (s *SQLiteStore) scanMember(row interface{ Scan(...any) error }) (*gymflow.Member, error) {
	var id, createdAt string
	m := &gymflow.Member{}
	if err := row.Scan(&id, &m.Name, &createdAt); err != nil {
		return nil, err
	}
	return m, parseIDAndTime(id, createdAt, &m.ID, &m.CreatedAt)
}

func (s *SQLiteStore) GetMember(ctx context.Context, id uuid.UUID) (_ *gymflow.Member, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.members.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := s.scanMember(s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM members WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	return m, err
}

func (s *SQLiteStore) ListMembers(ctx context.Context) (_ []*gymflow.Member, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.members.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM members ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*gymflow.Member, 0)
	for rows.Next() {
		m, err := s.scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLiteStore) DeleteMember(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.members.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (s *SQLiteStore) AddExercise(ctx context.Context, exercise gymflow.Exercise) (_ *gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := prepareExercise(&exercise); err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO exercises (id, name, muscle_group, is_custom, created_at) VALUES (?, ?, ?, ?, ?)`,
		exercise.ID.String(), exercise.Name, exercise.MuscleGroup, exercise.IsCustom, formatTime(exercise.CreatedAt),
	)
	if isSQLiteUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", ErrExerciseExists, exercise.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}
	return &exercise, nil
}

const sqliteSelectExercise = `SELECT id, name, muscle_group, is_custom, created_at FROM exercises`

func (s *SQLiteStore) scanExercise(row interface{ Scan(...any) error }) (*gymflow.Exercise, error) {
	var id, createdAt string
	e := &gymflow.Exercise{}
	if err := row.Scan(&id, &e.Name, &e.MuscleGroup, &e.IsCustom, &createdAt); err != nil {
		return nil, err
	}
	return e, parseIDAndTime(id, createdAt, &e.ID, &e.CreatedAt)
}

func (s *SQLiteStore) GetExercise(ctx context.Context, id uuid.UUID) (_ *gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e, err := s.scanExercise(s.db.QueryRowContext(ctx, sqliteSelectExercise+` WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	return e, err
}

func (s *SQLiteStore) FindExerciseByName(ctx context.Context, name string) (_ *gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.exercises.findbyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e, err := s.scanExercise(s.db.QueryRowContext(
		ctx,
		sqliteSelectExercise+` WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	return e, err
}

func (s *SQLiteStore) ListExercises(ctx context.Context) (_ []*gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.QueryContext(ctx, sqliteSelectExercise+` ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]*gymflow.Exercise, 0)
	for rows.Next() {
		e, err := s.scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, ns gymflow.NewSession) (_ *gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := checkPlanUnique(ns.ExerciseIDs); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit()
		}
	}()

	session := &gymflow.Session{
		ID:        uuid.New(),
		MemberID:  ns.MemberID,
		Date:      gymflow.DateOnly(ns.Date),
		Notes:     ns.Notes,
		CreatedAt: nowUTC(),
	}

	err = tx.QueryRowContext(ctx, `SELECT name FROM members WHERE id = ?`, ns.MemberID.String()).Scan(&session.MemberName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO sessions (id, member_id, date, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID.String(), session.MemberID.String(), session.Date.Format(sqliteDateLayout),
		session.Notes, formatTime(session.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	for i, exerciseID := range ns.ExerciseIDs {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO session_planned_exercises (id, session_id, exercise_id, order_index) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), session.ID.String(), exerciseID.String(), i+1,
		)
		if isSQLiteForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
		}
		if err != nil {
			return nil, fmt.Errorf("insert planned exercise: %w", err)
		}
	}

	return session, nil
}

const sqliteSelectSession = `
	SELECT s.id, s.member_id, m.name, s.date, s.notes, s.created_at
	FROM sessions s
	JOIN members m ON m.id = s.member_id`

func (s *SQLiteStore) scanSession(row interface{ Scan(...any) error }) (*gymflow.Session, error) {
	var id, memberID, date, createdAt string
	session := &gymflow.Session{}
	if err := row.Scan(&id, &memberID, &session.MemberName, &date, &session.Notes, &createdAt); err != nil {
		return nil, err
	}
	if err := parseIDAndTime(id, createdAt, &session.ID, &session.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if session.MemberID, err = uuid.Parse(memberID); err != nil {
		return nil, fmt.Errorf("parse member id: %w", err)
	}
	if session.Date, err = time.Parse(sqliteDateLayout, date); err != nil {
		return nil, fmt.Errorf("parse session date: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id uuid.UUID) (_ *gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	session, err := s.scanSession(s.db.QueryRowContext(ctx, sqliteSelectSession+` WHERE s.id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) (_ []*gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var (
		conditions []string
		args       []any
	)
	if filter.MemberID != nil {
		conditions = append(conditions, "s.member_id = ?")
		args = append(args, filter.MemberID.String())
	}
	if filter.From != nil {
		conditions = append(conditions, "s.date >= ?")
		args = append(args, gymflow.DateOnly(*filter.From).Format(sqliteDateLayout))
	}
	if filter.To != nil {
		conditions = append(conditions, "s.date <= ?")
		args = append(args, gymflow.DateOnly(*filter.To).Format(sqliteDateLayout))
	}

	query := sqliteSelectSession
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.date DESC, s.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*gymflow.Session, 0)
	for rows.Next() {
		session, err := s.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) ListPlannedExercises(ctx context.Context, sessionID uuid.UUID) (_ []*gymflow.PlannedExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.planned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.sessionExists(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.session_id, p.exercise_id, e.name, p.order_index
		FROM session_planned_exercises p
		JOIN exercises e ON e.id = p.exercise_id
		WHERE p.session_id = ?
		ORDER BY p.order_index`,
		sessionID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	planned := make([]*gymflow.PlannedExercise, 0)
	for rows.Next() {
		var id, sid, eid string
		p := &gymflow.PlannedExercise{}
		if err := rows.Scan(&id, &sid, &eid, &p.ExerciseName, &p.OrderIndex); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := parseIDs([]string{id, sid, eid}, &p.ID, &p.SessionID, &p.ExerciseID); err != nil {
			return nil, err
		}
		planned = append(planned, p)
	}
	return planned, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SQLiteStore) MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.results.maxsetnumber")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var maxSet int
	err = s.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM set_results WHERE session_id = ? AND exercise_id = ?`,
		sessionID.String(), exerciseID.String(),
	).Scan(&maxSet)
	return maxSet, err
}

func (s *SQLiteStore) AddSetResult(ctx context.Context, result gymflow.SetResult) (_ *gymflow.SetResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.results.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := prepareSetResult(&result); err != nil {
		return nil, err
	}

	if err := s.sessionExists(ctx, result.SessionID); err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO set_results (id, session_id, exercise_id, set_number, reps, weight, unit, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID.String(), result.SessionID.String(), result.ExerciseID.String(), result.SetNumber,
		result.Reps, result.Weight, string(result.Unit), string(result.Source), formatTime(result.CreatedAt),
	)
	switch {
	case err == nil:
		return &result, nil
	case isSQLiteUniqueViolation(err):
		return nil, fmt.Errorf("%w: %d", ErrSetNumberTaken, result.SetNumber)
	case isSQLiteForeignKeyViolation(err):
		return nil, ErrExerciseNotFound
	default:
		return nil, fmt.Errorf("insert set result: %w", err)
	}
}

func (s *SQLiteStore) ListSetResults(ctx context.Context, sessionID uuid.UUID) (_ []*gymflow.SetResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.results.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.sessionExists(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, exercise_id, set_number, reps, weight, unit, source, created_at
		FROM set_results
		WHERE session_id = ?
		ORDER BY exercise_id, set_number`,
		sessionID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*gymflow.SetResult, 0)
	for rows.Next() {
		var (
			id, sid, eid, unit, source, createdAt string
			weight                                sql.NullFloat64
		)
		r := &gymflow.SetResult{}
		if err := rows.Scan(&id, &sid, &eid, &r.SetNumber, &r.Reps, &weight, &unit, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := parseIDs([]string{id, sid, eid}, &r.ID, &r.SessionID, &r.ExerciseID); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created at: %w", err)
		}
		if weight.Valid {
			w := weight.Float64
			r.Weight = &w
		}
		r.Unit = gymflow.Unit(unit)
		r.Source = gymflow.Source(source)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) sessionExists(ctx context.Context, id uuid.UUID) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id.String()).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseIDAndTime(id, createdAt string, idDst *uuid.UUID, timeDst *time.Time) error {
	var err error
	if *idDst, err = uuid.Parse(id); err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	if *timeDst, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parse created at: %w", err)
	}
	return nil
}

func parseIDs(raw []string, dst ...*uuid.UUID) error {
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("parse id [%s]: %w", s, err)
		}
		*dst[i] = id
	}
	return nil
}
