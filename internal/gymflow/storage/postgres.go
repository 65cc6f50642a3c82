package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

var _ Store = (*PGStore)(nil)

// PGStore is the postgres backend used by the service.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{
		db: db,
	}
}

func (s *PGStore) AddMember(ctx context.Context, member gymflow.Member) (_ *gymflow.Member, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.members.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := prepareMember(&member); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO members (id, name, created_at) VALUES ($1, $2, $3)`,
		member.ID, member.Name, member.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	span.SetAttributes(attribute.String("member.id", member.ID.String()))
	return &member, nil
}

func (s *PGStore) GetMember(ctx context.Context, id uuid.UUID) (_ *gymflow.Member, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.members.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("member.id", id.String()))

	m := &gymflow.Member{}
	err = s.db.
		QueryRow(ctx, `SELECT id, name, created_at FROM members WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PGStore) ListMembers(ctx context.Context) (_ []*gymflow.Member, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.members.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, `SELECT id, name, created_at FROM members ORDER BY lower(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*gymflow.Member, 0)
	for rows.Next() {
		m := &gymflow.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("members.count", len(members)))
	return members, nil
}

func (s *PGStore) DeleteMember(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.members.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("member.id", id.String()))

	tag, err := s.db.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (s *PGStore) AddExercise(ctx context.Context, exercise gymflow.Exercise) (_ *gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := prepareExercise(&exercise); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO exercises (id, name, muscle_group, is_custom, created_at) VALUES ($1, $2, $3, $4, $5)`,
		exercise.ID, exercise.Name, nullIfEmpty(exercise.MuscleGroup), exercise.IsCustom, exercise.CreatedAt,
	)
	if pkg.IsUniqueViolationError(err) {
		return nil, fmt.Errorf("%w: %s", ErrExerciseExists, exercise.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	span.SetAttributes(attribute.String("exercise.id", exercise.ID.String()))
	return &exercise, nil
}

const selectExercise = `SELECT id, name, COALESCE(muscle_group, ''), is_custom, created_at FROM exercises`

func (s *PGStore) GetExercise(ctx context.Context, id uuid.UUID) (_ *gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", id.String()))

	e := &gymflow.Exercise{}
	err = s.db.
		QueryRow(ctx, selectExercise+` WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.IsCustom, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *PGStore) FindExerciseByName(ctx context.Context, name string) (_ *gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.findbyname")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e := &gymflow.Exercise{}
	err = s.db.
		QueryRow(ctx, selectExercise+` WHERE lower(name) = lower($1)`, strings.TrimSpace(name)).
		Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.IsCustom, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *PGStore) ListExercises(ctx context.Context) (_ []*gymflow.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, selectExercise+` ORDER BY lower(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]*gymflow.Exercise, 0)
	for rows.Next() {
		e := &gymflow.Exercise{}
		if err := rows.Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.IsCustom, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (s *PGStore) CreateSession(ctx context.Context, ns gymflow.NewSession) (_ *gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("member.id", ns.MemberID.String()),
		attribute.Int("planned.count", len(ns.ExerciseIDs)),
	)

	if err := checkPlanUnique(ns.ExerciseIDs); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	session := &gymflow.Session{
		ID:        uuid.New(),
		MemberID:  ns.MemberID,
		Date:      gymflow.DateOnly(ns.Date),
		Notes:     ns.Notes,
		CreatedAt: nowUTC(),
	}

	err = tx.QueryRow(ctx, `SELECT name FROM members WHERE id = $1`, ns.MemberID).Scan(&session.MemberName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}

	_, err = tx.Exec(
		ctx,
		`INSERT INTO sessions (id, member_id, date, notes, created_at) VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.MemberID, session.Date, session.Notes, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	batch := &pgx.Batch{}
	for i, exerciseID := range ns.ExerciseIDs {
		batch.Queue(
			`INSERT INTO session_planned_exercises (id, session_id, exercise_id, order_index) VALUES ($1, $2, $3, $4)`,
			uuid.New(), session.ID, exerciseID, i+1,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range ns.ExerciseIDs {
		if _, execErr := results.Exec(); execErr != nil {
			_ = results.Close()
			if pkg.IsForeignKeyViolationError(execErr) {
				return nil, ErrExerciseNotFound
			}
			return nil, fmt.Errorf("insert planned exercise: %w", execErr)
		}
	}
	if err = results.Close(); err != nil {
		return nil, fmt.Errorf("close planned batch: %w", err)
	}

	span.SetAttributes(attribute.String("session.id", session.ID.String()))
	return session, nil
}

const selectSession = `
	SELECT s.id, s.member_id, m.name, s.date, s.notes, s.created_at
	FROM sessions s
	JOIN members m ON m.id = s.member_id`

func scanSession(row pgx.Row) (*gymflow.Session, error) {
	session := &gymflow.Session{}
	if err := row.Scan(
		&session.ID, &session.MemberID, &session.MemberName,
		&session.Date, &session.Notes, &session.CreatedAt,
	); err != nil {
		return nil, err
	}
	session.Date = gymflow.DateOnly(session.Date)
	return session, nil
}

func (s *PGStore) GetSession(ctx context.Context, id uuid.UUID) (_ *gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", id.String()))

	session, err := scanSession(s.db.QueryRow(ctx, selectSession+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PGStore) ListSessions(ctx context.Context, filter SessionFilter) (_ []*gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var (
		conditions []string
		args       []any
	)
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		conditions = append(conditions, fmt.Sprintf("s.member_id = $%d", len(args)))
		span.SetAttributes(attribute.String("member.id", filter.MemberID.String()))
	}
	if filter.From != nil {
		args = append(args, gymflow.DateOnly(*filter.From))
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, gymflow.DateOnly(*filter.To))
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d", len(args)))
	}

	query := selectSession
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.date DESC, s.created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*gymflow.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("sessions.count", len(sessions)))
	return sessions, nil
}

func (s *PGStore) ListPlannedExercises(ctx context.Context, sessionID uuid.UUID) (_ []*gymflow.PlannedExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.planned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID.String()))

	if err := s.sessionExists(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.session_id, p.exercise_id, e.name, p.order_index
		FROM session_planned_exercises p
		JOIN exercises e ON e.id = p.exercise_id
		WHERE p.session_id = $1
		ORDER BY p.order_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	planned := make([]*gymflow.PlannedExercise, 0)
	for rows.Next() {
		p := &gymflow.PlannedExercise{}
		if err := rows.Scan(&p.ID, &p.SessionID, &p.ExerciseID, &p.ExerciseName, &p.OrderIndex); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		planned = append(planned, p)
	}
	return planned, rows.Err()
}

func (s *PGStore) DeleteSession(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", id.String()))

	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PGStore) MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.results.maxsetnumber")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var maxSet int
	err = s.db.QueryRow(
		ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM set_results WHERE session_id = $1 AND exercise_id = $2`,
		sessionID, exerciseID,
	).Scan(&maxSet)
	if err != nil {
		return 0, err
	}
	return maxSet, nil
}

func (s *PGStore) AddSetResult(ctx context.Context, result gymflow.SetResult) (_ *gymflow.SetResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.results.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := prepareSetResult(&result); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session.id", result.SessionID.String()),
		attribute.String("exercise.id", result.ExerciseID.String()),
		attribute.Int("set.number", result.SetNumber),
		attribute.String("set.source", string(result.Source)),
	)

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO set_results (id, session_id, exercise_id, set_number, reps, weight, unit, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		result.ID, result.SessionID, result.ExerciseID, result.SetNumber,
		result.Reps, result.Weight, string(result.Unit), string(result.Source), result.CreatedAt,
	)
	switch {
	case err == nil:
		return &result, nil
	case pkg.IsUniqueViolationError(err):
		return nil, fmt.Errorf("%w: %d", ErrSetNumberTaken, result.SetNumber)
	case pkg.IsForeignKeyViolationError(err):
		if strings.Contains(pkg.ViolatedConstraint(err), "session_id") {
			return nil, ErrSessionNotFound
		}
		return nil, ErrExerciseNotFound
	case pkg.IsCheckViolationError(err):
		return nil, fmt.Errorf("%w: %s", ErrInvalidSetResult, pkg.ViolatedConstraint(err))
	default:
		return nil, fmt.Errorf("insert set result: %w", err)
	}
}

func (s *PGStore) ListSetResults(ctx context.Context, sessionID uuid.UUID) (_ []*gymflow.SetResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.results.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID.String()))

	if err := s.sessionExists(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, exercise_id, set_number, reps, weight::float8, unit, source, created_at
		FROM set_results
		WHERE session_id = $1
		ORDER BY exercise_id, set_number`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*gymflow.SetResult, 0)
	for rows.Next() {
		r := &gymflow.SetResult{}
		var unit, source string
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.ExerciseID, &r.SetNumber, &r.Reps,
			&r.Weight, &unit, &source, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		r.Unit = gymflow.Unit(unit)
		r.Source = gymflow.Source(source)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PGStore) sessionExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	return nil
}

// Close is a no-op, the pool is owned and closed by the server.
func (s *PGStore) Close() error {
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
