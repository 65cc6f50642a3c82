package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/2beens/gymflow/internal/gymflow"
)

var _ Store = (*MemoryStore)(nil)

type setKey struct {
	sessionID  uuid.UUID
	exerciseID uuid.UUID
	setNumber  int
}

// MemoryStore keeps everything in maps. Used in tests and CLI dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	members   map[uuid.UUID]gymflow.Member
	exercises map[uuid.UUID]gymflow.Exercise
	sessions  map[uuid.UUID]gymflow.Session
	planned   map[uuid.UUID][]gymflow.PlannedExercise
	results   map[uuid.UUID][]gymflow.SetResult
	setKeys   map[setKey]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:   map[uuid.UUID]gymflow.Member{},
		exercises: map[uuid.UUID]gymflow.Exercise{},
		sessions:  map[uuid.UUID]gymflow.Session{},
		planned:   map[uuid.UUID][]gymflow.PlannedExercise{},
		results:   map[uuid.UUID][]gymflow.SetResult{},
		setKeys:   map[setKey]bool{},
	}
}

func (s *MemoryStore) AddMember(_ context.Context, member gymflow.Member) (*gymflow.Member, error) {
	if err := prepareMember(&member); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.ID] = member
	return &member, nil
}

func (s *MemoryStore) GetMember(_ context.Context, id uuid.UUID) (*gymflow.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return &m, nil
}

func (s *MemoryStore) ListMembers(_ context.Context) ([]*gymflow.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]*gymflow.Member, 0, len(s.members))
	for _, m := range s.members {
		m := m
		members = append(members, &m)
	}
	sort.Slice(members, func(i, j int) bool {
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members, nil
}

func (s *MemoryStore) DeleteMember(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return ErrMemberNotFound
	}
	delete(s.members, id)
	for sessionID, session := range s.sessions {
		if session.MemberID == id {
			s.deleteSessionLocked(sessionID)
		}
	}
	return nil
}

func (s *MemoryStore) AddExercise(_ context.Context, exercise gymflow.Exercise) (*gymflow.Exercise, error) {
	if err := prepareExercise(&exercise); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exercises {
		if strings.EqualFold(e.Name, exercise.Name) {
			return nil, fmt.Errorf("%w: %s", ErrExerciseExists, exercise.Name)
		}
	}
	s.exercises[exercise.ID] = exercise
	return &exercise, nil
}

func (s *MemoryStore) GetExercise(_ context.Context, id uuid.UUID) (*gymflow.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return &e, nil
}

func (s *MemoryStore) FindExerciseByName(_ context.Context, name string) (*gymflow.Exercise, error) {
	name = strings.TrimSpace(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.exercises {
		if strings.EqualFold(e.Name, name) {
			e := e
			return &e, nil
		}
	}
	return nil, ErrExerciseNotFound
}

func (s *MemoryStore) ListExercises(_ context.Context) ([]*gymflow.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exercises := make([]*gymflow.Exercise, 0, len(s.exercises))
	for _, e := range s.exercises {
		e := e
		exercises = append(exercises, &e)
	}
	sort.Slice(exercises, func(i, j int) bool {
		return strings.ToLower(exercises[i].Name) < strings.ToLower(exercises[j].Name)
	})
	return exercises, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, ns gymflow.NewSession) (*gymflow.Session, error) {
	if err := checkPlanUnique(ns.ExerciseIDs); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[ns.MemberID]
	if !ok {
		return nil, ErrMemberNotFound
	}

	session := gymflow.Session{
		ID:         uuid.New(),
		MemberID:   ns.MemberID,
		MemberName: member.Name,
		Date:       gymflow.DateOnly(ns.Date),
		Notes:      ns.Notes,
		CreatedAt:  nowUTC(),
	}

	planned := make([]gymflow.PlannedExercise, 0, len(ns.ExerciseIDs))
	for i, exerciseID := range ns.ExerciseIDs {
		exercise, ok := s.exercises[exerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
		}
		planned = append(planned, gymflow.PlannedExercise{
			ID:           uuid.New(),
			SessionID:    session.ID,
			ExerciseID:   exerciseID,
			ExerciseName: exercise.Name,
			OrderIndex:   i + 1,
		})
	}

	s.sessions[session.ID] = session
	s.planned[session.ID] = planned
	return &session, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (*gymflow.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.MemberName = s.members[session.MemberID].Name
	return &session, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, filter SessionFilter) ([]*gymflow.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*gymflow.Session, 0)
	for _, session := range s.sessions {
		session := session
		if !filter.match(&session) {
			continue
		}
		session.MemberName = s.members[session.MemberID].Name
		sessions = append(sessions, &session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.After(sessions[j].Date)
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *MemoryStore) ListPlannedExercises(_ context.Context, sessionID uuid.UUID) ([]*gymflow.PlannedExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	planned := make([]*gymflow.PlannedExercise, 0, len(s.planned[sessionID]))
	for _, p := range s.planned[sessionID] {
		p := p
		p.ExerciseName = s.exercises[p.ExerciseID].Name
		planned = append(planned, &p)
	}
	return planned, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	s.deleteSessionLocked(id)
	return nil
}

func (s *MemoryStore) deleteSessionLocked(id uuid.UUID) {
	for _, r := range s.results[id] {
		delete(s.setKeys, setKey{r.SessionID, r.ExerciseID, r.SetNumber})
	}
	delete(s.sessions, id)
	delete(s.planned, id)
	delete(s.results, id)
}

func (s *MemoryStore) MaxSetNumber(_ context.Context, sessionID, exerciseID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxSet := 0
	for _, r := range s.results[sessionID] {
		if r.ExerciseID == exerciseID && r.SetNumber > maxSet {
			maxSet = r.SetNumber
		}
	}
	return maxSet, nil
}

func (s *MemoryStore) AddSetResult(_ context.Context, result gymflow.SetResult) (*gymflow.SetResult, error) {
	if err := prepareSetResult(&result); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[result.SessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	if _, ok := s.exercises[result.ExerciseID]; !ok {
		return nil, ErrExerciseNotFound
	}
	key := setKey{result.SessionID, result.ExerciseID, result.SetNumber}
	if s.setKeys[key] {
		return nil, fmt.Errorf("%w: %d", ErrSetNumberTaken, result.SetNumber)
	}
	s.setKeys[key] = true
	s.results[result.SessionID] = append(s.results[result.SessionID], result)
	return &result, nil
}

func (s *MemoryStore) ListSetResults(_ context.Context, sessionID uuid.UUID) ([]*gymflow.SetResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	results := make([]*gymflow.SetResult, 0, len(s.results[sessionID]))
	for _, r := range s.results[sessionID] {
		r := r
		results = append(results, &r)
	}
	sortSetResults(results)
	return results, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
