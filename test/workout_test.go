package test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/planner"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
)

func (s *IntegrationTestSuite) addMember(ctx context.Context, token string) gymflow.Member {
	var member gymflow.Member
	s.doJSON(ctx, http.MethodPost, "/members", token, map[string]string{"name": gofakeit.Name()}, http.StatusCreated, &member)
	return member
}

func (s *IntegrationTestSuite) exerciseIDs(ctx context.Context, token string, names ...string) []uuid.UUID {
	var list []*gymflow.Exercise
	s.doJSON(ctx, http.MethodGet, "/exercises", token, nil, http.StatusOK, &list)
	byName := make(map[string]uuid.UUID, len(list))
	for _, e := range list {
		byName[e.Name] = e.ID
	}
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		require.True(s.T(), ok, "exercise %s not seeded", name)
		ids = append(ids, id)
	}
	return ids
}

// planSession plans the named library exercises plus one custom exercise
// through the draft endpoints and returns the submitted plan.
func (s *IntegrationTestSuite) planSession(ctx context.Context, token string, memberID uuid.UUID, date string) planner.SubmitResponse {
	t := s.T()

	var draft planner.Draft
	s.doJSON(ctx, http.MethodPost, "/plans", token, nil, http.StatusCreated, &draft)
	assert.Equal(t, planner.StateIdle, draft.State)
	draftPath := "/plans/" + draft.ID.String()

	notes := "integration"
	s.doJSON(ctx, http.MethodPut, draftPath, token, planner.UpdateDraftRequest{
		MemberID: &memberID,
		Date:     &date,
		Notes:    &notes,
	}, http.StatusOK, &draft)
	assert.Equal(t, planner.StateDrafting, draft.State)

	for _, id := range s.exerciseIDs(ctx, token, "Bench Press", "Deadlift", "Squat", "Overhead Press") {
		s.doJSON(ctx, http.MethodPost, draftPath+"/exercises", token, planner.AddExerciseRequest{ExerciseID: id}, http.StatusOK, &draft)
	}

	// fewer than the minimum cannot be submitted
	resp, _ := s.doRequest(ctx, http.MethodPost, draftPath+"/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s.doJSON(ctx, http.MethodPost, draftPath+"/custom", token, planner.AddCustomRequest{Name: "Sled Push"}, http.StatusOK, &draft)
	require.Len(t, draft.Exercises, 5)

	var submitted planner.SubmitResponse
	s.doJSON(ctx, http.MethodPost, draftPath+"/submit", token, nil, http.StatusCreated, &submitted)
	require.NotNil(t, submitted.Session)
	assert.Equal(t, planner.StateDone, submitted.Draft.State)
	return submitted
}

func (s *IntegrationTestSuite) TestWorkoutFlow() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.doLogin(ctx)
	member := s.addMember(ctx, token)
	submitted := s.planSession(ctx, token, member.ID, "2026-03-02")
	session := submitted.Session
	assert.Equal(t, member.ID, session.MemberID)
	assert.Equal(t, "2026-03-02", session.Date.Format("2006-01-02"))

	bench := submitted.Draft.Exercises[0].ID
	deadlift := submitted.Draft.Exercises[1].ID
	sled := submitted.Draft.Exercises[4].ID
	resultsPath := func(exerciseID uuid.UUID) string {
		return fmt.Sprintf("/sessions/%s/exercises/%s/results", session.ID, exerciseID)
	}

	// voice: the client sends its own transcript
	var voice sessions.CaptureResponse
	s.doJSON(ctx, http.MethodPost, resultsPath(bench), token, sessions.RecordRequest{
		Transcript: "8 reps at 135 pounds",
	}, http.StatusCreated, &voice)
	require.NotNil(t, voice.SetResult)
	assert.Equal(t, gymflow.SourceVoice, voice.Source)
	assert.Equal(t, 1, voice.SetResult.SetNumber)
	assert.Equal(t, 8, voice.SetResult.Reps)
	require.NotNil(t, voice.SetResult.Weight)
	assert.Equal(t, 135.0, *voice.SetResult.Weight)
	assert.Equal(t, gymflow.UnitLb, voice.SetResult.Unit)

	// unreadable transcript falls back to the manual fields
	var manual sessions.CaptureResponse
	s.doJSON(ctx, http.MethodPost, resultsPath(bench), token, sessions.RecordRequest{
		Transcript: "eight reps",
		Reps:       "6",
		Weight:     "70",
		Unit:       "kg",
	}, http.StatusCreated, &manual)
	require.NotNil(t, manual.SetResult)
	assert.Equal(t, gymflow.SourceManual, manual.Source)
	assert.Equal(t, "unparsable_transcript", manual.Fallback)
	assert.Equal(t, 2, manual.SetResult.SetNumber)
	assert.Equal(t, gymflow.UnitKg, manual.SetResult.Unit)

	// no transcript, no speech backend, no manual reps: nothing stored
	var aborted sessions.CaptureResponse
	s.doJSON(ctx, http.MethodPost, resultsPath(deadlift), token, sessions.RecordRequest{}, http.StatusOK, &aborted)
	assert.True(t, aborted.Aborted)
	assert.Equal(t, "speech_unavailable", aborted.Fallback)
	assert.Nil(t, aborted.SetResult)

	var scheme sessions.SchemeResponse
	s.doJSON(ctx, http.MethodPost, fmt.Sprintf("/sessions/%s/exercises/%s/scheme", session.ID, sled), token,
		sessions.SchemeRequest{Transcript: "3 sets of 10 reps at 90 pounds"}, http.StatusCreated, &scheme)
	require.Len(t, scheme.SetResults, 3)
	assert.Equal(t, 3, scheme.SetResults[2].SetNumber)
	assert.Equal(t, gymflow.SourceScheme, scheme.SetResults[0].Source)

	// exercise not in the plan
	leg := s.exerciseIDs(ctx, token, "Leg Press")[0]
	resp, _ := s.doRequest(ctx, http.MethodPost, resultsPath(leg), token, sessions.RecordRequest{Transcript: "8 reps"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var detail sessions.SessionDetail
	s.doJSON(ctx, http.MethodGet, "/sessions/"+session.ID.String(), token, nil, http.StatusOK, &detail)
	require.Len(t, detail.Exercises, 5)
	assert.Equal(t, "Bench Press", detail.Exercises[0].ExerciseName)
	assert.Len(t, detail.Exercises[0].Sets, 2)
	assert.Empty(t, detail.Exercises[1].Sets)
	assert.Equal(t, "Sled Push", detail.Exercises[4].ExerciseName)
	assert.Len(t, detail.Exercises[4].Sets, 3)
	assert.Equal(t, 5, detail.SetCount())

	var count int
	require.NoError(t, s.dbPool.QueryRow(ctx,
		"SELECT COUNT(*) FROM set_results WHERE session_id = $1", session.ID,
	).Scan(&count))
	assert.Equal(t, 5, count)

	var list []*gymflow.Session
	s.doJSON(ctx, http.MethodGet, "/sessions?member_id="+member.ID.String(), token, nil, http.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, member.Name, list[0].MemberName)

	s.doJSON(ctx, http.MethodGet, "/sessions?member_id="+member.ID.String()+"&from=2026-04-01", token, nil, http.StatusOK, &list)
	assert.Empty(t, list)

	// no llm key configured
	resp, _ = s.doRequest(ctx, http.MethodPost, fmt.Sprintf("/members/%s/insights", member.ID), token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = s.doRequest(ctx, http.MethodDelete, "/sessions/"+session.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.doRequest(ctx, http.MethodGet, "/sessions/"+session.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestMembers() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.doLogin(ctx)
	first := s.addMember(ctx, token)
	s.addMember(ctx, token)

	var list []*gymflow.Member
	s.doJSON(ctx, http.MethodGet, "/members", token, nil, http.StatusOK, &list)
	assert.Len(t, list, 2)

	var got gymflow.Member
	s.doJSON(ctx, http.MethodGet, "/members/"+first.ID.String(), token, nil, http.StatusOK, &got)
	assert.Equal(t, first.Name, got.Name)

	resp, _ := s.doRequest(ctx, http.MethodPost, "/members", token, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.doRequest(ctx, http.MethodGet, "/members/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
