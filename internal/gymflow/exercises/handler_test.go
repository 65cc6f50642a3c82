package exercises_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

func setupRouter(t *testing.T) (*mux.Router, *Mockcatalog) {
	t.Helper()
	ctrl := gomock.NewController(t)
	catalogMock := NewMockcatalog(ctrl)
	r := mux.NewRouter()
	exercises.NewHandler(catalogMock).SetupRoutes(r)
	return r, catalogMock
}

func TestHandler_HandleList(t *testing.T) {
	r, catalogMock := setupRouter(t)

	squat := &gymflow.Exercise{ID: uuid.New(), Name: "Squat", MuscleGroup: "Legs"}
	catalogMock.EXPECT().List(gomock.Any()).Return([]*gymflow.Exercise{squat}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exercises", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []gymflow.Exercise
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, squat.ID, list[0].ID)
}

func TestHandler_HandleList_Search(t *testing.T) {
	r, catalogMock := setupRouter(t)

	catalogMock.EXPECT().
		Search(gomock.Any(), "sq", gomock.Nil(), exercises.MaxSearchResults).
		Return([]*gymflow.Exercise{}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exercises?q=sq", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestHandler_HandleList_Error(t *testing.T) {
	r, catalogMock := setupRouter(t)
	catalogMock.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exercises", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_HandleGet(t *testing.T) {
	r, catalogMock := setupRouter(t)

	id := uuid.New()
	catalogMock.EXPECT().Get(gomock.Any(), id).Return(&gymflow.Exercise{ID: id, Name: "Squat"}, nil)
	missing := uuid.New()
	catalogMock.EXPECT().Get(gomock.Any(), missing).Return(nil, storage.ErrExerciseNotFound)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exercises/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Squat"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exercises/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exercises/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HandleAdd(t *testing.T) {
	r, catalogMock := setupRouter(t)

	created := &gymflow.Exercise{ID: uuid.New(), Name: "Sled Push", IsCustom: true}
	catalogMock.EXPECT().AddCustom(gomock.Any(), "Sled Push").Return(created, true, nil)
	catalogMock.EXPECT().AddCustom(gomock.Any(), "squat").Return(&gymflow.Exercise{ID: uuid.New(), Name: "Squat"}, false, nil)
	catalogMock.EXPECT().AddCustom(gomock.Any(), "").Return(nil, false, exercises.ErrEmptyName)

	testCases := []struct {
		body       string
		wantStatus int
	}{
		{body: `{"name":"Sled Push"}`, wantStatus: http.StatusCreated},
		{body: `{"name":"squat"}`, wantStatus: http.StatusOK},
		{body: `{"name":""}`, wantStatus: http.StatusBadRequest},
		{body: `{name`, wantStatus: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/exercises", bytes.NewBufferString(tc.body))
		r.ServeHTTP(rec, req)
		assert.Equal(t, tc.wantStatus, rec.Code, tc.body)
	}
}
