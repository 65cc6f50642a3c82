package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

// MaxSearchResults caps GET /exercises?q= like the planner suggestions.
const MaxSearchResults = 8

type catalog interface {
	List(ctx context.Context) ([]*gymflow.Exercise, error)
	Get(ctx context.Context, id uuid.UUID) (*gymflow.Exercise, error)
	Search(ctx context.Context, query string, exclude map[uuid.UUID]bool, limit int) ([]*gymflow.Exercise, error)
	AddCustom(ctx context.Context, name string) (*gymflow.Exercise, bool, error)
}

type AddExerciseRequest struct {
	Name string `json:"name"`
}

type Handler struct {
	catalog catalog
}

func NewHandler(catalog catalog) *Handler {
	return &Handler{
		catalog: catalog,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/exercises", h.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises", h.HandleAdd).Methods("POST", "OPTIONS").Name("add-exercise")
	r.HandleFunc("/exercises/{id}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	var (
		list []*gymflow.Exercise
		err  error
	)
	if r.URL.Query().Has("q") {
		list, err = h.catalog.Search(ctx, r.URL.Query().Get("q"), nil, MaxSearchResults)
	} else {
		list, err = h.catalog.List(ctx)
	}
	if err != nil {
		log.Errorf("list exercises: %s", err)
		http.Error(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid exercise id", http.StatusBadRequest)
		return
	}

	exercise, err := h.catalog.Get(ctx, id)
	if errors.Is(err, storage.ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get exercise %s: %s", id, err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, exercise, http.StatusOK)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add exercise, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	exercise, created, err := h.catalog.AddCustom(ctx, req.Name)
	if errors.Is(err, ErrEmptyName) {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("add custom exercise [%s]: %s", req.Name, err)
		http.Error(w, "failed to add exercise", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		log.Debugf("new custom exercise added: %s [%s]", exercise.Name, exercise.ID)
		status = http.StatusCreated
	}
	pkg.WriteJSON(w, exercise, status)
}
