package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

const dateLayout = "2006-01-02"

type draftPlanner interface {
	New() *Draft
	Get(id uuid.UUID) (*Draft, error)
	Update(ctx context.Context, id uuid.UUID, update DraftUpdate) (*Draft, error)
	AddExercise(ctx context.Context, id, exerciseID uuid.UUID) (*Draft, error)
	AddCustom(ctx context.Context, id uuid.UUID, name string) (*Draft, error)
	RemoveExercise(id, exerciseID uuid.UUID) (*Draft, error)
	Suggestions(ctx context.Context, id uuid.UUID, query string) ([]*gymflow.Exercise, error)
	Submit(ctx context.Context, id uuid.UUID) (*Draft, *gymflow.Session, error)
}

type UpdateDraftRequest struct {
	MemberID *uuid.UUID `json:"memberId"`
	Date     *string    `json:"date"`
	Notes    *string    `json:"notes"`
}

type AddExerciseRequest struct {
	ExerciseID uuid.UUID `json:"exerciseId"`
}

type AddCustomRequest struct {
	Name string `json:"name"`
}

type SubmitResponse struct {
	Draft   *Draft           `json:"draft"`
	Session *gymflow.Session `json:"session"`
}

type Handler struct {
	planner draftPlanner
}

func NewHandler(planner draftPlanner) *Handler {
	return &Handler{
		planner: planner,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/plans", h.HandleNew).Methods("POST", "OPTIONS").Name("new-plan")
	r.HandleFunc("/plans/{id}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/plans/{id}", h.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-plan")
	r.HandleFunc("/plans/{id}/exercises", h.HandleAddExercise).Methods("POST", "OPTIONS").Name("plan-add-exercise")
	r.HandleFunc("/plans/{id}/custom", h.HandleAddCustom).Methods("POST", "OPTIONS").Name("plan-add-custom")
	r.HandleFunc("/plans/{id}/exercises/{exerciseID}", h.HandleRemoveExercise).Methods("DELETE", "OPTIONS").Name("plan-remove-exercise")
	r.HandleFunc("/plans/{id}/suggestions", h.HandleSuggestions).Methods("GET", "OPTIONS").Name("plan-suggestions")
	r.HandleFunc("/plans/{id}/submit", h.HandleSubmit).Methods("POST", "OPTIONS").Name("plan-submit")
}

func (h *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.new")
	defer span.End()

	pkg.WriteJSON(w, h.planner.New(), http.StatusCreated)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.get")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.planner.Get(id)
	if err != nil {
		writeError(w, "get plan", err)
		return
	}
	pkg.WriteJSON(w, d, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.update")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	update := DraftUpdate{
		MemberID: req.MemberID,
		Notes:    req.Notes,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			http.Error(w, "error, invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		update.Date = &date
	}

	d, err := h.planner.Update(ctx, id, update)
	if err != nil {
		writeError(w, "update plan", err)
		return
	}
	pkg.WriteJSON(w, d, http.StatusOK)
}

func (h *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.addexercise")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExerciseID == uuid.Nil {
		http.Error(w, "error, exercise id missing", http.StatusBadRequest)
		return
	}

	d, err := h.planner.AddExercise(ctx, id, req.ExerciseID)
	if err != nil {
		writeError(w, "plan add exercise", err)
		return
	}
	pkg.WriteJSON(w, d, http.StatusOK)
}

func (h *Handler) HandleAddCustom(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.addcustom")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req AddCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.planner.AddCustom(ctx, id, req.Name)
	if err != nil {
		writeError(w, "plan add custom exercise", err)
		return
	}
	pkg.WriteJSON(w, d, http.StatusOK)
}

func (h *Handler) HandleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.removeexercise")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	exerciseID, ok := pathID(w, r, "exerciseID")
	if !ok {
		return
	}

	d, err := h.planner.RemoveExercise(id, exerciseID)
	if err != nil {
		writeError(w, "plan remove exercise", err)
		return
	}
	pkg.WriteJSON(w, d, http.StatusOK)
}

func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.suggestions")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	suggestions, err := h.planner.Suggestions(ctx, id, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "plan suggestions", err)
		return
	}
	pkg.WriteJSON(w, suggestions, http.StatusOK)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.submit")
	defer span.End()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, session, err := h.planner.Submit(ctx, id)
	if err != nil {
		writeError(w, "submit plan", err)
		return
	}
	pkg.WriteJSON(w, SubmitResponse{Draft: d, Session: session}, http.StatusCreated)
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[key])
	if err != nil {
		http.Error(w, "error, invalid "+key, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrDraftNotFound),
		errors.Is(err, storage.ErrMemberNotFound),
		errors.Is(err, storage.ErrExerciseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrPlanFull),
		errors.Is(err, ErrAlreadyPlanned),
		errors.Is(err, ErrNotPlanned),
		errors.Is(err, ErrNoMember),
		errors.Is(err, ErrTooFewExercises),
		errors.Is(err, exercises.ErrEmptyName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
}
