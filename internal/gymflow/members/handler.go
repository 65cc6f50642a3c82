package members

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=members_test

type membersRepo interface {
	AddMember(ctx context.Context, member gymflow.Member) (*gymflow.Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*gymflow.Member, error)
	ListMembers(ctx context.Context) ([]*gymflow.Member, error)
	DeleteMember(ctx context.Context, id uuid.UUID) error
}

type AddMemberRequest struct {
	Name string `json:"name"`
}

type DeleteMemberResponse struct {
	DeletedID uuid.UUID `json:"deletedId"`
}

type Handler struct {
	repo membersRepo
}

func NewHandler(repo membersRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/members", h.HandleList).Methods("GET", "OPTIONS").Name("list-members")
	r.HandleFunc("/members", h.HandleAdd).Methods("POST", "OPTIONS").Name("add-member")
	r.HandleFunc("/members/{id}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-member")
	r.HandleFunc("/members/{id}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-member")
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.members.add")
	defer span.End()

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add member, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "error, member name empty", http.StatusBadRequest)
		return
	}

	member, err := h.repo.AddMember(ctx, gymflow.Member{Name: req.Name})
	if err != nil {
		log.Errorf("add member [%s]: %s", req.Name, err)
		http.Error(w, "failed to add member", http.StatusInternalServerError)
		return
	}

	log.Debugf("new member added: %s [%s]", member.Name, member.ID)
	pkg.WriteJSON(w, member, http.StatusCreated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.members.list")
	defer span.End()

	members, err := h.repo.ListMembers(ctx)
	if err != nil {
		log.Errorf("list members: %s", err)
		http.Error(w, "failed to list members", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, members, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.members.get")
	defer span.End()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid member id", http.StatusBadRequest)
		return
	}

	member, err := h.repo.GetMember(ctx, id)
	if errors.Is(err, storage.ErrMemberNotFound) {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get member %s: %s", id, err)
		http.Error(w, "failed to get member", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, member, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.members.delete")
	defer span.End()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid member id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteMember(ctx, id); err != nil {
		if errors.Is(err, storage.ErrMemberNotFound) {
			http.Error(w, "member not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete member %s: %s", id, err)
		http.Error(w, "failed to delete member", http.StatusInternalServerError)
		return
	}

	log.Debugf("member deleted: %s", id)
	pkg.WriteJSON(w, DeleteMemberResponse{DeletedID: id}, http.StatusOK)
}
