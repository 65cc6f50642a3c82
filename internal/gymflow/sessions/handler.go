package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sessions_test

const (
	dateLayout    = "2006-01-02"
	maxAudioBytes = 10 << 20
)

type setRecorder interface {
	Capture(ctx context.Context, key Key, act capture.Activation, manual capture.ManualEntry) (*CaptureResponse, error)
	RecordScheme(ctx context.Context, key Key, scheme capture.SetScheme) ([]*gymflow.SetResult, error)
}

type historyReader interface {
	List(ctx context.Context, filter storage.SessionFilter) ([]*gymflow.Session, error)
	Detail(ctx context.Context, id uuid.UUID) (*SessionDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordRequest carries a device transcript and the manual fallback fields.
// Reps and weight may be sent as JSON strings or numbers.
type RecordRequest struct {
	Transcript string             `json:"transcript"`
	Reps       capture.FieldValue `json:"reps"`
	Weight     capture.FieldValue `json:"weight"`
	Unit       string             `json:"unit"`
}

type SchemeRequest struct {
	Transcript string `json:"transcript"`
}

type SchemeResponse struct {
	Scheme     capture.SetScheme    `json:"scheme"`
	SetResults []*gymflow.SetResult `json:"setResults"`
}

type Handler struct {
	recorder setRecorder
	history  historyReader
}

func NewHandler(recorder setRecorder, history historyReader) *Handler {
	return &Handler{
		recorder: recorder,
		history:  history,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/sessions", h.HandleList).Methods("GET", "OPTIONS").Name("list-sessions")
	r.HandleFunc("/sessions/{id}", h.HandleDetail).Methods("GET", "OPTIONS").Name("get-session")
	r.HandleFunc("/sessions/{id}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-session")
	r.HandleFunc("/sessions/{id}/exercises/{exerciseID}/results", h.HandleRecord).Methods("POST", "OPTIONS").Name("record-set")
	r.HandleFunc("/sessions/{id}/exercises/{exerciseID}/scheme", h.HandleScheme).Methods("POST", "OPTIONS").Name("record-scheme")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.list")
	defer span.End()

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.history.List(ctx, filter)
	if err != nil {
		log.Errorf("list sessions: %s", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.detail")
	defer span.End()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid session id", http.StatusBadRequest)
		return
	}

	detail, err := h.history.Detail(ctx, id)
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	pkg.WriteJSON(w, detail, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.delete")
	defer span.End()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid session id", http.StatusBadRequest)
		return
	}

	if err := h.history.Delete(ctx, id); err != nil {
		writeError(w, "delete session", err)
		return
	}
	log.Debugf("session deleted: %s", id)
	pkg.WriteResponse(w, pkg.ContentType.Text, id.String(), http.StatusOK)
}

// HandleRecord captures one set: from the uploaded audio clip, from a
// transcript the device already produced, or from the manual fields.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.record")
	defer span.End()

	key, ok := keyFromPath(w, r)
	if !ok {
		return
	}

	var (
		req RecordRequest
		act capture.Activation
	)
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			log.Tracef("record set, parse multipart form: %s", err)
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		req = recordRequestFromForm(r)
		file, header, err := r.FormFile("audio")
		if err == nil {
			defer file.Close()
			act.Audio = file
			act.AudioName = header.Filename
		} else if !errors.Is(err, http.ErrMissingFile) {
			http.Error(w, "invalid audio upload", http.StatusBadRequest)
			return
		}
	case strings.HasPrefix(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Tracef("record set, unmarshal json params: %s", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	default:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		req = recordRequestFromForm(r)
	}
	act.Transcript = req.Transcript

	manual := capture.StaticEntry{Input: capture.ManualInput{
		Reps:   string(req.Reps),
		Weight: string(req.Weight),
		Unit:   req.Unit,
	}}

	resp, err := h.recorder.Capture(ctx, key, act, manual)
	if err != nil {
		writeError(w, "record set", err)
		return
	}
	if resp.Aborted {
		pkg.WriteJSON(w, resp, http.StatusOK)
		return
	}
	pkg.WriteJSON(w, resp, http.StatusCreated)
}

// HandleScheme logs several identical sets from one "3 sets of 10 reps" utterance.
func (h *Handler) HandleScheme(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.scheme")
	defer span.End()

	key, ok := keyFromPath(w, r)
	if !ok {
		return
	}

	var req SchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	scheme, ok := capture.ParseSetScheme(req.Transcript)
	if !ok {
		http.Error(w, "could not find sets and reps in transcript", http.StatusUnprocessableEntity)
		return
	}

	stored, err := h.recorder.RecordScheme(ctx, key, scheme)
	if err != nil {
		writeError(w, "record scheme", err)
		return
	}
	pkg.WriteJSON(w, SchemeResponse{Scheme: scheme, SetResults: stored}, http.StatusCreated)
}

func recordRequestFromForm(r *http.Request) RecordRequest {
	return RecordRequest{
		Transcript: r.FormValue("transcript"),
		Reps:       capture.FieldValue(r.FormValue("reps")),
		Weight:     capture.FieldValue(r.FormValue("weight")),
		Unit:       r.FormValue("unit"),
	}
}

func keyFromPath(w http.ResponseWriter, r *http.Request) (Key, bool) {
	vars := mux.Vars(r)
	sessionID, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "error, invalid session id", http.StatusBadRequest)
		return Key{}, false
	}
	exerciseID, err := uuid.Parse(vars["exerciseID"])
	if err != nil {
		http.Error(w, "error, invalid exercise id", http.StatusBadRequest)
		return Key{}, false
	}
	return Key{SessionID: sessionID, ExerciseID: exerciseID}, true
}

func filterFromQuery(r *http.Request) (storage.SessionFilter, error) {
	var filter storage.SessionFilter
	q := r.URL.Query()
	if v := q.Get("member_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("error, invalid member_id")
		}
		filter.MemberID = &id
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, errors.New("error, invalid from date, expected YYYY-MM-DD")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, errors.New("error, invalid to date, expected YYYY-MM-DD")
		}
		filter.To = &to
	}
	return filter, nil
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrCaptureInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, storage.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, ErrExerciseNotPlanned),
		errors.Is(err, storage.ErrInvalidSetResult):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
}
