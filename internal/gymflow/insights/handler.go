package insights

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=insights_test

const maxImageBytes = 10 << 20

type insightsService interface {
	Insights(ctx context.Context, memberID uuid.UUID) (*Insights, error)
	ImportScan(ctx context.Context, memberID uuid.UUID, image Image) (*ScanImport, error)
}

type Handler struct {
	service insightsService
}

func NewHandler(service insightsService) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers the model backed routes. They are expensive, so the
// given middlewares (rate limiting) wrap only these routes.
func (h *Handler) SetupRoutes(r *mux.Router, middlewares ...mux.MiddlewareFunc) {
	memberRouter := r.PathPrefix("/members/{id}").Subrouter()
	memberRouter.HandleFunc("/insights", h.HandleInsights).Methods("POST", "OPTIONS").Name("member-insights")
	memberRouter.HandleFunc("/scan", h.HandleScan).Methods("POST", "OPTIONS").Name("member-scan")
	memberRouter.Use(middlewares...)
}

func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.insights.get")
	defer span.End()

	memberID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid member id", http.StatusBadRequest)
		return
	}

	result, err := h.service.Insights(ctx, memberID)
	if err != nil {
		writeError(w, "generate insights", err)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.insights.scan")
	defer span.End()

	memberID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid member id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		log.Tracef("scan, parse multipart form: %s", err)
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "error, image missing", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read image", http.StatusBadRequest)
		return
	}
	mediaType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		http.Error(w, "error, upload is not an image", http.StatusUnsupportedMediaType)
		return
	}

	imported, err := h.service.ImportScan(ctx, memberID, Image{MediaType: mediaType, Data: data})
	if err != nil {
		writeError(w, "import scan", err)
		return
	}
	pkg.WriteJSON(w, imported, http.StatusCreated)
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrMemberNotFound):
		http.Error(w, "member not found", http.StatusNotFound)
	case errors.Is(err, ErrNoHistory):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrScanUnparsable), errors.Is(err, ErrScanEmpty):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrProviderDisabled):
		http.Error(w, "insights are not available", http.StatusServiceUnavailable)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
}
