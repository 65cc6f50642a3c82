package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/metrics"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

const (
	megabyte = 1024 * 1024

	kindInsights = "insights"
	kindScan     = "scan"

	insightsMaxTokens = 1500
	scanMaxTokens     = 4096
)

var ErrNoHistory = errors.New("member has no workout history")

type serviceStore interface {
	GetMember(ctx context.Context, id uuid.UUID) (*gymflow.Member, error)
	CreateSession(ctx context.Context, session gymflow.NewSession) (*gymflow.Session, error)
	AddSetResult(ctx context.Context, result gymflow.SetResult) (*gymflow.SetResult, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

type memberHistory interface {
	MemberHistory(ctx context.Context, filter storage.SessionFilter) ([]*sessions.SessionDetail, error)
}

type customExercises interface {
	AddCustom(ctx context.Context, name string) (*gymflow.Exercise, bool, error)
}

type Insights struct {
	MemberID     uuid.UUID `json:"memberId"`
	MemberName   string    `json:"memberName"`
	SessionCount int       `json:"sessionCount"`
	Analysis     string    `json:"analysis"`
	Provider     string    `json:"provider"`
	Cached       bool      `json:"cached"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

type ScanImport struct {
	MemberID   uuid.UUID   `json:"memberId"`
	SessionIDs []uuid.UUID `json:"sessionIds"`
	Exercises  int         `json:"exercises"`
	SetResults int         `json:"setResults"`
}

type ServiceParams struct {
	Provider          Provider
	Store             serviceStore
	History           memberHistory
	Exercises         customExercises
	Metrics           *metrics.Manager
	CacheSizeMB       int
	CacheTTLSeconds   int
	RequestsPerSecond float64
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	provider  Provider
	store     serviceStore
	history   memberHistory
	exercises customExercises
	metrics   *metrics.Manager
	cache     *freecache.Cache
	cacheTTL  int
	limiter   *rate.Limiter
	now       func() time.Time
}

func NewService(params ServiceParams) *Service {
	if params.CacheSizeMB <= 0 {
		params.CacheSizeMB = 10
	}
	if params.CacheTTLSeconds <= 0 {
		params.CacheTTLSeconds = 60 * 60
	}
	limit := rate.Inf
	if params.RequestsPerSecond > 0 {
		limit = rate.Limit(params.RequestsPerSecond)
	}
	if params.Now == nil {
		params.Now = time.Now
	}

	return &Service{
		provider:  params.Provider,
		store:     params.Store,
		history:   params.History,
		exercises: params.Exercises,
		metrics:   params.Metrics,
		cache:     freecache.NewCache(params.CacheSizeMB * megabyte),
		cacheTTL:  params.CacheTTLSeconds,
		limiter:   rate.NewLimiter(limit, 1),
		now:       params.Now,
	}
}

func (s *Service) Available() bool {
	return s.provider != nil
}

// Insights returns the trainer analysis of the member's whole history. The
// same history is analysed once per cache TTL.
func (s *Service) Insights(ctx context.Context, memberID uuid.UUID) (_ *Insights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "insights.service.insights")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.provider == nil {
		return nil, ErrProviderDisabled
	}

	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	details, err := s.history.MemberHistory(ctx, storage.SessionFilter{MemberID: &memberID})
	if err != nil {
		return nil, fmt.Errorf("member history: %w", err)
	}
	history := HistoryText(details)
	if history == "" {
		return nil, ErrNoHistory
	}

	prompt := TrainerPrompt(member.Name, history)
	cacheKey := cacheKeyFor(s.provider.Name(), prompt)
	if cachedBytes, err := s.cache.Get(cacheKey); err == nil {
		cached := &Insights{}
		if err := json.Unmarshal(cachedBytes, cached); err == nil {
			log.Tracef("insights for member %s found in cache", memberID)
			cached.Cached = true
			return cached, nil
		} else {
			log.Errorf("failed to unmarshal cached insights for member %s: %s", memberID, err)
		}
	}

	analysis, err := s.complete(ctx, kindInsights, CompletionRequest{
		System:    trainerSystem,
		Prompt:    prompt,
		MaxTokens: insightsMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	result := &Insights{
		MemberID:     memberID,
		MemberName:   member.Name,
		SessionCount: len(details),
		Analysis:     analysis,
		Provider:     s.provider.Name(),
		GeneratedAt:  s.now().UTC(),
	}
	if resultBytes, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(cacheKey, resultBytes, s.cacheTTL); err != nil {
			log.Errorf("failed to cache insights for member %s: %s", memberID, err)
		}
	}
	return result, nil
}

// ImportScan reads workouts from a photo of a paper log and stores each one
// as a session of the member, with scanned exercises planned in the order
// they appear. The import is all or nothing for sessions: when one fails, the
// sessions already created are deleted again. Custom exercises it created stay.
func (s *Service) ImportScan(ctx context.Context, memberID uuid.UUID, image Image) (_ *ScanImport, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "insights.service.importscan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.provider == nil {
		return nil, ErrProviderDisabled
	}

	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}

	answer, err := s.complete(ctx, kindScan, CompletionRequest{
		Prompt:    scanPrompt,
		Image:     &image,
		MaxTokens: scanMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	scanned, err := ParseScannedLog(answer, s.now())
	if err != nil {
		return nil, err
	}

	imported := &ScanImport{
		MemberID:   memberID,
		SessionIDs: make([]uuid.UUID, 0, len(scanned)),
	}
	for _, ss := range scanned {
		if err := s.importSession(ctx, memberID, ss, imported); err != nil {
			s.rollbackImport(ctx, imported.SessionIDs)
			return nil, err
		}
	}
	if s.metrics != nil {
		s.metrics.CounterSetResults.WithLabelValues(string(gymflow.SourceScan)).Add(float64(imported.SetResults))
	}

	log.Debugf("scan import for member %s: %d sessions, %d sets", memberID, len(imported.SessionIDs), imported.SetResults)
	return imported, nil
}

func (s *Service) importSession(ctx context.Context, memberID uuid.UUID, ss ScannedSession, imported *ScanImport) error {
	// the same exercise written twice in one session continues its set numbering
	order := make([]uuid.UUID, 0, len(ss.Exercises))
	sets := make(map[uuid.UUID][]ScannedExercise)
	for _, se := range ss.Exercises {
		exercise, _, err := s.exercises.AddCustom(ctx, se.Name)
		if err != nil {
			return fmt.Errorf("exercise %q: %w", se.Name, err)
		}
		if _, seen := sets[exercise.ID]; !seen {
			order = append(order, exercise.ID)
		}
		sets[exercise.ID] = append(sets[exercise.ID], se)
	}

	session, err := s.store.CreateSession(ctx, gymflow.NewSession{
		MemberID:    memberID,
		Date:        ss.Date,
		Notes:       gymflow.TrimmedOrNil("Imported from a scanned paper log"),
		ExerciseIDs: order,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	imported.SessionIDs = append(imported.SessionIDs, session.ID)
	imported.Exercises += len(order)

	for _, exerciseID := range order {
		setNumber := 0
		for _, se := range sets[exerciseID] {
			for _, result := range se.Sets {
				setNumber++
				if _, err := s.store.AddSetResult(ctx, gymflow.SetResult{
					SessionID:  session.ID,
					ExerciseID: exerciseID,
					SetNumber:  setNumber,
					Reps:       result.Reps,
					Weight:     result.Weight,
					Unit:       result.Unit,
					Source:     gymflow.SourceScan,
				}); err != nil {
					return fmt.Errorf("add set result: %w", err)
				}
				imported.SetResults++
			}
		}
	}
	return nil
}

// rollbackImport runs even when ctx is already canceled.
func (s *Service) rollbackImport(ctx context.Context, sessionIDs []uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range sessionIDs {
		if err := s.store.DeleteSession(ctx, id); err != nil {
			log.Errorf("scan import rollback, delete session %s: %s", id, err)
		}
	}
}

func (s *Service) complete(ctx context.Context, kind string, req CompletionRequest) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}

	start := time.Now()
	text, err := s.provider.Complete(ctx, req)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.CounterLLMRequests.WithLabelValues(kind, status).Inc()
		s.metrics.HistogramLLMDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", kind, err)
	}
	return text, nil
}

func cacheKeyFor(provider, prompt string) []byte {
	sum := sha256.Sum256([]byte(provider + "\x00" + prompt))
	return []byte("insights::" + hex.EncodeToString(sum[:]))
}
