// Package reports keeps the community report list shown on the map.
package reports

import (
	"context"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"GuardianAI/internal/models"
	"GuardianAI/pkg/errors"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"
	"GuardianAI/pkg/search"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	IncidentTitle = "Incident Reported"
	SafeZoneTitle = "Safe Zone Marked"

	// JitterDegrees bounds the random offset applied to each axis.
	JitterDegrees = 0.0025

	DashboardRecent = 3
)

var (
	ErrInvalidSubmission = errors.Sentinel(errors.CodeInvalidInput, "report needs a description and a location")
	ErrNotFound          = errors.Sentinel(errors.CodeNotFound, "report not found")
	ErrSearchDisabled    = errors.Sentinel(errors.CodeInternal, "report search is not configured")
)

// Summarizer is the part of the advisor the submission flow needs.
type Summarizer interface {
	SummarizeIncident(ctx context.Context, description string) *models.IncidentSummary
}

type SubmitRequest struct {
	Type        models.ReportType `json:"type"`
	Description string            `json:"description"`
}

type Store struct {
	mu      sync.RWMutex
	reports []models.CommunityReport // newest first

	summarizer Summarizer
	clock      clock.Clock
	randMu     sync.Mutex
	rand       *rand.Rand
	lg         *zap.Logger
	metrics    *metrics.Metrics
	index      search.Engine
	onAdd      []func(models.CommunityReport)
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithRand replaces the jitter source.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rand = r }
}

func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithIndex mirrors every stored report into idx for Search.
func WithIndex(idx search.Engine) Option {
	return func(s *Store) { s.index = idx }
}

// WithoutSeeds starts from an empty list.
func WithoutSeeds() Option {
	return func(s *Store) { s.reports = []models.CommunityReport{} }
}

func New(summarizer Summarizer, opts ...Option) *Store {
	s := &Store{summarizer: summarizer, clock: clock.New()}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(s.clock.Now().UnixNano()))
	}
	if s.lg == nil {
		s.lg = logger.Named("reports")
	}
	if s.reports == nil {
		s.reports = models.SeedReports(s.clock.Now())
	}
	for _, r := range s.reports {
		s.indexReport(context.Background(), r)
	}
	return s
}

// OnAdd registers fn for every accepted report.
func (s *Store) OnAdd(fn func(models.CommunityReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdd = append(s.onAdd, fn)
}

// Submit validates req, summarizes incidents and prepends the new report.
// Nothing is stored and the summarizer is not called when the description
// is blank or the location is unknown.
func (s *Store) Submit(ctx context.Context, req SubmitRequest, location *models.Location) (*models.CommunityReport, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" || location == nil {
		return nil, ErrInvalidSubmission
	}
	if !req.Type.Valid() {
		return nil, errors.WithCodef(errors.CodeInvalidInput, "unknown report type %q", req.Type)
	}

	report := models.CommunityReport{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Description: req.Description,
		Urgency:     models.UrgencyLow,
	}
	summarized := false
	switch req.Type {
	case models.ReportIncident:
		report.Title = IncidentTitle
		if s.summarizer != nil {
			if sum := s.summarizer.SummarizeIncident(ctx, req.Description); sum != nil {
				report.Title = sum.Title
				report.Description = sum.Summary
				report.Urgency = sum.Urgency
				report.SuggestedActions = sum.SuggestedActions
				summarized = true
			}
		}
	case models.ReportSafeZone:
		report.Title = SafeZoneTitle
	}

	report.Lat = location.Lat + s.jitter()
	report.Lng = location.Lng + s.jitter()
	report.Timestamp = s.clock.Now()

	s.mu.Lock()
	s.reports = append([]models.CommunityReport{report}, s.reports...)
	observers := slices.Clone(s.onAdd)
	s.mu.Unlock()

	s.indexReport(ctx, report)
	s.metrics.RecordReport(string(report.Type), summarized)
	s.lg.Info("report added",
		zap.String("id", report.ID),
		zap.String("type", string(report.Type)),
		zap.Bool("summarized", summarized))
	for _, fn := range observers {
		fn(report)
	}
	return &report, nil
}

// jitter is uniform in [-JitterDegrees, JitterDegrees].
func (s *Store) jitter() float64 {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return (s.rand.Float64() - 0.5) * 2 * JitterDegrees
}

// List returns every report, newest first.
func (s *Store) List() []models.CommunityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CommunityReport(nil), s.reports...)
}

// Recent returns at most n reports, newest first.
func (s *Store) Recent(n int) []models.CommunityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.reports) {
		n = len(s.reports)
	}
	if n < 0 {
		n = 0
	}
	return append([]models.CommunityReport(nil), s.reports[:n]...)
}

func (s *Store) Get(id string) (*models.CommunityReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.reports {
		if s.reports[i].ID == id {
			r := s.reports[i]
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Prune drops reports older than maxAge and returns how many went.
func (s *Store) Prune(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-maxAge)

	s.mu.Lock()
	kept := s.reports[:0:0]
	var gone []string
	for _, r := range s.reports {
		if r.Timestamp.Before(cutoff) {
			gone = append(gone, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	removed := len(s.reports) - len(kept)
	s.reports = kept
	s.mu.Unlock()

	if s.index != nil {
		for _, id := range gone {
			if err := s.index.Delete(context.Background(), id); err != nil {
				s.lg.Warn("unindex report failed", zap.String("id", id), zap.Error(err))
			}
		}
	}
	if removed > 0 {
		s.metrics.RecordReportsPruned(removed)
		s.lg.Info("pruned reports", zap.Int("removed", removed), zap.Duration("max_age", maxAge))
	}
	return removed
}

func (s *Store) indexReport(ctx context.Context, r models.CommunityReport) {
	if s.index == nil {
		return
	}
	err := s.index.Index(ctx, search.Doc{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Actions:     r.SuggestedActions,
		Kind:        string(r.Type),
		Urgency:     string(r.Urgency),
		Timestamp:   r.Timestamp,
	})
	if err != nil {
		s.lg.Warn("index report failed", zap.String("id", r.ID), zap.Error(err))
	}
}

// Search runs req against the index and returns the matching reports in
// relevance order. Hits for reports no longer held are skipped.
func (s *Store) Search(ctx context.Context, req search.Request) ([]models.CommunityReport, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	hits, err := s.index.Search(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "search reports")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := make(map[string]int, len(s.reports))
	for i := range s.reports {
		byID[s.reports[i].ID] = i
	}
	out := make([]models.CommunityReport, 0, len(hits))
	for _, h := range hits {
		if i, ok := byID[h.ID]; ok {
			out = append(out, s.reports[i])
		}
	}
	return out, nil
}
