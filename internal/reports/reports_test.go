package reports

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"GuardianAI/internal/models"
	"GuardianAI/pkg/errors"
	"GuardianAI/pkg/search"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSummarizer struct {
	mu      sync.Mutex
	summary *models.IncidentSummary
	calls   []string
}

func (f *fakeSummarizer) SummarizeIncident(_ context.Context, description string) *models.IncidentSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, description)
	return f.summary
}

// fixedSource makes rand.Float64 return v/2^63.
type fixedSource struct{ v int64 }

func (f fixedSource) Int63() int64 { return f.v }
func (f fixedSource) Seed(int64)   {}

var here = &models.Location{Lat: 37.7749, Lng: -122.4194}

func newTestStore(sum Summarizer, opts ...Option) (*Store, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	opts = append([]Option{WithClock(mock), WithLogger(zap.NewNop()), WithRand(rand.New(fixedSource{1 << 62}))}, opts...)
	return New(sum, opts...), mock
}

func TestStore_Seeded(t *testing.T) {
	s, mock := newTestStore(nil)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID)
	assert.Equal(t, "Suspicious Activity", list[0].Title)
	assert.Equal(t, models.UrgencyMedium, list[0].Urgency)
	assert.Equal(t, mock.Now().Add(-2*time.Hour), list[0].Timestamp)
	assert.Equal(t, models.ReportSafeZone, list[1].Type)
}

func TestSubmit_IncidentSummarized(t *testing.T) {
	sum := &fakeSummarizer{summary: &models.IncidentSummary{
		Title:            "Harassment at bus stop",
		Summary:          "Verbal harassment reported at the 5th St stop.",
		Urgency:          models.UrgencyHigh,
		SuggestedActions: []string{"Wait inside the shop"},
	}}
	s, mock := newTestStore(sum)

	r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportIncident, Description: "guy yelling at me"}, here)
	require.NoError(t, err)
	assert.Equal(t, "Harassment at bus stop", r.Title)
	assert.Equal(t, "Verbal harassment reported at the 5th St stop.", r.Description)
	assert.Equal(t, models.UrgencyHigh, r.Urgency)
	assert.Equal(t, []string{"Wait inside the shop"}, r.SuggestedActions)
	assert.Equal(t, mock.Now(), r.Timestamp)
	assert.Equal(t, []string{"guy yelling at me"}, sum.calls)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, r.ID, s.List()[0].ID)
}

func TestSubmit_IncidentSummarizerFailed(t *testing.T) {
	s, _ := newTestStore(&fakeSummarizer{})

	r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportIncident, Description: "  dark alley, felt unsafe "}, here)
	require.NoError(t, err)
	assert.Equal(t, IncidentTitle, r.Title)
	assert.Equal(t, "  dark alley, felt unsafe ", r.Description)
	assert.Equal(t, models.UrgencyLow, r.Urgency)
	assert.Empty(t, r.SuggestedActions)
}

func TestSubmit_SafeZoneSkipsSummarizer(t *testing.T) {
	sum := &fakeSummarizer{summary: &models.IncidentSummary{Title: "nope"}}
	s, _ := newTestStore(sum)

	r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "open late, staff helpful"}, here)
	require.NoError(t, err)
	assert.Equal(t, SafeZoneTitle, r.Title)
	assert.Equal(t, "open late, staff helpful", r.Description)
	assert.Equal(t, models.UrgencyLow, r.Urgency)
	assert.Empty(t, sum.calls)
}

func TestSubmit_Rejected(t *testing.T) {
	sum := &fakeSummarizer{}
	s, _ := newTestStore(sum)

	_, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportIncident, Description: "   "}, here)
	assert.True(t, errors.Is(err, ErrInvalidSubmission))

	_, err = s.Submit(context.Background(), SubmitRequest{Type: models.ReportIncident, Description: "something"}, nil)
	assert.True(t, errors.Is(err, ErrInvalidSubmission))

	_, err = s.Submit(context.Background(), SubmitRequest{Type: "RUMOR", Description: "something"}, here)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.False(t, errors.Is(err, ErrInvalidSubmission))

	assert.Empty(t, sum.calls)
	assert.Equal(t, 2, s.Len())
}

func TestSubmit_JitterBounds(t *testing.T) {
	cases := []struct {
		source int64
		offset float64
	}{
		{0, -JitterDegrees},
		{1 << 62, 0},
		{1<<63 - 1<<10, JitterDegrees},
	}
	for _, tc := range cases {
		s, _ := newTestStore(nil, WithRand(rand.New(fixedSource{tc.source})))
		r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "x"}, here)
		require.NoError(t, err)
		assert.InDelta(t, here.Lat+tc.offset, r.Lat, 1e-9)
		assert.InDelta(t, here.Lng+tc.offset, r.Lng, 1e-9)
	}
}

func TestSubmit_JitterWithinRange(t *testing.T) {
	s, _ := newTestStore(nil, WithRand(rand.New(rand.NewSource(7))))
	for i := 0; i < 200; i++ {
		r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "x"}, here)
		require.NoError(t, err)
		assert.LessOrEqual(t, abs(r.Lat-here.Lat), JitterDegrees)
		assert.LessOrEqual(t, abs(r.Lng-here.Lng), JitterDegrees)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRecentAndGet(t *testing.T) {
	s, _ := newTestStore(nil)
	var ids []string
	for i := 0; i < 3; i++ {
		r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "x"}, here)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	recent := s.Recent(DashboardRecent)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[0], recent[2].ID)
	assert.Len(t, s.Recent(100), 5)

	got, err := s.Get("r2")
	require.NoError(t, err)
	assert.Equal(t, "Safe Haven: 24/7 Pharmacy", got.Title)

	_, err = s.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 404, errors.HTTPStatus(err))
}

func TestOnAdd(t *testing.T) {
	s, _ := newTestStore(nil, WithoutSeeds())
	var got []models.CommunityReport
	s.OnAdd(func(r models.CommunityReport) { got = append(got, r) })

	_, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "x"}, here)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, SafeZoneTitle, got[0].Title)
}

func TestPrune(t *testing.T) {
	s, mock := newTestStore(nil)
	_, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "x"}, here)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Prune(0))
	assert.Equal(t, 1, s.Prune(12*time.Hour))
	assert.Equal(t, 2, s.Len())

	mock.Add(4 * time.Hour)
	assert.Equal(t, 1, s.Prune(5*time.Hour))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, SafeZoneTitle, s.List()[0].Title)
}

func TestSearch_FollowsStore(t *testing.T) {
	idx, err := search.NewMemory()
	require.NoError(t, err)
	defer idx.Close()

	s, mock := newTestStore(nil, WithIndex(idx))

	got, err := s.Search(context.Background(), search.Request{Query: "pharmacy"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)

	r, err := s.Submit(context.Background(), SubmitRequest{Type: models.ReportSafeZone, Description: "Staffed pharmacy lobby"}, here)
	require.NoError(t, err)

	got, err = s.Search(context.Background(), search.Request{Query: "pharmacy", Kind: string(models.ReportSafeZone)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	mock.Add(12 * time.Hour)
	assert.Equal(t, 2, s.Prune(13*time.Hour))

	got, err = s.Search(context.Background(), search.Request{Query: "pharmacy"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
}

func TestSearch_Disabled(t *testing.T) {
	s, _ := newTestStore(nil)
	_, err := s.Search(context.Background(), search.Request{Query: "x"})
	assert.ErrorIs(t, err, ErrSearchDisabled)
}
