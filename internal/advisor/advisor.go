// Package advisor wraps the hosted model behind three best-effort
// operations. None of them returns an error: every failure is logged,
// counted and replaced by a fixed fallback.
package advisor

import (
	"context"
	"fmt"
	"time"

	"GuardianAI/internal/models"
	"GuardianAI/pkg/cache"
	"GuardianAI/pkg/config"
	"GuardianAI/pkg/llm"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"

	"go.uber.org/zap"
)

const (
	OpAdvice    = "advice"
	OpRoute     = "route"
	OpSummarize = "summarize"
)

const (
	AdviceFallback     = "I'm having trouble connecting, but please stay in a well-lit area and contact authorities if you feel unsafe."
	RouteEmptyText     = "Unable to generate analysis."
	RouteFallback      = "Unable to analyze routes at the moment. Please stick to main roads and well-lit paths."
	DefaultTemperature = 0.7
)

type Config struct {
	AdviceModel       string
	RouteModel        string
	SummaryModel      string
	AdviceTemperature float32
	// RouteCacheTTL of 0 disables the route cache.
	RouteCacheTTL time.Duration
}

// FromConfig picks the advisor settings out of the process config.
func FromConfig(c config.Config) Config {
	return Config{
		AdviceModel:       c.LLM.AdviceModel,
		RouteModel:        c.LLM.RouteModel,
		SummaryModel:      c.LLM.SummaryModel,
		AdviceTemperature: DefaultTemperature,
		RouteCacheTTL:     c.RouteCacheTTL,
	}
}

type Advisor struct {
	client  llm.LLM
	cfg     Config
	cache   cache.Cache
	lg      *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Advisor)

func WithCache(c cache.Cache) Option {
	return func(a *Advisor) { a.cache = c }
}

func WithLogger(lg *zap.Logger) Option {
	return func(a *Advisor) { a.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Advisor) { a.metrics = m }
}

func New(client llm.LLM, cfg Config, opts ...Option) *Advisor {
	if cfg.AdviceModel == "" {
		cfg.AdviceModel = config.DefaultAdviceModel
	}
	if cfg.RouteModel == "" {
		cfg.RouteModel = config.DefaultRouteModel
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = config.DefaultSummaryModel
	}
	if cfg.AdviceTemperature == 0 {
		cfg.AdviceTemperature = DefaultTemperature
	}
	a := &Advisor{client: client, cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.lg == nil {
		a.lg = logger.Named("advisor")
	}
	return a
}

// generate runs one model call and records its outcome.
func (a *Advisor) generate(ctx context.Context, op string, req llm.Request) (*llm.Response, error) {
	start := time.Now()
	resp, err := a.client.Generate(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.metrics.RecordLLMCall(op, a.client.Provider(), outcome, time.Since(start))
	if err == nil && resp == nil {
		resp = &llm.Response{}
	}
	return resp, err
}

func (a *Advisor) fallback(op, reason string, err error) {
	a.metrics.RecordFallback(op, reason)
	fields := []zap.Field{zap.String("op", op), zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	a.lg.Warn("advisor fell back", fields...)
}

func systemInstruction(situation string) string {
	if situation == "" {
		situation = "None"
	}
	return "You are GuardianAI, a specialized safety assistant for women. " +
		"Provide practical, de-escalating, and empathetic safety advice. " +
		"If the user is in immediate danger, prioritize telling them to use the SOS button or call local emergency services (e.g., 911). " +
		"Context provided: " + situation + ". Keep responses concise and actionable."
}

// GetSafetyAdvice answers free-form user text. situation is optional extra
// context interpolated into the system instruction.
func (a *Advisor) GetSafetyAdvice(ctx context.Context, userText, situation string) string {
	resp, err := a.generate(ctx, OpAdvice, llm.Request{
		Model:       a.cfg.AdviceModel,
		System:      systemInstruction(situation),
		Prompt:      userText,
		Temperature: llm.Float32(a.cfg.AdviceTemperature),
	})
	if err != nil {
		a.fallback(OpAdvice, "error", err)
		return AdviceFallback
	}
	if resp.Text == "" {
		a.fallback(OpAdvice, "empty", nil)
		return AdviceFallback
	}
	return resp.Text
}

func routePrompt(origin, destination string, lat, lng float64) string {
	return fmt.Sprintf("Analyze the safety of traveling from \"%s\" to \"%s\" near my current location at (%v, %v). "+
		"Identify well-lit streets, busy commercial areas, and any safety considerations for a woman traveling this route. "+
		"Provide a concise safety analysis and 3 specific route tips.", origin, destination, lat, lng)
}

func routeCacheKey(origin, destination string, lat, lng float64) string {
	return fmt.Sprintf("route:%s|%s|%.3f,%.3f", origin, destination, lat, lng)
}

// GetRouteSafetyAnalysis asks for a grounded analysis of a route near the
// given point. Citations are empty on failure.
func (a *Advisor) GetRouteSafetyAnalysis(ctx context.Context, origin, destination string, lat, lng float64) models.RouteAnalysis {
	key := routeCacheKey(origin, destination, lat, lng)
	if a.cache != nil && a.cfg.RouteCacheTTL > 0 {
		var cached models.RouteAnalysis
		if cache.GetJSON(ctx, a.cache, key, &cached) {
			a.metrics.RecordCacheHit(OpRoute)
			return cached
		}
		a.metrics.RecordCacheMiss(OpRoute)
	}

	resp, err := a.generate(ctx, OpRoute, llm.Request{
		Model:         a.cfg.RouteModel,
		Prompt:        routePrompt(origin, destination, lat, lng),
		MapsGrounding: &llm.LatLng{Latitude: lat, Longitude: lng},
	})
	if err != nil {
		a.fallback(OpRoute, "error", err)
		return models.RouteAnalysis{Text: RouteFallback, GroundingChunks: []models.GroundingChunk{}}
	}

	out := models.RouteAnalysis{Text: resp.Text, GroundingChunks: make([]models.GroundingChunk, 0, len(resp.GroundingChunks))}
	for _, c := range resp.GroundingChunks {
		out.GroundingChunks = append(out.GroundingChunks, models.GroundingChunk{
			SourceURI:      c.URI,
			Title:          c.Title,
			ReviewSnippets: c.ReviewSnippets,
		})
	}
	if out.Text == "" {
		a.fallback(OpRoute, "empty", nil)
		out.Text = RouteEmptyText
		return out
	}

	if a.cache != nil && a.cfg.RouteCacheTTL > 0 {
		if err := cache.SetJSON(ctx, a.cache, key, out, a.cfg.RouteCacheTTL); err != nil {
			a.lg.Warn("route cache write failed", zap.Error(err))
		}
	}
	return out
}

// IncidentSchema constrains the summarizer output.
var IncidentSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"title":   {Type: llm.TypeString},
		"summary": {Type: llm.TypeString},
		"urgency": {
			Type: llm.TypeString,
			Enum: []string{string(models.UrgencyLow), string(models.UrgencyMedium), string(models.UrgencyHigh)},
		},
		"suggestedActions": {
			Type:  llm.TypeArray,
			Items: &llm.Schema{Type: llm.TypeString},
		},
	},
	Required: []string{"title", "summary", "urgency", "suggestedActions"},
}

type rawSummary struct {
	Title            *string   `json:"title"`
	Summary          *string   `json:"summary"`
	Urgency          *string   `json:"urgency"`
	SuggestedActions *[]string `json:"suggestedActions"`
}

// SummarizeIncident turns a free-text description into a structured
// summary. It returns nil when the call fails or the output does not match
// IncidentSchema.
func (a *Advisor) SummarizeIncident(ctx context.Context, description string) *models.IncidentSummary {
	resp, err := a.generate(ctx, OpSummarize, llm.Request{
		Model:          a.cfg.SummaryModel,
		Prompt:         "Summarize the following incident for a formal report: " + description,
		ResponseSchema: IncidentSchema,
	})
	if err != nil {
		a.fallback(OpSummarize, "error", err)
		return nil
	}

	var raw rawSummary
	if err := llm.Decode(resp.Text, &raw); err != nil {
		a.fallback(OpSummarize, "malformed", err)
		return nil
	}
	if raw.Title == nil || raw.Summary == nil || raw.Urgency == nil || raw.SuggestedActions == nil {
		a.fallback(OpSummarize, "missing_field", nil)
		return nil
	}
	urgency := models.Urgency(*raw.Urgency)
	if !urgency.Valid() {
		a.fallback(OpSummarize, "invalid_urgency", fmt.Errorf("urgency %q", *raw.Urgency))
		return nil
	}
	return &models.IncidentSummary{
		Title:            *raw.Title,
		Summary:          *raw.Summary,
		Urgency:          urgency,
		SuggestedActions: *raw.SuggestedActions,
	}
}
