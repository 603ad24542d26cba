package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLM is a hosted text generation backend.
type LLM interface {
	// Generate runs one single-turn request. Errors cover transport failures
	// and non-2xx answers; an empty Text is not an error.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Provider names the backend, used as a metrics label.
	Provider() string
}

// Request is one prompt plus its generation options.
type Request struct {
	Model  string
	System string
	Prompt string
	// Temperature is left to the provider default when nil.
	Temperature *float32
	// ResponseSchema switches the provider to JSON output constrained by it.
	ResponseSchema *Schema
	// MapsGrounding enables the maps retrieval tool around the given point.
	MapsGrounding *LatLng
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Response struct {
	Text            string
	GroundingChunks []GroundingChunk
}

// GroundingChunk is a source citation. Every field may be empty.
type GroundingChunk struct {
	URI            string
	Title          string
	ReviewSnippets []string
}

// Options configures a provider client.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Logger   *logrus.Logger
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func Float32(v float32) *float32 {
	return &v
}

// New builds the client for opts.Provider.
func New(opts Options) (LLM, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	switch opts.Provider {
	case "", ProviderGemini:
		return NewGeminiHandler(opts.APIKey, opts.BaseURL, opts.HTTPClient, opts.Logger), nil
	case ProviderOpenAI:
		return NewOpenAIHandler(opts.APIKey, opts.BaseURL, opts.HTTPClient, opts.Logger), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
}
