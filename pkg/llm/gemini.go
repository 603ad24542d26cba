package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiHandler calls generateContent through the genai client.
type GeminiHandler struct {
	client *genai.Client
	// initErr is returned by every Generate call when the client could not
	// be built, typically because no API key is configured.
	initErr error
	logger  *logrus.Logger
}

func NewGeminiHandler(apiKey, baseURL string, httpClient *http.Client, logger *logrus.Logger) *GeminiHandler {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(baseURL, "/") + "/"
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Warn("gemini client unavailable")
		err = fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiHandler{client: client, initErr: err, logger: logger}
}

func (h *GeminiHandler) Provider() string {
	return ProviderGemini
}

func generateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.ResponseSchema.toGenai()
	}
	if req.MapsGrounding != nil {
		lat, lng := req.MapsGrounding.Latitude, req.MapsGrounding.Longitude
		cfg.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{Latitude: &lat, Longitude: &lng},
			},
		}
	}
	return cfg
}

// Generate sends one generateContent call.
func (h *GeminiHandler) Generate(ctx context.Context, req Request) (*Response, error) {
	if h.initErr != nil {
		return nil, h.initErr
	}
	resp, err := h.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), generateConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", req.Model, err)
	}

	out := &Response{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		h.logger.WithField("model", req.Model).Warn("gemini returned no candidates")
		return out, nil
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		var text strings.Builder
		for _, p := range cand.Content.Parts {
			if p != nil && !p.Thought {
				text.WriteString(p.Text)
			}
		}
		out.Text = text.String()
	}

	if cand.GroundingMetadata != nil {
		for _, gc := range cand.GroundingMetadata.GroundingChunks {
			if c, ok := groundingChunk(gc); ok {
				out.GroundingChunks = append(out.GroundingChunks, c)
			}
		}
	}
	h.logger.WithFields(logrus.Fields{
		"model":     req.Model,
		"finish":    cand.FinishReason,
		"citations": len(out.GroundingChunks),
	}).Debug("gemini generate done")
	return out, nil
}

// groundingChunk prefers the maps source and falls back to the web source.
func groundingChunk(gc *genai.GroundingChunk) (GroundingChunk, bool) {
	if gc == nil {
		return GroundingChunk{}, false
	}
	if m := gc.Maps; m != nil {
		c := GroundingChunk{URI: m.URI, Title: m.Title}
		if m.PlaceAnswerSources != nil {
			for _, r := range m.PlaceAnswerSources.ReviewSnippets {
				switch {
				case r == nil:
				case r.Review != "":
					c.ReviewSnippets = append(c.ReviewSnippets, r.Review)
				case r.Title != "":
					c.ReviewSnippets = append(c.ReviewSnippets, r.Title)
				}
			}
		}
		return c, true
	}
	if w := gc.Web; w != nil {
		return GroundingChunk{URI: w.URI, Title: w.Title}, true
	}
	return GroundingChunk{}, false
}
