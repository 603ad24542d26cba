package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIHandler serves any OpenAI-compatible chat completions endpoint.
// It has no maps tool, so grounded requests come back without citations.
type OpenAIHandler struct {
	client *openai.Client
	logger *logrus.Logger
}

func NewOpenAIHandler(apiKey, baseURL string, httpClient *http.Client, logger *logrus.Logger) *OpenAIHandler {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return &OpenAIHandler{
		client: openai.NewClientWithConfig(config),
		logger: logger,
	}
}

func (h *OpenAIHandler) Provider() string {
	return ProviderOpenAI
}

func (h *OpenAIHandler) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	request := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature != nil {
		request.Temperature = *req.Temperature
	}
	if req.ResponseSchema != nil {
		def := req.ResponseSchema.Definition()
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: &def,
				Strict: true,
			},
		}
	}
	if req.MapsGrounding != nil {
		h.logger.WithField("model", req.Model).Debug("maps grounding is not available on openai providers")
	}

	resp, err := h.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("openai %s: %w", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		h.logger.WithField("model", req.Model).Warn("openai returned no choices")
		return &Response{}, nil
	}
	return &Response{Text: resp.Choices[0].Message.Content}, nil
}
