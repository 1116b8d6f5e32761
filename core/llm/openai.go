package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/siherrmann/docqa/model"
)

const (
	ProviderOpenAI     = "openai"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIModel generates answers with the chat completions API
type OpenAIModel struct {
	client openai.Client
	model  string
}

var _ LanguageModel = (*OpenAIModel)(nil)

// NewOpenAIModel creates a chat model with SDK retries disabled
func NewOpenAIModel(config OpenAIConfig) *OpenAIModel {
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	return &OpenAIModel{
		client: openai.NewClient(opts...),
		model:  config.Model,
	}
}

// Generate sends the system instruction and prompt as one chat completion
func (m *OpenAIModel) Generate(ctx context.Context, req Request) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(m.model),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &model.LanguageModelError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &model.LanguageModelError{Provider: ProviderOpenAI, Err: err}
	}

	if len(completion.Choices) == 0 {
		return "", &model.LanguageModelError{Provider: ProviderOpenAI, Err: fmt.Errorf("response has no choices")}
	}

	return completion.Choices[0].Message.Content, nil
}

// ModelName returns the chat model
func (m *OpenAIModel) ModelName() string {
	return m.model
}
