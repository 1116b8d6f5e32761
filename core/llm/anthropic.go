package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/siherrmann/docqa/model"
)

const (
	ProviderAnthropic     = "anthropic"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	// The messages API requires max_tokens
	defaultAnthropicMaxTokens = 1024
)

// AnthropicConfig configures the Anthropic messages API
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// AnthropicModel generates answers with the messages API
type AnthropicModel struct {
	client anthropic.Client
	model  string
}

var _ LanguageModel = (*AnthropicModel)(nil)

// NewAnthropicModel creates a messages model with SDK retries disabled
func NewAnthropicModel(config AnthropicConfig) *AnthropicModel {
	if config.Model == "" {
		config.Model = DefaultAnthropicModel
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

	return &AnthropicModel{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
	}
}

// Generate sends one user message and joins the returned text blocks
func (m *AnthropicModel) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &model.LanguageModelError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &model.LanguageModelError{Provider: ProviderAnthropic, Err: err}
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &model.LanguageModelError{Provider: ProviderAnthropic, Err: fmt.Errorf("response has no text content")}
	}

	return b.String(), nil
}

// ModelName returns the messages model
func (m *AnthropicModel) ModelName() string {
	return m.model
}
