package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenRouterProvider speaks the OpenAI-style chat completions protocol with
// SSE streaming. The base URL is configurable, so it works against
// OpenRouter, OpenAI, or any compatible endpoint.
type OpenRouterProvider struct {
	client openai.Client
	apiKey string
}

// OpenRouterOptions configures the provider.
type OpenRouterOptions struct {
	APIKey  string
	BaseURL string
	// Referer and Title are the OpenRouter attribution headers. Ignored by
	// other OpenAI-compatible endpoints.
	Referer string
	Title   string
}

func NewOpenRouterProvider(opts OpenRouterOptions) *OpenRouterProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// Retry policy lives in the stream orchestrator, not the SDK.
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Referer != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", opts.Referer))
	}
	if opts.Title != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", opts.Title))
	}

	return &OpenRouterProvider{
		client: openai.NewClient(reqOpts...),
		apiKey: opts.APIKey,
	}
}

func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

// ChatStream opens a streaming chat completion and forwards each non-empty
// text delta to onDelta in arrival order. It returns once the server closes
// the stream or ctx is cancelled.
func (p *OpenRouterProvider) ChatStream(ctx context.Context, req ChatRequest, onDelta StreamCallback) error {
	if p.apiKey == "" {
		return ErrNoCredentials
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, buildCompletionParams(req))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				onDelta(choice.Delta.Content)
			}
		}
	}

	if err := stream.Err(); err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			body := apierr.Message
			if body == "" {
				body = apierr.Error()
			}
			return NewAPIError(apierr.StatusCode, body)
		}
		return fmt.Errorf("openrouter stream: %w", err)
	}

	return nil
}

// buildCompletionParams translates the provider-neutral request into the
// OpenAI wire shape. Image parts become data: URL image_url entries, the
// same form the web client used.
func buildCompletionParams(req ChatRequest) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Text()))
			continue
		}

		if !m.HasImage() {
			msgs = append(msgs, openai.UserMessage(m.Text()))
			continue
		}

		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch part.Type {
			case PartImage:
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: part.DataURL(),
				}))
			default:
				if part.Text != "" {
					parts = append(parts, openai.TextContentPart(part.Text))
				}
			}
		}
		msgs = append(msgs, openai.UserMessage(parts))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}
	return params
}
