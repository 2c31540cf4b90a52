package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claudeMaxTokens is the output budget for a single reply. The Messages API
// requires an explicit value.
const claudeMaxTokens = 8192

// ClaudeProvider streams chat replies through the Anthropic Messages API.
// It is the alternate backend for agents whose api_type selects Claude.
type ClaudeProvider struct {
	client *anthropic.Client
	apiKey string
}

func NewClaudeProvider(apiKey string) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		// Retry policy lives in the stream orchestrator, not the SDK.
		option.WithMaxRetries(0),
	)
	return &ClaudeProvider{client: &client, apiKey: apiKey}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

// ChatStream opens a streaming Messages call and forwards text deltas to
// onDelta as they arrive.
func (p *ClaudeProvider) ChatStream(ctx context.Context, req ChatRequest, onDelta StreamCallback) error {
	if p.apiKey == "" {
		return ErrNoCredentials
	}

	stream := p.client.Messages.NewStreaming(ctx, buildClaudeParams(req))
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
			onDelta(event.Delta.Text)
		}
	}

	if err := stream.Err(); err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			return NewAPIError(apierr.StatusCode, apierr.Error())
		}
		return fmt.Errorf("claude stream: %w", err)
	}

	return nil
}

// buildClaudeParams translates the provider-neutral request into Messages
// API params. The system instruction becomes a top-level text block; image
// parts become base64 source blocks. Input messages are already strictly
// alternating, which the Messages API requires.
func buildClaudeParams(req ChatRequest) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))

	for _, m := range req.Messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch part.Type {
			case PartImage:
				blocks = append(blocks, anthropic.NewImageBlockBase64(part.MediaType, part.Data))
			default:
				if part.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(part.Text))
				}
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  msgs,
		MaxTokens: claudeMaxTokens,
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		// The Messages API documents temperature in [0, 1].
		t := req.Temperature
		if t > 1 {
			t = 1
		}
		params.Temperature = anthropic.Float(t)
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(req.TopP)
	}

	return params
}
