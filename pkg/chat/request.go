package chat

import (
	"github.com/alphastudio/neuralcore/pkg/providers"
)

// Attachment is a single inline binary payload bound to the latest user
// turn. It is supplied per call and not retained after the call resolves.
type Attachment struct {
	Data     string `json:"data"` // base64-encoded payload
	MimeType string `json:"mime_type"`
}

// GenerationConfig carries the sampling parameters and model selection for
// one call.
type GenerationConfig struct {
	Model             string
	SystemInstruction string
	Temperature       float64
	TopP              float64
}

// clampTemperature bounds temperature to the [0, 2] range the chat
// completions protocol documents. Caller input is not trusted blindly.
func clampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 2 {
		return 2
	}
	return t
}

// clampTopP bounds nucleus sampling to (0, 1]. Zero means "omit".
func clampTopP(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// BuildRequest assembles the provider payload: one message per normalized
// turn, plus the attachment as an extra inline part on the final message
// when that message is a user turn. An attachment with no user turn to
// carry it is dropped silently; that only happens when the normalized
// history is empty or ends on an assistant turn, and is not an error.
// No side effects, no I/O.
func BuildRequest(turns []NormalizedTurn, cfg GenerationConfig, attachment *Attachment) providers.ChatRequest {
	msgs := make([]providers.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, providers.Message{
			Role:  t.Role,
			Parts: []providers.ContentPart{providers.TextPart(t.Joined())},
		})
	}

	if attachment != nil && len(msgs) > 0 {
		last := &msgs[len(msgs)-1]
		if last.Role == providers.RoleUser {
			last.Parts = append(last.Parts, providers.ImagePart(attachment.MimeType, attachment.Data))
		}
	}

	return providers.ChatRequest{
		Model:       cfg.Model,
		System:      cfg.SystemInstruction,
		Messages:    msgs,
		Temperature: clampTemperature(cfg.Temperature),
		TopP:        clampTopP(cfg.TopP),
	}
}
