package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role tags a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content part kinds.
const (
	PartText  = "text"
	PartImage = "image"
)

// ContentPart is one part of a message: either text or inline base64 data.
// The tagged form keeps provider payload construction statically checkable.
type ContentPart struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"` // MIME type, e.g. "image/png"
	Data      string `json:"data,omitempty"`       // base64-encoded payload
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart builds an inline-data content part.
func ImagePart(mediaType, data string) ContentPart {
	return ContentPart{Type: PartImage, MediaType: mediaType, Data: data}
}

// DataURL renders an inline-data part as a data: URL, the form the
// OpenAI-style wire protocol expects for image parts.
func (p ContentPart) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MediaType, p.Data)
}

// Message is a single conversation entry, already role-normalized: callers
// guarantee strict user/assistant alternation starting with a user message.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// Text joins the message's text parts with newlines, skipping non-text parts.
func (m Message) Text() string {
	texts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// HasImage reports whether any part carries inline data.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// ChatRequest is the provider-neutral request payload.
type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	TopP        float64
}

// StreamCallback receives text deltas in arrival order, exactly once each.
type StreamCallback func(delta string)

// StreamingProvider is the upstream LLM backend. ChatStream blocks until the
// stream terminates, forwarding each text delta to onDelta as it arrives.
// Cancelling ctx aborts the in-flight request.
type StreamingProvider interface {
	Name() string
	ChatStream(ctx context.Context, req ChatRequest, onDelta StreamCallback) error
}

// ErrNoCredentials is returned by providers constructed without an API key.
var ErrNoCredentials = errors.New("API key not configured")

// ErrorKind classifies provider errors for the orchestrator's fallback
// decision.
type ErrorKind int

const (
	KindTransient ErrorKind = iota // 5xx and transport-level failures
	KindRateLimit                  // 429
	KindOverloaded                 // 529 or "overloaded" in body
	KindAuth                       // 401, 403: invalid or expired API key
	KindRefusal                    // content-safety or quota block
	KindBadRequest                 // 400: malformed request
	KindFatal                      // everything else
)

// String returns a human-readable label for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimit:
		return "rate_limit"
	case KindOverloaded:
		return "overloaded"
	case KindAuth:
		return "auth"
	case KindRefusal:
		return "refusal"
	case KindBadRequest:
		return "bad_request"
	default:
		return "fatal"
	}
}

// APIError captures an upstream error response with its classification.
type APIError struct {
	StatusCode int
	Body       string
	Kind       ErrorKind
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API returned %d: %s", e.StatusCode, truncate(e.Body, 200))
	}
	return truncate(e.Body, 200)
}

// NewAPIError classifies and wraps an upstream error response.
func NewAPIError(statusCode int, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Body:       body,
		Kind:       Classify(statusCode, body),
	}
}

// Classify determines the error kind from status code and response body.
func Classify(statusCode int, body string) ErrorKind {
	bodyLower := strings.ToLower(body)

	// Content-safety and quota blocks are refusals: a different model may
	// not be blocked, so the orchestrator may still fall back once.
	if strings.Contains(bodyLower, "content_filter") ||
		strings.Contains(bodyLower, "content policy") ||
		strings.Contains(bodyLower, "moderation") ||
		strings.Contains(bodyLower, "safety") ||
		strings.Contains(bodyLower, "quota") ||
		strings.Contains(bodyLower, "insufficient_quota") {
		return KindRefusal
	}

	if statusCode == 429 ||
		strings.Contains(bodyLower, "rate limit") ||
		strings.Contains(bodyLower, "rate_limit") ||
		strings.Contains(bodyLower, "too many requests") {
		return KindRateLimit
	}

	if statusCode == 529 ||
		strings.Contains(bodyLower, "overloaded") ||
		strings.Contains(bodyLower, "capacity") {
		return KindOverloaded
	}

	switch statusCode {
	case 400:
		return KindBadRequest
	case 401, 403:
		return KindAuth
	}
	if statusCode >= 500 {
		return KindTransient
	}
	return KindFatal
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
