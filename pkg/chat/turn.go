package chat

import (
	"strings"

	"github.com/alphastudio/neuralcore/pkg/providers"
)

// Turn is one stored transcript entry as the caller holds it. Role is the
// raw stored tag: legacy transcripts carry "model" and other variants for
// assistant turns.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NormalizedTurn is a turn after role-alternation merging, ready for
// payload construction. Texts holds the merged parts in original order.
type NormalizedTurn struct {
	Role  providers.Role
	Texts []string
}

// Joined returns the turn's text parts joined with newlines.
func (n NormalizedTurn) Joined() string {
	return strings.Join(n.Texts, "\n")
}

// mapRole maps a stored role tag to a wire role. Anything that is not
// "user" is treated as assistant, so legacy tags ("model") and malformed
// entries cannot break alternation.
func mapRole(raw string) providers.Role {
	if raw == "user" {
		return providers.RoleUser
	}
	return providers.RoleAssistant
}

// Normalize converts an arbitrary turn sequence into the strict alternating
// form the chat protocols require: blank turns are dropped, consecutive
// same-role turns are merged, and a leading assistant turn is removed since
// the conversation must open with the user. Pure; input order is preserved.
func Normalize(turns []Turn) []NormalizedTurn {
	out := make([]NormalizedTurn, 0, len(turns))

	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := mapRole(t.Role)
		if len(out) > 0 && out[len(out)-1].Role == role {
			last := &out[len(out)-1]
			last.Texts = append(last.Texts, t.Text)
			continue
		}
		out = append(out, NormalizedTurn{Role: role, Texts: []string{t.Text}})
	}

	if len(out) > 0 && out[0].Role == providers.RoleAssistant {
		out = out[1:]
	}

	return out
}
