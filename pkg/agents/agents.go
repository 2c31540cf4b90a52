// Package agents holds the built-in chat agent presets and their access
// rules. Each agent is a system instruction plus gating metadata; the chat
// pipeline itself is agent-agnostic.
package agents

import "fmt"

// Agent is one selectable chat persona.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// APIType selects the provider backend: "openrouter" or "claude".
	APIType           string `json:"api_type"`
	SystemInstruction string `json:"system_instruction"`
	// Premium agents are only available to premium accounts.
	Premium bool `json:"premium"`
	// CustomInstructions marks agents whose system instruction may be
	// extended with a per-user override.
	CustomInstructions bool `json:"custom_instructions"`
}

const DefaultAgentID = "prompt-gen"

// strictRules is appended to every built-in system instruction.
const strictRules = `
Strictly follow these rules:
1. When the user gives a basic idea, suggest trending directions first, then
   produce a complete numbered feature list before writing any code.
2. Wait for the user's feature selection before writing code.
   Tech stack: HTML5, CSS3, Vanilla JS, Font Awesome.
3. File rule: user panel fits in 1 HTML file; admin plus user panel is at
   most 2 HTML files.
4. Realtime database only, no file storage. Images stay on external hosts.
5. Modern UI with a native app look and feel.
6. Never shortcut long output. If a response is cut, continue from the last
   line on request.`

var registry = []Agent{
	{
		ID:                "prompt-gen",
		Name:              "Prompt Generator",
		Description:       "Logic architect",
		APIType:           "openrouter",
		SystemInstruction: "You are a master of engineering AI prompts." + strictRules,
	},
	{
		ID:                "html-gen",
		Name:              "HTML Generator",
		Description:       "Full stack AI",
		APIType:           "openrouter",
		SystemInstruction: "You are an expert web developer." + strictRules,
	},
	{
		ID:                 "pro-ai",
		Name:               "Custom Pro AI",
		Description:        "Smart app builder",
		APIType:            "openrouter",
		SystemInstruction:  "You are an advanced neural logical engine." + strictRules,
		Premium:            true,
		CustomInstructions: true,
	},
	{
		ID:                "pro-dev",
		Name:              "Pro Developer",
		Description:       "System architect",
		APIType:           "openrouter",
		SystemInstruction: "You are a world-class senior software architect." + strictRules,
		Premium:           true,
	},
}

// All returns the built-in agents in display order.
func All() []Agent {
	out := make([]Agent, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the agent with the given ID, falling back to the default
// agent for unknown or empty IDs.
func Lookup(id string) Agent {
	for _, a := range registry {
		if a.ID == id {
			return a
		}
	}
	return registry[0]
}

// Instruction builds the final system instruction for an agent, merging in
// a per-user override when the agent allows one.
func Instruction(a Agent, custom string) string {
	if a.CustomInstructions && custom != "" {
		return fmt.Sprintf("%s\n\nUSER CUSTOM OVERRIDE (STRICT): %s", a.SystemInstruction, custom)
	}
	return a.SystemInstruction
}

// Capabilities are the per-account limits applied to a chat call.
type Capabilities struct {
	// AllowAttachments gates file uploads.
	AllowAttachments bool
	// Unlimited accounts skip quota accounting.
	Unlimited bool
}

// CapabilitiesFor derives account capabilities from the premium flag.
// Attachments are a premium feature.
func CapabilitiesFor(premium bool) Capabilities {
	return Capabilities{
		AllowAttachments: premium,
		Unlimited:        premium,
	}
}

// Allowed reports whether the account may use the agent.
func Allowed(a Agent, premium bool) bool {
	return !a.Premium || premium
}
