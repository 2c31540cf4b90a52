package agents

import (
	"strings"
	"testing"
)

func TestLookupKnownAgents(t *testing.T) {
	for _, id := range []string{"prompt-gen", "html-gen", "pro-ai", "pro-dev"} {
		a := Lookup(id)
		if a.ID != id {
			t.Errorf("Lookup(%q).ID = %q", id, a.ID)
		}
		if a.SystemInstruction == "" {
			t.Errorf("agent %q has no system instruction", id)
		}
	}
}

func TestLookupFallsBackToDefault(t *testing.T) {
	for _, id := range []string{"", "nope", "PROMPT-GEN"} {
		if a := Lookup(id); a.ID != DefaultAgentID {
			t.Errorf("Lookup(%q) = %q, want default", id, a.ID)
		}
	}
}

func TestInstructionCustomOverride(t *testing.T) {
	proAI := Lookup("pro-ai")
	got := Instruction(proAI, "always answer in haiku")
	if !strings.HasPrefix(got, proAI.SystemInstruction) {
		t.Error("override must extend, not replace, the base instruction")
	}
	if !strings.Contains(got, "USER CUSTOM OVERRIDE (STRICT): always answer in haiku") {
		t.Errorf("instruction = %q", got)
	}

	// Agents without the flag ignore overrides.
	promptGen := Lookup("prompt-gen")
	if got := Instruction(promptGen, "ignored"); got != promptGen.SystemInstruction {
		t.Errorf("non-customizable agent picked up override")
	}
}

func TestPremiumGating(t *testing.T) {
	if !Allowed(Lookup("prompt-gen"), false) || !Allowed(Lookup("html-gen"), false) {
		t.Error("free agents must be open to free accounts")
	}
	if Allowed(Lookup("pro-ai"), false) || Allowed(Lookup("pro-dev"), false) {
		t.Error("premium agents must be closed to free accounts")
	}
	if !Allowed(Lookup("pro-ai"), true) {
		t.Error("premium accounts get premium agents")
	}
}

func TestCapabilitiesFor(t *testing.T) {
	free := CapabilitiesFor(false)
	if free.AllowAttachments || free.Unlimited {
		t.Errorf("free capabilities = %+v", free)
	}
	pro := CapabilitiesFor(true)
	if !pro.AllowAttachments || !pro.Unlimited {
		t.Errorf("premium capabilities = %+v", pro)
	}
}
