package provider

import "testing"

func TestResolveKnownEndpoints(t *testing.T) {
	tbl := NewTable(nil)

	tests := []struct {
		url  string
		want string
	}{
		{"https://api.openai.com/v1/chat/completions", "openai"},
		{"https://api.anthropic.com/v1/messages", "anthropic"},
		{"https://claude.ai/chat/abc", "anthropic"},
		{"https://generativelanguage.googleapis.com/v1beta/models", "google"},
		{"https://api.mistral.ai/v1/chat/completions", "mistral"},
	}
	for _, tt := range tests {
		if got := tbl.Resolve(tt.url); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestResolveSubdomainFallsToParent(t *testing.T) {
	tbl := NewTable(nil)
	if got := tbl.Resolve("https://eu.api.openai.com/v1/chat"); got != "openai" {
		t.Errorf("subdomain should resolve via parent, got %q", got)
	}
}

func TestResolveUnknownHost(t *testing.T) {
	tbl := NewTable(nil)
	if got := tbl.Resolve("https://selfhosted.example.dev/v1/chat"); got != "selfhosted.example.dev" {
		t.Errorf("unknown host should resolve to itself, got %q", got)
	}
	if tbl.Known("https://selfhosted.example.dev/v1/chat") {
		t.Error("unknown host reported as known")
	}
	if got := tbl.Resolve(""); got != "unknown" {
		t.Errorf("empty url: got %q", got)
	}
}

func TestResolveOverrides(t *testing.T) {
	tbl := NewTable(map[string]string{"llm.internal.corp": "internal-llm"})
	if got := tbl.Resolve("https://llm.internal.corp/v1/chat"); got != "internal-llm" {
		t.Errorf("override not applied: %q", got)
	}
	// Defaults survive overriding.
	if got := tbl.Resolve("https://api.openai.com/v1"); got != "openai" {
		t.Errorf("default lost: %q", got)
	}
}
