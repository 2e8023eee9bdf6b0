// Package provider resolves capture URLs to known LLM provider identities.
package provider

import (
	"net/url"
	"strings"
)

// DefaultEndpoints contains the hardcoded known-endpoint table.
// Keys are host suffixes, values the canonical provider name.
var DefaultEndpoints = map[string]string{
	"api.openai.com":                    "openai",
	"chatgpt.com":                       "openai",
	"chat.openai.com":                   "openai",
	"api.anthropic.com":                 "anthropic",
	"claude.ai":                         "anthropic",
	"generativelanguage.googleapis.com": "google",
	"gemini.google.com":                 "google",
	"bard.google.com":                   "google",
	"api.mistral.ai":                    "mistral",
	"chat.mistral.ai":                   "mistral",
	"api.cohere.com":                    "cohere",
	"api.cohere.ai":                     "cohere",
	"api.perplexity.ai":                 "perplexity",
	"www.perplexity.ai":                 "perplexity",
	"api.groq.com":                      "groq",
	"api.deepseek.com":                  "deepseek",
	"chat.deepseek.com":                 "deepseek",
	"copilot.microsoft.com":             "microsoft",
	"api.x.ai":                          "xai",
	"grok.com":                          "xai",
}

// Table maps URL hosts to provider names. Extra entries from configuration
// are layered over the defaults; the table is immutable after construction.
type Table struct {
	entries map[string]string
}

// NewTable builds a Table from the defaults plus the given overrides.
// Override keys are host suffixes, same as DefaultEndpoints.
func NewTable(overrides map[string]string) *Table {
	entries := make(map[string]string, len(DefaultEndpoints)+len(overrides))
	for host, name := range DefaultEndpoints {
		entries[strings.ToLower(host)] = name
	}
	for host, name := range overrides {
		entries[strings.ToLower(host)] = name
	}
	return &Table{entries: entries}
}

// Resolve returns the provider name for a capture URL or page origin.
// Unknown hosts resolve to the bare host; unparseable input to "unknown".
func (t *Table) Resolve(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return "unknown"
	}

	// Exact host first, then parent domains: a.b.example.com matches an
	// entry for example.com.
	if name, ok := t.entries[host]; ok {
		return name
	}
	parts := strings.Split(host, ".")
	for i := 1; i < len(parts)-1; i++ {
		if name, ok := t.entries[strings.Join(parts[i:], ".")]; ok {
			return name
		}
	}
	return host
}

// Known reports whether the URL resolves to an entry in the table.
func (t *Table) Known(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	if _, ok := t.entries[host]; ok {
		return true
	}
	parts := strings.Split(host, ".")
	for i := 1; i < len(parts)-1; i++ {
		if _, ok := t.entries[strings.Join(parts[i:], ".")]; ok {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// Tolerate bare hosts without a scheme.
		if !strings.Contains(rawURL, "/") && strings.Contains(rawURL, ".") {
			return strings.ToLower(rawURL)
		}
		return ""
	}
	return strings.ToLower(u.Hostname())
}
