// Package classify evaluates text against named sensitive-content detectors.
//
// Classification is rule-based: each category is a small set of compiled
// regular expressions. The package holds no mutable state beyond the
// read-only builtin pattern table, so Classify is safe to call from any
// number of correlator workers concurrently.
package classify

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/leakwatch/leakwatch/internal/model"
)

// Diagnostic reports a non-fatal classification problem, such as a custom
// pattern that failed to compile. Diagnostics accompany a normal Analysis;
// they never abort the call.
type Diagnostic struct {
	Category model.Category
	Detail   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Category, d.Detail)
}

// Builtin detector patterns. A category may carry more than one expression;
// matches from all of them are merged in order of first occurrence.
var (
	// US social security numbers.
	ssnRe = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	// Email addresses.
	emailRe = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)

	// Phone numbers: optional country code, common US groupings.
	phoneRe = regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)

	// Payment card numbers: four groups of four, separators optional.
	cardRe = regexp.MustCompile(`\b(?:\d{4}[- ]?){3}\d{4}\b`)

	// IPv4 addresses (simple: 4 octets, no validation of range).
	ipv4Re = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	// Confidentiality markers in prose.
	confidentialRe = regexp.MustCompile(`(?i)\b(?:confidential|proprietary|trade secret|internal use only|do not distribute|not for release)\b`)

	// Credentials: key/value pairs where the key suggests a secret and the
	// value is long enough to be one (20+ characters).
	credKVRe = regexp.MustCompile(`(?i)\b(?:password|passwd|secret|token|api[_-]?key|apikey|auth|bearer|credential)["']?[ \t]*[=:][ \t]*["']?[A-Za-z0-9_\-./+]{20,}`)

	// Credentials: well-known token shapes.
	credTokenRe = regexp.MustCompile(`\b(?:AKIA[0-9A-Z]{16}|ghp_[A-Za-z0-9]{36}|sk-[A-Za-z0-9\-_]{20,})\b`)

	// Private key material.
	privKeyRe = regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)

	// Source code: declarations and directives from common languages.
	codeRe = regexp.MustCompile(`(?m)(?:\bfunc\s+\w+\s*\(|\bdef\s+\w+\s*\(|\bclass\s+\w+\s*[:{(]|#include\s*[<"]|\bimport\s+[\w."{(]|\bpublic\s+(?:static\s+)?\w+\s+\w+\s*\()`)

	// SQL statements.
	sqlRe = regexp.MustCompile(`(?i)\b(?:select\s+[\w*,.\s]+\s+from\s+\w+|insert\s+into\s+\w+|update\s+\w+\s+set\s|delete\s+from\s+\w+|drop\s+table\s+\w+|create\s+table\s+\w+)`)
)

// builtins maps each builtin category to its expressions, in the fixed
// evaluation order of model.BuiltinCategories.
var builtins = map[model.Category][]*regexp.Regexp{
	model.CategoryPersonalID:         {ssnRe},
	model.CategoryEmail:              {emailRe},
	model.CategoryPhone:              {phoneRe},
	model.CategoryPaymentCard:        {cardRe},
	model.CategoryIPAddress:          {ipv4Re},
	model.CategoryConfidentialMarker: {confidentialRe},
	model.CategoryCredentialLike:     {credKVRe, credTokenRe, privKeyRe},
	model.CategorySourceCodeLike:     {codeRe},
	model.CategorySQLLike:            {sqlRe},
}

// span is one raw match with its position, used to order matches within a
// category by first occurrence.
type span struct {
	start int
	value string
}

// Classify evaluates text against the enabled builtin categories plus any
// custom patterns and returns the resulting Analysis.
//
// enabled nil means all builtin categories. Custom patterns are raw
// expressions keyed by category name; one that fails to compile is skipped
// and reported as a Diagnostic while the remaining categories still run.
// Empty text yields an empty Analysis, not an error. Matches within a
// category are ordered by first occurrence and kept as-is, duplicates
// included, because scoring is volume-based.
func Classify(text string, enabled map[model.Category]bool, custom map[string]string) (model.Analysis, []Diagnostic) {
	analysis := model.Analysis{
		MatchesByCategory: make(map[model.Category][]string),
	}
	var diags []Diagnostic

	if text == "" {
		return analysis, nil
	}

	record := func(cat model.Category, spans []span) {
		if len(spans) == 0 {
			return
		}
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
		values := make([]string, len(spans))
		for i, s := range spans {
			values[i] = s.value
		}
		analysis.MatchesByCategory[cat] = values
		analysis.CategoriesPresent = append(analysis.CategoriesPresent, cat)
		analysis.TotalMatchCount += len(values)
	}

	for _, cat := range model.BuiltinCategories {
		if enabled != nil && !enabled[cat] {
			continue
		}
		var spans []span
		for _, re := range builtins[cat] {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				spans = append(spans, span{start: loc[0], value: text[loc[0]:loc[1]]})
			}
		}
		record(cat, spans)
	}

	// Custom categories run after builtins, in name order for determinism.
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cat := model.Category(name)
		re, err := regexp.Compile(custom[name])
		if err != nil {
			diags = append(diags, Diagnostic{Category: cat, Detail: fmt.Sprintf("invalid pattern: %v", err)})
			continue
		}
		var spans []span
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], value: text[loc[0]:loc[1]]})
		}
		record(cat, spans)
	}

	for _, cat := range analysis.CategoriesPresent {
		if model.PersonalDataCategories[cat] {
			analysis.HasPersonalData = true
		}
		if model.SecretCategories[cat] {
			analysis.HasSecrets = true
		}
		if cat == model.CategorySourceCodeLike {
			analysis.HasCode = true
		}
	}

	return analysis, diags
}
