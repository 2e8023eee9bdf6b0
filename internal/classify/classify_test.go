package classify

import (
	"strings"
	"testing"

	"github.com/leakwatch/leakwatch/internal/model"
)

func TestClassifyEmptyText(t *testing.T) {
	analysis, diags := Classify("", nil, nil)

	if analysis.TotalMatchCount != 0 {
		t.Errorf("expected 0 matches for empty text, got %d", analysis.TotalMatchCount)
	}
	if len(analysis.CategoriesPresent) != 0 {
		t.Errorf("expected no categories, got %v", analysis.CategoriesPresent)
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
}

func TestClassifySSNAndEmail(t *testing.T) {
	analysis, _ := Classify("My SSN is 123-45-6789 and email is a@b.com", nil, nil)

	if !analysis.HasCategory(model.CategoryPersonalID) {
		t.Error("expected personalId category")
	}
	if !analysis.HasCategory(model.CategoryEmail) {
		t.Error("expected email category")
	}
	if !analysis.HasPersonalData {
		t.Error("expected HasPersonalData")
	}
	if got := analysis.MatchesByCategory[model.CategoryPersonalID]; len(got) != 1 || got[0] != "123-45-6789" {
		t.Errorf("unexpected personalId matches: %v", got)
	}
}

func TestClassifyCredentialLike(t *testing.T) {
	analysis, _ := Classify("config: api_key: abcdefghijklmnopqrstuvwx", nil, nil)

	if !analysis.HasCategory(model.CategoryCredentialLike) {
		t.Errorf("expected credentialLike, got %v", analysis.CategoriesPresent)
	}
	if !analysis.HasSecrets {
		t.Error("expected HasSecrets")
	}
}

func TestClassifyShortValueIsNotCredential(t *testing.T) {
	analysis, _ := Classify("api_key: short", nil, nil)

	if analysis.HasCategory(model.CategoryCredentialLike) {
		t.Error("19-char-or-less values should not match credentialLike")
	}
}

func TestClassifyCodeAndSQL(t *testing.T) {
	text := "func main() {\n\tprintln(1)\n}\nSELECT name FROM accounts WHERE id = 1"
	analysis, _ := Classify(text, nil, nil)

	if !analysis.HasCode {
		t.Error("expected HasCode")
	}
	if !analysis.HasCategory(model.CategorySQLLike) {
		t.Error("expected sqlLike")
	}
}

func TestClassifyDuplicatesKeptInOrder(t *testing.T) {
	analysis, _ := Classify("a@b.com then c@d.com then a@b.com", nil, nil)

	got := analysis.MatchesByCategory[model.CategoryEmail]
	want := []string{"a@b.com", "c@d.com", "a@b.com"}
	if len(got) != len(want) {
		t.Fatalf("expected %d email matches, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if analysis.TotalMatchCount != 3 {
		t.Errorf("expected total 3, got %d", analysis.TotalMatchCount)
	}
}

func TestClassifyEnabledSubset(t *testing.T) {
	enabled := map[model.Category]bool{model.CategoryEmail: true}
	analysis, _ := Classify("SSN 123-45-6789, mail a@b.com", enabled, nil)

	if analysis.HasCategory(model.CategoryPersonalID) {
		t.Error("personalId should be disabled")
	}
	if !analysis.HasCategory(model.CategoryEmail) {
		t.Error("email should be enabled")
	}
}

func TestClassifyCustomPattern(t *testing.T) {
	custom := map[string]string{"ticketId": `\bTICKET-\d{4}\b`}
	analysis, diags := Classify("see TICKET-1234 and TICKET-9999", nil, custom)

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	got := analysis.MatchesByCategory[model.Category("ticketId")]
	if len(got) != 2 {
		t.Errorf("expected 2 custom matches, got %v", got)
	}
}

func TestClassifyMalformedCustomPatternIsDiagnostic(t *testing.T) {
	custom := map[string]string{
		"broken": `[unclosed`,
		"ok":     `\bGOOD\b`,
	}
	analysis, diags := Classify("GOOD text", nil, custom)

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	if diags[0].Category != "broken" {
		t.Errorf("diagnostic for wrong category: %v", diags[0])
	}
	// The other categories must still have run.
	if !analysis.HasCategory(model.Category("ok")) {
		t.Error("valid custom pattern should still match")
	}
}

func TestSecretsFlagMatchesSecretCategories(t *testing.T) {
	// hasSecrets must hold exactly when a secret category is present.
	samples := []string{
		"",
		"plain text with nothing in it",
		"password = supersecretvalue12345678",
		"this document is CONFIDENTIAL",
		"a@b.com and 10.0.0.1",
		"SSN 123-45-6789",
	}
	for _, text := range samples {
		analysis, _ := Classify(text, nil, nil)
		var present bool
		for _, c := range analysis.CategoriesPresent {
			if model.SecretCategories[c] {
				present = true
			}
		}
		if analysis.HasSecrets != present {
			t.Errorf("text %q: HasSecrets=%v but secret category present=%v", text, analysis.HasSecrets, present)
		}
	}
}

func TestClassifyConcurrent(t *testing.T) {
	text := strings.Repeat("a@b.com 123-45-6789 ", 50)
	done := make(chan model.Analysis, 8)
	for i := 0; i < 8; i++ {
		go func() {
			analysis, _ := Classify(text, nil, nil)
			done <- analysis
		}()
	}
	first := <-done
	for i := 1; i < 8; i++ {
		got := <-done
		if got.TotalMatchCount != first.TotalMatchCount {
			t.Errorf("concurrent classify diverged: %d vs %d", got.TotalMatchCount, first.TotalMatchCount)
		}
	}
}
