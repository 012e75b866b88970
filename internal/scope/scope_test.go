package scope

import "testing"

func TestDomainExclusion(t *testing.T) {
	m := New([]ExclusionRule{{Type: Domain, Value: "*.googleapis.com"}})
	if !m.Excluded("https://fonts.googleapis.com/css") {
		t.Fatal("expected domain match to be excluded")
	}
	if m.Excluded("https://example.com/") {
		t.Fatal("unrelated host should not be excluded")
	}
}

func TestURLExclusion(t *testing.T) {
	m := New([]ExclusionRule{{Type: URL, Value: "*/analytics/*"}})
	if !m.Excluded("https://example.com/v1/analytics/event") {
		t.Fatal("expected url glob match")
	}
}

func TestRegexExclusion(t *testing.T) {
	m := New([]ExclusionRule{{Type: Regex, Value: `\.(png|jpg)$`}})
	if !m.Excluded("https://example.com/img/logo.png") {
		t.Fatal("expected regex match")
	}
	if m.Excluded("https://example.com/img/logo.svg") {
		t.Fatal("svg should not match png|jpg regex")
	}
}

func TestInvalidRuleSkippedNotFatal(t *testing.T) {
	m := New([]ExclusionRule{{Type: Regex, Value: "(unclosed"}})
	if m.Excluded("https://example.com/") {
		t.Fatal("invalid rule should never match")
	}
}

func TestNoRulesExcludesNothing(t *testing.T) {
	m := New(nil)
	if m.Excluded("https://example.com/") {
		t.Fatal("empty rule list should exclude nothing")
	}
}

func TestReplaceSwapsRuleSet(t *testing.T) {
	m := New([]ExclusionRule{{Type: Domain, Value: "a.example"}})
	if !m.Excluded("https://a.example/") {
		t.Fatal("expected initial rule to match")
	}
	m.Replace([]ExclusionRule{{Type: Domain, Value: "b.example"}})
	if m.Excluded("https://a.example/") {
		t.Fatal("old rule should no longer apply after Replace")
	}
	if !m.Excluded("https://b.example/") {
		t.Fatal("new rule should apply after Replace")
	}
}

func TestValidateRejectsBadPattern(t *testing.T) {
	if err := Validate(ExclusionRule{Type: Regex, Value: "(unclosed"}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := Validate(ExclusionRule{Type: Domain, Value: "*.example.com"}); err != nil {
		t.Fatalf("valid glob should not error: %v", err)
	}
}
