package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antigravity/mediator/internal/rules"
	"github.com/antigravity/mediator/internal/scope"
)

func TestCreateLoadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	p, err := s.Create("My Project", "https://target.example")
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load("My Project")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.TargetURL != "https://target.example" || loaded.Name != p.Name {
		t.Fatalf("got %+v", loaded)
	}
}

func TestListSortedByLastModifiedDesc(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Create("first", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("second", ""); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "second" {
		t.Fatalf("got %+v", list)
	}
}

func TestDeleteRemovesFromDiskAndIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Create("gone", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load("gone"); err == nil {
		t.Fatal("expected load to fail after delete")
	}
	list, _ := s.List()
	if len(list) != 0 {
		t.Fatalf("expected empty index, got %+v", list)
	}
}

func TestReindexRecoversFromDiskOnReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("survivor", ""); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if err := os.Remove(filepath.Join(dir, "index.db")); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	list, err := s2.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "survivor" {
		t.Fatalf("expected reindex to recover project, got %+v", list)
	}
}

func TestApplyRulesReplacesEngineRuleset(t *testing.T) {
	engine, err := rules.New(filepath.Join(t.TempDir(), "rules.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	p := &Project{MatchReplaceRules: []rules.Rule{
		{Enabled: true, Item: rules.RequestHeader, Match: "a", Replace: "b"},
	}}
	ApplyRules(p, engine)
	if engine.Count() != 1 {
		t.Fatalf("expected 1 rule after apply, got %d", engine.Count())
	}
}

func TestApplyScopeReplacesMatcherRuleset(t *testing.T) {
	matcher := scope.New(nil)
	p := &Project{ExclusionRules: []scope.ExclusionRule{
		{Type: scope.Domain, Value: "excluded.example"},
	}}
	ApplyScope(p, matcher)
	if !matcher.Excluded("https://excluded.example/") {
		t.Fatal("expected exclusion rule to take effect")
	}
}
