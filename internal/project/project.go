// Package project implements the saved-project persistence collaborator:
// a named, on-disk snapshot of a mediator session — target URL, captured
// request/response exchanges, exclusion rules, match/replace rules, UI
// filter state, and replay-tab state. It is used by the mediatorctl
// `projects` commands; neither the control channel nor the mediator touches
// it (the mediator only ever sees a live rules.Engine/scope.Matcher, not a
// Project).
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/rules"
	"github.com/antigravity/mediator/internal/scope"
)

// Exchange pairs a captured request with its response, if one has
// arrived yet. Mirrors the nested "response" field the original project
// file format carries on each captured request entry.
type Exchange struct {
	Request  capture.Request   `json:"request"`
	Response *capture.Response `json:"response,omitempty"`
}

// Project is a saved mediator session.
type Project struct {
	Name              string                `json:"name"`
	Created           time.Time             `json:"created"`
	LastModified      time.Time             `json:"lastModified"`
	TargetURL         string                `json:"targetUrl"`
	Requests          []Exchange            `json:"requests"`
	ExclusionRules    []scope.ExclusionRule `json:"exclusionRules"`
	HistoryFilter     string                `json:"historyFilter"`
	HideStatic        bool                  `json:"hideStatic"`
	RepeaterTabs      []map[string]any      `json:"repeaterTabs"`
	MatchReplaceRules []rules.Rule          `json:"matchReplaceRules"`
}

// Summary is the lightweight listing shape returned by Store.List —
// everything the CLI's `projects list` needs without paying to load and
// parse every saved request body.
type Summary struct {
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
	TargetURL    string    `json:"targetUrl"`
	RequestCount int       `json:"requestCount"`
}

// Store manages saved projects under a directory: one JSON file per
// project (the source of truth, same layout as the original file-based
// store) plus a SQLite index for fast listing. There is no hash chain;
// nothing here needs tamper-evidence.
type Store struct {
	mu    sync.Mutex
	dir   string
	index *sqliteIndex
}

// Open opens (or creates) a project store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory %s: %w", dir, err)
	}
	idx, err := openIndex(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("opening project index: %w", err)
	}
	s := &Store{dir: dir, index: idx}
	if err := s.reindex(); err != nil {
		idx.close()
		return nil, err
	}
	return s, nil
}

// Close releases the store's SQLite handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.close()
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == ' ' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, sanitizeName(name)+".json")
}

// Create makes a new, empty project named name targeting targetURL.
func (s *Store) Create(name, targetURL string) (*Project, error) {
	now := time.Now().UTC()
	if targetURL == "" {
		targetURL = "https://example.com"
	}
	p := &Project{
		Name:         name,
		Created:      now,
		LastModified: now,
		TargetURL:    targetURL,
	}
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a project by name. Returns os.ErrNotExist (wrapped) if no
// such project has been saved.
func (s *Store) Load(name string) (*Project, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("loading project %q: %w", name, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %q: %w", name, err)
	}
	return &p, nil
}

// Save writes p to disk, stamping LastModified, and updates the index.
func (s *Store) Save(p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.LastModified = time.Now().UTC()
	if p.Created.IsZero() {
		p.Created = p.LastModified
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling project %q: %w", p.Name, err)
	}
	if err := os.WriteFile(s.path(p.Name), data, 0o644); err != nil {
		return fmt.Errorf("writing project %q: %w", p.Name, err)
	}
	s.index.upsert(Summary{
		Name:         p.Name,
		Created:      p.Created,
		LastModified: p.LastModified,
		TargetURL:    p.TargetURL,
		RequestCount: len(p.Requests),
	})
	return nil
}

// Delete removes a saved project and drops it from the index.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting project %q: %w", name, err)
	}
	s.index.remove(name)
	return nil
}

// List returns every saved project's summary, most recently modified first.
func (s *Store) List() ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.list()
}

// reindex rebuilds the SQLite index from the JSON files on disk — run on
// Open so the index recovers from a crash or a manually dropped index.db.
func (s *Store) reindex() error {
	entries, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing project files: %w", err)
	}
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var p Project
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		s.index.upsert(Summary{
			Name:         p.Name,
			Created:      p.Created,
			LastModified: p.LastModified,
			TargetURL:    p.TargetURL,
			RequestCount: len(p.Requests),
		})
	}
	return nil
}

// ApplyRules hands a project's match/replace rules over to the live rule
// engine, atomically replacing whatever ruleset was previously active —
// the "load a project" moment a UI-driven project switch would trigger.
//
// Nothing in this build calls ApplyRules/ApplyScope outside tests: spec.md
// §6's inbound command table (start/stop/intercept_requests/
// intercept_responses/forward/drop/replay) has no "switch active project"
// command, so there is no wire-protocol trigger to wire them to yet. They
// are the integration point a future load_project command (or a
// `mediatorctl projects activate` CLI path that writes into the watched
// rules/exclusion files) would call; adding one without a corresponding
// protocol entry would be inventing a command spec.md doesn't define.
func ApplyRules(p *Project, engine *rules.Engine) {
	engine.Replace(append([]rules.Rule(nil), p.MatchReplaceRules...))
}

// ApplyScope hands a project's exclusion rules to the live scope matcher.
// See ApplyRules's doc comment for why this isn't yet called outside tests.
func ApplyScope(p *Project, matcher *scope.Matcher) {
	matcher.Replace(append([]scope.ExclusionRule(nil), p.ExclusionRules...))
}
