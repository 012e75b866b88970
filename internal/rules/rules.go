package rules

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/antigravity/mediator/internal/capture"
	"gopkg.in/yaml.v3"
)

// Engine holds the ordered match/replace rule list for a single project and
// applies it to captured traffic.
//
// Thread-safe — Snapshot is called from every pipeline goroutine that
// rewrites a request or response, while Replace/Reload/Add/Remove mutate
// the list from the CLI, the file watcher, or project.ApplyRules. Readers take a
// snapshot at entry to a pipeline stage and apply it without holding the
// lock for the duration of the rewrite, matching the snapshot-at-entry,
// single-writer-replace shape used elsewhere in this codebase.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
	path  string
}

// New creates a rule engine, loading its initial rule list from path. A
// missing file yields an empty rule set, not an error.
func New(path string) (*Engine, error) {
	e := &Engine{path: path}
	rs, err := Load(path)
	if err != nil {
		return nil, err
	}
	e.rules = rs
	return e, nil
}

// Snapshot returns a copy of the current rule list, safe to apply outside
// the lock.
func (e *Engine) Snapshot() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Replace swaps in an entirely new rule list, compiling each rule's
// pattern first. It does not persist the change — call Save for that.
func (e *Engine) Replace(rs []Rule) {
	for i := range rs {
		rs[i].compile()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rs
}

// Add appends a single rule to the list.
func (e *Engine) Add(r Rule) {
	r.compile()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// Remove deletes the rule at the given index. Returns an error if the
// index is out of range.
func (e *Engine) Remove(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.rules) {
		return fmt.Errorf("rule index %d out of range (have %d rules)", index, len(e.rules))
	}
	e.rules = append(e.rules[:index], e.rules[index+1:]...)
	return nil
}

// Save persists the current rule list to the engine's configured path.
func (e *Engine) Save() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Save(e.path, e.rules)
}

// Reload reloads the rule list from the engine's configured path. Called
// by the config file watcher when rules.yaml changes out of band.
func (e *Engine) Reload() error {
	rs, err := Load(e.path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.rules = rs
	e.mu.Unlock()
	slog.Info("rules reloaded", "path", e.path, "count", len(rs))
	return nil
}

// AddFromYAML parses a single rule from a YAML fragment and adds it. Used
// by the `rules add` CLI command.
func (e *Engine) AddFromYAML(yamlStr string) error {
	var r Rule
	if err := yaml.Unmarshal([]byte(yamlStr), &r); err != nil {
		return fmt.Errorf("parsing rule YAML: %w", err)
	}
	if r.Item == "" {
		return fmt.Errorf("rule must set item")
	}
	e.Add(r)
	return nil
}

// Count returns the number of rules currently loaded.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// RewriteRequestFirstLine applies the engine's current RequestFirstLine
// rules to method/url.
func (e *Engine) RewriteRequestFirstLine(method, url string) (string, string) {
	return ApplyRequestFirstLine(e.Snapshot(), method, url)
}

// RewriteResponseFirstLine applies the engine's current ResponseFirstLine
// rules to status.
func (e *Engine) RewriteResponseFirstLine(status int) int {
	return ApplyResponseFirstLine(e.Snapshot(), status)
}

// RewriteHeaders applies the engine's current rules of the given item kind
// to a header multimap. item must be RequestHeader or ResponseHeader.
func (e *Engine) RewriteHeaders(item ItemSlice, h capture.Headers) capture.Headers {
	return ApplyHeaders(e.Snapshot(), item, h)
}

// RewriteBody applies the engine's current rules of the given item kind to
// body text. item must be RequestBody or ResponseBody.
func (e *Engine) RewriteBody(item ItemSlice, body string) string {
	return ApplyBody(e.Snapshot(), item, body)
}
