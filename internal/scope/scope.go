// Package scope implements per-project capture-exclusion rules: a list of
// domain/URL/regex patterns that, when matched, force bypass mode for the
// matching traffic independent of the global intercept flags.
package scope

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sync"

	"github.com/gobwas/glob"
)

// RuleType is the kind of match an ExclusionRule performs.
type RuleType string

const (
	// Domain matches the request URL's host against a glob pattern.
	Domain RuleType = "domain"
	// URL matches the full request URL against a glob pattern.
	URL RuleType = "url"
	// Regex matches the full request URL against a regular expression.
	Regex RuleType = "regex"
)

// ExclusionRule is one project-scoped capture exclusion.
type ExclusionRule struct {
	Type  RuleType `yaml:"type" json:"type"`
	Value string   `yaml:"value" json:"value"`
}

type compiledRule struct {
	rule  ExclusionRule
	glob  glob.Glob
	regex *regexp.Regexp
}

// Matcher evaluates a project's exclusion rule list against request URLs.
//
// Thread-safe — Excluded is called from every pipeline goroutine, while
// Replace swaps in a new rule list when the active project changes.
type Matcher struct {
	mu    sync.RWMutex
	rules []compiledRule
}

// New builds a Matcher from a rule list, compiling glob/regex patterns
// up front. An invalid pattern is skipped and logged rather than failing
// construction — consistent with the rule engine's silent-skip policy
// for malformed patterns.
func New(rules []ExclusionRule) *Matcher {
	m := &Matcher{}
	m.Replace(rules)
	return m
}

// Replace atomically swaps in a new rule list.
func (m *Matcher) Replace(rules []ExclusionRule) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{rule: r}
		switch r.Type {
		case Domain, URL:
			g, err := glob.Compile(r.Value)
			if err != nil {
				slog.Warn("invalid exclusion glob, skipping", "type", r.Type, "value", r.Value, "error", err)
				continue
			}
			cr.glob = g
		case Regex:
			re, err := regexp.Compile(r.Value)
			if err != nil {
				slog.Warn("invalid exclusion regex, skipping", "value", r.Value, "error", err)
				continue
			}
			cr.regex = re
		default:
			slog.Warn("unknown exclusion rule type, skipping", "type", r.Type)
			continue
		}
		compiled = append(compiled, cr)
	}

	m.mu.Lock()
	m.rules = compiled
	m.mu.Unlock()
}

// Excluded reports whether urlStr matches any active exclusion rule.
func (m *Matcher) Excluded(urlStr string) bool {
	m.mu.RLock()
	rules := m.rules
	m.mu.RUnlock()

	if len(rules) == 0 {
		return false
	}

	host := ""
	if u, err := url.Parse(urlStr); err == nil {
		host = u.Host
	}

	for _, cr := range rules {
		switch cr.rule.Type {
		case Domain:
			if cr.glob != nil && cr.glob.Match(host) {
				return true
			}
		case URL:
			if cr.glob != nil && cr.glob.Match(urlStr) {
				return true
			}
		case Regex:
			if cr.regex != nil && cr.regex.MatchString(urlStr) {
				return true
			}
		}
	}
	return false
}

// Validate checks that a rule's type is known and its pattern compiles.
func Validate(r ExclusionRule) error {
	switch r.Type {
	case Domain, URL:
		if _, err := glob.Compile(r.Value); err != nil {
			return fmt.Errorf("invalid glob %q: %w", r.Value, err)
		}
	case Regex:
		if _, err := regexp.Compile(r.Value); err != nil {
			return fmt.Errorf("invalid regex %q: %w", r.Value, err)
		}
	default:
		return fmt.Errorf("unknown exclusion rule type %q", r.Type)
	}
	return nil
}
