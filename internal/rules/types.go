// Package rules implements the match-and-replace rewrite engine: an
// ordered, typed list of rules applied to one of six logical slices of a
// request or response (first line, headers, body).
package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ItemSlice is one of the six parts of a request/response a rule may target.
type ItemSlice string

const (
	RequestFirstLine  ItemSlice = "RequestFirstLine"
	RequestHeader     ItemSlice = "RequestHeader"
	RequestBody       ItemSlice = "RequestBody"
	ResponseFirstLine ItemSlice = "ResponseFirstLine"
	ResponseHeader    ItemSlice = "ResponseHeader"
	ResponseBody      ItemSlice = "ResponseBody"
)

// Rule is a single match/replace rewrite rule, applied in order against the
// chosen Item slice. When IsRegex is false, Match is a literal substring.
type Rule struct {
	Enabled bool      `yaml:"enabled"`
	Item    ItemSlice `yaml:"item"`
	Match   string    `yaml:"match"`
	Replace string    `yaml:"replace"`
	IsRegex bool      `yaml:"isRegex"`
	Comment string    `yaml:"comment"`

	compiled *regexp.Regexp
}

// compile pre-compiles the regex form of Match. An invalid pattern leaves
// compiled nil; the rule is then skipped silently by the applier rather
// than failing the whole rewrite.
func (r *Rule) compile() {
	if !r.IsRegex || r.Match == "" {
		r.compiled = nil
		return
	}
	re, err := regexp.Compile(r.Match)
	if err != nil {
		r.compiled = nil
		return
	}
	r.compiled = re
}

// Regexp returns the rule's compiled pattern, or nil if it isn't a regex
// rule or failed to compile.
func (r *Rule) Regexp() *regexp.Regexp { return r.compiled }

type file struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a rule list from a YAML file. A missing or empty file yields
// an empty, non-error result — consistent with a fresh project having no
// rules yet.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	for i := range f.Rules {
		f.Rules[i].compile()
	}
	return f.Rules, nil
}

// Save writes a rule list to a YAML file, overwriting any prior contents.
func Save(path string, rs []Rule) error {
	data, err := yaml.Marshal(&file{Rules: rs})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	header := "# antigravity match/replace rules\n\n"
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}
