// Package synonyms holds the crop-name expansion table used by the variety
// search. The table is configuration: it can be replaced from a YAML file and
// reloaded while the server runs.
package synonyms

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Rule adds Candidates when a crop name contains Match (case-insensitive).
type Rule struct {
	Match      string   `yaml:"match"`
	Candidates []string `yaml:"candidates"`
}

type document struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules is the built-in table.
func DefaultRules() []Rule {
	return []Rule{
		{Match: "corn", Candidates: []string{"옥수수"}},
		{Match: "옥수수", Candidates: []string{"찰옥수수", "단옥수수"}},
		{Match: "고추", Candidates: []string{"청양고추", "꽈리고추"}},
		{Match: "감자", Candidates: []string{"수미감자", "대지감자"}},
		{Match: "상추", Candidates: []string{"꽃상추", "청상추"}},
	}
}

// Table is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewTable(rules []Rule) *Table {
	t := &Table{}
	t.Replace(rules)
	return t
}

// Replace swaps the rule set atomically.
func (t *Table) Replace(rules []Rule) {
	cleaned := make([]Rule, 0, len(rules))
	for _, r := range rules {
		match := strings.TrimSpace(r.Match)
		if match == "" || len(r.Candidates) == 0 {
			continue
		}
		cleaned = append(cleaned, Rule{Match: match, Candidates: append([]string(nil), r.Candidates...)})
	}

	t.mu.Lock()
	t.rules = cleaned
	t.mu.Unlock()
}

func (t *Table) Rules() []Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Rule(nil), t.rules...)
}

// Candidates returns the ordered, de-duplicated search names for a crop.
// searchName comes first; expansions are matched against both names.
func (t *Table) Candidates(searchName, original string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(searchName)

	lowerSearch := strings.ToLower(searchName)
	lowerOriginal := strings.ToLower(original)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rules {
		key := strings.ToLower(r.Match)
		if strings.Contains(lowerOriginal, key) || strings.Contains(lowerSearch, key) {
			for _, c := range r.Candidates {
				add(c)
			}
		}
	}
	return out
}

// Load parses a YAML rule file of the form:
//
//	rules:
//	  - match: 옥수수
//	    candidates: [찰옥수수, 단옥수수]
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synonym table: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing synonym table %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("synonym table %s has no rules", path)
	}
	return doc.Rules, nil
}
