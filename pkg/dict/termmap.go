// CLAUDE:SUMMARY Ordered canonical-term dictionary with case-folded dedup helpers and the built-in default terms.
package dict

import (
	"github.com/samber/lo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TermMap maps a canonical term to its known variants, in insertion order.
type TermMap struct {
	om *orderedmap.OrderedMap[string, []string]
}

// NewTermMap returns an empty TermMap.
func NewTermMap() *TermMap {
	return &TermMap{om: orderedmap.New[string, []string]()}
}

// Set stores variants for canonical. An existing key keeps its position.
func (m *TermMap) Set(canonical string, variants []string) {
	if variants == nil {
		variants = []string{}
	}
	m.om.Set(canonical, variants)
}

// Get returns the variants stored under the exact key canonical.
func (m *TermMap) Get(canonical string) ([]string, bool) {
	return m.om.Get(canonical)
}

// Len returns the number of canonical terms.
func (m *TermMap) Len() int {
	return m.om.Len()
}

// Each calls fn for every entry in insertion order.
func (m *TermMap) Each(fn func(canonical string, variants []string)) {
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// Keys returns the canonical terms in insertion order.
func (m *TermMap) Keys() []string {
	keys := make([]string, 0, m.om.Len())
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// FindKey returns the existing canonical key equal to term under case folding.
func (m *TermMap) FindKey(term string) (string, bool) {
	folded := FoldCase(term)
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		if FoldCase(p.Key) == folded {
			return p.Key, true
		}
	}
	return "", false
}

// Plain returns a copy as a regular map, the shape used for serialization.
func (m *TermMap) Plain() map[string][]string {
	out := make(map[string][]string, m.om.Len())
	m.Each(func(canonical string, variants []string) {
		vs := make([]string, len(variants))
		copy(vs, variants)
		out[canonical] = vs
	})
	return out
}

// DefaultTerms returns the dictionary written when none exists yet.
func DefaultTerms() *TermMap {
	m := NewTermMap()
	m.Set("Claude Code", []string{"Cloudcode", "Cloud Code", "ClaudeCode"})
	m.Set("Antigravity", []string{"Antygravity", "AntiGravity", "Anti-gravity"})
	m.Set("Wispr Flow", []string{"Wisprflow", "WisprFlow", "Whispr Flow"})
	m.Set("Cursor", []string{"Curser"})
	m.Set("Windsurf", []string{"WindSurf", "Wind Surf"})
	m.Set("Firecrawl", []string{"Fire Crawl", "FireCrawl"})
	m.Set("Snowflake", []string{"SnowFlake"})
	m.Set("Lovable", []string{"Loveable"})
	m.Set("Replit", []string{"Repl.it"})
	return m
}

// dedupFold drops entries equal under case folding to an earlier one.
// The first spelling wins and order is preserved.
func dedupFold(items []string) []string {
	return lo.UniqBy(items, FoldCase)
}
