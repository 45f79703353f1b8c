// CLAUDE:SUMMARY Normalization engine: markup-aware rule substitution (fix_terms) and case-insensitive merging of new variants (add_term).
package dict

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/samber/lo"
)

// markupRe matches a minimal tag-like span. Such spans are never rewritten.
var markupRe = regexp.MustCompile(`<[^<>]+>`)

// Engine normalizes text against one dictionary file.
type Engine struct {
	store  *Store
	cache  *RuleCache
	logger *slog.Logger
	mu     sync.Mutex // serializes AddTerm within the process
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	logger    *slog.Logger
	cache     *RuleCache
	cacheSize int
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithCache shares an existing rule cache.
func WithCache(rc *RuleCache) Option {
	return func(c *engineConfig) { c.cache = rc }
}

// WithCacheSize sets the capacity of the engine's own rule cache.
func WithCacheSize(n int) Option {
	return func(c *engineConfig) { c.cacheSize = n }
}

// NewEngine returns an engine over the dictionary at path.
func NewEngine(path string, opts ...Option) (*Engine, error) {
	cfg := engineConfig{cacheSize: DefaultCacheSize}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.cache == nil {
		rc, err := NewRuleCache(cfg.cacheSize, cfg.logger)
		if err != nil {
			return nil, err
		}
		cfg.cache = rc
	}
	return &Engine{
		store:  NewStore(path, cfg.logger),
		cache:  cfg.cache,
		logger: cfg.logger,
	}, nil
}

// Store returns the engine's dictionary store.
func (e *Engine) Store() *Store { return e.store }

// Cache returns the engine's rule cache.
func (e *Engine) Cache() *RuleCache { return e.cache }

// FixTerms rewrites known misspellings in text to their canonical form.
// Empty input is returned as is without touching the dictionary.
func (e *Engine) FixTerms(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	rules, err := e.cache.GetOrCompile(e.store)
	if err != nil {
		return "", err
	}
	return Apply(text, rules), nil
}

// Apply runs rules over the plain-text segments of text, leaving markup spans intact.
func Apply(text string, rules RuleSet) string {
	if text == "" || len(rules) == 0 {
		return text
	}
	tags := markupRe.FindAllStringIndex(text, -1)
	if len(tags) == 0 {
		return applyPlain(text, rules)
	}

	out := make([]byte, 0, len(text))
	last := 0
	for _, tag := range tags {
		out = append(out, applyPlain(text[last:tag[0]], rules)...)
		out = append(out, text[tag[0]:tag[1]]...)
		last = tag[1]
	}
	out = append(out, applyPlain(text[last:], rules)...)
	return string(out)
}

func applyPlain(segment string, rules RuleSet) string {
	if segment == "" {
		return segment
	}
	for _, r := range rules {
		segment = r.ReplaceAll(segment)
	}
	return segment
}

// AddTerm merges variants into the entry for correct and persists the dictionary.
// An existing key equal to correct under case folding is reused with its casing.
func (e *Engine) AddTerm(correct string, variants []string) (string, error) {
	if TrimTerm(correct) == "" {
		return "", ErrValidation
	}
	res, err := e.Merge([]Update{{Correct: correct, Variants: variants}})
	if err != nil {
		return "", err
	}
	if res[0].Err != nil {
		return "", res[0].Err
	}
	return "ok", nil
}

// Update is one add_term request.
type Update struct {
	Correct  string
	Variants []string
}

// Merged reports how one Update was applied.
type Merged struct {
	Canonical string   // dictionary key that received the variants
	Variants  []string // the update's variants, trimmed, empty ones dropped
	Err       error    // ErrValidation when the update was skipped
}

// Merge applies updates in order against one load of the dictionary and saves
// it once. Updates with an empty canonical term are reported with
// ErrValidation and do not stop the batch. Nothing is written when no update
// applies or when the save fails.
func (e *Engine) Merge(updates []Update) ([]Merged, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	terms, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	out := make([]Merged, len(updates))
	applied := 0
	for i, u := range updates {
		out[i] = mergeUpdate(terms, u)
		if out[i].Err == nil {
			applied++
		}
	}
	if applied == 0 {
		return out, nil
	}

	if err := e.store.Save(terms); err != nil {
		return nil, fmt.Errorf("save terms: %w", err)
	}
	// Coarse filesystem timestamps can leave the version tag unchanged.
	e.cache.Forget(e.store.Path())

	for _, m := range out {
		if m.Err == nil {
			v, _ := terms.Get(m.Canonical)
			e.logger.Info("term updated", "canonical", m.Canonical, "variants", len(v))
		}
	}
	return out, nil
}

func mergeUpdate(terms *TermMap, u Update) Merged {
	correct := TrimTerm(u.Correct)
	if correct == "" {
		return Merged{Err: ErrValidation}
	}
	cleaned := CleanVariants(u.Variants)

	key, ok := terms.FindKey(correct)
	if !ok {
		key = correct
	}
	existing, _ := terms.Get(key)

	merged := dedupFold(append(append([]string{}, existing...), cleaned...))
	terms.Set(key, lo.Reject(merged, func(v string, _ int) bool { return EqualFold(v, key) }))
	return Merged{Canonical: key, Variants: cleaned}
}

// Terms returns the current dictionary.
func (e *Engine) Terms() (*TermMap, error) {
	return e.store.Load()
}
