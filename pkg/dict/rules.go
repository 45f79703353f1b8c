// CLAUDE:SUMMARY Rule compiler: turns a TermMap into whole-word, case-insensitive literal matchers ordered longest first.
package dict

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Rule rewrites whole-word, case-insensitive occurrences of one literal.
type Rule struct {
	Literal     string
	Replacement string
	Priority    int // rune length of Literal
	re          *regexp.Regexp
}

// RuleSet is ordered by descending Priority; equal priorities keep dictionary order.
type RuleSet []Rule

// NewRule builds a rule matching literal and emitting replacement.
func NewRule(literal, replacement string) Rule {
	return Rule{
		Literal:     literal,
		Replacement: replacement,
		Priority:    utf8.RuneCountInString(literal),
		re:          regexp.MustCompile("(?i)" + regexp.QuoteMeta(literal)),
	}
}

// Compile builds the rule set for a dictionary snapshot. Each canonical term
// is one of its own variants so correctly written text maps to itself.
func Compile(terms *TermMap) RuleSet {
	var rules RuleSet
	terms.Each(func(canonical string, variants []string) {
		if strings.TrimSpace(canonical) == "" {
			return
		}
		all := dedupFold(append([]string{canonical}, variants...))
		for _, v := range all {
			v = TrimTerm(v)
			if v == "" {
				continue
			}
			rules = append(rules, NewRule(v, canonical))
		}
	})
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules
}

// ReplaceAll substitutes every whole-word occurrence of the rule's literal in s.
func (r Rule) ReplaceAll(s string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos < len(s) {
		loc := r.re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && wordBoundaries(s, start, end) {
			b.WriteString(s[last:start])
			b.WriteString(r.Replacement)
			last, pos = end, end
			continue
		}
		// Not a whole word here; an overlapping candidate may start one rune later.
		_, size := utf8.DecodeRuneInString(s[start:])
		pos = start + size
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// wordBoundaries reports whether s[start:end] has a word boundary on both sides.
func wordBoundaries(s string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(s[start:end])
	lastRune, _ := utf8.DecodeLastRuneInString(s[start:end])

	before := false
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		before = isWordRune(r)
	}
	after := false
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		after = isWordRune(r)
	}
	return before != isWordRune(first) && isWordRune(lastRune) != after
}
