// Package metrics scores a node's goal/constraints for ambiguity
// (entropy) and concreteness (density), per spec §4.3. Both scoring
// functions are pure and operate only on already-normalized strings.
package metrics

import (
	"regexp"
	"strings"
	"unicode"
)

// Score is a bounded [0,100] metric value.
type Score int

const maxScore Score = 100

func clampScore(v int) Score {
	if v < 0 {
		return 0
	}
	if v > int(maxScore) {
		return maxScore
	}
	return Score(v)
}

var placeholderRegexes = buildPlaceholderRegexes()

func buildPlaceholderRegexes() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(placeholderTokens))
	for i, tok := range placeholderTokens {
		out[i] = buildPlaceholderRegex(tok)
	}
	return out
}

func buildPlaceholderRegex(tok string) *regexp.Regexp {
	runes := []rune(tok)
	left, right := "", ""
	if isWordChar(runes[0]) {
		left = `\b`
	}
	if isWordChar(runes[len(runes)-1]) {
		right = `\b`
	}
	return regexp.MustCompile(`(?i)` + left + regexp.QuoteMeta(tok) + right)
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ContradictionCount returns the number of antonym-template pairs matched
// across constraints, substring-matched on NFC-folded lowercase forms. A
// template fires only when its two sides are found in two different
// constraints.
func ContradictionCount(constraints []string) int {
	folded := make([]string, len(constraints))
	for i, c := range constraints {
		folded[i] = strings.ToLower(c)
	}
	count := 0
	for _, pair := range antonymPairs {
		fired := false
		for i := 0; i < len(folded) && !fired; i++ {
			if !strings.Contains(folded[i], pair[0]) {
				continue
			}
			for j := range folded {
				if j != i && strings.Contains(folded[j], pair[1]) {
					fired = true
					break
				}
			}
		}
		if fired {
			count++
		}
	}
	return count
}

// UnresolvedRefs counts placeholder-token matches across goal and
// constraints combined, word-boundary aware.
func UnresolvedRefs(goal string, constraints []string) int {
	count := 0
	texts := append([]string{goal}, constraints...)
	for _, t := range texts {
		for _, re := range placeholderRegexes {
			count += len(re.FindAllStringIndex(t, -1))
		}
	}
	return count
}

// ConcreteConstraints counts constraints containing at least one
// recognized concrete noun (substring match on lowercase form).
func ConcreteConstraints(constraints []string) int {
	count := 0
	for _, c := range constraints {
		lc := strings.ToLower(c)
		for _, noun := range concreteNouns {
			if strings.Contains(lc, noun) {
				count++
				break
			}
		}
	}
	return count
}

// EntropyResult mirrors spec §3's ContextNode.entropy shape.
type EntropyResult struct {
	EntropyScore      Score `json:"entropy_score"`
	ContradictionCount int  `json:"contradiction_count"`
	UnresolvedRefs     int  `json:"unresolved_refs"`
}

// DensityResult mirrors spec §3's ContextNode.density shape.
type DensityResult struct {
	DensityScore        Score `json:"density_score"`
	ConcreteConstraints  int   `json:"concrete_constraints"`
	TotalConstraints     int   `json:"total_constraints"`
}

// entropyContradictionWeight and entropyRefWeight are a judgment call
// documented in DESIGN.md: spec §9 leaves the exact coefficient mapping
// unspecified and unrecoverable (original_source/ is empty), so this picks
// the simplest function satisfying the stated monotonicity properties.
const (
	entropyContradictionWeight = 25
	entropyRefWeight           = 8
)

// Entropy scores a node's goal/constraints for ambiguity. Monotone
// non-decreasing in both contradiction_count and unresolved_refs.
func Entropy(goal string, constraints []string) EntropyResult {
	cc := ContradictionCount(constraints)
	ur := UnresolvedRefs(goal, constraints)
	score := clampScore(cc*entropyContradictionWeight + ur*entropyRefWeight)
	return EntropyResult{
		EntropyScore:       score,
		ContradictionCount: cc,
		UnresolvedRefs:     ur,
	}
}

// Density scores a node's constraints for concreteness. Monotone
// non-decreasing in concrete_constraints / total_constraints.
func Density(constraints []string) DensityResult {
	total := len(constraints)
	concrete := ConcreteConstraints(constraints)
	var score Score
	if total > 0 {
		score = clampScore((concrete * 100) / total)
	}
	return DensityResult{
		DensityScore:        score,
		ConcreteConstraints: concrete,
		TotalConstraints:    total,
	}
}
