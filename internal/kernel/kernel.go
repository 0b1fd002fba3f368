// Package kernel implements the Kernel façade (C11): the stable
// transform(intent) -> KernelResult entry point of §6, gluing the
// Normalizer (C2) and Bundle Assembler (C4) together and assigning the
// result its CLARIFY/REFUSE/BUNDLE kind per §4.4's "Result kind" rule.
package kernel

import (
	"encoding/json"
	"unicode/utf8"

	"intentforge/internal/bundle"
	"intentforge/internal/canon"
	"intentforge/internal/normalize"
)

// Kind is one of BUNDLE/CLARIFY/REFUSE (§4.4, §6).
type Kind string

const (
	KindBundle  Kind = "BUNDLE"
	KindClarify Kind = "CLARIFY"
	KindRefuse  Kind = "REFUSE"
)

// Result is the kernel entry's output shape (§6): a tagged variant over
// Kind, carrying whichever of Bundle/Questions/RefuseReason applies.
type Result struct {
	Kind         Kind              `json:"kind"`
	Bundle       *bundle.Bundle    `json:"bundle,omitempty"`
	Questions    []bundle.Question `json:"questions,omitempty"`
	RefuseReason string            `json:"refuse_reason,omitempty"`
	IntentHash   string            `json:"intent_sha256,omitempty"`
}

// maxAbuseRepeatRun is a REFUSE-triggering abuse pattern (§4.4 "an abuse
// pattern triggers"): a single character repeated this many times in a
// row in the raw goal, a cheap, content-only heuristic for degenerate or
// adversarial input that can't be meaningfully decomposed. The exact
// abuse-detection rule is left unspecified by §4.4/§9; this is a judgment
// call documented in DESIGN.md, not a recovered formula.
const maxAbuseRepeatRun = 500

// Transform runs the kernel entry point of §6 over an arbitrary JSON
// value: invalid shapes, empty goals, and abuse patterns all surface as
// REFUSE with a documented reason rather than an error return, per §7
// ("REFUSED — safety gate ... Mapped to exit 2/3 with a REFUSED outcome
// object") and §4.4's kernel result-kind rule.
func Transform(raw any) Result {
	intent, intentHash, ok := decodeIntent(raw)
	if !ok {
		return Result{Kind: KindRefuse, RefuseReason: "invalid intent shape"}
	}

	if reason, abusive := abusePattern(intent); abusive {
		return Result{Kind: KindRefuse, RefuseReason: reason, IntentHash: intentHash}
	}

	normalized, err := normalize.NormalizeIntent(intent)
	if err != nil {
		return Result{Kind: KindRefuse, RefuseReason: err.Error(), IntentHash: intentHash}
	}

	b, err := bundle.Assemble(normalized)
	if err != nil {
		return Result{Kind: KindRefuse, RefuseReason: err.Error(), IntentHash: intentHash}
	}

	if hasRequiredQuestion(b) {
		return Result{
			Kind:       KindClarify,
			Bundle:     &b,
			Questions:  b.RootNode.UnresolvedQuestions,
			IntentHash: intentHash,
		}
	}

	return Result{Kind: KindBundle, Bundle: &b, IntentHash: intentHash}
}

// TransformJSON runs Transform over raw JSON bytes, the shape the
// pack-export CLI surface reads from an intent file.
func TransformJSON(raw []byte) Result {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Result{Kind: KindRefuse, RefuseReason: "invalid intent JSON: " + err.Error()}
	}
	return Transform(v)
}

// decodeIntent maps an arbitrary JSON value onto normalize.Intent,
// refusing any shape that is not a JSON object with a string "goal"
// field. The intent's content hash is computed over the parsed tree
// before normalization, since §3's intent_sha256 identifies the intent as
// received, not its normalized form.
func decodeIntent(raw any) (normalize.Intent, string, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return normalize.Intent{}, "", false
	}

	goal, ok := obj["goal"].(string)
	if !ok {
		return normalize.Intent{}, "", false
	}

	var constraints []string
	if cs, ok := obj["constraints"].([]any); ok {
		for _, c := range cs {
			s, ok := c.(string)
			if !ok {
				return normalize.Intent{}, "", false
			}
			constraints = append(constraints, s)
		}
	}

	var context map[string]any
	if ctx, ok := obj["context"].(map[string]any); ok {
		context = ctx
	}

	hash, err := canon.Hash(obj)
	if err != nil {
		return normalize.Intent{}, "", false
	}

	return normalize.Intent{Goal: goal, Constraints: constraints, Context: context}, hash, true
}

// abusePattern implements the minimal, documented abuse-detection rule:
// degenerate repeated-rune floods in the raw (pre-normalization) goal. A
// 100K-character goal that is otherwise ordinary text (§8's boundary case)
// must not trip this — only a single rune repeated unreasonably.
func abusePattern(i normalize.Intent) (string, bool) {
	if !utf8.ValidString(i.Goal) {
		return "goal is not valid UTF-8", true
	}
	runs := 0
	var prev rune
	for idx, r := range i.Goal {
		if idx > 0 && r == prev {
			runs++
		} else {
			runs = 1
		}
		if runs >= maxAbuseRepeatRun {
			return "goal contains a degenerate repeated-character run", true
		}
		prev = r
	}
	return "", false
}

func hasRequiredQuestion(b bundle.Bundle) bool {
	return len(b.RootNode.UnresolvedQuestions) > 0
}
