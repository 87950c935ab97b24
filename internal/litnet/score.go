// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package litnet builds and scores literature reference networks: a BFS
// over Europe PMC references and citations starting from seed papers,
// with a composite relevance score per node.
package litnet

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// longevityKeywords are the aging-biology terms counted by the longevity
// signal. Matching is case-insensitive substring search.
var longevityKeywords = []string{
	"longevity",
	"lifespan",
	"life span",
	"aging",
	"ageing",
	"senescence",
	"geroprotect",
	"pro-longevity",
	"anti-aging",
	"lifespan extension",
	"calorie restriction",
	"healthspan",
}

var (
	// Sentence breaks need trailing whitespace (or end of text) so decimal
	// points and abbreviations do not split a sentence apart.
	sentenceSplitRe = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
	numberRe        = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Signals are the components of a node's composite score, kept separate
// so network exports can show why a paper ranked where it did.
type Signals struct {
	Year      float64 `json:"year"`
	Function  float64 `json:"function"`
	Longevity float64 `json:"longevity"`
}

// Score computes the composite relevance of an article given its text
// (title plus abstract, or full text when available). Weights are
// normalized so callers can pass any positive triple.
func Score(art types.Article, text string, weights types.ScoringWeights) (float64, Signals) {
	sig := Signals{
		Year:      yearSignal(art.Year, time.Now().Year()),
		Function:  functionSignal(text),
		Longevity: longevitySignal(text),
	}

	total := weights.Year + weights.Function + weights.Longevity
	if total <= 0 {
		return 0, sig
	}
	composite := (weights.Year*sig.Year + weights.Function*sig.Function + weights.Longevity*sig.Longevity) / total
	return composite, sig
}

// yearSignal decays with article age: 1.0 for this year's papers, falling
// off as 1/(1+age). Unknown years score zero.
func yearSignal(year, currentYear int) float64 {
	if year <= 0 {
		return 0
	}
	age := currentYear - year
	if age < 0 {
		age = 0
	}
	return 1.0 / float64(1+age)
}

// functionSignal rewards sentences that discuss function, with a bonus for
// quantitative content. Each sentence containing "function" contributes
// 1.0 plus 0.25 per number in it, capped at 2.0 bonus. The sum is squashed
// through tanh so one dense paper cannot dominate.
func functionSignal(text string) float64 {
	var sum float64
	for _, sentence := range sentenceSplitRe.Split(strings.ToLower(text), -1) {
		if !strings.Contains(sentence, "function") {
			continue
		}
		bonus := 0.25 * float64(len(numberRe.FindAllString(sentence, -1)))
		sum += 1.0 + math.Min(2.0, bonus)
	}
	return math.Tanh(sum)
}

// longevitySignal counts aging-vocabulary occurrences and squashes the
// count through tanh(n/2).
func longevitySignal(text string) float64 {
	lower := strings.ToLower(text)
	var count int
	for _, kw := range longevityKeywords {
		count += strings.Count(lower, kw)
	}
	return math.Tanh(float64(count) / 2.0)
}
