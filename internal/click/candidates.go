package click

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy names the addressing mechanism behind a locator.
type Strategy string

const (
	StrategyText  Strategy = "text"
	StrategyARIA  Strategy = "aria"
	StrategyXPath Strategy = "xpath"
)

// SelectorCandidate is one way to address the target option on the page. The
// confidence is a static priority, not a runtime success estimate, and
// candidates are built fresh per click attempt since option text differs for
// every question.
type SelectorCandidate struct {
	Strategy   Strategy
	Locator    string
	Confidence float64
}

// BuildTextLocators constructs the ordered addressing strategies for a target
// option text: exact visible text, accessible name, then a structural match
// on buttons and labels containing the text.
func BuildTextLocators(optionText string) []SelectorCandidate {
	text := strings.TrimSpace(optionText)
	return []SelectorCandidate{
		{Strategy: StrategyText, Locator: "text=" + text, Confidence: 0.9},
		{Strategy: StrategyARIA, Locator: fmt.Sprintf(`[aria-label=%q]`, text), Confidence: 0.8},
		{Strategy: StrategyXPath, Locator: fmt.Sprintf("//button[contains(., '%s')]|//label[contains(., '%s')]", text, text), Confidence: 0.7},
	}
}

// SelectBest picks the highest-confidence candidate unconditionally; whether
// it resolves to anything on the page only surfaces at click time.
func SelectBest(candidates []SelectorCandidate) (SelectorCandidate, bool) {
	if len(candidates) == 0 {
		return SelectorCandidate{}, false
	}
	sorted := append([]SelectorCandidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted[0], true
}
