// Package click resolves a chosen option's literal text to an interactive
// element on the page. The matching and locator-building logic is pure so it
// can be tested without a browser; actuation lives with the browser driver.
package click

import (
	"strings"

	"golang.org/x/text/width"
)

// Answer carries the title and description fragments of one candidate answer
// element inside a structured block.
type Answer struct {
	Title string
	Desc  string
}

// Combined joins the fragments the same way extraction does, so a model
// answer quoted from the extracted option text matches exactly.
func (a Answer) Combined() string {
	title := strings.TrimSpace(a.Title)
	desc := strings.TrimSpace(a.Desc)
	if title == "" {
		return desc
	}
	if desc == "" {
		return title
	}
	return title + ". " + desc
}

// Normalize prepares text for fuzzy comparison: NBSP removal, whitespace
// collapse, case folding, and NFKC width folding so full-width letters on
// CJK exam pages compare equal to their ASCII forms.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = width.Fold.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// FuzzyContains reports whether two normalized texts match: equal, or either
// contains the other. Empty candidates never match.
func FuzzyContains(target, candidate string) bool {
	if candidate == "" || target == "" {
		return false
	}
	return candidate == target ||
		strings.Contains(candidate, target) ||
		strings.Contains(target, candidate)
}

// Matches reports whether an answer's combined, title, or description text
// fuzzily matches the target option text.
func Matches(target string, a Answer) bool {
	want := Normalize(target)
	if want == "" {
		return false
	}
	return FuzzyContains(want, Normalize(a.Combined())) ||
		FuzzyContains(want, Normalize(a.Desc)) ||
		FuzzyContains(want, Normalize(a.Title))
}

// MatchAnswer returns the index of the first answer matching the target
// option text, or -1.
func MatchAnswer(target string, answers []Answer) int {
	for i, a := range answers {
		if Matches(target, a) {
			return i
		}
	}
	return -1
}
