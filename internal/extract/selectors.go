package extract

// questionSelectors is the ordered generic fallback for locating a question
// stem: explicit attribute markers first, then headings inside common content
// containers, then class-name conventions and ARIA roles.
var questionSelectors = []string{
	"[data-question]",
	`[data-testid="question"]`,
	`[data-qa="question"]`,
	"main h1",
	"main h2",
	"article h1",
	"article h2",
	"article p",
	"section h1",
	"section h2",
	".question",
	".question-stem",
	".stem",
	".title",
	`div[role="heading"]`,
	`div[role="article"]`,
}

// fallbackContainers are scanned for the longest-line stem heuristic when no
// question selector matches.
var fallbackContainers = []string{"main", "article", "section", "body"}

// optionSelectors is the ordered generic fallback for answer options.
var optionSelectors = []string{
	"[data-option]",
	`[data-testid="option"]`,
	`[data-qa="option"]`,
	"label",
	"li",
	"button",
	`[role="option"]`,
	`input[type="radio"]+label`,
	`input[type="checkbox"]+label`,
	".answer",
	".answer-title",
	".answer-desc",
}

// formControlSelector drives the broad form-control sweep when the selector
// list finds nothing.
const formControlSelector = `label, button, [role="option"], li, [data-option], [data-testid="option"], [data-qa="option"], input[type="radio"], input[type="checkbox"]`

// optionRoles are the accessibility roles whose names count as option
// candidates in the accessibility-tree walk.
var optionRoles = map[string]bool{
	"option":   true,
	"radio":    true,
	"checkbox": true,
	"listitem": true,
	"button":   true,
}
