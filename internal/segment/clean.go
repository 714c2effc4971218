package segment

import (
	"regexp"
	"strings"
)

var (
	// horizontal whitespace only; line breaks are kept for header detection
	spaceRunRe = regexp.MustCompile(`[ \t\f\v\r\x{00a0}\x{2000}-\x{200a}\x{3000}]+`)
	fusedRe    = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	pageNumRe  = regexp.MustCompile(`(?i)^(?:page\s+)?[-–]?\s*\d+\s*[-–]?(?:\s+of\s+\d+)?$`)

	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "«", `"`, "»", `"`,
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
	)
)

// CleanPage normalizes text extracted from one page.
// Whitespace runs collapse to a single space, blank line runs collapse to a single
// paragraph break, page-number lines are dropped, words fused at a lower/upper case
// boundary are split, and smart quotes become straight quotes.
func CleanPage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	pendingBreak := false
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if line != "" && pageNumRe.MatchString(line) {
			continue
		}
		if line == "" {
			pendingBreak = len(out) > 0
			continue
		}
		if pendingBreak {
			out = append(out, "")
			pendingBreak = false
		}
		out = append(out, line)
	}

	cleaned := strings.Join(out, "\n")
	cleaned = fusedRe.ReplaceAllString(cleaned, "$1 $2")
	cleaned = quoteReplacer.Replace(cleaned)
	return strings.TrimSpace(cleaned)
}
