package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxHeaderRunes bounds how long a non-markdown header line may be.
const maxHeaderRunes = 100

// maxLeadInWords bounds the lead-in header rule.
const maxLeadInWords = 8

// Line is a single non-blank line of document text as seen by header rules.
type Line struct {
	Text string
	// BreakAfter is true when the next line is a paragraph break.
	BreakAfter bool
}

// HeaderRule classifies a line as a section header and extracts its title.
type HeaderRule struct {
	Name  string
	Match func(l Line) (title string, ok bool)
}

// PatternSpec is a named regular expression header rule, typically from configuration.
type PatternSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// NewPatternRule compiles a regex rule. The title is the first capture group when the
// pattern has one, otherwise the whole line. Rules other than markdown-style ones are
// limited to short lines.
func NewPatternRule(spec PatternSpec, shortOnly bool) (HeaderRule, error) {
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return HeaderRule{}, fmt.Errorf("compile header rule %q: %w", spec.Name, err)
	}
	return HeaderRule{
		Name: spec.Name,
		Match: func(l Line) (string, bool) {
			if shortOnly && utf8.RuneCountInString(l.Text) > maxHeaderRunes {
				return "", false
			}
			m := re.FindStringSubmatch(l.Text)
			if m == nil {
				return "", false
			}
			title := m[0]
			if len(m) > 1 {
				title = m[1]
			}
			title = strings.TrimSpace(title)
			return title, title != ""
		},
	}, nil
}

// builtinPatterns are evaluated in order; first match wins.
var builtinPatterns = []struct {
	spec      PatternSpec
	shortOnly bool
}{
	{PatternSpec{Name: "markdown", Pattern: `^#{1,6}\s+(.+)$`}, false},
	{PatternSpec{Name: "numbered", Pattern: `^\d+(?:\.\d+)*\.?\s+[A-Z][^.]*$`}, true},
	{PatternSpec{Name: "all_caps", Pattern: `^[A-Z][A-Z\s]+$`}, true},
}

// leadInRule matches a short capitalized line directly followed by a paragraph break.
var leadInRule = HeaderRule{
	Name: "lead_in",
	Match: func(l Line) (string, bool) {
		if !l.BreakAfter || utf8.RuneCountInString(l.Text) > maxHeaderRunes {
			return "", false
		}
		first, _ := utf8.DecodeRuneInString(l.Text)
		if !unicode.IsUpper(first) {
			return "", false
		}
		if len(strings.Fields(l.Text)) > maxLeadInWords {
			return "", false
		}
		last, _ := utf8.DecodeLastRuneInString(l.Text)
		if strings.ContainsRune(".!?,;:", last) {
			return "", false
		}
		return l.Text, true
	},
}
