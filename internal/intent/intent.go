// Package intent classifies user queries into coarse categories by keyword lookup.
package intent

import (
	"fmt"
	"strings"
)

// General is the fallback intent when no category matches.
const General = "general"

// Category is one row of the intent table.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	// Focus is appended to the system prompt when the category wins.
	Focus string `yaml:"focus"`
}

// DefaultTable returns the built-in categories in match order.
func DefaultTable() []Category {
	return []Category{
		{
			Name:     "getting_started",
			Keywords: []string{"start", "begin", "setup", "install", "first", "how to start"},
			Focus:    "Beginner-friendly guidance, prerequisites, first steps, and initial setup.",
		},
		{
			Name:     "troubleshooting",
			Keywords: []string{"error", "problem", "issue", "fix", "troubleshoot", "not working"},
			Focus:    "Problem identification, specific solutions, error resolution, and debugging steps.",
		},
		{
			Name:     "how_to",
			Keywords: []string{"how", "step", "guide", "tutorial", "walkthrough", "process"},
			Focus:    "Clear step-by-step instructions, sequential processes, and practical guidance.",
		},
		{
			Name:     "features",
			Keywords: []string{"feature", "function", "capability", "what can", "what does"},
			Focus:    "Feature explanations, capabilities, benefits, and use cases.",
		},
		{
			Name:     "configuration",
			Keywords: []string{"config", "setting", "customize", "options", "preferences"},
			Focus:    "Settings, customization options, configuration parameters, and preferences.",
		},
		{
			Name:     "api",
			Keywords: []string{"api", "endpoint", "request", "response", "authentication"},
			Focus:    "API endpoints, authentication, request/response formats, and integration examples.",
		},
		{
			Name:     "examples",
			Keywords: []string{"example", "sample", "demo", "show me", "illustrate"},
			Focus:    "Practical examples, code samples, demonstrations, and real-world usage.",
		},
	}
}

// Classifier matches queries against an ordered category table.
type Classifier struct {
	table []Category
}

// NewClassifier validates and normalizes the table. Keywords are lower-cased.
func NewClassifier(table []Category) (*Classifier, error) {
	seen := make(map[string]struct{}, len(table))
	normalized := make([]Category, 0, len(table))
	for i, c := range table {
		if c.Name == "" {
			return nil, fmt.Errorf("intent %d: name is required", i)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("intent %q: duplicate name", c.Name)
		}
		seen[c.Name] = struct{}{}

		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 {
			return nil, fmt.Errorf("intent %q: at least one keyword is required", c.Name)
		}
		normalized = append(normalized, Category{Name: c.Name, Keywords: kws, Focus: c.Focus})
	}
	return &Classifier{table: normalized}, nil
}

// Classify returns the first category, in table order, with a keyword contained in the
// lower-cased query. Keywords match as substrings, so "config" matches "configure".
// No match yields the General category with no focus.
func (c *Classifier) Classify(query string) Category {
	q := strings.ToLower(query)
	for _, cat := range c.table {
		for _, kw := range cat.Keywords {
			if strings.Contains(q, kw) {
				return cat
			}
		}
	}
	return Category{Name: General}
}

// Table returns a copy of the category table.
func (c *Classifier) Table() []Category {
	out := make([]Category, len(c.table))
	copy(out, c.table)
	return out
}
