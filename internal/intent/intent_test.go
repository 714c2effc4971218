package intent

import "testing"

func newDefault(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultTable())
	if err != nil {
		t.Fatalf("default table rejected: %v", err)
	}
	return c
}

func TestClassify(t *testing.T) {
	c := newDefault(t)

	tests := []struct {
		query string
		want  string
	}{
		{"How do I install the CLI?", "getting_started"},
		{"The upload keeps failing with an error", "troubleshooting"},
		{"Walk me through the deployment process", "how_to"},
		{"What does the scheduler do?", "features"},
		{"Can I customize the theme?", "configuration"},
		{"Which endpoint returns users?", "api"},
		{"Give me a sample payload", "examples"},
		// "show" contains "how", and how_to comes before examples.
		{"Show me a demo", "how_to"},
		{"Who wrote this document?", General},
		{"", General},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			if got := c.Classify(tc.query).Name; got != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.query, got, tc.want)
			}
		})
	}
}

func TestClassify_TieBreakByTableOrder(t *testing.T) {
	c := newDefault(t)

	// "error" (troubleshooting) and "tutorial" (how_to): troubleshooting is declared first.
	if got := c.Classify("I get an error during the tutorial").Name; got != "troubleshooting" {
		t.Errorf("expected troubleshooting, got %s", got)
	}
	// "config" (configuration) and "endpoint" (api): configuration is declared first.
	if got := c.Classify("which config option affects the endpoint").Name; got != "configuration" {
		t.Errorf("expected configuration, got %s", got)
	}
}

func TestClassify_ReorderedTableChangesWinner(t *testing.T) {
	table := []Category{
		{Name: "api", Keywords: []string{"endpoint"}},
		{Name: "configuration", Keywords: []string{"config"}},
	}
	c, err := NewClassifier(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Classify("which config option affects the endpoint").Name; got != "api" {
		t.Errorf("expected api, got %s", got)
	}
}

func TestClassify_FocusCarried(t *testing.T) {
	cat := newDefault(t).Classify("there is a problem")
	if cat.Focus == "" {
		t.Error("expected focus text for troubleshooting")
	}
	if newDefault(t).Classify("hello").Focus != "" {
		t.Error("general intent has no focus")
	}
}

func TestNewClassifier_Validation(t *testing.T) {
	tests := []struct {
		name  string
		table []Category
	}{
		{"missing name", []Category{{Keywords: []string{"x"}}}},
		{"duplicate name", []Category{{Name: "a", Keywords: []string{"x"}}, {Name: "a", Keywords: []string{"y"}}}},
		{"no keywords", []Category{{Name: "a", Keywords: []string{"  "}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClassifier(tc.table); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewClassifier_LowercasesKeywords(t *testing.T) {
	c, err := NewClassifier([]Category{{Name: "api", Keywords: []string{" REST "}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Classify("is there a rest interface").Name; got != "api" {
		t.Errorf("expected api, got %s", got)
	}
}
