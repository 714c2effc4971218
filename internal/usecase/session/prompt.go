package session

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/retrieval"
	"github.com/kailas-cloud/docqa/internal/intent"
)

// NoDocumentReply is returned for queries before any document is set.
const NoDocumentReply = "Please upload a document first so I can help you with your questions."

// NoContentContext is handed to the generator when retrieval finds nothing.
const NoContentContext = "No relevant content found in the document for this query."

const apologyPrefix = "I apologize, but I'm experiencing technical difficulties. Please try again. Error: "

// Apology converts a generator failure into the user-facing reply.
func Apology(err error) string {
	return apologyPrefix + err.Error()
}

const basePrompt = `You are an expert documentation assistant. %s

Your role is to provide helpful, accurate, and actionable guidance based on the uploaded documentation.

Guidelines:
1. Answer questions directly and concisely
2. Provide step-by-step instructions when appropriate
3. Reference specific sections or pages when possible
4. If information isn't in the documentation, clearly state that
5. Ask clarifying questions when needed
6. Use examples from the documentation when available

Current query intent: %s`

// systemPrompt describes the loaded document and steers the answer toward the intent.
func systemPrompt(info Info, cat intent.Category) string {
	docInfo := fmt.Sprintf("\nDocument Context:\n- Title: %s\n- Pages: %d\n- Sections: %d\n",
		info.Title, info.PageCount, info.SectionCount)

	prompt := fmt.Sprintf(basePrompt, docInfo, cat.Name)
	if cat.Focus != "" {
		prompt += "\nFocus on: " + cat.Focus
	}
	return prompt
}

// buildContext lists retrieved chunks with their section provenance, in rank order.
func buildContext(intentName string, results []retrieval.Result) string {
	if len(results) == 0 {
		return NoContentContext
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Relevant documentation sections for %s query:\n\n", intentName)
	for i := range results {
		c := results[i].Chunk()
		fmt.Fprintf(&sb, "Section %d (from %s):\n%s\n\n", i+1, c.Section, c.Text)
	}
	return sb.String()
}
