package llm

import "strings"

const systemPrompt = "You are an epidemiological information extractor. " +
	"Read the provided outbreak report and return ONLY JSON matching the provided schema. " +
	"Use ISO-8601 dates (YYYY-MM-DD); partial dates like YYYY or YYYY-MM are acceptable. " +
	"Leave a field empty if the report does not state it. Never output null."

// SystemPrompt returns the fixed extraction instruction sent on every call.
func SystemPrompt() string { return systemPrompt }

// BuildUserPrompt renders the per-row prompt from the source URL and the
// (already truncated) document text.
func BuildUserPrompt(sourceURL, text string) string {
	var b strings.Builder
	b.WriteString("Source URL: ")
	b.WriteString(sourceURL)
	b.WriteString("\n\nReport text:\n")
	b.WriteString(text)
	return b.String()
}
