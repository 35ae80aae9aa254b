package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a surrounding markdown code fence, if any. Models
// wrap JSON in ```json blocks often enough that this runs on every response.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}
	if strings.HasSuffix(text, "```") {
		if i := strings.LastIndex(text, "\n"); i >= 0 {
			text = text[:i]
		} else {
			text = ""
		}
	}
	return strings.TrimSpace(text)
}

// DecodeFields parses model output into OutbreakFields. The content is
// fence-stripped, schema-validated, then unmarshaled. All failures are
// classified Malformed: a response that doesn't parse won't parse next
// attempt either.
func DecodeFields(content string) (OutbreakFields, []byte, error) {
	cleaned := []byte(StripCodeFences(content))
	if len(cleaned) == 0 {
		return OutbreakFields{}, nil, NewError(KindMalformed, fmt.Errorf("empty model response"))
	}
	if err := ValidateJSONAgainstSchema(BuildOutbreakJSONSchema(), cleaned); err != nil {
		return OutbreakFields{}, cleaned, NewError(KindMalformed, fmt.Errorf("schema validation failed: %w", err))
	}
	var out OutbreakFields
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return OutbreakFields{}, cleaned, NewError(KindMalformed, fmt.Errorf("unmarshal fields: %w", err))
	}
	return out, cleaned, nil
}

// TruncateText applies the hard input length cap, keeping the head.
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}
