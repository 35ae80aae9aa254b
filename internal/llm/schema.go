package llm

// BuildOutbreakJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We hand it to the model as a structured-output constraint and also use it locally
// to validate whatever comes back.
func BuildOutbreakJSONSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	props := map[string]any{
		"source_url":         str(),
		"title":              str(),
		"pathogen_type":      str(),
		"pathogen":           str(),
		"subtype":            str(),
		"original_continent": str(),
		"original_country":   str(),
		"original_province":  str(),
		"spread_continent":   str(),
		"spread_country":     str(),
		"spread_province":    str(),
		// Partial dates are allowed: YYYY, YYYY-MM, or YYYY-MM-DD.
		"start_date":    map[string]any{"type": "string", "pattern": `^(\d{4}(-\d{2}){0,2})?$`},
		"end_date":      map[string]any{"type": "string", "pattern": `^(\d{4}(-\d{2}){0,2})?$`},
		"host":          str(),
		"infection_num": str(),
		"death_num":     str(),
		"event_type":    str(),
		"extra_fields": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
