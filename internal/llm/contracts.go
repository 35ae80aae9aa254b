package llm

import "context"

// OutbreakFields is the normalized shape we want from the LLM.
type OutbreakFields struct {
	SourceURL         string `json:"source_url"`
	Title             string `json:"title,omitempty"`
	PathogenType      string `json:"pathogen_type,omitempty"` // virus / bacteria / parasite ...
	Pathogen          string `json:"pathogen,omitempty"`
	Subtype           string `json:"subtype,omitempty"`
	OriginalContinent string `json:"original_continent,omitempty"`
	OriginalCountry   string `json:"original_country,omitempty"`
	OriginalProvince  string `json:"original_province,omitempty"`
	SpreadContinent   string `json:"spread_continent,omitempty"`
	SpreadCountry     string `json:"spread_country,omitempty"`
	SpreadProvince    string `json:"spread_province,omitempty"`
	StartDate         string `json:"start_date,omitempty"` // YYYY-MM-DD, possibly partial
	EndDate           string `json:"end_date,omitempty"`   // YYYY-MM-DD, possibly partial
	Host              string `json:"host,omitempty"`
	InfectionNum      string `json:"infection_num,omitempty"`
	DeathNum          string `json:"death_num,omitempty"`
	EventType         string `json:"event_type,omitempty"`

	// Extra carries schema-free key/value pairs the model volunteers beyond
	// the fixed fields. Kept separate so typed fields stay schema-checked.
	Extra map[string]string `json:"extra_fields,omitempty"`
}

// ExtractRequest describes one row handed to the extractor.
type ExtractRequest struct {
	SourceURL string
	Text      string // raw document text; client applies the MaxChars cap
	MaxChars  int    // hard input length cap, head is kept
}

// FieldExtractor is the interface the batch engine depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (OutbreakFields, []byte /*rawJSON*/, error)
}
