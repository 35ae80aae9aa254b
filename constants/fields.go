package constants

// Extracted record field names. Column order in the "extracted" sheet and in
// the results store follows TargetFields exactly.
const (
	FieldSourceURL         = "source_url"
	FieldTitle             = "title"
	FieldPathogenType      = "pathogen_type"
	FieldPathogen          = "pathogen"
	FieldSubtype           = "subtype"
	FieldOriginalContinent = "original_continent"
	FieldOriginalCountry   = "original_country"
	FieldOriginalProvince  = "original_province"
	FieldSpreadContinent   = "spread_continent"
	FieldSpreadCountry     = "spread_country"
	FieldSpreadProvince    = "spread_province"
	FieldStartDate         = "start_date"
	FieldEndDate           = "end_date"
	FieldHost              = "host"
	FieldInfectionNum      = "infection_num"
	FieldDeathNum          = "death_num"
	FieldEventType         = "event_type"
)

// TargetFields lists every field the model is asked to extract, in output order.
var TargetFields = []string{
	FieldSourceURL,
	FieldTitle,
	FieldPathogenType,
	FieldPathogen,
	FieldSubtype,
	FieldOriginalContinent,
	FieldOriginalCountry,
	FieldOriginalProvince,
	FieldSpreadContinent,
	FieldSpreadCountry,
	FieldSpreadProvince,
	FieldStartDate,
	FieldEndDate,
	FieldHost,
	FieldInfectionNum,
	FieldDeathNum,
	FieldEventType,
}

// DerivedFields are the columns the normalizer appends after the target
// fields: canonical classification ranks plus date components.
var DerivedFields = []string{
	"pathogen_rank_1",
	"pathogen_rank_2",
	"host_rank_1",
	"host_rank_2",
	"start_date_year",
	"start_date_month",
	"start_date_day",
	"end_date_year",
	"end_date_month",
	"end_date_day",
}
