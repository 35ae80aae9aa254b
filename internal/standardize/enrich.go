package standardize

import (
	"github.com/epiwatch/outbreak-extractor/internal/llm"
)

// Derived holds the columns the enricher appends to an extracted record:
// classification ranks and split date components. Canonical country,
// province and pathogen values are written back into the fields themselves.
type Derived struct {
	PathogenRank1 string
	PathogenRank2 string
	HostRank1     string
	HostRank2     string
	StartDate     DateParts
	EndDate       DateParts
}

// Enricher applies the three reference indexes and the date splitter to
// extracted fields. All indexes are read-only after load, so one Enricher is
// shared by every worker without locking; only the Unmatched collector
// serializes.
type Enricher struct {
	Countries *CountryIndex
	Pathogens *PathogenIndex
	Hosts     *HostIndex
	Unmatched *Unmatched
}

func NewEnricher(countries *CountryIndex, pathogens *PathogenIndex, hosts *HostIndex) *Enricher {
	return &Enricher{
		Countries: countries,
		Pathogens: pathogens,
		Hosts:     hosts,
		Unmatched: NewUnmatched(),
	}
}

// Enrich standardizes fields in place and returns the derived columns.
// A value that matches nothing passes through unchanged and is recorded once
// in the Unmatched collector under its category.
func (e *Enricher) Enrich(fields *llm.OutbreakFields) Derived {
	var d Derived

	if e.Countries != nil {
		fields.OriginalCountry, fields.OriginalProvince = e.place(fields.OriginalCountry, fields.OriginalProvince)
		fields.SpreadCountry, fields.SpreadProvince = e.place(fields.SpreadCountry, fields.SpreadProvince)
	}

	if e.Pathogens != nil {
		triple, ok := e.Pathogens.Standardize(fields.Pathogen)
		if !ok {
			e.Unmatched.Record(CategoryPathogen, fields.Pathogen)
		}
		fields.Pathogen = triple.Pathogen
		d.PathogenRank1 = triple.Rank1
		d.PathogenRank2 = triple.Rank2
	}

	if e.Hosts != nil {
		// Raw host is preserved verbatim; only the ranks are derived.
		ranks, ok := e.Hosts.Standardize(fields.Host)
		if !ok {
			e.Unmatched.Record(CategoryHost, fields.Host)
		}
		d.HostRank1 = ranks.Rank1
		d.HostRank2 = ranks.Rank2
	}

	d.StartDate = SplitDate(fields.StartDate)
	d.EndDate = SplitDate(fields.EndDate)
	return d
}

// place standardizes one country/province pair, the province within the
// already-standardized country.
func (e *Enricher) place(rawCountry, rawProvince string) (string, string) {
	country, ok := e.Countries.Country(rawCountry)
	if !ok {
		e.Unmatched.Record(CategoryCountry, rawCountry)
	}
	province, ok := e.Countries.Province(rawProvince, country)
	if !ok {
		e.Unmatched.Record(CategoryProvince, country+"|"+rawProvince)
	}
	return country, province
}
