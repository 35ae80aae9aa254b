package standardize

import (
	"regexp"
)

// CountryIndex resolves raw country and province names against the
// country/province reference table. Built once at startup, read-only after.
type CountryIndex struct {
	// countries: folded short code or full name -> canonical short code
	countries map[string]string
	// provinces: (folded country, folded province) -> canonical province
	provinces map[[2]string]string
	// byProvince: folded province -> matches across countries
	byProvince map[string][]countryProvince
}

type countryProvince struct {
	country  string
	province string
}

var countryPrefix = regexp.MustCompile(`^(the\s+|republic\s+of\s+)`)

// LoadCountryIndex reads the country dictionary. Required columns:
// country (canonical short code), country_full_name, province.
func LoadCountryIndex(path string) (*CountryIndex, error) {
	rows, err := readDictionary(path, []string{"country", "country_full_name", "province"})
	if err != nil {
		return nil, err
	}
	return NewCountryIndex(rows), nil
}

// NewCountryIndex builds the index from decoded dictionary rows.
func NewCountryIndex(rows []map[string]string) *CountryIndex {
	idx := &CountryIndex{
		countries:  make(map[string]string),
		provinces:  make(map[[2]string]string),
		byProvince: make(map[string][]countryProvince),
	}
	for _, row := range rows {
		country := row["country"]
		fullName := row["country_full_name"]
		province := row["province"]

		if country != "" {
			idx.countries[foldKey(country)] = country
		}
		if fullName != "" && country != "" {
			idx.countries[foldKey(fullName)] = country
		}
		if country != "" && province != "" {
			key := [2]string{foldKey(country), foldKey(province)}
			idx.provinces[key] = province
			pk := foldKey(province)
			idx.byProvince[pk] = append(idx.byProvince[pk], countryProvince{country: country, province: province})
		}
	}
	return idx
}

// Country returns the canonical country for raw, trying the short code and
// full name first, then a prefix-stripped form, then the longest substring
// containment. A miss returns (raw, false).
func (idx *CountryIndex) Country(raw string) (string, bool) {
	if raw == "" {
		return "", true
	}
	key := foldKey(raw)
	if std, ok := idx.countries[key]; ok {
		return std, true
	}

	// "The Philippines", "Republic of Korea" and similar.
	stripped := foldKey(countryPrefix.ReplaceAllString(lowerTrim(raw), ""))
	if std, ok := idx.countries[stripped]; ok {
		return std, true
	}

	// Containment either way; longest reference entry wins.
	best, bestLen := "", 0
	for refKey, std := range idx.countries {
		if contains(refKey, key) || contains(key, refKey) {
			if len(refKey) > bestLen {
				best, bestLen = std, len(refKey)
			}
		}
	}
	if best != "" {
		return best, true
	}
	return raw, false
}

// Province returns the canonical province for raw within country (the
// already-standardized country, may be empty). A miss returns (raw, false).
func (idx *CountryIndex) Province(raw, country string) (string, bool) {
	if raw == "" {
		return "", true
	}
	countryKey := foldKey(country)
	provinceKey := foldKey(raw)

	if countryKey != "" {
		if std, ok := idx.provinces[[2]string{countryKey, provinceKey}]; ok {
			return std, true
		}
	}

	// Province name alone; prefer the entry from the given country.
	if matches, ok := idx.byProvince[provinceKey]; ok {
		if countryKey != "" {
			for _, m := range matches {
				if foldKey(m.country) == countryKey {
					return m.province, true
				}
			}
		}
		return matches[0].province, true
	}

	// Substring match restricted to the country's own provinces.
	if countryKey != "" {
		for key, std := range idx.provinces {
			if key[0] == countryKey && (contains(key[1], provinceKey) || contains(provinceKey, key[1])) {
				return std, true
			}
		}
	}
	return raw, false
}
