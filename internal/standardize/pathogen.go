package standardize

// PathogenTriple is the canonical classification emitted for a pathogen
// match: the specific code plus its broad (rank 1) and subgroup (rank 2) tiers.
type PathogenTriple struct {
	Pathogen string
	Rank1    string
	Rank2    string
}

// PathogenIndex resolves raw pathogen strings against the pathogen feature
// table. Matching prefers the most specific reference column: pathogen code,
// then human-readable name, then rank_2, then rank_1.
type PathogenIndex struct {
	byCode  map[string]PathogenTriple // folded pathogen code
	byName  map[string]PathogenTriple // folded pathogen_name alias
	byRank2 map[string]PathogenTriple // folded rank_2, Pathogen left empty
	byRank1 map[string]string         // folded rank_1 -> canonical rank_1
}

// LoadPathogenIndex reads the pathogen dictionary. Required columns:
// pathogen, pathogen_rank_1, pathogen_rank_2, pathogen_name.
func LoadPathogenIndex(path string) (*PathogenIndex, error) {
	rows, err := readDictionary(path, []string{"pathogen", "pathogen_rank_1", "pathogen_rank_2", "pathogen_name"})
	if err != nil {
		return nil, err
	}
	return NewPathogenIndex(rows), nil
}

// NewPathogenIndex builds the index from decoded dictionary rows.
func NewPathogenIndex(rows []map[string]string) *PathogenIndex {
	idx := &PathogenIndex{
		byCode:  make(map[string]PathogenTriple),
		byName:  make(map[string]PathogenTriple),
		byRank2: make(map[string]PathogenTriple),
		byRank1: make(map[string]string),
	}
	for _, row := range rows {
		triple := PathogenTriple{
			Pathogen: row["pathogen"],
			Rank1:    row["pathogen_rank_1"],
			Rank2:    row["pathogen_rank_2"],
		}
		if triple.Pathogen != "" {
			idx.byCode[foldKey(triple.Pathogen)] = triple
		}
		if name := row["pathogen_name"]; name != "" {
			idx.byName[foldKey(name)] = triple
		}
		if triple.Rank2 != "" {
			key := foldKey(triple.Rank2)
			if _, ok := idx.byRank2[key]; !ok {
				idx.byRank2[key] = PathogenTriple{Rank1: triple.Rank1, Rank2: triple.Rank2}
			}
		}
		if triple.Rank1 != "" {
			key := foldKey(triple.Rank1)
			if _, ok := idx.byRank1[key]; !ok {
				idx.byRank1[key] = triple.Rank1
			}
		}
	}
	return idx
}

// Standardize resolves raw into its canonical triple. Priority: code exact,
// name exact, rank_2 exact, rank_1 exact, then name substring (longest alias
// wins) and code substring. A miss returns the raw value as the pathogen
// with empty ranks and ok=false.
func (idx *PathogenIndex) Standardize(raw string) (PathogenTriple, bool) {
	if raw == "" {
		return PathogenTriple{}, true
	}
	key := foldKey(raw)

	if t, ok := idx.byCode[key]; ok {
		return t, true
	}
	if t, ok := idx.byName[key]; ok {
		return t, true
	}
	if t, ok := idx.byRank2[key]; ok {
		return t, true
	}
	if r1, ok := idx.byRank1[key]; ok {
		return PathogenTriple{Rank1: r1}, true
	}

	// "H5N1" inside "Influenza A H5N1" and the reverse. Exact tiers run
	// first so a raw rank name never falls through to a broader substring.
	if t, ok := longestMatch(idx.byName, key); ok {
		return t, true
	}
	if t, ok := longestMatch(idx.byCode, key); ok {
		return t, true
	}
	return PathogenTriple{Pathogen: raw}, false
}

// longestMatch scans lookup for containment either way and returns the entry
// with the longest reference key.
func longestMatch(lookup map[string]PathogenTriple, key string) (PathogenTriple, bool) {
	var best PathogenTriple
	bestLen := 0
	for refKey, t := range lookup {
		if contains(refKey, key) || contains(key, refKey) {
			if len(refKey) > bestLen {
				best, bestLen = t, len(refKey)
			}
		}
	}
	return best, bestLen > 0
}
