package standardize

// HostRanks is the classification pair for a host match. The raw host string
// itself is preserved verbatim by the caller.
type HostRanks struct {
	Rank1 string // broad category: Human, Mammal, Avian, Arthropod, ...
	Rank2 string // specific name: Dove, Mosquito, Pig, ...
}

// HostIndex resolves raw host strings against the host tag table.
type HostIndex struct {
	byHost  map[string]HostRanks
	byRank2 map[string]HostRanks
	byRank1 map[string]string
}

// LoadHostIndex reads the host dictionary. Required columns:
// host, host_rank_1, host_rank_2.
func LoadHostIndex(path string) (*HostIndex, error) {
	rows, err := readDictionary(path, []string{"host", "host_rank_1", "host_rank_2"})
	if err != nil {
		return nil, err
	}
	return NewHostIndex(rows), nil
}

// NewHostIndex builds the index from decoded dictionary rows.
func NewHostIndex(rows []map[string]string) *HostIndex {
	idx := &HostIndex{
		byHost:  make(map[string]HostRanks),
		byRank2: make(map[string]HostRanks),
		byRank1: make(map[string]string),
	}
	for _, row := range rows {
		ranks := HostRanks{Rank1: row["host_rank_1"], Rank2: row["host_rank_2"]}
		if host := row["host"]; host != "" {
			idx.byHost[foldKey(host)] = ranks
		}
		if ranks.Rank2 != "" {
			key := foldKey(ranks.Rank2)
			if _, ok := idx.byRank2[key]; !ok {
				idx.byRank2[key] = ranks
			}
		}
		if ranks.Rank1 != "" {
			key := foldKey(ranks.Rank1)
			if _, ok := idx.byRank1[key]; !ok {
				idx.byRank1[key] = ranks.Rank1
			}
		}
	}
	return idx
}

// Standardize resolves raw into (rank_1, rank_2). Priority: host exact,
// rank_2 exact, rank_1 exact, host substring (longest), rank_2 substring.
// A miss returns empty ranks and ok=false.
func (idx *HostIndex) Standardize(raw string) (HostRanks, bool) {
	if raw == "" {
		return HostRanks{}, true
	}
	key := foldKey(raw)

	if r, ok := idx.byHost[key]; ok {
		return r, true
	}
	if r, ok := idx.byRank2[key]; ok {
		return r, true
	}
	if r1, ok := idx.byRank1[key]; ok {
		return HostRanks{Rank1: r1}, true
	}

	if r, ok := longestRankMatch(idx.byHost, key); ok {
		return r, true
	}
	if r, ok := longestRankMatch(idx.byRank2, key); ok {
		return r, true
	}
	return HostRanks{}, false
}

func longestRankMatch(lookup map[string]HostRanks, key string) (HostRanks, bool) {
	var best HostRanks
	bestLen := 0
	for refKey, r := range lookup {
		if contains(refKey, key) || contains(key, refKey) {
			if len(refKey) > bestLen {
				best, bestLen = r, len(refKey)
			}
		}
	}
	return best, bestLen > 0
}
