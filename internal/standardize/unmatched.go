package standardize

import (
	"sort"
	"sync"
)

// Category tags an unmatched raw value with the dictionary it missed.
type Category string

const (
	CategoryCountry  Category = "country"
	CategoryProvince Category = "province"
	CategoryPathogen Category = "pathogen"
	CategoryHost     Category = "host"
)

// UnmatchedRecord is one unique (category, raw value) miss.
type UnmatchedRecord struct {
	Category Category
	Value    string
}

// Unmatched collects raw values that matched nothing, deduplicated per run.
// Workers record concurrently; the run flushes once at the end.
type Unmatched struct {
	mu   sync.Mutex
	seen map[Category]map[string]struct{}
}

func NewUnmatched() *Unmatched {
	return &Unmatched{seen: make(map[Category]map[string]struct{})}
}

// Record remembers value under category. Duplicate records are no-ops.
func (u *Unmatched) Record(category Category, value string) {
	if value == "" {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	set, ok := u.seen[category]
	if !ok {
		set = make(map[string]struct{})
		u.seen[category] = set
	}
	set[value] = struct{}{}
}

// Values returns the sorted unique values recorded under category.
func (u *Unmatched) Values(category Category) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	set := u.seen[category]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// All returns every record sorted by category then value.
func (u *Unmatched) All() []UnmatchedRecord {
	var out []UnmatchedRecord
	for _, c := range []Category{CategoryCountry, CategoryProvince, CategoryPathogen, CategoryHost} {
		for _, v := range u.Values(c) {
			out = append(out, UnmatchedRecord{Category: c, Value: v})
		}
	}
	return out
}

// Len reports the number of unique records.
func (u *Unmatched) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, set := range u.seen {
		n += len(set)
	}
	return n
}
