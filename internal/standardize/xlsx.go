package standardize

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/epiwatch/outbreak-extractor/internal/common"
)

// readDictionary loads the first sheet of an XLSX reference table into one
// map per data row, keyed by trimmed header name. Every column in required
// must be present; a missing column is a startup error, not a per-row one.
func readDictionary(path string, required []string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.NewAppError("DICT_ERROR", fmt.Sprintf("%s has no sheets", path), common.ErrSchema)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, common.NewAppError("DICT_ERROR", fmt.Sprintf("%s is empty", path), common.ErrSchema)
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, common.NewAppError("DICT_ERROR",
				fmt.Sprintf("%s missing required column %q", path, col), common.ErrSchema)
		}
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for name, idx := range header {
			if idx < len(row) {
				m[name] = strings.TrimSpace(row[idx])
			}
		}
		out = append(out, m)
	}
	return out, nil
}
