package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/epiwatch/outbreak-extractor/internal/common"
)

// Input table column names.
const (
	colDetailURL = "detail_url"
	colFullText  = "full_text"
)

// ReadInputCSV loads the work set from a CSV file. The table must carry
// detail_url and full_text columns; anything else is ignored. limit > 0
// keeps only the first limit rows. A malformed or incomplete header is a
// fatal startup error.
func ReadInputCSV(path string, limit int) ([]InputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input csv: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return parseInput(f, limit)
}

func parseInput(r io.Reader, limit int) ([]InputRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows tolerated; missing cells read as empty

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read input header: %w", err)
	}
	urlIdx, textIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")) {
		case colDetailURL:
			urlIdx = i
		case colFullText:
			textIdx = i
		}
	}
	if urlIdx < 0 || textIdx < 0 {
		return nil, common.NewAppError("INPUT_ERROR",
			fmt.Sprintf("input CSV must include columns: %s, %s", colDetailURL, colFullText),
			common.ErrInvalidInput)
	}

	var rows []InputRow
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input row %d: %w", i, err)
		}
		row := InputRow{RowID: i}
		if urlIdx < len(record) {
			row.SourceURL = strings.TrimSpace(record[urlIdx])
		}
		if textIdx < len(record) {
			row.Text = strings.TrimSpace(record[textIdx])
		}
		rows = append(rows, row)
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	return rows, nil
}
