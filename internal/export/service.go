package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/epiwatch/outbreak-extractor/constants"
	"github.com/epiwatch/outbreak-extractor/internal/batch"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
)

// Service renders a finished run into its output artifacts: the XLSX
// workbook (extracted/timing/summary), the standalone timing CSV, the
// unmatched-terms file, and a JSON fallback when the workbook write fails.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var timingHeader = []string{
	"row_id", "source_url", "process_seconds", "status", "error", "attempts", "full_text_chars",
}

// WriteWorkbook writes the three-sheet workbook to path.
func (s *Service) WriteWorkbook(path string, results []batch.Result, summary batch.Summary) error {
	start := time.Now()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := s.writeExtractedSheet(f, results); err != nil {
		return err
	}
	if err := s.writeTimingSheet(f, results); err != nil {
		return err
	}
	if err := s.writeSummarySheet(f, summary); err != nil {
		return err
	}
	// Drop the default sheet left over from NewFile.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.workbook.ok",
		"path", path,
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Service) writeExtractedSheet(f *excelize.File, results []batch.Result) error {
	const sheet = "extracted"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	header := append(append([]string{}, constants.TargetFields...), constants.DerivedFields...)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, res := range results {
		if err := writeRow(f, sheet, i+2, extractedValues(res)); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 40) // source_url
	_ = f.SetColWidth(sheet, "B", "B", 32) // title
	return nil
}

func (s *Service) writeTimingSheet(f *excelize.File, results []batch.Result) error {
	const sheet = "timing"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	if err := writeRow(f, sheet, 1, timingHeader); err != nil {
		return err
	}
	for i, res := range results {
		if err := writeRow(f, sheet, i+2, timingValues(res)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeSummarySheet(f *excelize.File, summary batch.Summary) error {
	const sheet = "summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	header, values := summaryRow(summary)
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	return writeRow(f, sheet, 2, values)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

// WriteTimingCSV mirrors the timing sheet into a standalone CSV for
// external plotting.
func (s *Service) WriteTimingCSV(path string, results []batch.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create timing csv: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	w := csv.NewWriter(f)
	if err := w.Write(timingHeader); err != nil {
		return fmt.Errorf("write timing header: %w", err)
	}
	for _, res := range results {
		if err := w.Write(timingValues(res)); err != nil {
			return fmt.Errorf("write timing row %d: %w", res.RowID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush timing csv: %w", err)
	}
	s.logger.Info("export.timing.ok", "path", path, "rows", len(results))
	return nil
}

// WriteUnmatched flushes the deduplicated unmatched terms, one section per
// category, one value per line. Nothing is written when every value matched.
func (s *Service) WriteUnmatched(path string, unmatched *standardize.Unmatched) error {
	if unmatched == nil || unmatched.Len() == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var b strings.Builder
	divider := strings.Repeat("=", 60)
	sections := []struct {
		category standardize.Category
		title    string
	}{
		{standardize.CategoryCountry, "Unmatched Country Names"},
		{standardize.CategoryProvince, "Unmatched Province Names (country|province)"},
		{standardize.CategoryPathogen, "Unmatched Pathogen Names"},
		{standardize.CategoryHost, "Unmatched Host Names"},
	}
	for _, sec := range sections {
		values := unmatched.Values(sec.category)
		if len(values) == 0 {
			continue
		}
		b.WriteString(divider + "\n")
		b.WriteString(sec.title + "\n")
		b.WriteString(divider + "\n")
		for _, v := range values {
			b.WriteString("  " + v + "\n")
		}
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write unmatched file: %w", err)
	}
	s.logger.Info("export.unmatched.ok", "path", path, "terms", unmatched.Len())
	return nil
}

// WriteJSONFallback emits the three views as one JSON document when the
// workbook cannot be written.
func (s *Service) WriteJSONFallback(path string, results []batch.Result, summary batch.Summary) error {
	type timingRow struct {
		RowID          int     `json:"row_id"`
		SourceURL      string  `json:"source_url"`
		ProcessSeconds float64 `json:"process_seconds"`
		Status         string  `json:"status"`
		Error          string  `json:"error"`
		Attempts       int     `json:"attempts"`
		FullTextChars  int     `json:"full_text_chars"`
	}
	payload := struct {
		Extracted []map[string]string `json:"extracted"`
		Timing    []timingRow         `json:"timing"`
		Summary   batch.Summary       `json:"summary"`
	}{Summary: summary}

	header := append(append([]string{}, constants.TargetFields...), constants.DerivedFields...)
	for _, res := range results {
		values := extractedValues(res)
		m := make(map[string]string, len(header))
		for i, name := range header {
			m[name] = values[i]
		}
		payload.Extracted = append(payload.Extracted, m)
		payload.Timing = append(payload.Timing, timingRow{
			RowID:          res.RowID,
			SourceURL:      res.SourceURL,
			ProcessSeconds: res.Seconds,
			Status:         string(res.Status),
			Error:          res.Error,
			Attempts:       res.Attempts,
			FullTextChars:  res.TextChars,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fallback payload: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write fallback json: %w", err)
	}
	s.logger.Warn("export.json_fallback.ok", "path", path, "rows", len(results))
	return nil
}
