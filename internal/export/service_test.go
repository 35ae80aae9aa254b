package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/epiwatch/outbreak-extractor/constants"
	"github.com/epiwatch/outbreak-extractor/internal/batch"
	"github.com/epiwatch/outbreak-extractor/internal/llm"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
)

func testResults() []batch.Result {
	return []batch.Result{
		{
			RowID:     0,
			SourceURL: "https://example.org/a",
			Status:    constants.RowStatusOK,
			Attempts:  1,
			Seconds:   1.25,
			TextChars: 900,
			Fields: &llm.OutbreakFields{
				SourceURL:       "https://example.org/a",
				Title:           "H5N1 outbreak in poultry",
				Pathogen:        "FLU_A_H5N1",
				OriginalCountry: "KOR",
				StartDate:       "2024-03-01",
				Host:            "chicken",
			},
			Derived: &standardize.Derived{
				PathogenRank1: "INFLUENZA",
				PathogenRank2: "FLU_A",
				HostRank1:     "ANIMAL",
				HostRank2:     "BIRD",
				StartDate:     standardize.DateParts{Year: "2024", Month: "03", Day: "01"},
			},
		},
		{
			RowID:     1,
			SourceURL: "https://example.org/b",
			Status:    constants.RowStatusFailed,
			Error:     "malformed: no json",
			Attempts:  1,
			Seconds:   0.5,
			TextChars: 40,
		},
	}
}

func testSummary() batch.Summary {
	return batch.Summary{
		ModelName:        "Deepseek-V3",
		RowsTotal:        2,
		RowsFailed:       1,
		Workers:          2,
		Retries:          1,
		TotalSeconds:     2.0,
		AvgSeconds:       1.25,
		P50Seconds:       1.25,
		P90Seconds:       1.25,
		P95Seconds:       1.25,
		ThroughputPerMin: 60,
	}
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "extracted.xlsx")
	svc := NewService(nil)

	require.NoError(t, svc.WriteWorkbook(path, testResults(), testSummary()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	assert.ElementsMatch(t, []string{"extracted", "timing", "summary"}, f.GetSheetList())

	rows, err := f.GetRows("extracted")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per result")
	wantHeader := append(append([]string{}, constants.TargetFields...), constants.DerivedFields...)
	assert.Equal(t, wantHeader, rows[0])
	assert.Equal(t, "https://example.org/a", rows[1][0])
	assert.Equal(t, "H5N1 outbreak in poultry", rows[1][1])
	assert.Equal(t, "FLU_A_H5N1", rows[1][3])
	// Failed row keeps only the source URL.
	assert.Equal(t, "https://example.org/b", rows[2][0])
	for _, cell := range rows[2][1:] {
		assert.Empty(t, cell)
	}

	timing, err := f.GetRows("timing")
	require.NoError(t, err)
	require.Len(t, timing, 3)
	assert.Equal(t, timingHeader, timing[0])
	assert.Equal(t, []string{"0", "https://example.org/a", "1.2500", "ok", "", "1", "900"}, timing[1])
	assert.Equal(t, "failed", timing[2][3])
	assert.Equal(t, "malformed: no json", timing[2][4])

	summary, err := f.GetRows("summary")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "model_name", summary[0][0])
	assert.Equal(t, "Deepseek-V3", summary[1][0])
	assert.Equal(t, "false", summary[1][11])
}

func TestWriteTimingCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timing.csv")
	svc := NewService(nil)

	require.NoError(t, svc.WriteTimingCSV(path, testResults()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, timingHeader, records[0])
	assert.Equal(t, "0.5000", records[2][2])
}

func TestWriteUnmatched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unmatched.txt")
	svc := NewService(nil)

	u := standardize.NewUnmatched()
	u.Record(standardize.CategoryPathogen, "mystery agent")
	u.Record(standardize.CategoryPathogen, "another agent")
	u.Record(standardize.CategoryCountry, "Fooistan")

	require.NoError(t, svc.WriteUnmatched(path, u))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Unmatched Country Names")
	assert.Contains(t, text, "  Fooistan")
	assert.Contains(t, text, "Unmatched Pathogen Names")
	assert.Contains(t, text, "  another agent")
	assert.NotContains(t, text, "Unmatched Host Names", "empty categories are skipped")
}

func TestWriteUnmatchedSkipsWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unmatched.txt")
	svc := NewService(nil)

	require.NoError(t, svc.WriteUnmatched(path, standardize.NewUnmatched()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file when everything matched")
}

func TestWriteJSONFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extracted.json")
	svc := NewService(nil)

	require.NoError(t, svc.WriteJSONFallback(path, testResults(), testSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var payload struct {
		Extracted []map[string]string `json:"extracted"`
		Timing    []map[string]any    `json:"timing"`
		Summary   batch.Summary       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.Extracted, 2)
	assert.Equal(t, "FLU_A_H5N1", payload.Extracted[0]["pathogen"])
	assert.Equal(t, "2024", payload.Extracted[0]["start_date_year"])
	require.Len(t, payload.Timing, 2)
	assert.Equal(t, "failed", payload.Timing[1]["status"])
	assert.Equal(t, "Deepseek-V3", payload.Summary.ModelName)
}
