package export

import (
	"fmt"

	"github.com/epiwatch/outbreak-extractor/internal/batch"
	"github.com/epiwatch/outbreak-extractor/internal/llm"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
)

// extractedValues renders one result as the extracted-sheet row, target
// fields first, derived columns after. A failed row keeps only its source
// URL so the sheet stays aligned with the input.
func extractedValues(res batch.Result) []string {
	fields := res.Fields
	if fields == nil {
		fields = &llm.OutbreakFields{SourceURL: res.SourceURL}
	}
	derived := res.Derived
	if derived == nil {
		derived = &standardize.Derived{}
	}
	return []string{
		fields.SourceURL,
		fields.Title,
		fields.PathogenType,
		fields.Pathogen,
		fields.Subtype,
		fields.OriginalContinent,
		fields.OriginalCountry,
		fields.OriginalProvince,
		fields.SpreadContinent,
		fields.SpreadCountry,
		fields.SpreadProvince,
		fields.StartDate,
		fields.EndDate,
		fields.Host,
		fields.InfectionNum,
		fields.DeathNum,
		fields.EventType,
		derived.PathogenRank1,
		derived.PathogenRank2,
		derived.HostRank1,
		derived.HostRank2,
		derived.StartDate.Year,
		derived.StartDate.Month,
		derived.StartDate.Day,
		derived.EndDate.Year,
		derived.EndDate.Month,
		derived.EndDate.Day,
	}
}

func timingValues(res batch.Result) []string {
	return []string{
		fmt.Sprintf("%d", res.RowID),
		res.SourceURL,
		fmt.Sprintf("%.4f", res.Seconds),
		string(res.Status),
		res.Error,
		fmt.Sprintf("%d", res.Attempts),
		fmt.Sprintf("%d", res.TextChars),
	}
}

func summaryRow(s batch.Summary) (header, values []string) {
	header = []string{
		"model_name", "rows_total", "rows_failed", "workers", "retries",
		"total_seconds", "avg_seconds_per_row", "p50_seconds", "p90_seconds",
		"p95_seconds", "throughput_rows_per_min", "incomplete",
	}
	values = []string{
		s.ModelName,
		fmt.Sprintf("%d", s.RowsTotal),
		fmt.Sprintf("%d", s.RowsFailed),
		fmt.Sprintf("%d", s.Workers),
		fmt.Sprintf("%d", s.Retries),
		fmt.Sprintf("%.4f", s.TotalSeconds),
		fmt.Sprintf("%.4f", s.AvgSeconds),
		fmt.Sprintf("%.4f", s.P50Seconds),
		fmt.Sprintf("%.4f", s.P90Seconds),
		fmt.Sprintf("%.4f", s.P95Seconds),
		fmt.Sprintf("%.2f", s.ThroughputPerMin),
		fmt.Sprintf("%t", s.Incomplete),
	}
	return header, values
}
