package batch

import (
	"github.com/epiwatch/outbreak-extractor/constants"
	"github.com/epiwatch/outbreak-extractor/internal/llm"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
)

// InputRow is one unit of work: the row index of the input table plus the
// free-text excerpt to extract from. Immutable once read.
type InputRow struct {
	RowID     int
	SourceURL string
	Text      string
}

// Result is the terminal outcome for one input row. Exactly one Result
// exists per InputRow; RowID is the join key back to the input for every
// downstream consumer.
type Result struct {
	RowID     int
	SourceURL string
	Status    constants.RowStatus
	Error     string
	Attempts  int
	Seconds   float64 // wall clock across all attempts
	TextChars int     // pre-truncation input length

	// Fields and Derived are set only on success.
	Fields  *llm.OutbreakFields
	Derived *standardize.Derived
}

// OK reports whether the row ended in success.
func (r Result) OK() bool { return r.Status == constants.RowStatusOK }
