// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BLAST result columns.
const (
	ColumnIdentifier = "identifier"
	ColumnProjectID  = "project_id"
	ColumnEvalueMant = "evalue_mant"
	ColumnEvalueExp  = "evalue_exp"
	ColumnScore      = "score"
	ColumnSummary    = "summary"
	ColumnAlignment  = "alignment"
)

// BlastColumns is the declared column set of the BLAST plugins.
var BlastColumns = []string{
	ColumnIdentifier,
	ColumnProjectID,
	ColumnEvalueMant,
	ColumnEvalueExp,
	ColumnScore,
	ColumnSummary,
	ColumnAlignment,
}

// Text search result columns.
const (
	ColumnRecordID      = "RecordID"
	ColumnTextProjectID = "ProjectId"
	ColumnDatasets      = "Datasets"
	ColumnMaxScore      = "MaxScore"
	ColumnGeneSourceID  = "GeneSourceId"
	ColumnMatchedResult = "MatchedResult"
)

// TextSearchColumns is the declared column set of the text search plugin.
var TextSearchColumns = []string{
	ColumnRecordID,
	ColumnTextProjectID,
	ColumnDatasets,
	ColumnMaxScore,
	ColumnGeneSourceID,
	ColumnMatchedResult,
}

// Alignment is one BLAST hit reconstructed from a report: its summary line
// and alignment block, both with links inserted.
type Alignment struct {
	// SourceID is the hit identifier extracted from the defline.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Organism is extracted from the defline; "none" when the record type
	// carries no organism.
	Organism string `json:"organism" yaml:"organism"`

	// ProjectID is the project the organism belongs to.
	ProjectID string `json:"project_id" yaml:"project_id"`

	// Summary is the one-line summary of the hit.
	Summary string `json:"summary" yaml:"summary"`

	// Block is the full alignment text.
	Block string `json:"alignment" yaml:"alignment"`

	// Score is the bit score from the summary line.
	Score float32 `json:"score" yaml:"score"`

	// EvalueMant and EvalueExp are the E-value split on "e", preserving
	// the report's formatting.
	EvalueMant string `json:"evalue_mant" yaml:"evalue_mant"`
	EvalueExp  string `json:"evalue_exp" yaml:"evalue_exp"`
}

// JobStatus is the lifecycle state of a remote multi-blast job or report.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusInProgress JobStatus = "in-progress"
	StatusCompleted  JobStatus = "completed"
	StatusErrored    JobStatus = "errored"
	StatusExpired    JobStatus = "expired"
)

// Running reports whether the resource is still queued or in progress.
func (s JobStatus) Running() bool {
	return s == StatusQueued || s == StatusInProgress
}
