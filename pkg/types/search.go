// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the WSF search plugins:
// configuration, BLAST alignment records, remote job status, and text
// search results.
package types

import (
	"strconv"
	"strings"
)

// SearchResult is one record matched by a text or site search. Partial
// matches of the same record found through different fields are merged
// with Combine.
type SearchResult struct {
	// SourceID is the record's primary identifier.
	SourceID string `json:"source_id" yaml:"source_id"`

	// ProjectID is the project (site) the record belongs to.
	ProjectID string `json:"project_id" yaml:"project_id"`

	// GeneSourceID is the gene the record maps to, when the record type has one.
	GeneSourceID string `json:"gene_source_id,omitempty" yaml:"gene_source_id,omitempty"`

	// MaxScore is the best score seen for the record.
	MaxScore float32 `json:"max_score" yaml:"max_score"`

	// FieldsMatched is free text naming the fields the record matched in.
	FieldsMatched string `json:"fields_matched" yaml:"fields_matched"`
}

// Combine merges other into r. The higher score is kept; when other scores
// higher its matched fields are put in front, otherwise they are appended.
func (r *SearchResult) Combine(other SearchResult) {
	if other.MaxScore > r.MaxScore {
		r.MaxScore = other.MaxScore
		r.FieldsMatched = other.FieldsMatched + ", " + r.FieldsMatched
		return
	}
	r.FieldsMatched = r.FieldsMatched + "," + other.FieldsMatched
}

// Less orders results by descending score, then ascending source id.
func (r SearchResult) Less(other SearchResult) bool {
	if r.MaxScore != other.MaxScore {
		return r.MaxScore > other.MaxScore
	}
	return r.SourceID < other.SourceID
}

// FormatScore renders a score the way the parent application expects: the
// shortest decimal form, always with a fractional part ("250.0", "0.5").
func FormatScore(score float32) string {
	s := strconv.FormatFloat(float64(score), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
