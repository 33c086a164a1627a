// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsearch

import (
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// ResultContainer writes search results to a response in the requested
// column order and remembers which records it has written.
type ResultContainer struct {
	resp    wsf.Response
	columns []string
	written map[string]bool
}

// NewResultContainer checks every ordered column is a text search column.
func NewResultContainer(resp wsf.Response, orderedColumns []string) (*ResultContainer, error) {
	for _, c := range orderedColumns {
		switch c {
		case types.ColumnRecordID, types.ColumnTextProjectID, types.ColumnDatasets,
			types.ColumnMaxScore, types.ColumnGeneSourceID, types.ColumnMatchedResult:
		default:
			return nil, wsf.Modelf("Unknown column: %s", c)
		}
	}
	return &ResultContainer{resp: resp, columns: orderedColumns, written: map[string]bool{}}, nil
}

// AddResult writes r as one row.
func (c *ResultContainer) AddResult(r types.SearchResult) error {
	row := make([]string, len(c.columns))
	for i, col := range c.columns {
		switch col {
		case types.ColumnDatasets:
			row[i] = r.FieldsMatched
		case types.ColumnRecordID:
			row[i] = r.SourceID
		case types.ColumnMaxScore:
			row[i] = types.FormatScore(r.MaxScore)
		case types.ColumnGeneSourceID:
			row[i] = r.GeneSourceID
		case types.ColumnTextProjectID:
			row[i] = r.ProjectID
		case types.ColumnMatchedResult:
			row[i] = "Y"
		}
	}
	if err := c.resp.AddRow(row); err != nil {
		return err
	}
	c.written[r.SourceID] = true
	return nil
}

// HasResult reports whether a row for sourceID was written.
func (c *ResultContainer) HasResult(sourceID string) bool {
	return c.written[sourceID]
}
