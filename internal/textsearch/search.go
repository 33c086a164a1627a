// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsearch

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

const (
	tooManyTermsMessage = "Search term with wildcard (asterisk) characters matches too many keywords. " +
		"Please include more non-wildcard characters."
	tooLongMessage = "Search term is too long. Please try again with a shorter text term."
)

// Searcher runs the configured text field queries.
type Searcher struct {
	db      *sql.DB
	queries map[string]string
	log     *logrus.Entry
}

// NewSearcher returns a searcher running queries (field name to SQL)
// against db.
func NewSearcher(db *sql.DB, queries map[string]string, log *logrus.Entry) *Searcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Searcher{db: db, queries: queries, log: log}
}

// Search runs the query of each field with the transformed expression and
// projectID as binds and merges the matches of all fields. Results are
// returned best first. Fields without a query are skipped.
func (s *Searcher) Search(ctx context.Context, expr, projectID string, fields []string) ([]types.SearchResult, error) {
	merged := map[string]*types.SearchResult{}
	for _, field := range fields {
		query, ok := s.queries[field]
		if !ok {
			s.log.WithField("field", field).Warn("no query configured for text field, skipping")
			continue
		}
		results, err := s.searchField(ctx, field, query, expr, projectID)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if prev, ok := merged[r.SourceID]; ok {
				prev.Combine(r)
				continue
			}
			r := r
			merged[r.SourceID] = &r
		}
	}

	out := make([]types.SearchResult, 0, len(merged))
	for _, r := range merged {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

func (s *Searcher) searchField(ctx context.Context, field, query, expr, projectID string) ([]types.SearchResult, error) {
	log := s.log.WithField("field", field)
	log.Info("about to execute text-search query")
	log.Debugf("text-search SQL: %s", query)

	rows, err := s.db.QueryContext(ctx, query, expr, projectID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	scan, err := newRowScanner(rows)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	seen := map[string]bool{}
	for rows.Next() {
		r, err := scan()
		if err != nil {
			return nil, mapError(err)
		}
		if seen[r.SourceID] {
			return nil, wsf.Modelf("duplicate sourceId %s", r.SourceID)
		}
		seen[r.SourceID] = true
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	log.WithField("rows", len(results)).Info("finished fetching rows")
	return results, nil
}

// newRowScanner locates the result columns by name. source_id, project_id,
// max_score and fields_matched are required; gene_source_id is optional.
func newRowScanner(rows *sql.Rows) (func() (types.SearchResult, error), error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, wsf.Modelf("reading result columns: %w", err)
	}
	index := map[string]int{}
	for i, n := range names {
		index[strings.ToLower(n)] = i
	}
	for _, required := range []string{"source_id", "project_id", "max_score", "fields_matched"} {
		if _, ok := index[required]; !ok {
			return nil, wsf.Modelf("text search query returns no %s column", required)
		}
	}

	return func() (types.SearchResult, error) {
		var (
			sourceID, projectID, fields, gene sql.NullString
			score                             sql.NullFloat64
			discard                           any
		)
		dest := make([]any, len(names))
		for i := range dest {
			dest[i] = &discard
		}
		dest[index["source_id"]] = &sourceID
		dest[index["project_id"]] = &projectID
		dest[index["max_score"]] = &score
		dest[index["fields_matched"]] = &fields
		if i, ok := index["gene_source_id"]; ok {
			dest[i] = &gene
		}
		if err := rows.Scan(dest...); err != nil {
			return types.SearchResult{}, err
		}
		return types.SearchResult{
			SourceID:      sourceID.String,
			ProjectID:     projectID.String,
			GeneSourceID:  gene.String,
			MaxScore:      float32(score.Float64),
			FieldsMatched: fields.String,
		}, nil
	}, nil
}

// mapError turns the database errors a user can fix into user errors.
func mapError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "DRG-51030"):
		return wsf.Userf(tooManyTermsMessage)
	case strings.Contains(msg, "ORA-01460"):
		return wsf.Userf(tooLongMessage)
	}
	return wsf.Modelf("text search failed: %w", err)
}
