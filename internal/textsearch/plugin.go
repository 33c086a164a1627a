// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textsearch implements keyword search over text indexes in a SQL
// database. User text is rewritten into an Oracle Text expression and run
// through one configured query per selected text field.
package textsearch

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Question parameters of the text search.
const (
	ParamText      = "text_expression"
	ParamFields    = "text_fields"
	ParamProjectID = "project_id"
)

// Options configures a Plugin.
type Options struct {
	Config types.TextSearchConfig

	// DB is used when set; otherwise Config.Driver and Config.DSN are opened.
	DB *sql.DB

	Log *logrus.Entry
}

// Plugin is the text search.
type Plugin struct {
	searcher *Searcher
	db       *sql.DB
	log      *logrus.Entry
}

// NewPlugin opens the database when needed and builds the plugin.
func NewPlugin(opts Options) (*Plugin, error) {
	if len(opts.Config.Queries) == 0 {
		return nil, wsf.Modelf("configuration must contain the property textsearch.queries")
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("plugin", "textsearch")

	db := opts.DB
	if db == nil {
		if opts.Config.Driver == "" || opts.Config.DSN == "" {
			return nil, wsf.Modelf("configuration must contain the properties: textsearch.driver, textsearch.dsn")
		}
		var err error
		if db, err = sql.Open(opts.Config.Driver, opts.Config.DSN); err != nil {
			return nil, wsf.Modelf("opening %s database: %w", opts.Config.Driver, err)
		}
	}
	return &Plugin{
		searcher: NewSearcher(db, opts.Config.Queries, log),
		db:       db,
		log:      log,
	}, nil
}

// Close releases the database.
func (p *Plugin) Close() error { return p.db.Close() }

// Name implements wsf.Plugin.
func (p *Plugin) Name() string { return "textsearch" }

// RequiredParameterNames implements wsf.Plugin.
func (p *Plugin) RequiredParameterNames() []string { return []string{ParamText, ParamFields} }

// Columns implements wsf.Plugin.
func (p *Plugin) Columns(wsf.Request) ([]string, error) { return types.TextSearchColumns, nil }

// ValidateParameters implements wsf.Plugin.
func (p *Plugin) ValidateParameters(wsf.Request) error { return nil }

// Execute implements wsf.Plugin.
func (p *Plugin) Execute(ctx context.Context, req wsf.Request, resp wsf.Response) (int, error) {
	container, err := NewResultContainer(resp, req.OrderedColumns)
	if err != nil {
		return 0, err
	}

	expr := TransformQuery(req.Param(ParamText))
	projectID := unquote(req.Param(ParamProjectID))
	if projectID == "" {
		projectID = req.ProjectID
	}
	fields := splitFields(req.Param(ParamFields))
	p.log.WithFields(logrus.Fields{"expression": expr, "project_id": projectID, "fields": fields}).Info("running text search")

	results, err := p.searcher.Search(ctx, expr, projectID, fields)
	if err != nil {
		return 0, err
	}
	for _, r := range results {
		if err := container.AddResult(r); err != nil {
			return 0, wsf.Modelf("writing text search row: %w", err)
		}
	}
	return 0, nil
}

func splitFields(list string) []string {
	var fields []string
	for _, f := range strings.Split(list, ",") {
		if f = unquote(strings.TrimSpace(f)); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	return v
}
