// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sitesearch implements the site search plugins backed by the
// site search service: the record search and the search-field vocabulary.
package sitesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Question parameters of the site search.
const (
	ParamText         = "text_expression"
	ParamDocumentType = "document_type"
	ParamFields       = "text_fields"
)

// ColumnMaxScore is the score column appended to the primary key columns.
const ColumnMaxScore = "max_score"

// VocabularyColumns are the columns of the vocabulary plugin.
var VocabularyColumns = []string{"internal", "term", "display"}

// Options configures the site search plugins.
type Options struct {
	Config   types.SiteSearchConfig
	Registry *wsf.Registry
	Log      *logrus.Entry
}

type base struct {
	client   *Client
	registry *wsf.Registry
	log      *logrus.Entry
}

func newBase(opts Options, name string) (base, error) {
	if opts.Config.Localhost == "" || opts.Config.ServiceURL == "" {
		return base{}, wsf.Modelf("configuration must contain the properties: sitesearch.localhost, sitesearch.service_url")
	}
	if opts.Registry == nil {
		return base{}, wsf.Modelf("%s plugin needs a record class registry", name)
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("plugin", name)
	return base{
		client:   NewClient(opts.Config.BaseURL(), opts.Config.HTTPConfig, log),
		registry: opts.Registry,
		log:      log,
	}, nil
}

// documentType is the record class URL segment of the request.
func (b base) documentType(req wsf.Request) (string, error) {
	rc, err := b.registry.ForRequest(req)
	if err != nil {
		return "", err
	}
	return rc.URLSegment, nil
}

// Plugin searches records of the request's record class.
type Plugin struct {
	base
}

// NewPlugin builds the site search plugin.
func NewPlugin(opts Options) (*Plugin, error) {
	b, err := newBase(opts, "sitesearch")
	if err != nil {
		return nil, err
	}
	return &Plugin{base: b}, nil
}

// Name implements wsf.Plugin.
func (p *Plugin) Name() string { return "sitesearch" }

// RequiredParameterNames implements wsf.Plugin.
func (p *Plugin) RequiredParameterNames() []string { return []string{ParamText, ParamFields} }

// Columns are the record class primary key columns followed by max_score.
func (p *Plugin) Columns(req wsf.Request) ([]string, error) {
	rc, err := p.registry.ForRequest(req)
	if err != nil {
		return nil, err
	}
	columns := append(append([]string(nil), rc.PrimaryKey...), ColumnMaxScore)
	p.log.WithField("columns", strings.Join(columns, ", ")).Info("site search columns")
	return columns, nil
}

// ValidateParameters requires document_type to name the record class.
func (p *Plugin) ValidateParameters(req wsf.Request) error {
	docType, err := p.documentType(req)
	if err != nil {
		return err
	}
	if got := req.Param(ParamDocumentType); got != docType {
		return wsf.Userf("Invalid param value '%s' for %s.  Value for this recordclass must be %s",
			got, ParamDocumentType, docType)
	}
	return nil
}

// Execute implements wsf.Plugin.
func (p *Plugin) Execute(ctx context.Context, req wsf.Request, resp wsf.Response) (int, error) {
	p.log.WithField("params", req.Params).Info("executing site search")

	rc, err := p.registry.ForRequest(req)
	if err != nil {
		return 0, err
	}
	body, err := p.buildRequest(ctx, req, rc.URLSegment)
	if err != nil {
		return 0, err
	}

	pkHasProjectID := rc.HasPrimaryKeyColumn("project_id")
	err = p.client.Search(ctx, body, func(line string) error {
		p.log.Debugf("Site Search Service response line: %s", line)
		row, err := parseLine(line, pkHasProjectID, req.ProjectID)
		if err != nil {
			return err
		}
		p.log.Debugf("Returning row: %v", row)
		return resp.AddRow(row)
	})
	if err != nil {
		return 0, wsf.Modelf("Could not read response from site search service: %w", err)
	}
	return 0, nil
}

func (p *Plugin) buildRequest(ctx context.Context, req wsf.Request, docType string) (SearchRequest, error) {
	fields, err := p.client.SearchFields(ctx, docType, req.ProjectID)
	if err != nil {
		return SearchRequest{}, err
	}
	byTerm := make(map[string]SearchField, len(fields))
	for _, f := range fields {
		byTerm[f.Term] = f
	}

	solrFields := []string{}
	terms := splitTerms(req.Param(ParamFields))
	if len(terms) == 0 {
		for _, f := range fields {
			solrFields = append(solrFields, f.SolrField)
		}
	}
	for _, term := range terms {
		if f, ok := byTerm[term]; ok {
			solrFields = append(solrFields, f.SolrField)
		}
	}

	return SearchRequest{
		SearchText: unquote(req.Param(ParamText)),
		DocumentTypeFilter: DocumentTypeFilter{
			DocumentType:      docType,
			FoundOnlyInFields: solrFields,
		},
		RestrictToProject: req.ProjectID,
	}, nil
}

// parseLine turns "<pk json array>\t<score>[\t<project>]" into a row. The
// project id is included only when the primary key has one; it falls back
// to the requesting project when the line carries none.
func parseLine(line string, pkHasProjectID bool, requestProject string) ([]string, error) {
	tokens := strings.Split(line, "\t")
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) < 2 || len(tokens) > 3 {
		return nil, wsf.Modelf("Unexpected format in line: %s", line)
	}

	var pk []json.RawMessage
	if err := json.Unmarshal([]byte(tokens[0]), &pk); err != nil {
		return nil, wsf.Modelf("Unexpected primary key in line %s: %w", line, err)
	}
	row := make([]string, 0, len(pk)+2)
	for _, raw := range pk {
		row = append(row, keyValue(raw))
	}

	if pkHasProjectID {
		projectID := requestProject
		if len(tokens) == 3 && strings.TrimSpace(tokens[2]) != "" {
			projectID = strings.TrimSpace(tokens[2])
		}
		row = append(row, projectID)
	}
	return append(row, tokens[1]), nil
}

// keyValue renders one primary key element: strings are unquoted, other
// values keep their JSON literal so numeric ids are not reformatted.
func keyValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// splitTerms splits a comma list of quoted terms, dropping empty ones.
func splitTerms(list string) []string {
	var terms []string
	for _, t := range strings.Split(list, ",") {
		if t = unquote(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	return v
}

// VocabularyPlugin lists the search fields of the request's document type.
type VocabularyPlugin struct {
	base
}

// NewVocabularyPlugin builds the vocabulary plugin.
func NewVocabularyPlugin(opts Options) (*VocabularyPlugin, error) {
	b, err := newBase(opts, "vocabulary")
	if err != nil {
		return nil, err
	}
	return &VocabularyPlugin{base: b}, nil
}

// Name implements wsf.Plugin.
func (p *VocabularyPlugin) Name() string { return "vocabulary" }

// RequiredParameterNames implements wsf.Plugin.
func (p *VocabularyPlugin) RequiredParameterNames() []string { return nil }

// Columns implements wsf.Plugin.
func (p *VocabularyPlugin) Columns(wsf.Request) ([]string, error) { return VocabularyColumns, nil }

// ValidateParameters implements wsf.Plugin.
func (p *VocabularyPlugin) ValidateParameters(wsf.Request) error { return nil }

// Execute writes one (term, term, display) row per search field.
func (p *VocabularyPlugin) Execute(ctx context.Context, req wsf.Request, resp wsf.Response) (int, error) {
	docType, err := p.documentType(req)
	if err != nil {
		return 0, err
	}
	fields, err := p.client.SearchFields(ctx, docType, req.ProjectID)
	if err != nil {
		return 0, err
	}
	for _, f := range fields {
		p.log.WithField("field", f.Term).Debug("adding vocabulary row")
		if err := resp.AddRow([]string{f.Term, f.Term, f.Display}); err != nil {
			return 0, err
		}
	}
	return 0, nil
}
