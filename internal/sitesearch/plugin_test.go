// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sitesearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

const metadataJSON = `{"documentTypes":[
  {"id":"gene","searchFields":[
    {"name":"TEXT__gene_product","displayName":"Product","term":"product"},
    {"name":"TEXT__gene_name","displayName":"Gene name","term":"name"}]},
  {"id":"organism","searchFields":[
    {"name":"TEXT__organism","displayName":"Organism","term":"organism"}]}]}`

// siteSearchService fakes the site search service.
type siteSearchService struct {
	mu        sync.Mutex
	projectID string
	search    SearchRequest
	lines     string
	metadata  string
}

func (s *siteSearchService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/site-search/categories-metadata":
		s.projectID = r.URL.Query().Get("projectId")
		w.Write([]byte(s.metadata))
	case r.Method == http.MethodPost && r.URL.Path == "/site-search":
		json.NewDecoder(r.Body).Decode(&s.search)
		w.Header().Set("Content-Type", ndJSON)
		w.Write([]byte(s.lines))
	default:
		http.NotFound(w, r)
	}
}

var testRegistry = wsf.NewRegistry([]types.RecordClassConfig{
	{FullName: "GeneRecordClasses.GeneRecordClass", URLSegment: "gene", PrimaryKey: []string{"source_id", "project_id"}},
	{FullName: "OrganismRecordClasses.OrganismRecordClass", URLSegment: "organism", PrimaryKey: []string{"source_id"}},
})

func newTestOptions(t *testing.T, svc *siteSearchService) Options {
	t.Helper()
	if svc.metadata == "" {
		svc.metadata = metadataJSON
	}
	ts := httptest.NewServer(svc)
	t.Cleanup(ts.Close)
	return Options{
		Config:   types.SiteSearchConfig{ServiceConfig: types.ServiceConfig{Localhost: ts.URL, ServiceURL: "/site-search"}},
		Registry: testRegistry,
	}
}

func geneRequest(fields string) wsf.Request {
	return wsf.Request{
		ProjectID: "PlasmoDB",
		Params: map[string]string{
			ParamText:         "'kinase'",
			ParamFields:       fields,
			ParamDocumentType: "gene",
		},
		Context: map[string]string{wsf.ContextRecordClass: "gene"},
	}
}

func TestPlugin_Execute(t *testing.T) {
	svc := &siteSearchService{lines: "[\"PF3D7_0100100\"]\t12.5\tPlasmoDB\n[\"PF3D7_0200200\"]\t3.0\n[\"PF3D7_0300300\"]\t1.0\t \n"}
	p, err := NewPlugin(newTestOptions(t, svc))
	require.NoError(t, err)

	var buf wsf.RowBuffer
	_, err = wsf.Invoke(context.Background(), p, geneRequest("'product'"), &buf)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"PF3D7_0100100", "PlasmoDB", "12.5"},
		{"PF3D7_0200200", "PlasmoDB", "3.0"},
		{"PF3D7_0300300", "PlasmoDB", "1.0"},
	}, buf.Rows)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, "PlasmoDB", svc.projectID)
	assert.Equal(t, SearchRequest{
		SearchText: "kinase",
		DocumentTypeFilter: DocumentTypeFilter{
			DocumentType:      "gene",
			FoundOnlyInFields: []string{"TEXT__gene_product"},
		},
		RestrictToProject: "PlasmoDB",
	}, svc.search)
}

func TestPlugin_EmptyFieldsSearchesAll(t *testing.T) {
	svc := &siteSearchService{}
	p, err := NewPlugin(newTestOptions(t, svc))
	require.NoError(t, err)

	var buf wsf.RowBuffer
	_, err = p.Execute(context.Background(), geneRequest(""), &buf)
	require.NoError(t, err)
	assert.Empty(t, buf.Rows)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, []string{"TEXT__gene_product", "TEXT__gene_name"}, svc.search.DocumentTypeFilter.FoundOnlyInFields)
}

func TestPlugin_Columns(t *testing.T) {
	p, err := NewPlugin(newTestOptions(t, &siteSearchService{}))
	require.NoError(t, err)

	cols, err := p.Columns(geneRequest(""))
	require.NoError(t, err)
	assert.Equal(t, []string{"source_id", "project_id", "max_score"}, cols)
}

func TestPlugin_ValidateDocumentType(t *testing.T) {
	p, err := NewPlugin(newTestOptions(t, &siteSearchService{}))
	require.NoError(t, err)

	req := geneRequest("")
	req.Params[ParamDocumentType] = "organism"
	err = p.ValidateParameters(req)
	require.Error(t, err)
	assert.True(t, wsf.IsUserError(err))
	assert.Contains(t, err.Error(), "Value for this recordclass must be gene")
}

func TestPlugin_MalformedLine(t *testing.T) {
	svc := &siteSearchService{lines: "[\"a\"]\n"}
	p, err := NewPlugin(newTestOptions(t, svc))
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), geneRequest(""), &wsf.RowBuffer{})
	require.Error(t, err)
	var me *wsf.ModelError
	assert.True(t, errors.As(err, &me))
	assert.Contains(t, err.Error(), "Unexpected format in line")
}

func TestPlugin_AmbiguousDocumentType(t *testing.T) {
	svc := &siteSearchService{metadata: `{"documentTypes":[{"id":"gene","searchFields":[]},{"id":"gene","searchFields":[]}]}`}
	p, err := NewPlugin(newTestOptions(t, svc))
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), geneRequest(""), &wsf.RowBuffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find unique document type with id gene")
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		pkProject  bool
		want       []string
		wantErrMsg string
	}{
		{name: "project from line", line: "[\"G1\"]\t5\tToxoDB", pkProject: true, want: []string{"G1", "ToxoDB", "5"}},
		{name: "project from request", line: "[\"G1\"]\t5", pkProject: true, want: []string{"G1", "PlasmoDB", "5"}},
		{name: "no project column", line: "[\"O1\"]\t5\tToxoDB", want: []string{"O1", "5"}},
		{name: "multi-part key", line: "[\"a\",\"b\"]\t1", want: []string{"a", "b", "1"}},
		{name: "numeric key keeps its literal", line: "[\"PF3D7_01\", 12345678]\t1.5", want: []string{"PF3D7_01", "12345678", "1.5"}},
		{name: "decimal key", line: "[0.5, \"x\"]\t2", want: []string{"0.5", "x", "2"}},
		{name: "trailing empty fields dropped", line: "[\"G1\"]\t1.5\t\t", pkProject: true, want: []string{"G1", "PlasmoDB", "1.5"}},
		{name: "only score after trimming", line: "[\"G1\"]\t", wantErrMsg: "Unexpected format"},
		{name: "too many fields", line: "[\"a\"]\t1\tx\ty", wantErrMsg: "Unexpected format"},
		{name: "bad key", line: "nope\t1", wantErrMsg: "Unexpected primary key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line, tt.pkProject, "PlasmoDB")
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVocabularyPlugin_Execute(t *testing.T) {
	svc := &siteSearchService{}
	p, err := NewVocabularyPlugin(newTestOptions(t, svc))
	require.NoError(t, err)

	var buf wsf.RowBuffer
	_, err = wsf.Invoke(context.Background(), p, wsf.Request{
		ProjectID: "PlasmoDB",
		Context:   map[string]string{wsf.ContextRecordClass: "organism"},
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"organism", "organism", "Organism"}}, buf.Rows)
}

func TestNewPlugin_RequiresServiceURL(t *testing.T) {
	_, err := NewPlugin(Options{Registry: testRegistry})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sitesearch.localhost, sitesearch.service_url")
}
