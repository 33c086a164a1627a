// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multiblast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wsf-plugins/internal/blast"
	"github.com/pdiddy/wsf-plugins/internal/project"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

const pairwiseReport = `BLASTN 2.13.0+

Query= MySeq1

Sequences producing significant alignments:      (Bits)  Value

PF3D7_01 | organism=pfal3D7 | product=x   250   1e-65

>PF3D7_01 | organism=pfal3D7 | product=x
Length=5000

 Score = 250 bits (135),  Expect = 1e-65
 Strand=Plus/Plus

Query  1    ACGTACGT  8
Sbjct  100  ACGTACGT  107

  Database: /blast/pfal3D7Genome
    Posted date:  Jan 1, 2026
`

var multiParams = map[string]string{
	blast.ParamMultiDatabaseType: "'Genome'",
	blast.ParamAlgorithm:         "blastn",
	blast.ParamDatabaseOrganism:  "pfal3D7",
	blast.ParamQuerySequence:     ">q\nACGTACGT",
	blast.ParamExpectationValue:  "10",
	blast.ParamNumQueryResults:   "50",
	blast.ParamMaxMatches:        "0",
	blast.ParamWordSize:          "11",
	blast.ParamScoringMatrix:     "BLOSUM62",
	blast.ParamMatchMismatch:     "2,-3",
	blast.ParamGapCosts:          "5,2",
	blast.ParamCompAdjust:        "Conditional compositional score matrix adjustment",
	blast.ParamFilterLowComplex:  "dust",
	blast.ParamSoftMask:          "true",
	blast.ParamLowerCaseMask:     "false",
}

// multiblastService fakes the remote service: the job completes on the
// second status check and the report immediately.
type multiblastService struct {
	mu        sync.Mutex
	jobChecks int
	job       JobRequest
	authKey   string
}

func (s *multiblastService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authKey = r.Header.Get(HeaderAuthKey)

	switch r.Method + " " + r.URL.Path {
	case "POST /service/jobs":
		json.NewDecoder(r.Body).Decode(&s.job)
		w.Write([]byte(`{"jobId":"J1"}`))
	case "GET /service/jobs/J1":
		s.jobChecks++
		if s.jobChecks < 2 {
			w.Write([]byte(`{"status":"in-progress"}`))
			return
		}
		w.Write([]byte(`{"status":"completed"}`))
	case "POST /service/reports":
		w.Write([]byte(`{"reportID":"R1"}`))
	case "GET /service/reports/R1":
		w.Write([]byte(`{"status":"completed"}`))
	case "GET /service/reports/R1/files/report.txt":
		w.Write([]byte(pairwiseReport))
	default:
		http.NotFound(w, r)
	}
}

func newTestPlugin(t *testing.T, baseURL string) *Plugin {
	t.Helper()
	mapper := &project.Mapper{
		Organisms: map[string]string{"pfal3D7": "PlasmoDB"},
		Projects:  map[string]string{"PlasmoDB": "https://plasmodb.org/plasmo"},
	}
	formatter, err := blast.NewFormatter(types.BlastConfig{}, mapper, nil)
	require.NoError(t, err)

	cfg := types.MultiBlastConfig{
		ServiceConfig: types.ServiceConfig{Localhost: baseURL, ServiceURL: "/service"},
		InitialWait:   time.Second,
		PollInterval:  time.Second,
		MaxWait:       time.Minute,
	}
	p, err := NewPlugin(Options{
		Config:    cfg,
		ProjectID: "EuPathDB",
		Formatter: formatter,
		Registry: wsf.NewRegistry([]types.RecordClassConfig{
			{FullName: "GeneRecordClasses.GeneRecordClass", URLSegment: "gene"},
		}),
		Clock: &fakeClock{now: time.Unix(0, 0)},
	})
	require.NoError(t, err)
	return p
}

func TestPlugin_Execute(t *testing.T) {
	svc := &multiblastService{}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	p := newTestPlugin(t, ts.URL)
	req := wsf.Request{
		Params: multiParams,
		Context: map[string]string{
			wsf.ContextUserID:      "7",
			wsf.ContextAuthKey:     "k3y",
			wsf.ContextRecordClass: "gene",
		},
	}
	var buf wsf.RowBuffer
	signal, err := wsf.Invoke(context.Background(), p, req, &buf)
	require.NoError(t, err)
	assert.Zero(t, signal)

	require.Len(t, buf.Rows, 1)
	idx := wsf.ColumnIndex(types.BlastColumns)
	assert.Equal(t, "PF3D7_01", buf.Rows[0][idx[types.ColumnIdentifier]])
	assert.Equal(t, "PlasmoDB", buf.Rows[0][idx[types.ColumnProjectID]])
	assert.Contains(t, buf.Rows[0][idx[types.ColumnAlignment]], "gbrowse", "Genome type is unquoted")
	assert.Contains(t, buf.Message, blast.MacroSummary)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, "k3y", svc.authKey)
	assert.Equal(t, 2, svc.jobChecks)
	assert.Equal(t, "EuPathDB", svc.job.Site, "configured project is the fallback site")
	assert.Equal(t, []blast.Target{{Organism: "pfal3D7", Target: "pfal3D7Genome"}}, svc.job.Targets)
	require.NotNil(t, svc.job.Config)
	assert.Equal(t, "blastn", svc.job.Config.Tool)
}

func TestPlugin_ValidateParameters(t *testing.T) {
	p := newTestPlugin(t, "http://localhost")
	params := map[string]string{blast.ParamQuerySequence: ">a\nAC\n>b\nGT"}
	err := p.ValidateParameters(wsf.Request{Params: params})
	assert.True(t, wsf.IsUserError(err), "err = %v", err)
}

func TestPlugin_UnknownToolIsUserError(t *testing.T) {
	p := newTestPlugin(t, "http://localhost")
	params := map[string]string{}
	for k, v := range multiParams {
		params[k] = v
	}
	params[blast.ParamAlgorithm] = "megablast"

	var buf wsf.RowBuffer
	_, err := p.Execute(context.Background(), wsf.Request{
		Params:  params,
		Context: map[string]string{wsf.ContextUserGuest: "true", wsf.ContextUserID: "1", wsf.ContextRecordClass: "gene"},
	}, &buf)
	require.Error(t, err)
	assert.True(t, wsf.IsUserError(err))
	assert.Contains(t, err.Error(), "megablast")
}

func TestNewPlugin_RequiresServiceURL(t *testing.T) {
	_, err := NewPlugin(Options{Config: types.MultiBlastConfig{}})
	require.Error(t, err)
	var me *wsf.ModelError
	assert.True(t, errors.As(err, &me))
	assert.Contains(t, err.Error(), "multiblast.localhost, multiblast.service_url")
}
