// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package multiblast runs BLAST searches on the remote multi-blast service:
// a job is submitted, polled until its pairwise report is ready, and the
// report is parsed into rows with the shared BLAST formatter.
package multiblast

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/blast"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Options configures a Plugin.
type Options struct {
	Config types.MultiBlastConfig

	// ProjectID is the site submitted with each job when the request
	// carries none.
	ProjectID string

	Formatter *blast.Formatter
	Registry  *wsf.Registry

	// Clock drives the wait loop; nil uses the wall clock.
	Clock Clock

	// NewAPI builds the service client for one user; nil uses NewClient.
	NewAPI func(baseURL string, auth AuthHeader) API

	Log *logrus.Entry
}

// Plugin is the multi-blast search.
type Plugin struct {
	cfg       types.MultiBlastConfig
	baseURL   string
	projectID string
	formatter *blast.Formatter
	registry  *wsf.Registry
	clock     Clock
	newAPI    func(baseURL string, auth AuthHeader) API
	log       *logrus.Entry
}

// NewPlugin validates the service location and builds the plugin.
func NewPlugin(opts Options) (*Plugin, error) {
	cfg := opts.Config.WithDefaults()
	if cfg.Localhost == "" || cfg.ServiceURL == "" {
		return nil, wsf.Modelf("configuration must contain the properties: multiblast.localhost, multiblast.service_url")
	}
	if opts.Formatter == nil || opts.Registry == nil {
		return nil, wsf.Modelf("multiblast plugin needs a result formatter and a record class registry")
	}

	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("plugin", "multiblast")

	p := &Plugin{
		cfg:       cfg,
		baseURL:   cfg.BaseURL(),
		projectID: opts.ProjectID,
		formatter: opts.Formatter,
		registry:  opts.Registry,
		clock:     opts.Clock,
		newAPI:    opts.NewAPI,
		log:       log,
	}
	if p.newAPI == nil {
		p.newAPI = func(baseURL string, auth AuthHeader) API {
			return NewClient(baseURL, auth, cfg.HTTPConfig, log)
		}
	}
	return p, nil
}

// Name implements wsf.Plugin.
func (p *Plugin) Name() string { return "multiblast" }

// RequiredParameterNames implements wsf.Plugin.
func (p *Plugin) RequiredParameterNames() []string { return blast.MultiBlastParamNames }

// Columns implements wsf.Plugin.
func (p *Plugin) Columns(wsf.Request) ([]string, error) { return types.BlastColumns, nil }

// ValidateParameters confirms a single sequence was submitted.
func (p *Plugin) ValidateParameters(req wsf.Request) error {
	return blast.ValidateSingleSequence(req.Param(blast.ParamQuerySequence))
}

// Execute submits the job and formats its report. When the wait budget is
// spent first the error wraps wsf.ErrDelayedResult.
func (p *Plugin) Execute(ctx context.Context, req wsf.Request, resp wsf.Response) (int, error) {
	auth, err := AuthFromContext(req.Context)
	if err != nil {
		return 0, err
	}
	rc, err := p.registry.ForRequest(req)
	if err != nil {
		return 0, err
	}

	config, err := blast.BuildJobConfig(req.Params)
	if err != nil {
		return 0, err
	}
	site := req.ProjectID
	if site == "" {
		site = p.projectID
	}
	job := JobRequest{Site: site, Config: config, Targets: blast.BuildTargets(req.Params)}

	api := p.newAPI(p.baseURL, auth)
	reportID, err := NewPoller(api, p.clock, p.cfg, p.log).Run(ctx, job)
	if err != nil {
		return 0, err
	}

	p.log.WithField("report_id", reportID).Info("fetching multi-blast report")
	data, err := api.ReportFile(ctx, reportID, p.cfg.MaxReportSize)
	if err != nil {
		return 0, err
	}

	message, err := p.formatter.Format(bytes.NewReader(data), blast.FormatOptions{
		RecordClass: rc.FullName,
		DBType:      blast.Unquote(req.Param(blast.ParamMultiDatabaseType)),
		Columns:     req.OrderedColumns,
	}, resp)
	if err != nil {
		return 0, err
	}
	resp.SetMessage(message)
	return 0, nil
}
