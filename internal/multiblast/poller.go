// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multiblast

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Clock abstracts time so tests can run the poller without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller drives a job and then its report to completion within one wait
// budget counted from job submission.
type Poller struct {
	api          API
	clock        Clock
	initialWait  time.Duration
	pollInterval time.Duration
	maxWait      time.Duration
	log          *logrus.Entry
}

// NewPoller returns a poller using the timings in cfg. A nil clock uses
// the wall clock.
func NewPoller(api API, clock Clock, cfg types.MultiBlastConfig, log *logrus.Entry) *Poller {
	cfg = cfg.WithDefaults()
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Poller{
		api:          api,
		clock:        clock,
		initialWait:  cfg.InitialWait,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		log:          log,
	}
}

// resource is one pollable kind of service resource.
type resource struct {
	kind   string
	status func(ctx context.Context, id string) (Status, error)
	rerun  func(ctx context.Context, id string) error
}

// Run submits req, waits for the job, requests its report and waits for
// that too. It returns the report id. When the budget runs out first the
// error wraps wsf.ErrDelayedResult; the remote job keeps running.
func (p *Poller) Run(ctx context.Context, req JobRequest) (string, error) {
	jobID, err := p.api.CreateJob(ctx, req)
	if err != nil {
		return "", err
	}
	deadline := p.clock.Now().Add(p.maxWait)
	p.log.WithFields(logrus.Fields{"job_id": jobID, "deadline": deadline}).Info("multi-blast job submitted")

	// Give the service a moment to answer from its cache.
	if err := p.clock.Sleep(ctx, p.initialWait); err != nil {
		return "", err
	}

	job := resource{kind: "job", status: p.api.JobStatus, rerun: p.api.RerunJob}
	if err := p.await(ctx, job, jobID, deadline); err != nil {
		return "", err
	}

	reportID, err := p.api.CreateReport(ctx, jobID)
	if err != nil {
		return "", err
	}
	p.log.WithFields(logrus.Fields{"job_id": jobID, "report_id": reportID}).Info("multi-blast report requested")

	report := resource{kind: "report", status: p.api.ReportStatus, rerun: p.api.RerunReport}
	if err := p.await(ctx, report, reportID, deadline); err != nil {
		return "", err
	}
	return reportID, nil
}

// await polls res until it completes, fails, or deadline passes.
func (p *Poller) await(ctx context.Context, res resource, id string, deadline time.Time) error {
	log := p.log.WithFields(logrus.Fields{"kind": res.kind, "id": id})
	for {
		st, err := res.status(ctx, id)
		if err != nil {
			return err
		}
		log.WithField("status", st.Status).Debug("polled")

		switch st.Status {
		case types.StatusCompleted:
			return nil
		case types.StatusQueued, types.StatusInProgress:
		case types.StatusErrored:
			return wsf.Modelf("Multi-blast service %s failed: %s", res.kind, st.Description)
		case types.StatusExpired:
			log.Info("resource expired, rerunning")
			if err := res.rerun(ctx, id); err != nil {
				return err
			}
		default:
			return wsf.Modelf("Multi-blast service %s status endpoint returned unrecognized status value: %s", res.kind, st.Status)
		}

		if p.clock.Now().After(deadline) {
			log.Warn("multi-blast wait time exceeded")
			return fmt.Errorf("multi-blast %s %s still running: %w", res.kind, id, wsf.ErrDelayedResult)
		}
		if err := p.clock.Sleep(ctx, p.pollInterval); err != nil {
			return err
		}
	}
}
