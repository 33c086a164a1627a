// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blast implements the BLAST searches: the local BLAST+ plugin, the
// NCBI report parser shared with the multi-blast plugin, and the
// translation of question parameters into BLAST+ command lines and
// multi-blast job configs.
package blast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

const (
	timeoutMessage = "The BLAST execution has timed out. If this issue persists, it is " +
		"likely because the input sequence was too long, or too many target " +
		"organisms were selected."
	tooLargeMessage = "We're sorry, but we cannot handle a BLAST result this large (%dMB). " +
		"To reduce the result size, you could decrease V=B or the Expectation value, " +
		"turn on the Low Complexity Filter, or decrease the number of target organisms selected."
)

// LocalOptions configures a LocalPlugin.
type LocalOptions struct {
	Config   types.BlastConfig
	Mapper   ProjectMapper
	Registry *wsf.Registry

	// Runner executes the command; nil runs BLAST+ on the host.
	Runner Runner

	Log *logrus.Entry

	// Now is the clock used by the temp file sweep; nil uses time.Now.
	Now func() time.Time
}

// LocalPlugin runs NCBI BLAST+ on the local machine and reports its hits.
type LocalPlugin struct {
	cfg       types.BlastConfig
	commands  *CommandFormatter
	formatter *Formatter
	registry  *wsf.Registry
	runner    Runner
	log       *logrus.Entry
	now       func() time.Time
}

// NewLocalPlugin validates the BLAST configuration and builds the plugin.
func NewLocalPlugin(opts LocalOptions) (*LocalPlugin, error) {
	cfg := opts.Config.WithDefaults()
	if cfg.BlastPath == "" {
		return nil, wsf.Modelf("configuration must contain the property blast.blast_path")
	}
	if cfg.Timeout <= 0 {
		return nil, wsf.Modelf("blast.timeout must be positive, got %d", cfg.Timeout)
	}
	if opts.Mapper == nil || opts.Registry == nil {
		return nil, wsf.Modelf("blast plugin needs a project mapper and a record class registry")
	}

	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("plugin", "blast")

	formatter, err := NewFormatter(cfg, opts.Mapper, log)
	if err != nil {
		return nil, err
	}

	p := &LocalPlugin{
		cfg:       cfg,
		commands:  NewCommandFormatter(cfg),
		formatter: formatter,
		registry:  opts.Registry,
		runner:    opts.Runner,
		log:       log,
		now:       opts.Now,
	}
	if p.runner == nil {
		p.runner = ExecRunner{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Name implements wsf.Plugin.
func (p *LocalPlugin) Name() string { return "blast" }

// RequiredParameterNames implements wsf.Plugin.
func (p *LocalPlugin) RequiredParameterNames() []string { return LocalParamNames }

// Columns implements wsf.Plugin.
func (p *LocalPlugin) Columns(wsf.Request) ([]string, error) { return types.BlastColumns, nil }

// ValidateParameters checks the query holds one sequence and the algorithm
// is supported.
func (p *LocalPlugin) ValidateParameters(req wsf.Request) error {
	for name, value := range req.Params {
		p.log.WithFields(logrus.Fields{"name": name, "value": value}).Debug("param")
	}
	if _, err := PrepareSequence(req.Param(ParamSequence)); err != nil {
		return err
	}
	_, err := lookupTool(params(req.Params).get(ParamAlgorithm))
	return err
}

// Execute implements wsf.Plugin.
func (p *LocalPlugin) Execute(ctx context.Context, req wsf.Request, resp wsf.Response) (int, error) {
	p.log.Info("invoking local blast")
	defer p.sweep()

	rc, err := p.registry.ForRequest(req)
	if err != nil {
		return 0, err
	}
	seq, err := PrepareSequence(req.Param(ParamSequence))
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(p.cfg.TempPath, 0o755); err != nil {
		return 0, wsf.Modelf("creating temp dir: %w", err)
	}
	seqFile, err := writeTempFile(p.cfg.TempPath, "blast_*.in", seq)
	if err != nil {
		return 0, wsf.Modelf("writing query: %w", err)
	}
	outFile, err := writeTempFile(p.cfg.TempPath, "blast_*.out", "")
	if err != nil {
		return 0, wsf.Modelf("creating report file: %w", err)
	}

	argv, err := p.commands.Format(req.Params, seqFile, outFile)
	if err != nil {
		return 0, err
	}
	p.log.WithField("command", argv).Info("running blast")

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Timeout)*time.Second)
	defer cancel()

	var output bytes.Buffer
	signal, err := p.runner.Run(runCtx, argv, &output)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		p.log.WithField("timeout", p.cfg.Timeout).Error("blast timed out")
		return signal, wsf.Userf(timeoutMessage)
	}
	if err != nil {
		return signal, wsf.Modelf("running blast: %w", err)
	}
	p.log.WithField("signal", signal).Debugf("blast output:\n%s", output.String())

	info, err := os.Stat(outFile)
	if err != nil {
		return signal, wsf.Modelf("reading report: %w", err)
	}
	p.log.WithField("size", info.Size()).Info("preparing the result")
	if info.Size() > p.cfg.MaxOutfileSize {
		return signal, &wsf.ResultTooLargeError{
			Msg:  fmt.Sprintf(tooLargeMessage, info.Size()/1000000),
			Size: info.Size(),
		}
	}

	f, err := os.Open(outFile)
	if err != nil {
		return signal, wsf.Modelf("opening report: %w", err)
	}
	defer f.Close()

	message, err := p.formatter.Format(f, FormatOptions{
		RecordClass: rc.FullName,
		DBType:      req.Param(ParamDatabaseType),
		Columns:     req.OrderedColumns,
	}, resp)
	if err != nil {
		return signal, err
	}
	resp.SetMessage(message + output.String())
	return signal, nil
}

func (p *LocalPlugin) sweep() {
	if _, err := SweepTempFiles(p.cfg.TempPath, p.cfg.TempMaxAge, p.now(), p.log); err != nil {
		p.log.WithError(err).Warn("temp file sweep failed")
	}
}
