// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Question parameters of the local BLAST search.
const (
	ParamDatabaseType = "BlastDatabaseType"
	ParamSequence     = ParamQuerySequence
	ParamMaxSummary   = "-b"
	ParamEvalue       = "-e"
	ParamFilter       = "-filter"
)

// LocalParamNames lists the parameters the local BLAST search requires.
var LocalParamNames = []string{
	ParamDatabaseType,
	ParamAlgorithm,
	ParamSequence,
	ParamMaxSummary,
	ParamEvalue,
}

// CommandFormatter builds NCBI BLAST+ command lines.
type CommandFormatter struct {
	cfg types.BlastConfig
}

// NewCommandFormatter returns a formatter using the paths in cfg.
func NewCommandFormatter(cfg types.BlastConfig) *CommandFormatter {
	return &CommandFormatter{cfg: cfg.WithDefaults()}
}

// Format returns the argument vector searching the selected databases with
// the query in queryFile and writing the report to outFile. The same
// parameters always give the same vector.
func (f *CommandFormatter) Format(raw map[string]string, queryFile, outFile string) ([]string, error) {
	p := params(raw)
	algorithm := p.get(ParamAlgorithm)
	opts, err := lookupTool(algorithm)
	if err != nil {
		return nil, err
	}

	dbs, err := f.databases(p)
	if err != nil {
		return nil, err
	}

	argv := []string{
		f.cfg.BlastPath + algorithm,
		"-db", strings.Join(dbs, " "),
		"-query", queryFile,
		"-out", outFile,
		"-num_threads", strconv.Itoa(f.cfg.Threads),
	}

	if _, ok := raw[ParamEvalue]; ok {
		argv = append(argv, "-evalue", p.get(ParamEvalue))
	}
	if _, ok := raw[ParamMaxSummary]; ok {
		n, err := p.getInt(ParamMaxSummary)
		if err != nil {
			return nil, err
		}
		argv = append(argv, "-num_descriptions", strconv.Itoa(n), "-num_alignments", strconv.Itoa(n))
	}
	if _, ok := raw[ParamFilter]; ok {
		argv = append(argv, "-"+opts.filter, yesNo(p.get(ParamFilter) != "no"))
	}

	var extra []string
	for name := range raw {
		if !strings.HasPrefix(name, "-") || name == ParamEvalue || name == ParamMaxSummary || name == ParamFilter {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		argv = append(argv, name, p.get(name))
	}

	argv = append(argv, strings.Fields(f.cfg.ExtraOptions)...)
	return argv, nil
}

// databases lists the database of every selected organism.
func (f *CommandFormatter) databases(p params) ([]string, error) {
	dbType := targetType(p.get(ParamDatabaseType))
	orgs := selectedOrganisms(p.get(ParamDatabaseOrganism))
	if len(orgs) == 0 {
		return nil, wsf.Userf("Please select at least one target organism")
	}
	dbs := make([]string, len(orgs))
	for i, org := range orgs {
		dbs[i] = filepath.Join(f.cfg.DatabaseDir, org+dbType)
	}
	return dbs, nil
}
