// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

// Question parameters of the multi-blast service search.
const (
	ParamDatabaseOrganism  = "BlastDatabaseOrganism"
	ParamMultiDatabaseType = "MultiBlastDatabaseType"
	ParamQuerySequence     = "BlastQuerySequence"
	ParamAlgorithm         = "BlastAlgorithm"
	ParamExpectationValue  = "ExpectationValue"
	ParamNumQueryResults   = "NumQueryResults"
	ParamMaxMatches        = "MaxMatchesQueryRange"
	ParamWordSize          = "WordSize"
	ParamScoringMatrix     = "ScoringMatrix"
	ParamCompAdjust        = "CompAdjust"
	ParamFilterLowComplex  = "FilterLowComplex"
	ParamSoftMask          = "SoftMask"
	ParamLowerCaseMask     = "LowerCaseMask"
	ParamGapCosts          = "GapCosts"
	ParamMatchMismatch     = "MatchMismatchScore"
)

// MultiBlastParamNames lists every parameter the multi-blast search needs.
var MultiBlastParamNames = []string{
	ParamMultiDatabaseType,
	ParamAlgorithm,
	ParamDatabaseOrganism,
	ParamQuerySequence,
	ParamExpectationValue,
	ParamNumQueryResults,
	ParamMaxMatches,
	ParamWordSize,
	ParamScoringMatrix,
	ParamMatchMismatch,
	ParamGapCosts,
	ParamCompAdjust,
	ParamFilterLowComplex,
	ParamSoftMask,
	ParamLowerCaseMask,
}

// OutFormat selects the report format the service produces for a job.
type OutFormat struct {
	Format string `json:"format"`
}

// JobConfig is the "config" object of a multi-blast job request. Optional
// fields are set only by the tools that accept them.
type JobConfig struct {
	Query            string    `json:"query"`
	EValue           string    `json:"eValue"`
	MaxTargetSeqs    int       `json:"maxTargetSeqs"`
	WordSize         int       `json:"wordSize"`
	SoftMasking      bool      `json:"softMasking"`
	LcaseMasking     bool      `json:"lcaseMasking"`
	OutFormat        OutFormat `json:"outFormat"`
	MaxHSPs          *int      `json:"maxHSPs,omitempty"`
	GapOpen          *int      `json:"gapOpen,omitempty"`
	GapExtend        *int      `json:"gapExtend,omitempty"`
	Tool             string    `json:"tool"`
	Task             string    `json:"task,omitempty"`
	Dust             string    `json:"dust,omitempty"`
	Reward           *int      `json:"reward,omitempty"`
	Penalty          *int      `json:"penalty,omitempty"`
	Matrix           string    `json:"matrix,omitempty"`
	Seg              string    `json:"seg,omitempty"`
	CompBasedStats   string    `json:"compBasedStats,omitempty"`
	QueryGeneticCode int       `json:"queryGeneticCode,omitempty"`
}

// Target is one database a job searches.
type Target struct {
	Organism string `json:"organism"`
	Target   string `json:"target"`
}

// Low-complexity filter flags.
const (
	filterDust = "dust"
	filterSeg  = "seg"
)

// toolOptions is the option subset a BLAST tool accepts.
type toolOptions struct {
	gapCosts       bool
	rewardPenalty  bool
	matrix         bool
	compBasedStats bool
	task           bool
	geneticCode    bool
	filter         string
}

var tools = map[string]toolOptions{
	"blastn":  {gapCosts: true, rewardPenalty: true, task: true, filter: filterDust},
	"tblastx": {matrix: true, geneticCode: true, filter: filterSeg},
	"blastp":  {gapCosts: true, matrix: true, compBasedStats: true, task: true, filter: filterSeg},
	"tblastn": {gapCosts: true, matrix: true, compBasedStats: true, task: true, filter: filterSeg},
	"blastx":  {gapCosts: true, matrix: true, compBasedStats: true, geneticCode: true, filter: filterSeg},
}

// lookupTool returns the options of tool, or a user error naming it.
func lookupTool(tool string) (toolOptions, error) {
	opts, ok := tools[tool]
	if !ok {
		return toolOptions{}, wsf.Userf("The tool type '%s' is unsupported", tool)
	}
	return opts, nil
}

// ToolNames returns the supported BLAST tools, sorted.
func ToolNames() []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// params reads question parameters with their quoting removed.
type params map[string]string

func (p params) get(name string) string {
	return Unquote(p[name])
}

// Unquote strips one leading and one trailing single quote, the way
// question parameters arrive from the parent application.
func Unquote(v string) string {
	v = strings.TrimPrefix(v, "'")
	return strings.TrimSuffix(v, "'")
}

func (p params) getInt(name string) (int, error) {
	v := p.get(name)
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, wsf.Userf("Invalid value '%s' for %s: expected an integer", v, name)
	}
	return n, nil
}

func (p params) intPair(name string) (int, int, error) {
	v := p.get(name)
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, wsf.Userf("Invalid value '%s' for %s: expected two comma-separated integers", v, name)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0, wsf.Userf("Invalid value '%s' for %s: expected two comma-separated integers", v, name)
	}
	return a, b, nil
}

func (p params) getBool(name string) bool {
	return p.get(name) == "true"
}

// BuildJobConfig translates multi-blast question parameters into a job
// config. The result depends only on the parameters.
func BuildJobConfig(raw map[string]string) (*JobConfig, error) {
	p := params(raw)
	tool := p.get(ParamAlgorithm)
	opts, err := lookupTool(tool)
	if err != nil {
		return nil, err
	}

	cfg := &JobConfig{
		Query:        p.get(ParamQuerySequence),
		EValue:       p.get(ParamExpectationValue),
		SoftMasking:  p.getBool(ParamSoftMask),
		LcaseMasking: p.getBool(ParamLowerCaseMask),
		OutFormat:    OutFormat{Format: "single-file-json"},
		Tool:         tool,
	}
	if cfg.MaxTargetSeqs, err = p.getInt(ParamNumQueryResults); err != nil {
		return nil, err
	}
	if cfg.WordSize, err = p.getInt(ParamWordSize); err != nil {
		return nil, err
	}
	maxHSPs, err := p.getInt(ParamMaxMatches)
	if err != nil {
		return nil, err
	}
	if maxHSPs >= 1 {
		cfg.MaxHSPs = &maxHSPs
	}

	if opts.gapCosts {
		open, extend, err := p.intPair(ParamGapCosts)
		if err != nil {
			return nil, err
		}
		cfg.GapOpen, cfg.GapExtend = &open, &extend
	}
	if opts.rewardPenalty {
		reward, penalty, err := p.intPair(ParamMatchMismatch)
		if err != nil {
			return nil, err
		}
		cfg.Reward, cfg.Penalty = &reward, &penalty
	}
	if opts.matrix {
		cfg.Matrix = p.get(ParamScoringMatrix)
	}
	if opts.compBasedStats {
		cfg.CompBasedStats = p.get(ParamCompAdjust)
	}
	if opts.task {
		cfg.Task = tool
	}
	if opts.geneticCode {
		cfg.QueryGeneticCode = 1
	}

	filter := yesNo(p.get(ParamFilterLowComplex) != "no filter")
	switch opts.filter {
	case filterDust:
		cfg.Dust = filter
	case filterSeg:
		cfg.Seg = filter
	}
	return cfg, nil
}

// BuildTargets lists the databases a job searches: one per selected
// organism of the given database type.
func BuildTargets(raw map[string]string) []Target {
	p := params(raw)
	dbType := targetType(p.get(ParamMultiDatabaseType))
	targets := []Target{}
	for _, org := range selectedOrganisms(p[ParamDatabaseOrganism]) {
		targets = append(targets, Target{Organism: org, Target: org + dbType})
	}
	return targets
}

// selectedOrganisms splits a comma list of organisms, dropping the "-1"
// placeholder and tree-node names of three characters or fewer.
func selectedOrganisms(list string) []string {
	var orgs []string
	for _, org := range strings.Split(list, ",") {
		if org == "-1" || len(org) <= 3 {
			continue
		}
		orgs = append(orgs, org)
	}
	return orgs
}

// targetType maps a question database type to the database file suffix.
func targetType(dbType string) string {
	if dbType == "PopSet" {
		return "Isolates"
	}
	return dbType
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
