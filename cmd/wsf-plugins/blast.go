// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wsf-plugins/internal/blast"
	"github.com/pdiddy/wsf-plugins/internal/secrets"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

var blastCmd = &cobra.Command{
	Use:   "blast",
	Short: "Run NCBI BLAST+ locally against per-organism databases",
	Long: `Blast writes the query to a temp file, runs the selected BLAST+ program
against one database per organism, and prints one row per hit with record
and genome browser links inserted.

The report's remaining text, with the hit sections replaced by macros, is
printed to stderr.`,
	RunE: runBlast,
}

func runBlast(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newLocalBlast(cfg)
	if err != nil {
		return err
	}

	req, err := blastRequest(cmd, cfg, blast.ParamDatabaseType)
	if err != nil {
		return err
	}
	evalue, _ := cmd.Flags().GetString("evalue")
	maxHits, _ := cmd.Flags().GetInt("max-hits")
	filter, _ := cmd.Flags().GetBool("filter")
	req.Params[blast.ParamEvalue] = evalue
	req.Params[blast.ParamMaxSummary] = strconv.Itoa(maxHits)
	req.Params[blast.ParamFilter] = "no"
	if filter {
		req.Params[blast.ParamFilter] = "yes"
	}
	return runPlugin(cmd, p, req)
}

var multiBlastCmd = &cobra.Command{
	Use:   "multiblast",
	Short: "Run a BLAST search on the remote multi-blast service",
	Long: `Multiblast submits a job to the multi-blast service, waits for the job and
its pairwise report, and prints one row per hit.

When the service needs longer than the wait budget the command says so and
exits cleanly; running it again with the same input picks up the cached job.
The caller is a guest unless .secrets/multiblast-auth-key is present.`,
	RunE: runMultiBlast,
}

func runMultiBlast(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newMultiBlast(cfg)
	if err != nil {
		return err
	}

	req, err := blastRequest(cmd, cfg, blast.ParamMultiDatabaseType)
	if err != nil {
		return err
	}
	for k, v := range secrets.UserContext(loadedSecrets) {
		req.Context[k] = v
	}

	flagParams := map[string]string{
		"evalue":         blast.ParamExpectationValue,
		"max-hsps":       blast.ParamMaxMatches,
		"word-size":      blast.ParamWordSize,
		"matrix":         blast.ParamScoringMatrix,
		"match-mismatch": blast.ParamMatchMismatch,
		"gap-costs":      blast.ParamGapCosts,
		"comp-adjust":    blast.ParamCompAdjust,
		"filter-low":     blast.ParamFilterLowComplex,
	}
	for flag, param := range flagParams {
		req.Params[param], _ = cmd.Flags().GetString(flag)
	}
	maxHits, _ := cmd.Flags().GetInt("max-hits")
	softMask, _ := cmd.Flags().GetBool("soft-mask")
	lowerCase, _ := cmd.Flags().GetBool("lower-case-mask")
	req.Params[blast.ParamNumQueryResults] = strconv.Itoa(maxHits)
	req.Params[blast.ParamSoftMask] = strconv.FormatBool(softMask)
	req.Params[blast.ParamLowerCaseMask] = strconv.FormatBool(lowerCase)
	return runPlugin(cmd, p, req)
}

// blastRequest builds the parameters shared by both BLAST commands. The
// database type is stored under dbTypeParam.
func blastRequest(cmd *cobra.Command, cfg types.Config, dbTypeParam string) (wsf.Request, error) {
	algorithm, _ := cmd.Flags().GetString("algorithm")
	dbType, _ := cmd.Flags().GetString("db-type")
	organisms, _ := cmd.Flags().GetStringSlice("organisms")
	recordClass, _ := cmd.Flags().GetString("record-class")

	sequence, err := readSequence(cmd)
	if err != nil {
		return wsf.Request{}, err
	}
	if len(organisms) == 0 {
		return wsf.Request{}, fmt.Errorf("--organisms is required")
	}
	if recordClass == "" && len(cfg.RecordClasses) > 0 {
		recordClass = cfg.RecordClasses[0].FullName
	}

	return wsf.Request{
		ProjectID: cfg.ProjectID,
		Params: map[string]string{
			blast.ParamAlgorithm:        algorithm,
			dbTypeParam:                 dbType,
			blast.ParamDatabaseOrganism: strings.Join(organisms, ","),
			blast.ParamQuerySequence:    sequence,
		},
		Context: map[string]string{wsf.ContextRecordClass: recordClass},
	}, nil
}

func readSequence(cmd *cobra.Command) (string, error) {
	seq, _ := cmd.Flags().GetString("sequence")
	file, _ := cmd.Flags().GetString("sequence-file")
	switch {
	case seq != "" && file != "":
		return "", fmt.Errorf("use either --sequence or --sequence-file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading sequence file: %w", err)
		}
		return string(data), nil
	case seq != "":
		return seq, nil
	}
	return "", fmt.Errorf("a query is required: provide --sequence or --sequence-file")
}

func addBlastFlags(cmd *cobra.Command) {
	cmd.Flags().String("algorithm", "blastn", "BLAST program: "+strings.Join(blast.ToolNames(), ", "))
	cmd.Flags().String("db-type", "Genome", "database type, e.g. Genome, Transcripts, Proteins, PopSet")
	cmd.Flags().StringSlice("organisms", nil, "target organisms (comma-separated)")
	cmd.Flags().String("sequence", "", "query sequence (FASTA or bare)")
	cmd.Flags().String("sequence-file", "", "file holding the query sequence")
	cmd.Flags().String("record-class", "", "record class full name or URL segment (default: first configured)")
	cmd.Flags().String("evalue", "10", "expectation value")
	cmd.Flags().Int("max-hits", 50, "maximum number of hits")
}

func init() {
	addBlastFlags(blastCmd)
	blastCmd.Flags().Bool("filter", false, "filter low complexity regions")

	addBlastFlags(multiBlastCmd)
	multiBlastCmd.Flags().String("max-hsps", "0", "maximum matches per query range (0 = no limit)")
	multiBlastCmd.Flags().String("word-size", "11", "word size")
	multiBlastCmd.Flags().String("matrix", "BLOSUM62", "scoring matrix for protein searches")
	multiBlastCmd.Flags().String("match-mismatch", "2,-3", "match/mismatch scores for nucleotide searches")
	multiBlastCmd.Flags().String("gap-costs", "5,2", "gap open,extend costs")
	multiBlastCmd.Flags().String("comp-adjust", "Conditional compositional score matrix adjustment", "compositional adjustment")
	multiBlastCmd.Flags().String("filter-low", "no filter", "low complexity filter, or \"no filter\"")
	multiBlastCmd.Flags().Bool("soft-mask", false, "soft masking")
	multiBlastCmd.Flags().Bool("lower-case-mask", false, "mask lower case letters")

	rootCmd.AddCommand(blastCmd)
	rootCmd.AddCommand(multiBlastCmd)
}
