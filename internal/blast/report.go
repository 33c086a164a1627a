// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Markers substituted by the parent application's BLAST summary view.
const (
	MacroSummary   = "#Summary#"
	MacroAlignment = "#Alignment#"
)

const (
	summaryStart  = "Sequences producing significant alignments"
	databaseStart = "Database: "
	lengthMarker  = "Length="
	noOrganism    = "none"
	maxLineBytes  = 16 * 1024 * 1024
)

var databaseEnds = []string{"total letters", "Posted date"}

// ProjectMapper resolves organisms to projects and projects to base URLs.
type ProjectMapper interface {
	ProjectByOrganism(organism string) (string, error)
	BaseURL(projectID string) string
}

// Formatter turns an NCBI BLAST pairwise report into result rows: one row
// per hit, with record and genome browser links inserted.
type Formatter struct {
	sourceID *field
	organism *field
	mapper   ProjectMapper
	log      *logrus.Entry
}

// NewFormatter compiles the identifier and organism regexes from cfg.
func NewFormatter(cfg types.BlastConfig, mapper ProjectMapper, log *logrus.Entry) (*Formatter, error) {
	cfg = cfg.WithDefaults()
	sid, err := newField("source id", cfg.IdentifierRegex, true, "")
	if err != nil {
		return nil, err
	}
	org, err := newField("organism", cfg.OrganismRegex, false, noOrganism)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Formatter{sourceID: sid, organism: org, mapper: mapper, log: log}, nil
}

// FormatOptions describes the request a report is formatted for.
type FormatOptions struct {
	// RecordClass is the full record class name used in record links.
	RecordClass string

	// DBType is the BLAST database type; "Genome" adds browser links.
	DBType string

	// Columns is the ordered list of columns to fill.
	Columns []string
}

type parseState int

const (
	inPreamble parseState = iota
	inSummary
	inAlignment
)

// lineReader yields report lines without their terminators.
type lineReader struct {
	sc *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next() (string, bool) {
	if !lr.sc.Scan() {
		return "", false
	}
	return strings.TrimSuffix(lr.sc.Text(), "\r"), true
}

// Format parses the report in r and writes one row per hit to resp. It
// returns the report text with the summary and alignment sections replaced
// by macros and the database paths reduced to file names. Rows are written
// only when the whole report parses.
func (f *Formatter) Format(r io.Reader, opts FormatOptions, resp wsf.Response) (string, error) {
	if err := checkColumns(opts.Columns); err != nil {
		return "", err
	}

	var (
		content   strings.Builder
		block     strings.Builder
		rows      [][]string
		state     = inPreamble
		summaries = map[string]string{}
	)

	finalize := func() error {
		if block.Len() == 0 {
			return nil
		}
		h, err := f.processAlignment(block.String(), summaries, opts)
		block.Reset()
		if err != nil {
			return err
		}
		rows = append(rows, h.row(opts.Columns))
		return nil
	}

	lines := newLineReader(r)
	for {
		line, ok := lines.next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)

		switch state {
		case inSummary:
			if trimmed == "" {
				state = inPreamble
				continue
			}
			m, err := f.sourceID.extract(line)
			if err != nil {
				return "", err
			}
			summaries[m.Value] = trimmed

		case inAlignment:
			if strings.HasPrefix(trimmed, databaseStart) {
				state = inPreamble
				if err := finalize(); err != nil {
					return "", err
				}
				content.WriteString(convertDatabaseLines(trimmed, lines))
				continue
			}
			if strings.HasPrefix(line, ">") {
				if err := finalize(); err != nil {
					return "", err
				}
			}
			block.WriteString(line)
			block.WriteString("\n")

		default:
			switch {
			case strings.HasPrefix(trimmed, summaryStart):
				state = inSummary
				content.WriteString("\n" + MacroSummary + "\n\n")
				lines.next()
			case strings.HasPrefix(line, ">"):
				state = inAlignment
				content.WriteString("\n" + MacroAlignment + "\n\n")
				block.WriteString(line)
				block.WriteString("\n")
			case strings.HasPrefix(trimmed, databaseStart):
				content.WriteString(convertDatabaseLines(trimmed, lines))
			default:
				content.WriteString(line)
				content.WriteString("\n")
			}
		}
	}
	if err := lines.sc.Err(); err != nil {
		return "", wsf.Modelf("reading blast report: %w", err)
	}
	if state == inAlignment {
		if err := finalize(); err != nil {
			return "", err
		}
	}

	for _, row := range rows {
		if err := resp.AddRow(row); err != nil {
			return "", wsf.Modelf("writing blast row: %w", err)
		}
	}
	f.log.WithField("hits", len(rows)).Debug("formatted blast report")
	return content.String(), nil
}

// hit is a finalized alignment ready to become a row.
type hit struct {
	types.Alignment
}

func (h hit) row(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case types.ColumnAlignment:
			row[i] = h.Block
		case types.ColumnEvalueExp:
			row[i] = h.EvalueExp
		case types.ColumnEvalueMant:
			row[i] = h.EvalueMant
		case types.ColumnIdentifier:
			row[i] = h.SourceID
		case types.ColumnProjectID:
			row[i] = h.ProjectID
		case types.ColumnScore:
			row[i] = types.FormatScore(h.Score)
		case types.ColumnSummary:
			row[i] = h.Summary
		}
	}
	return row
}

func checkColumns(columns []string) error {
	for _, c := range columns {
		switch c {
		case types.ColumnAlignment, types.ColumnEvalueExp, types.ColumnEvalueMant,
			types.ColumnIdentifier, types.ColumnProjectID, types.ColumnScore, types.ColumnSummary:
		default:
			return wsf.Modelf("Unsupported blast result column: %s", c)
		}
	}
	return nil
}

// processAlignment links one alignment block and its summary line.
func (f *Formatter) processAlignment(alignment string, summaries map[string]string, opts FormatOptions) (hit, error) {
	end := strings.Index(alignment, lengthMarker)
	if end < 0 {
		return hit{}, wsf.MissingField(lengthMarker, firstLine(alignment))
	}
	defline := alignment[:end]

	org, _ := f.organism.extract(defline)
	projectID, err := f.mapper.ProjectByOrganism(org.Value)
	if err != nil {
		return hit{}, wsf.Modelf("resolving project: %w", err)
	}

	sid, err := f.sourceID.extract(alignment)
	if err != nil {
		return hit{}, err
	}
	idURL := recordURL(opts.RecordClass, projectID, sid.Value)
	alignment = insertAnchoredURL(alignment, sid, idURL, sid.Value)

	summary, ok := summaries[sid.Value]
	if !ok {
		return hit{}, wsf.Modelf("no summary line found for alignment %s", sid.Value)
	}
	ev, err := evalueField.extract(summary)
	if err != nil {
		return hit{}, err
	}
	sc, err := scoreField.extract(summary)
	if err != nil {
		return hit{}, err
	}
	score, err := parseScore(sc.Value)
	if err != nil {
		return hit{}, wsf.Modelf("parsing score %q: %w", sc.Value, err)
	}

	// Score link first, then the id is located again in the new text.
	summary = insertURL(summary, sc, "#"+sid.Value)
	sumID, err := f.sourceID.extract(summary)
	if err != nil {
		return hit{}, err
	}
	summary = insertURL(summary, sumID, idURL)

	if opts.DBType == dbTypeGenome {
		alignment = insertGenomeBrowserLinks(alignment, f.mapper.BaseURL(projectID), projectID, sid.Value)
	}

	mant, exp := SplitEvalue(ev.Value)
	return hit{types.Alignment{
		SourceID:   sid.Value,
		Organism:   org.Value,
		ProjectID:  projectID,
		Summary:    summary,
		Block:      alignment,
		Score:      score,
		EvalueMant: mant,
		EvalueExp:  exp,
	}}, nil
}

// convertDatabaseLines rewrites the database footer starting at first,
// consuming continuation lines from lines, so only file names remain.
func convertDatabaseLines(first string, lines *lineReader) string {
	var dbs strings.Builder
	dbs.WriteString(strings.TrimSpace(strings.TrimPrefix(first, databaseStart)))

	var last string
	for {
		line, ok := lines.next()
		if !ok {
			break
		}
		if endsDatabaseLines(line) {
			last = line
			break
		}
		dbs.WriteString(strings.TrimSpace(line))
	}

	var names []string
	for _, p := range splitTrimTrailing(dbs.String(), ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			p = filepath.Base(p)
		}
		names = append(names, p)
	}
	return databaseStart + "\n" + strings.Join(names, ";\n") + "\n" + last + "\n"
}

func endsDatabaseLines(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	for _, end := range databaseEnds {
		if strings.Contains(line, end) {
			return true
		}
	}
	return false
}
