// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

// defaultDefline names a query submitted without a FASTA header.
const defaultDefline = ">MySeq1"

// PrepareSequence normalizes a query for the local BLAST tools. Surrounding
// whitespace and stray object replacement entities are removed, a second
// FASTA record is rejected, and a header is added when missing. The result
// is the file content, newline terminated.
func PrepareSequence(raw string) (string, error) {
	seq := strings.TrimSpace(raw)
	seq = strings.ReplaceAll(seq, "&#65532;", "")
	if len(seq) > 1 && strings.IndexByte(seq[1:], '>') >= 0 {
		return "", wsf.Userf("Only one input sequence is allowed")
	}
	if !strings.HasPrefix(seq, ">") {
		seq = defaultDefline + "\n" + seq
	}
	return seq + "\n", nil
}

// ValidateSingleSequence rejects a query holding more than one FASTA record.
func ValidateSingleSequence(seq string) error {
	first := strings.IndexByte(seq, '>')
	if first >= 0 && strings.IndexByte(seq[first+1:], '>') >= 0 {
		return wsf.Userf("Only one sequence can be submitted at a time")
	}
	return nil
}

// writeTempFile creates a file in dir named after pattern holding content
// and returns its path.
func writeTempFile(dir, pattern, content string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}
