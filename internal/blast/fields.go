// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"regexp"
	"strings"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

// Patterns fixed by the NCBI report format.
const (
	scoreRegex   = `(\d+)\s+\S+$`
	evalueRegex  = `\s+(\S+)$`
	subjectRegex = `Sbjct\s\s+(\d+)\s+\S+\s+(\d+)`
)

var subjectPattern = regexp.MustCompile(subjectRegex)

// field is a named capture-group contract: group 1 of re holds the value.
// A required field that does not match is a fatal FieldError; an optional
// one yields the sentinel.
type field struct {
	name     string
	re       *regexp.Regexp
	required bool
	sentinel string
}

func newField(name, expr string, required bool, sentinel string) (*field, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, wsf.Modelf("compiling %s regex %q: %w", name, expr, err)
	}
	if re.NumSubexp() < 1 {
		return nil, wsf.Modelf("%s regex %q has no capture group", name, expr)
	}
	return &field{name: name, re: re, required: required, sentinel: sentinel}, nil
}

func mustField(name, expr string) *field {
	f, err := newField(name, expr, true, "")
	if err != nil {
		panic(err)
	}
	return f
}

var (
	scoreField  = mustField("score", scoreRegex)
	evalueField = mustField("evalue", evalueRegex)
)

// match is a located field value: s[Start:End] == Value.
type match struct {
	Start, End int
	Value      string
}

// find locates the field in s. ok is false when there is no match.
func (f *field) find(s string) (match, bool) {
	loc := f.re.FindStringSubmatchIndex(s)
	if loc == nil || loc[2] < 0 {
		return match{}, false
	}
	return match{Start: loc[2], End: loc[3], Value: s[loc[2]:loc[3]]}, true
}

// extract returns the located field, applying the missing-match policy.
func (f *field) extract(s string) (match, error) {
	m, ok := f.find(s)
	if ok {
		return m, nil
	}
	if f.required {
		return match{}, wsf.MissingField(f.name, firstLine(s))
	}
	return match{Start: -1, End: -1, Value: f.sentinel}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
