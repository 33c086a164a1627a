// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

func TestCommandFormatter_Format(t *testing.T) {
	f := NewCommandFormatter(types.BlastConfig{
		BlastPath:    "/opt/blast/bin/",
		DatabaseDir:  "/data/blast",
		Threads:      8,
		ExtraOptions: "-html  -parse_deflines",
	})

	tests := []struct {
		name   string
		params map[string]string
		want   []string
	}{
		{
			name: "nucleotide with dust filter",
			params: map[string]string{
				ParamAlgorithm:        "blastn",
				ParamDatabaseType:     "Genome",
				ParamDatabaseOrganism: "pfal3D7,tgonME49",
				ParamEvalue:           "10",
				ParamMaxSummary:       "50",
				ParamFilter:           "yes",
				"-word_size":          "11",
				"-gapopen":            "5",
			},
			want: []string{
				"/opt/blast/bin/blastn",
				"-db", "/data/blast/pfal3D7Genome /data/blast/tgonME49Genome",
				"-query", "/tmp/q.in",
				"-out", "/tmp/q.out",
				"-num_threads", "8",
				"-evalue", "10",
				"-num_descriptions", "50", "-num_alignments", "50",
				"-dust", "yes",
				"-gapopen", "5",
				"-word_size", "11",
				"-html", "-parse_deflines",
			},
		},
		{
			name: "protein with seg filter off",
			params: map[string]string{
				ParamAlgorithm:        "blastp",
				ParamDatabaseType:     "Proteins",
				ParamDatabaseOrganism: "pfal3D7",
				ParamEvalue:           "1e-5",
				ParamMaxSummary:       "10",
				ParamFilter:           "no",
			},
			want: []string{
				"/opt/blast/bin/blastp",
				"-db", "/data/blast/pfal3D7Proteins",
				"-query", "/tmp/q.in",
				"-out", "/tmp/q.out",
				"-num_threads", "8",
				"-evalue", "1e-5",
				"-num_descriptions", "10", "-num_alignments", "10",
				"-seg", "no",
				"-html", "-parse_deflines",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Format(tt.params, "/tmp/q.in", "/tmp/q.out")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := f.Format(tt.params, "/tmp/q.in", "/tmp/q.out")
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestCommandFormatter_Errors(t *testing.T) {
	f := NewCommandFormatter(types.BlastConfig{BlastPath: "/opt/blast/bin/"})

	tests := []struct {
		name   string
		params map[string]string
	}{
		{
			name:   "unsupported algorithm",
			params: map[string]string{ParamAlgorithm: "rm", ParamDatabaseOrganism: "pfal3D7"},
		},
		{
			name:   "no organisms",
			params: map[string]string{ParamAlgorithm: "blastn", ParamDatabaseOrganism: "-1"},
		},
		{
			name: "non numeric hit count",
			params: map[string]string{
				ParamAlgorithm: "blastn", ParamDatabaseOrganism: "pfal3D7", ParamMaxSummary: "lots",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Format(tt.params, "q.in", "q.out")
			require.Error(t, err)
			assert.True(t, wsf.IsUserError(err))
		})
	}
}
