// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

// invocation is what a command prints for one plugin run.
type invocation struct {
	Signal  int                 `json:"signal" yaml:"signal"`
	Message string              `json:"message,omitempty" yaml:"message,omitempty"`
	Rows    []map[string]string `json:"rows" yaml:"rows"`
}

// runPlugin invokes p and prints its rows in the format chosen by the
// --json and --yaml flags. A delayed result is reported, not failed.
func runPlugin(cmd *cobra.Command, p wsf.Plugin, req wsf.Request) error {
	var buf wsf.RowBuffer
	signal, err := wsf.Invoke(cmd.Context(), p, req, &buf)
	if wsf.IsDelayed(err) {
		fmt.Fprintln(os.Stderr, "Result not ready yet; run the same search again later.")
		return nil
	}
	if err != nil {
		return err
	}

	columns := req.OrderedColumns
	if len(columns) == 0 {
		if columns, err = p.Columns(req); err != nil {
			return err
		}
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	yamlOut, _ := cmd.Flags().GetBool("yaml")
	format := "tsv"
	switch {
	case jsonOut:
		format = "json"
	case yamlOut:
		format = "yaml"
	}
	return writeRows(os.Stdout, format, columns, signal, &buf)
}

func writeRows(w io.Writer, format string, columns []string, signal int, buf *wsf.RowBuffer) error {
	switch format {
	case "json", "yaml":
		out := invocation{Signal: signal, Message: buf.Message, Rows: make([]map[string]string, 0, len(buf.Rows))}
		for _, row := range buf.Rows {
			m := make(map[string]string, len(columns))
			for i, c := range columns {
				if i < len(row) {
					m[c] = row[i]
				}
			}
			out.Rows = append(out.Rows, m)
		}
		if format == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "tsv":
		fmt.Fprintln(w, strings.Join(columns, "\t"))
		for _, row := range buf.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = tsvEscape(v)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		if buf.Message != "" {
			fmt.Fprintf(os.Stderr, "%s\n", buf.Message)
		}
		return nil
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// tsvEscape keeps multi-line values, such as alignments, on one line.
func tsvEscape(v string) string {
	return strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`).Replace(v)
}
