// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wsf-plugins/internal/textsearch"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

var textSearchCmd = &cobra.Command{
	Use:   "textsearch",
	Short: "Run a keyword search against the text search database",
	Long: `Textsearch rewrites the expression into the database's text query syntax,
runs the configured query of each field, and prints one row per matching
record with the merged score and the fields that matched.`,
	RunE: runTextSearch,
}

func runTextSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newTextSearch(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	text, _ := cmd.Flags().GetString("text")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	projectID, _ := cmd.Flags().GetString("project")

	req := wsf.Request{
		ProjectID: cfg.ProjectID,
		Params: map[string]string{
			textsearch.ParamText:   text,
			textsearch.ParamFields: strings.Join(fields, ","),
		},
	}
	if projectID != "" {
		req.Params[textsearch.ParamProjectID] = projectID
	}
	return runPlugin(cmd, p, req)
}

func init() {
	textSearchCmd.Flags().String("text", "", "keyword expression")
	textSearchCmd.Flags().StringSlice("fields", nil, "fields to search, each with a configured query")
	textSearchCmd.Flags().String("project", "", "project to search (default: project_id)")
	textSearchCmd.MarkFlagRequired("text")
	textSearchCmd.MarkFlagRequired("fields")

	rootCmd.AddCommand(textSearchCmd)
}
