// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wsf-plugins/internal/sitesearch"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
)

var siteSearchCmd = &cobra.Command{
	Use:   "sitesearch",
	Short: "Search records through the site search service",
	Long: `Sitesearch sends a text query for one document type to the site search
service and prints the primary key and score of each matching record.

With no --fields every searchable field of the document type is searched.`,
	RunE: runSiteSearch,
}

func runSiteSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := sitesearch.NewPlugin(siteSearchOptions(cfg, "sitesearch"))
	if err != nil {
		return err
	}

	text, _ := cmd.Flags().GetString("text")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	req, err := docTypeRequest(cmd, cfg.ProjectID)
	if err != nil {
		return err
	}
	req.Params[sitesearch.ParamText] = text
	req.Params[sitesearch.ParamFields] = strings.Join(fields, ",")
	return runPlugin(cmd, p, req)
}

var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary",
	Short: "List the searchable fields of a document type",
	RunE:  runVocabulary,
}

func runVocabulary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := sitesearch.NewVocabularyPlugin(siteSearchOptions(cfg, "vocabulary"))
	if err != nil {
		return err
	}
	req, err := docTypeRequest(cmd, cfg.ProjectID)
	if err != nil {
		return err
	}
	return runPlugin(cmd, p, req)
}

// docTypeRequest starts a request for the record class named by --doc-type.
func docTypeRequest(cmd *cobra.Command, projectID string) (wsf.Request, error) {
	docType, _ := cmd.Flags().GetString("doc-type")
	if docType == "" {
		return wsf.Request{}, fmt.Errorf("--doc-type is required")
	}
	return wsf.Request{
		ProjectID: projectID,
		Params:    map[string]string{sitesearch.ParamDocumentType: docType},
		Context:   map[string]string{wsf.ContextRecordClass: docType},
	}, nil
}

func init() {
	siteSearchCmd.Flags().String("text", "", "text expression to search for")
	siteSearchCmd.Flags().StringSlice("fields", nil, "field terms to search (default: all fields)")
	siteSearchCmd.Flags().String("doc-type", "", "document type, the record class URL segment")
	siteSearchCmd.MarkFlagRequired("text")

	vocabularyCmd.Flags().String("doc-type", "", "document type, the record class URL segment")

	rootCmd.AddCommand(siteSearchCmd)
	rootCmd.AddCommand(vocabularyCmd)
}
