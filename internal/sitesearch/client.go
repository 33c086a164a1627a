// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sitesearch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/httputil"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

const (
	metadataPath = "/categories-metadata"
	ndJSON       = "application/x-ndjson"
	maxLineBytes = 4 * 1024 * 1024
)

// SearchField is one searchable field of a document type.
type SearchField struct {
	SolrField string `json:"name"`
	Display   string `json:"displayName"`
	Term      string `json:"term"`
}

// SearchRequest is the body of a site search query.
type SearchRequest struct {
	SearchText         string             `json:"searchText"`
	DocumentTypeFilter DocumentTypeFilter `json:"documentTypeFilter"`
	RestrictToProject  string             `json:"restrictToProject,omitempty"`
}

// DocumentTypeFilter limits a search to one document type and, optionally,
// to some of its fields.
type DocumentTypeFilter struct {
	DocumentType      string   `json:"documentType"`
	FoundOnlyInFields []string `json:"foundOnlyInFields"`
}

// Client talks to the site search service.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	log       *logrus.Entry
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, cfg types.HTTPConfig, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// SearchFields returns the fields of docType. A non-empty projectID
// restricts the metadata to that project.
func (c *Client) SearchFields(ctx context.Context, docType, projectID string) ([]SearchField, error) {
	endpoint := c.baseURL + metadataPath
	if projectID != "" {
		endpoint += "?" + url.Values{"projectId": {projectID}}.Encode()
	}
	c.log.WithField("url", endpoint).Info("querying site search metadata")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wsf.Modelf("building metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, wsf.Modelf("Could not read categories-metadata response: %w", err)
	}
	body, err := httputil.ReadSmallBody(resp)
	if err != nil {
		return nil, wsf.Modelf("Could not read categories-metadata response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, wsf.Modelf("Unable to retrieve metadata from site search service.  Request returned %d. Response body:\n%s",
			resp.StatusCode, body)
	}

	var meta struct {
		DocumentTypes []struct {
			ID           string        `json:"id"`
			SearchFields []SearchField `json:"searchFields"`
		} `json:"documentTypes"`
	}
	if err := json.Unmarshal([]byte(body), &meta); err != nil {
		return nil, wsf.Modelf("decoding categories-metadata: %w", err)
	}

	var matches [][]SearchField
	for _, dt := range meta.DocumentTypes {
		if dt.ID == docType {
			matches = append(matches, dt.SearchFields)
		}
	}
	if len(matches) != 1 {
		return nil, wsf.Modelf("Could not find unique document type with id %s", docType)
	}
	return matches[0], nil
}

// Search posts body and calls fn with each line of the streamed result.
func (c *Client) Search(ctx context.Context, body SearchRequest, fn func(line string) error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding search request: %w", err)
	}
	c.log.WithFields(logrus.Fields{"url": c.baseURL, "body": string(payload)}).Info("querying site search service")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", ndJSON)
	c.setUserAgent(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return err
	}
	c.log.WithField("status", resp.StatusCode).Info("received site search response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := httputil.ReadSmallBody(resp)
		return &httputil.StatusError{Op: "searching", StatusCode: resp.StatusCode, Body: text}
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}
