// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multiblast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/wsf-plugins/internal/blast"
	"github.com/pdiddy/wsf-plugins/internal/httputil"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Authentication headers understood by the service.
const (
	HeaderGuestUserID = "Auth-Guest-User-Id"
	HeaderAuthKey     = "Auth-Key"
)

// TooLargeStatus is the status of the error body returned when a report
// exceeds the service's size ceiling.
const TooLargeStatus = "too-large"

// AuthHeader identifies the user to the service.
type AuthHeader struct {
	Name  string
	Value string
}

// AuthFromContext picks the header for the invoking user: guests are sent
// by id, registered users by their auth key.
func AuthFromContext(ctx map[string]string) (AuthHeader, error) {
	if ctx[wsf.ContextUserGuest] == "true" {
		id := ctx[wsf.ContextUserID]
		if id == "" {
			return AuthHeader{}, wsf.Modelf("guest request carries no %s", wsf.ContextUserID)
		}
		return AuthHeader{Name: HeaderGuestUserID, Value: id}, nil
	}
	key := ctx[wsf.ContextAuthKey]
	if key == "" {
		return AuthHeader{}, wsf.Modelf("registered user request carries no %s", wsf.ContextAuthKey)
	}
	return AuthHeader{Name: HeaderAuthKey, Value: key}, nil
}

// JobRequest is the body of a new job request.
type JobRequest struct {
	Site    string           `json:"site"`
	Config  *blast.JobConfig `json:"config"`
	Targets []blast.Target   `json:"targets"`
}

// Status is the state of a job or report resource.
type Status struct {
	Status      types.JobStatus `json:"status"`
	Description string          `json:"description,omitempty"`
}

// API is the subset of the multi-blast service the plugin drives.
type API interface {
	CreateJob(ctx context.Context, req JobRequest) (string, error)
	JobStatus(ctx context.Context, jobID string) (Status, error)
	RerunJob(ctx context.Context, jobID string) error
	CreateReport(ctx context.Context, jobID string) (string, error)
	ReportStatus(ctx context.Context, reportID string) (Status, error)
	RerunReport(ctx context.Context, reportID string) error
	ReportFile(ctx context.Context, reportID string, maxSize int64) ([]byte, error)
}

// Client talks to the multi-blast service over HTTP.
type Client struct {
	baseURL   string
	auth      AuthHeader
	http      *http.Client
	userAgent string
	log       *logrus.Entry
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, auth AuthHeader, cfg types.HTTPConfig, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		auth:      auth,
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// CreateJob submits a new job and returns its id.
func (c *Client) CreateJob(ctx context.Context, req JobRequest) (string, error) {
	var out struct {
		JobID string `json:"jobId"`
	}
	if err := c.call(ctx, "requesting new job", http.MethodPost, "/jobs", req, &out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", wsf.Modelf("multi-blast service returned no job id")
	}
	return out.JobID, nil
}

// JobStatus fetches the status of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (Status, error) {
	var st Status
	err := c.call(ctx, "checking job status (jobId="+jobID+")", http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, &st)
	return st, err
}

// RerunJob restarts an expired job under the same id.
func (c *Client) RerunJob(ctx context.Context, jobID string) error {
	return c.call(ctx, "rerunning job (jobId="+jobID+")", http.MethodPost, "/jobs/"+url.PathEscape(jobID), nil, nil)
}

// CreateReport requests a pairwise report of a completed job.
func (c *Client) CreateReport(ctx context.Context, jobID string) (string, error) {
	body := struct {
		JobID  string `json:"jobID"`
		Format string `json:"format"`
	}{JobID: jobID, Format: "pairwise"}
	var out struct {
		ReportID string `json:"reportID"`
	}
	if err := c.call(ctx, "requesting report (jobId="+jobID+")", http.MethodPost, "/reports", body, &out); err != nil {
		return "", err
	}
	if out.ReportID == "" {
		return "", wsf.Modelf("multi-blast service returned no report id for job %s", jobID)
	}
	return out.ReportID, nil
}

// ReportStatus fetches the status of a report.
func (c *Client) ReportStatus(ctx context.Context, reportID string) (Status, error) {
	var st Status
	err := c.call(ctx, "checking report status (reportId="+reportID+")", http.MethodGet, "/reports/"+url.PathEscape(reportID), nil, &st)
	return st, err
}

// RerunReport restarts an expired report under the same id.
func (c *Client) RerunReport(ctx context.Context, reportID string) error {
	return c.call(ctx, "rerunning report (reportId="+reportID+")", http.MethodPost, "/reports/"+url.PathEscape(reportID), nil, nil)
}

// ReportFile downloads the report text. A body larger than maxSize, or the
// service's own too-large error, is a ResultTooLargeError.
func (c *Client) ReportFile(ctx context.Context, reportID string, maxSize int64) ([]byte, error) {
	path := "/reports/" + url.PathEscape(reportID) + "/files/report.txt?download=false"
	op := "fetching report (reportId=" + reportID + ")"

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, wsf.Modelf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := httputil.ReadSmallBody(resp)
		if tl := tooLarge(body); tl != nil {
			return nil, tl
		}
		return nil, wsf.Modelf("multi-blast service: %w", &httputil.StatusError{Op: op, StatusCode: resp.StatusCode, Body: body})
	}
	defer resp.Body.Close()

	data, err := httputil.ReadLimited(resp.Body, maxSize)
	if errors.Is(err, httputil.ErrBodyTooLarge) {
		return nil, &wsf.ResultTooLargeError{
			Msg:  fmt.Sprintf("The BLAST result is larger than %dMB. Please reduce the result size by lowering the number of hits or the Expectation value.", maxSize/1000000),
			Size: maxSize,
		}
	}
	if err != nil {
		return nil, wsf.Modelf("Unable to read result stream: %w", err)
	}
	if tl := tooLarge(string(data)); tl != nil {
		return nil, tl
	}
	return data, nil
}

// tooLarge recognizes the service's structured size error.
func tooLarge(body string) error {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var e struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(trimmed), &e) != nil || e.Status != TooLargeStatus {
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = "The BLAST result is too large. Please reduce the result size."
	}
	return &wsf.ResultTooLargeError{Msg: msg}
}

// call sends body as JSON and decodes a 200 response into out.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return wsf.Modelf("%s: %w", op, err)
	}
	text, err := httputil.ReadSmallBody(resp)
	if err != nil {
		return wsf.Modelf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wsf.Modelf("multi-blast service: %w", &httputil.StatusError{Op: op, StatusCode: resp.StatusCode, Body: text})
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return wsf.Modelf("%s: decoding %q: %w", op, text, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	endpoint := c.baseURL + path

	var payload []byte
	var rdr io.Reader
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.auth.Name, c.auth.Value)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	fields := logrus.Fields{"method": method, "url": endpoint}
	if payload != nil {
		fields["body"] = string(payload)
	}
	c.log.WithFields(fields).Info("calling multi-blast service")

	return httputil.DoWithRetry(ctx, c.http, req, 0)
}
