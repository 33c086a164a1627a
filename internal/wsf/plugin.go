// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wsf defines the contract between the parent web-service framework
// and the search plugins: requests, responses, the plugin interface, and the
// error kinds a plugin may return.
package wsf

import (
	"context"
	"fmt"
	"sort"
)

// Request carries one plugin invocation from the framework.
type Request struct {
	// ProjectID is the project of the site issuing the request.
	ProjectID string `json:"projectId"`

	// Params holds the validated question parameter values by name.
	Params map[string]string `json:"params"`

	// OrderedColumns lists the result columns the caller wants, in order.
	OrderedColumns []string `json:"orderedColumns"`

	// Context carries framework values such as the user and record class.
	Context map[string]string `json:"context"`
}

// Param returns the named parameter value, or "" when absent.
func (r Request) Param(name string) string {
	return r.Params[name]
}

// Context keys set by the framework.
const (
	ContextUserID      = "wdk_user_id"
	ContextUserGuest   = "wdk_user_guest"
	ContextAuthKey     = "wdk_auth_key"
	ContextRecordClass = "wdk_record_class"
)

// Response receives the rows a plugin produces.
type Response interface {
	AddRow(row []string) error
	SetMessage(msg string)
}

// Plugin is implemented by every search plugin.
type Plugin interface {
	// Name identifies the plugin (e.g. "blast", "multiblast").
	Name() string

	// RequiredParameterNames lists params that must be present.
	RequiredParameterNames() []string

	// Columns returns the columns this plugin can fill for the request.
	Columns(req Request) ([]string, error)

	// ValidateParameters checks params beyond presence.
	ValidateParameters(req Request) error

	// Execute runs the search and writes rows to resp. The returned signal
	// is the exit status of any external tool (0 for none).
	Execute(ctx context.Context, req Request, resp Response) (int, error)
}

// Invoke runs p the way the framework does: required params are checked,
// then params validated, then the requested columns checked against the
// declared ones, then the plugin executed.
func Invoke(ctx context.Context, p Plugin, req Request, resp Response) (int, error) {
	var missing []string
	for _, name := range p.RequiredParameterNames() {
		if _, ok := req.Params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, Userf("missing required parameter(s): %v", missing)
	}

	if err := p.ValidateParameters(req); err != nil {
		return 0, err
	}

	declared, err := p.Columns(req)
	if err != nil {
		return 0, err
	}
	if len(req.OrderedColumns) == 0 {
		req.OrderedColumns = declared
	} else {
		known := make(map[string]bool, len(declared))
		for _, c := range declared {
			known[c] = true
		}
		for _, c := range req.OrderedColumns {
			if !known[c] {
				return 0, Modelf("plugin %s does not declare column %q", p.Name(), c)
			}
		}
	}

	return p.Execute(ctx, req, resp)
}

// RowBuffer is an in-memory Response.
type RowBuffer struct {
	Rows    [][]string
	Message string
}

// AddRow appends a copy of row.
func (b *RowBuffer) AddRow(row []string) error {
	if row == nil {
		return fmt.Errorf("nil row")
	}
	b.Rows = append(b.Rows, append([]string(nil), row...))
	return nil
}

// SetMessage records the plugin message.
func (b *RowBuffer) SetMessage(msg string) { b.Message = msg }

// ColumnIndex maps column names to their position in an ordered column list.
func ColumnIndex(orderedColumns []string) map[string]int {
	idx := make(map[string]int, len(orderedColumns))
	for i, c := range orderedColumns {
		idx[c] = i
	}
	return idx
}
