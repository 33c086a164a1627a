// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wsf

import "github.com/pdiddy/wsf-plugins/pkg/types"

// RecordClass describes the record type a search returns.
type RecordClass struct {
	FullName   string
	URLSegment string
	PrimaryKey []string
}

// HasPrimaryKeyColumn reports whether col is part of the primary key.
func (rc RecordClass) HasPrimaryKeyColumn(col string) bool {
	for _, c := range rc.PrimaryKey {
		if c == col {
			return true
		}
	}
	return false
}

// Registry resolves record classes by full name or URL segment.
type Registry struct {
	classes map[string]RecordClass
}

// NewRegistry builds a registry from configuration.
func NewRegistry(cfgs []types.RecordClassConfig) *Registry {
	r := &Registry{classes: make(map[string]RecordClass, 2*len(cfgs))}
	for _, c := range cfgs {
		rc := RecordClass{FullName: c.FullName, URLSegment: c.URLSegment, PrimaryKey: c.PrimaryKey}
		r.classes[c.FullName] = rc
		if c.URLSegment != "" {
			r.classes[c.URLSegment] = rc
		}
	}
	return r
}

// Lookup finds a record class by full name or URL segment.
func (r *Registry) Lookup(name string) (RecordClass, bool) {
	rc, ok := r.classes[name]
	return rc, ok
}

// RecordClassParam is the legacy BLAST parameter naming the record class.
const RecordClassParam = "BlastRecordClass"

// ForRequest resolves the request's record class from its context, falling
// back to the BlastRecordClass parameter.
func (r *Registry) ForRequest(req Request) (RecordClass, error) {
	name := req.Context[ContextRecordClass]
	if name == "" {
		name = req.Params[RecordClassParam]
	}
	if name == "" {
		return RecordClass{}, Modelf("request carries no record class (context key %s)", ContextRecordClass)
	}
	rc, ok := r.Lookup(name)
	if !ok {
		return RecordClass{}, Modelf("could not find record class: %s", name)
	}
	return rc, nil
}
