// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project maps organisms to the project (site) that hosts them and
// projects to their base URLs. The mapping is loaded from a YAML file:
//
//	default_project: PlasmoDB
//	organisms:
//	  pfal3D7: PlasmoDB
//	  tgonME49: ToxoDB
//	projects:
//	  PlasmoDB: https://plasmodb.org/plasmo
//	  ToxoDB: https://toxodb.org/toxo
package project

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Mapper resolves organisms to project ids and project ids to base URLs.
type Mapper struct {
	DefaultProject string            `yaml:"default_project"`
	Organisms      map[string]string `yaml:"organisms"`
	Projects       map[string]string `yaml:"projects"`
}

// Load reads a project map from a YAML file.
func Load(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project map %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a project map from YAML bytes.
func Parse(data []byte) (*Mapper, error) {
	var m Mapper
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing project map: %w", err)
	}
	if m.Organisms == nil {
		m.Organisms = map[string]string{}
	}
	if m.Projects == nil {
		m.Projects = map[string]string{}
	}
	return &m, nil
}

// ProjectByOrganism returns the project hosting organism. Unknown organisms,
// including the "none" sentinel, resolve to the default project when one is
// configured.
func (m *Mapper) ProjectByOrganism(organism string) (string, error) {
	if p, ok := m.Organisms[organism]; ok {
		return p, nil
	}
	if m.DefaultProject != "" {
		return m.DefaultProject, nil
	}
	return "", fmt.Errorf("no project mapped for organism %q", organism)
}

// BaseURL returns the base URL of project without a trailing slash, or ""
// when the project is unknown.
func (m *Mapper) BaseURL(projectID string) string {
	return strings.TrimRight(m.Projects[projectID], "/")
}
