// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/wsf-plugins/internal/blast"
	"github.com/pdiddy/wsf-plugins/internal/container"
	"github.com/pdiddy/wsf-plugins/internal/logging"
	"github.com/pdiddy/wsf-plugins/internal/multiblast"
	"github.com/pdiddy/wsf-plugins/internal/project"
	"github.com/pdiddy/wsf-plugins/internal/secrets"
	"github.com/pdiddy/wsf-plugins/internal/sitesearch"
	"github.com/pdiddy/wsf-plugins/internal/textsearch"
	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// loadConfig decodes the merged file, environment and default settings.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func loadMapper(cfg types.Config) (*project.Mapper, error) {
	if cfg.ProjectMap == "" {
		return nil, wsf.Modelf("configuration must contain the property project_map")
	}
	return project.Load(cfg.ProjectMap)
}

func newLocalBlast(cfg types.Config) (*blast.LocalPlugin, error) {
	mapper, err := loadMapper(cfg)
	if err != nil {
		return nil, err
	}

	var runner blast.Runner
	if cfg.Blast.ContainerImage != "" {
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		if err := rt.ImageExists(cfg.Blast.ContainerImage); err != nil {
			return nil, err
		}
		bc := cfg.Blast.WithDefaults()
		mounts := []string{bc.TempPath}
		if bc.DatabaseDir != "" {
			mounts = append(mounts, bc.DatabaseDir)
		}
		runner = &blast.ContainerRunner{Runtime: rt, Image: cfg.Blast.ContainerImage, Mounts: mounts}
	}

	return blast.NewLocalPlugin(blast.LocalOptions{
		Config:   cfg.Blast,
		Mapper:   mapper,
		Registry: wsf.NewRegistry(cfg.RecordClasses),
		Runner:   runner,
		Log:      logging.For("blast"),
	})
}

func newMultiBlast(cfg types.Config) (*multiblast.Plugin, error) {
	mapper, err := loadMapper(cfg)
	if err != nil {
		return nil, err
	}
	formatter, err := blast.NewFormatter(cfg.Blast, mapper, logging.For("multiblast"))
	if err != nil {
		return nil, err
	}
	if cfg.MultiBlast.MaxReportSize <= 0 {
		cfg.MultiBlast.MaxReportSize = cfg.Blast.WithDefaults().MaxOutfileSize
	}
	return multiblast.NewPlugin(multiblast.Options{
		Config:    cfg.MultiBlast,
		ProjectID: cfg.ProjectID,
		Formatter: formatter,
		Registry:  wsf.NewRegistry(cfg.RecordClasses),
		Log:       logging.For("multiblast"),
	})
}

func siteSearchOptions(cfg types.Config, name string) sitesearch.Options {
	return sitesearch.Options{
		Config:   cfg.SiteSearch,
		Registry: wsf.NewRegistry(cfg.RecordClasses),
		Log:      logging.For(name),
	}
}

func newTextSearch(cfg types.Config) (*textsearch.Plugin, error) {
	cfg.TextSearch.DSN = secretDefault(secrets.TextSearchDSN, cfg.TextSearch.DSN)
	if cfg.TextSearch.Driver == "" {
		cfg.TextSearch.Driver = "sqlite3"
	}
	return textsearch.NewPlugin(textsearch.Options{Config: cfg.TextSearch, Log: logging.For("textsearch")})
}

// configuredPlugins builds every plugin whose configuration is complete.
// Plugins that cannot be built are logged and left out.
func configuredPlugins(cfg types.Config) []wsf.Plugin {
	log := logging.Logger()
	var plugins []wsf.Plugin
	add := func(name string, p wsf.Plugin, err error) {
		if err != nil {
			log.WithField("plugin", name).WithError(err).Warn("plugin not configured, skipping")
			return
		}
		plugins = append(plugins, p)
	}

	lb, err := newLocalBlast(cfg)
	add("blast", lb, err)
	mb, err := newMultiBlast(cfg)
	add("multiblast", mb, err)
	ss, err := sitesearch.NewPlugin(siteSearchOptions(cfg, "sitesearch"))
	add("sitesearch", ss, err)
	vp, err := sitesearch.NewVocabularyPlugin(siteSearchOptions(cfg, "vocabulary"))
	add("vocabulary", vp, err)
	ts, err := newTextSearch(cfg)
	add("textsearch", ts, err)
	return plugins
}
