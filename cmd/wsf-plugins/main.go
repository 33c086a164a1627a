// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wsf-plugins CLI. Each search
// plugin is a subcommand; serve hosts them all over HTTP.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wsf-plugins/internal/logging"
	"github.com/pdiddy/wsf-plugins/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the wsf-plugins CLI.
var rootCmd = &cobra.Command{
	Use:   "wsf-plugins",
	Short: "BLAST, site search and text search plugins for the web service framework",
	Long: `wsf-plugins runs the search plugins of the web service framework from
the command line: local BLAST, the remote multi-blast service, site search
and its field vocabulary, and SQL text search.

Each plugin is a subcommand that prints result rows as TSV, JSON or YAML.
serve hosts every configured plugin over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := logging.Init(cfg.Log); err != nil {
			return err
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logging.Logger().WithField("keys", keys).Info("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./wsf-plugins.yaml or ~/.config/wsf-plugins/wsf-plugins.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "output rows as JSON")
	rootCmd.PersistentFlags().Bool("yaml", false, "output rows as YAML")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wsf-plugins")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wsf-plugins"))
		}
	}

	viper.SetEnvPrefix("WSF_PLUGINS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log.level", "info")
	viper.SetDefault("server.addr", ":8080")
	for _, key := range configKeys {
		viper.SetDefault(key, "")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configKeys are bound so WSF_PLUGINS_* variables reach viper.Unmarshal
// even when the config file does not mention them.
var configKeys = []string{
	"project_id",
	"project_map",
	"blast.blast_path",
	"blast.database_dir",
	"blast.temp_path",
	"blast.container_image",
	"multiblast.localhost",
	"multiblast.service_url",
	"sitesearch.localhost",
	"sitesearch.service_url",
	"textsearch.driver",
	"textsearch.dsn",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
