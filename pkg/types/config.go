// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Config is the top-level configuration decoded from wsf-plugins.yaml
// (and WSF_PLUGINS_* environment variables) by the CLI.
type Config struct {
	// ProjectID is the site project the plugins run for (e.g. "PlasmoDB").
	ProjectID string `json:"project_id" yaml:"project_id" mapstructure:"project_id"`

	// ProjectMap is the path to the YAML file mapping organisms to projects
	// and projects to base URLs.
	ProjectMap string `json:"project_map" yaml:"project_map" mapstructure:"project_map"`

	// RecordClasses lists the record classes plugins may be invoked for.
	RecordClasses []RecordClassConfig `json:"record_classes" yaml:"record_classes" mapstructure:"record_classes"`

	Blast      BlastConfig      `json:"blast" yaml:"blast" mapstructure:"blast"`
	MultiBlast MultiBlastConfig `json:"multiblast" yaml:"multiblast" mapstructure:"multiblast"`
	SiteSearch SiteSearchConfig `json:"sitesearch" yaml:"sitesearch" mapstructure:"sitesearch"`
	TextSearch TextSearchConfig `json:"textsearch" yaml:"textsearch" mapstructure:"textsearch"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}

// RecordClassConfig describes one record class of the parent application.
type RecordClassConfig struct {
	// FullName is the record class name used in record links
	// (e.g. "GeneRecordClasses.GeneRecordClass").
	FullName string `json:"full_name" yaml:"full_name" mapstructure:"full_name"`

	// URLSegment is the short name, also used as the site-search document type.
	URLSegment string `json:"url_segment" yaml:"url_segment" mapstructure:"url_segment"`

	// PrimaryKey lists the primary key column names in order.
	PrimaryKey []string `json:"primary_key" yaml:"primary_key" mapstructure:"primary_key"`
}

// HTTPConfig holds shared HTTP settings used by plugins that call a service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ServiceConfig locates a service the way the site's model properties do:
// Localhost is prepended to ServiceURL.
type ServiceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Localhost  string `json:"localhost" yaml:"localhost" mapstructure:"localhost"`
	ServiceURL string `json:"service_url" yaml:"service_url" mapstructure:"service_url"`
}

// BaseURL returns Localhost + ServiceURL.
func (c ServiceConfig) BaseURL() string {
	return c.Localhost + c.ServiceURL
}

// Default values for the local BLAST plugin.
const (
	DefaultBlastTempPath      = "/var/www/Common/tmp/blast"
	DefaultBlastTimeout       = 300
	DefaultIdentifierRegex    = `^>*(?:[^\|]*\|)?(\S+)`
	DefaultOrganismRegex      = `\|\s*organism=([^|\s]+)`
	DefaultGeneRegex          = `\|\s*gene=([^|\s]+)`
	DefaultMaxOutfileSize     = 90000000
	DefaultTempMaxAge         = 500000000 * time.Millisecond
	DefaultBlastThreads       = 4
	DefaultMultiBlastInitial  = 2 * time.Second
	DefaultMultiBlastInterval = 5 * time.Second
	DefaultMultiBlastMaxWait  = 5 * time.Minute
)

// BlastConfig holds the local BLAST plugin settings, plus the regexes
// shared with the multi-blast result formatter.
type BlastConfig struct {
	// BlastPath is the directory (with trailing slash) or prefix of the
	// BLAST+ executables. Required for the local plugin.
	BlastPath string `json:"blast_path" yaml:"blast_path" mapstructure:"blast_path"`

	// TempPath holds query and report files.
	TempPath string `json:"temp_path" yaml:"temp_path" mapstructure:"temp_path"`

	// ExtraOptions are appended verbatim (whitespace split) to every command.
	ExtraOptions string `json:"extra_options" yaml:"extra_options" mapstructure:"extra_options"`

	// Timeout is the BLAST execution timeout in seconds.
	Timeout int `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	IdentifierRegex string `json:"identifier_regex" yaml:"identifier_regex" mapstructure:"identifier_regex"`
	OrganismRegex   string `json:"organism_regex" yaml:"organism_regex" mapstructure:"organism_regex"`
	GeneRegex       string `json:"gene_regex" yaml:"gene_regex" mapstructure:"gene_regex"`

	// DatabaseDir is where per-organism BLAST databases live.
	DatabaseDir string `json:"database_dir" yaml:"database_dir" mapstructure:"database_dir"`

	// MaxOutfileSize is the largest report (bytes) that will be parsed.
	MaxOutfileSize int64 `json:"max_outfile_size" yaml:"max_outfile_size" mapstructure:"max_outfile_size"`

	// TempMaxAge is the age after which temp files are swept.
	TempMaxAge time.Duration `json:"temp_max_age" yaml:"temp_max_age" mapstructure:"temp_max_age"`

	// Threads is passed as -num_threads.
	Threads int `json:"threads" yaml:"threads" mapstructure:"threads"`

	// ContainerImage, when set, runs BLAST inside this image with docker or podman.
	ContainerImage string `json:"container_image,omitempty" yaml:"container_image,omitempty" mapstructure:"container_image"`
}

// WithDefaults fills unset optional fields.
func (c BlastConfig) WithDefaults() BlastConfig {
	if c.TempPath == "" {
		c.TempPath = DefaultBlastTempPath
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultBlastTimeout
	}
	if c.IdentifierRegex == "" {
		c.IdentifierRegex = DefaultIdentifierRegex
	}
	if c.OrganismRegex == "" {
		c.OrganismRegex = DefaultOrganismRegex
	}
	if c.GeneRegex == "" {
		c.GeneRegex = DefaultGeneRegex
	}
	if c.MaxOutfileSize <= 0 {
		c.MaxOutfileSize = DefaultMaxOutfileSize
	}
	if c.TempMaxAge <= 0 {
		c.TempMaxAge = DefaultTempMaxAge
	}
	if c.Threads <= 0 {
		c.Threads = DefaultBlastThreads
	}
	return c
}

// MultiBlastConfig holds settings for the remote multi-blast service plugin.
type MultiBlastConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// InitialWait lets the service answer from its cache before the first poll.
	InitialWait time.Duration `json:"initial_wait" yaml:"initial_wait" mapstructure:"initial_wait"`

	// PollInterval is the delay between status checks.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`

	// MaxWait is the wait-time budget counted from job submission.
	MaxWait time.Duration `json:"max_wait" yaml:"max_wait" mapstructure:"max_wait"`

	// MaxReportSize caps the report body in bytes. Zero uses the BLAST
	// MaxOutfileSize.
	MaxReportSize int64 `json:"max_report_size" yaml:"max_report_size" mapstructure:"max_report_size"`
}

// WithDefaults fills unset timing fields.
func (c MultiBlastConfig) WithDefaults() MultiBlastConfig {
	if c.InitialWait <= 0 {
		c.InitialWait = DefaultMultiBlastInitial
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultMultiBlastInterval
	}
	if c.MaxWait <= 0 {
		c.MaxWait = DefaultMultiBlastMaxWait
	}
	if c.MaxReportSize <= 0 {
		c.MaxReportSize = DefaultMaxOutfileSize
	}
	return c
}

// SiteSearchConfig holds settings for the site-search plugins.
type SiteSearchConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
}

// TextSearchConfig holds settings for the SQL text search plugin.
type TextSearchConfig struct {
	// Driver is the database/sql driver name (e.g. "sqlite3").
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the driver data source name.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// Queries maps a text field (dataset) name to its SQL. Each query takes
	// two positional binds, the transformed text expression and the project
	// id, and returns source_id, project_id, max_score, fields_matched and
	// optionally gene_source_id.
	Queries map[string]string `json:"queries" yaml:"queries" mapstructure:"queries"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"`
	Format     string `json:"format" yaml:"format" mapstructure:"format"`
	Output     string `json:"output" yaml:"output" mapstructure:"output"`
	FilePath   string `json:"file_path" yaml:"file_path" mapstructure:"file_path"`
	MaxSize    int    `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
	Compress   bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// ServerConfig controls the HTTP plugin host.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RateLimitRPS limits plugin invocations per second. <=0 disables it.
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateBurst    int     `json:"rate_burst" yaml:"rate_burst" mapstructure:"rate_burst"`
}
