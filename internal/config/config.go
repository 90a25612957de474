// Package config loads the sync configuration from an HCL file or from the
// algolia section of a Hexo site's _config.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/batch"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/content/hexodb"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/database"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/fieldspec"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// Environment variables that take precedence over the configuration file.
const (
	EnvAppID       = "ALGOLIA_APP_ID"
	EnvAdminAPIKey = "ALGOLIA_ADMIN_API_KEY"
	EnvIndexName   = "ALGOLIA_INDEX_NAME"
	EnvChunkSize   = "ALGOLIA_CHUNK_SIZE"

	EnvMeilisearchAPIKey = "MEILISEARCH_API_KEY"
)

// ErrHistoryNotConfigured is returned by LoadHistory for a configuration
// without a history block.
var ErrHistoryNotConfigured = errors.New("run history is not configured")

// Config contains the sync configuration.
type Config struct {
	// SiteDir is the Hexo site root. Defaults to the directory of a
	// _config.yml, or the working directory.
	SiteDir string `hcl:"site_dir,optional"`

	// DBPath is the Hexo warehouse file, relative to SiteDir.
	DBPath string `hcl:"db_path,optional"`

	// Backend is the search backend: "algolia" (default), "bleve" or
	// "meilisearch".
	Backend string `hcl:"backend,optional"`

	ChunkSize            int `hcl:"chunk_size,optional"`
	MaxConcurrentUploads int `hcl:"max_concurrent_uploads,optional"`

	// PostFields are the field specs indexed for posts. PageFields default
	// to PostFields.
	PostFields []string `hcl:"post_fields,optional"`
	PageFields []string `hcl:"page_fields,optional"`

	// MetricsFile is a node_exporter textfile path written after each run.
	MetricsFile string `hcl:"metrics_file,optional"`

	Algolia     *Algolia     `hcl:"algolia,block"`
	Bleve       *Bleve       `hcl:"bleve,block"`
	Meilisearch *Meilisearch `hcl:"meilisearch,block"`
	Generate    *Generate    `hcl:"generate,block"`
	History     *History     `hcl:"history,block"`

	// Parsed field selections, set by Load.
	PostSelection fieldspec.Selection
	PageSelection fieldspec.Selection
}

// Algolia configures the Algolia backend.
type Algolia struct {
	AppID        string `hcl:"app_id,optional"`
	AdminAPIKey  string `hcl:"admin_api_key,optional"`
	IndexName    string `hcl:"index_name,optional"`
	WaitForTasks bool   `hcl:"wait_for_tasks,optional"`
}

func (a Algolia) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.AppID, validation.Required),
		validation.Field(&a.AdminAPIKey, validation.Required),
		validation.Field(&a.IndexName, validation.Required),
	)
}

// Bleve configures the local Bleve backend.
type Bleve struct {
	IndexPath string `hcl:"index_path"`
}

func (b Bleve) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.IndexPath, validation.Required),
	)
}

// Meilisearch configures the Meilisearch backend.
type Meilisearch struct {
	Host         string `hcl:"host,optional"`
	APIKey       string `hcl:"api_key,optional"`
	IndexName    string `hcl:"index_name,optional"`
	WaitForTasks bool   `hcl:"wait_for_tasks,optional"`
}

func (m Meilisearch) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Host, validation.Required),
		validation.Field(&m.IndexName, validation.Required),
	)
}

// Generate configures the site generation run before each sync.
type Generate struct {
	Command []string `hcl:"command,optional"`

	// Skip disables generation; the existing warehouse is read as is.
	Skip bool `hcl:"skip,optional"`
}

// History configures the run history database.
type History struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn"`
}

func (h History) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Driver, validation.In(database.DriverSQLite, database.DriverPostgres)),
		validation.Field(&h.DSN, validation.Required),
	)
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(
			string(search.ProviderTypeAlgolia),
			string(search.ProviderTypeBleve),
			string(search.ProviderTypeMeilisearch),
		)),
		validation.Field(&c.ChunkSize, validation.Min(1)),
		validation.Field(&c.MaxConcurrentUploads, validation.Min(0)),
		validation.Field(&c.PostFields, validation.Required),
		validation.Field(&c.Algolia,
			validation.When(c.Backend == string(search.ProviderTypeAlgolia), validation.Required),
		),
		validation.Field(&c.Bleve,
			validation.When(c.Backend == string(search.ProviderTypeBleve), validation.Required),
		),
		validation.Field(&c.Meilisearch,
			validation.When(c.Backend == string(search.ProviderTypeMeilisearch), validation.Required),
		),
		validation.Field(&c.History),
	)
}

// WarehousePath returns the path of the Hexo warehouse file.
func (c *Config) WarehousePath() string {
	if filepath.IsAbs(c.DBPath) {
		return c.DBPath
	}
	return filepath.Join(c.SiteDir, c.DBPath)
}

// GenerateCommand returns the generation command, or nil when generation is
// skipped.
func (c *Config) GenerateCommand() []string {
	if c.Generate == nil {
		return hexodb.DefaultGenerateCommand
	}
	if c.Generate.Skip {
		return nil
	}
	if len(c.Generate.Command) == 0 {
		return hexodb.DefaultGenerateCommand
	}
	return c.Generate.Command
}

// IndexName returns the name of the index being written.
func (c *Config) IndexName() string {
	switch {
	case c.Backend == string(search.ProviderTypeAlgolia) && c.Algolia != nil:
		return c.Algolia.IndexName
	case c.Backend == string(search.ProviderTypeBleve) && c.Bleve != nil:
		return c.Bleve.IndexPath
	case c.Backend == string(search.ProviderTypeMeilisearch) && c.Meilisearch != nil:
		return c.Meilisearch.IndexName
	}
	return ""
}

// Load reads the configuration file at path, applies environment overrides
// and defaults, validates it and parses the field specs. Files ending in
// .yml or .yaml are read as a Hexo _config.yml; anything else as HCL.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg, err := decode(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadHistory reads only the history block of the configuration file at
// path. Backend settings and credentials are neither required nor checked.
func LoadHistory(path string) (*History, error) {
	cfg, err := decode(path)
	if err != nil {
		return nil, err
	}
	if cfg.History == nil {
		return nil, ErrHistoryNotConfigured
	}

	cfg.applyDefaults()
	if err := cfg.History.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: history: %w", err)
	}
	return cfg.History, nil
}

// decode reads the file at path without applying the environment or
// defaults. Files ending in .yml or .yaml are read as a Hexo _config.yml.
func decode(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return decodeHexoConfig(path)
	default:
		return decodeHCL(path)
	}
}

func decodeHCL(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return &cfg, nil
}

// hexoConfig is the part of a Hexo _config.yml read by the sync.
type hexoConfig struct {
	Algolia *hexoAlgolia `yaml:"algolia"`
}

type hexoAlgolia struct {
	AppID       string   `yaml:"appId"`
	AdminAPIKey string   `yaml:"adminApiKey"`
	IndexName   string   `yaml:"indexName"`
	ChunkSize   int      `yaml:"chunkSize"`
	Fields      []string `yaml:"fields"`
	PageFields  []string `yaml:"pageFields"`

	History *hexoHistory `yaml:"history"`
}

type hexoHistory struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func decodeHexoConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var hc hexoConfig
	if err := yaml.Unmarshal(data, &hc); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	if hc.Algolia == nil {
		return nil, fmt.Errorf("no algolia section in %s", path)
	}

	cfg := &Config{
		SiteDir:    filepath.Dir(path),
		Backend:    string(search.ProviderTypeAlgolia),
		ChunkSize:  hc.Algolia.ChunkSize,
		PostFields: hc.Algolia.Fields,
		PageFields: hc.Algolia.PageFields,
		Algolia: &Algolia{
			AppID:       hc.Algolia.AppID,
			AdminAPIKey: hc.Algolia.AdminAPIKey,
			IndexName:   hc.Algolia.IndexName,
		},
	}
	if h := hc.Algolia.History; h != nil {
		cfg.History = &History{Driver: h.Driver, DSN: h.DSN}
	}
	return cfg, nil
}

// applyEnv overrides file settings from the environment. Algolia credentials
// are ignored when another backend is configured.
func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	useAlgolia := c.Backend == "" || c.Backend == string(search.ProviderTypeAlgolia)
	set := func(key string, dst func(*Algolia) *string) {
		v, ok := lookupEnv(key)
		if !ok || v == "" || !useAlgolia {
			return
		}
		if c.Algolia == nil {
			c.Algolia = &Algolia{}
		}
		*dst(c.Algolia) = v
	}
	set(EnvAppID, func(a *Algolia) *string { return &a.AppID })
	set(EnvAdminAPIKey, func(a *Algolia) *string { return &a.AdminAPIKey })
	set(EnvIndexName, func(a *Algolia) *string { return &a.IndexName })

	if v, ok := lookupEnv(EnvMeilisearchAPIKey); ok && v != "" && c.Meilisearch != nil {
		c.Meilisearch.APIKey = v
	}

	if v, ok := lookupEnv(EnvChunkSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvChunkSize, v, err)
		}
		c.ChunkSize = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SiteDir == "" {
		c.SiteDir = "."
	}
	if c.DBPath == "" {
		c.DBPath = hexodb.DefaultPath
	}
	if c.Backend == "" {
		c.Backend = string(search.ProviderTypeAlgolia)
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = batch.DefaultChunkSize
	}
	if len(c.PageFields) == 0 {
		c.PageFields = c.PostFields
	}
	if c.History != nil && c.History.Driver == "" {
		c.History.Driver = database.DriverSQLite
	}
}

// finalize validates the configuration and parses the field specs, reporting
// every problem at once.
func (c *Config) finalize() error {
	var result *multierror.Error

	if err := c.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	posts, err := fieldspec.NewSelection(c.PostFields)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("post_fields: %w", err))
	}
	pages, err := fieldspec.NewSelection(c.PageFields)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("page_fields: %w", err))
	}
	c.PostSelection = posts
	c.PageSelection = pages

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
