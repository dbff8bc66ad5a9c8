package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	EngineSolr  = "solr"
	EngineBleve = "bleve"
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	setDefaults(viperConfig)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

// New builds a Config from in-memory values on top of the defaults. Keys use
// the same dotted names as the YAML files.
func New(values map[string]any) *Config {
	viperConfig := viper.New()
	setDefaults(viperConfig)
	for key, value := range values {
		viperConfig.Set(key, value)
	}
	return &Config{config: viperConfig}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")

	v.SetDefault("search.engine", EngineSolr)
	v.SetDefault("search.solr_url", "http://localhost:8983/solr/searchcore")
	v.SetDefault("search.suggester", "mySuggester")
	v.SetDefault("search.request_timeout", "30s")
	v.SetDefault("search.page_size", 10)
	v.SetDefault("search.facet_fields", []string{"category", "tags"})
	v.SetDefault("search.facet_min_count", 1)
	v.SetDefault("search.facet_limit", 20)
	v.SetDefault("search.highlight_fields", []string{"title", "content"})
	v.SetDefault("search.highlight_snippets", 3)
	v.SetDefault("search.highlight_fragsize", 200)
	v.SetDefault("search.group_field", "")
	v.SetDefault("search.group_limit", 10)

	v.SetDefault("database.storage_path", ".searchdesk")
	v.SetDefault("database.index_path", "index.bleve")
	v.SetDefault("database.kvdb_path", ".searchdesk/status.db")

	v.SetDefault("ingest.segment_paragraphs", true)
	v.SetDefault("ingest.commit_within", "1s")
	v.SetDefault("ingest.max_parallel", 50)
	v.SetDefault("ingest.max_upload_bytes", 20<<20)

	v.SetDefault("crawl.requests_per_second", 1.0)
	v.SetDefault("crawl.timeout", "30s")

	v.SetDefault("bench.results_path", "qps_results.csv")
}

func (c *Config) GetPort() string {
	port := c.config.GetString("PORT")
	if len(port) == 0 {
		port = c.config.GetString("server.port")
	}

	return port
}

// GetCORSOrigins lists the origins allowed to call the API. Empty allows any.
func (c *Config) GetCORSOrigins() []string {
	return c.config.GetStringSlice("server.cors_origins")
}

func (c *Config) GetLogLevel() string {
	level := c.config.GetString("LOG_LEVEL")
	if len(level) == 0 {
		level = c.config.GetString("log.level")
	}

	return level
}

// GetEngine returns which search backend to talk to: "solr" or "bleve".
func (c *Config) GetEngine() string {
	engine := c.config.GetString("ENGINE")
	if len(engine) == 0 {
		engine = c.config.GetString("search.engine")
	}

	return strings.ToLower(engine)
}

func (c *Config) GetSolrURL() string {
	solrURL := c.config.GetString("SOLR_URL")
	if len(solrURL) == 0 {
		solrURL = c.config.GetString("search.solr_url")
	}

	return strings.TrimRight(solrURL, "/")
}

func (c *Config) GetSuggester() string {
	return c.config.GetString("search.suggester")
}

func (c *Config) GetRequestTimeout() time.Duration {
	return c.config.GetDuration("search.request_timeout")
}

func (c *Config) GetPageSize() int {
	return c.config.GetInt("search.page_size")
}

func (c *Config) GetFacetFields() []string {
	return c.config.GetStringSlice("search.facet_fields")
}

func (c *Config) GetFacetMinCount() int {
	return c.config.GetInt("search.facet_min_count")
}

func (c *Config) GetFacetLimit() int {
	return c.config.GetInt("search.facet_limit")
}

func (c *Config) GetHighlightFields() []string {
	return c.config.GetStringSlice("search.highlight_fields")
}

func (c *Config) GetHighlightSnippets() int {
	return c.config.GetInt("search.highlight_snippets")
}

func (c *Config) GetHighlightFragSize() int {
	return c.config.GetInt("search.highlight_fragsize")
}

// GetGroupField returns the field results are grouped by. Empty disables grouping.
func (c *Config) GetGroupField() string {
	return c.config.GetString("search.group_field")
}

func (c *Config) GetGroupLimit() int {
	return c.config.GetInt("search.group_limit")
}

func (c *Config) GetKVDBPath() string {
	kvdbPath := c.config.GetString("KVDB_PATH")
	if len(kvdbPath) == 0 {
		kvdbPath = c.config.GetString("database.kvdb_path")
	}

	return kvdbPath
}

func (c *Config) GetIndexPath() string {
	indexPath := c.config.GetString("INDEX_PATH")
	if len(indexPath) == 0 {
		indexPath = c.config.GetString("database.index_path")
	}

	return indexPath
}

func (c *Config) GetStoragePath() string {
	storagePath := c.config.GetString("STORAGE_PATH")
	if len(storagePath) == 0 {
		storagePath = c.config.GetString("database.storage_path")
	}

	return storagePath
}

func (c *Config) GetSegmentParagraphs() bool {
	return c.config.GetBool("ingest.segment_paragraphs")
}

func (c *Config) GetCommitWithin() time.Duration {
	return c.config.GetDuration("ingest.commit_within")
}

func (c *Config) GetMaxParallel() int {
	return c.config.GetInt("ingest.max_parallel")
}

func (c *Config) GetMaxUploadBytes() int64 {
	return c.config.GetInt64("ingest.max_upload_bytes")
}

func (c *Config) GetCrawlRate() float64 {
	return c.config.GetFloat64("crawl.requests_per_second")
}

func (c *Config) GetCrawlTimeout() time.Duration {
	return c.config.GetDuration("crawl.timeout")
}

func (c *Config) GetBenchResultsPath() string {
	resultsPath := c.config.GetString("BENCH_RESULTS_PATH")
	if len(resultsPath) == 0 {
		resultsPath = c.config.GetString("bench.results_path")
	}

	return resultsPath
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
