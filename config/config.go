package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/recruitcrawler/pkg/errors"
)

// Source names
const (
	SourceJumpit   = "jumpit"
	SourceWanted   = "wanted"
	SourceJobKorea = "jobkorea"
	SourceGamejob  = "gamejob"
)

// SourceConfig holds the constants of one crawl source
type SourceConfig struct {
	ListURL    string        `yaml:"list_url"`
	DetailURL  string        `yaml:"detail_url"`
	PageSize   int           `yaml:"page_size"`
	TotalItems int           `yaml:"total_items"` // 0 crawls until an empty page
	Delay      time.Duration `yaml:"delay"`
	Jitter     time.Duration `yaml:"jitter"`
	Output     string        `yaml:"output"`
	UserAgent  string        `yaml:"user_agent"`
}

// Config represents the application configuration
type Config struct {
	// Sources to run, in order
	Sources []string

	// Output
	OutputDir      string
	ErrorLogFile   string
	CheckpointSize int

	// HTTP
	RequestTimeout time.Duration

	// Memcache block marker, disabled when empty
	MemcacheAddr string
	BlockTime    time.Duration

	// Redis stream publishing, disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Headless browser
	ChromeHeadless bool
	MarkerTimeout  time.Duration

	// Gamejob detail run input
	GamejobInputFile  string
	GamejobStartIndex int

	// Visit each jobkorea listing's detail page
	JobKoreaDetail bool

	// Optional YAML overlay with per-source overrides
	SourcesFile string

	Jumpit   SourceConfig
	Wanted   SourceConfig
	JobKorea SourceConfig
	Gamejob  SourceConfig

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Sources:              splitList(getEnv("CRAWL_SOURCES", "jumpit,wanted,jobkorea,gamejob")),
		OutputDir:            getEnv("OUTPUT_DIR", "."),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "crawl_error.log"),
		CheckpointSize:       getEnvInt("CHECKPOINT_SIZE", 100),
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BlockTime:            time.Duration(getEnvInt("BLOCK_SECONDS", 500)) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "postings"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000),
		ChromeHeadless:       getEnvBool("CHROME_HEADLESS", true),
		MarkerTimeout:        time.Duration(getEnvInt("MARKER_TIMEOUT_SECONDS", 5)) * time.Second,
		GamejobInputFile:     getEnv("GAMEJOB_INPUT_FILE", "gamejob.csv"),
		GamejobStartIndex:    getEnvInt("GAMEJOB_START_INDEX", 0),
		JobKoreaDetail:       getEnvBool("JOBKOREA_DETAIL", false),
		SourcesFile:          getEnv("SOURCES_FILE", ""),
		Environment:          getEnv("CRAWL_ENVIRONMENT", "development"),

		Jumpit: SourceConfig{
			ListURL:    getEnv("JUMPIT_LIST_URL", "https://jumpit-api.saramin.co.kr/api/positions"),
			DetailURL:  getEnv("JUMPIT_DETAIL_URL", "https://jumpit.saramin.co.kr/position/"),
			PageSize:   16,
			TotalItems: getEnvInt("JUMPIT_TOTAL_ITEMS", 1404),
			Delay:      500 * time.Millisecond,
			Output:     "jumpit_full_data.csv",
		},
		Wanted: SourceConfig{
			ListURL:   getEnv("WANTED_LIST_URL", "https://www.wanted.co.kr/api/chaos/navigation/v1/results"),
			DetailURL: getEnv("WANTED_DETAIL_URL", "https://www.wanted.co.kr/api/chaos/jobs/v4"),
			PageSize:  20,
			Delay:     500 * time.Millisecond,
			Jitter:    time.Second,
			Output:    "wanted_full_job_data.csv",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		},
		JobKorea: SourceConfig{
			ListURL:   getEnv("JOBKOREA_LIST_URL", "https://www.jobkorea.co.kr/recruit/joblist?menucode=duty"),
			DetailURL: "https://www.jobkorea.co.kr",
			Delay:     2 * time.Second,
			Output:    "jobkorea_all_listings.csv",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.7339.81 Safari/537.36",
		},
		Gamejob: SourceConfig{
			DetailURL: "gamejob.co.kr",
			PageSize:  100,
			Delay:     time.Second,
			Jitter:    2 * time.Second,
			Output:    "gamejob_detail_data.csv",
		},
	}
}

// Validate checks the configuration for values the run cannot work with
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.NewConfiguration("CRAWL_SOURCES is empty", nil)
	}
	for _, s := range c.Sources {
		if c.Source(s) == nil {
			return errors.NewConfiguration(fmt.Sprintf("unknown source %q", s), nil)
		}
	}
	if c.CheckpointSize < 0 {
		return errors.NewConfiguration("CHECKPOINT_SIZE must not be negative", nil)
	}
	if c.RequestTimeout <= 0 {
		return errors.NewConfiguration("REQUEST_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	if c.GamejobStartIndex < 0 {
		return errors.NewConfiguration("GAMEJOB_START_INDEX must not be negative", nil)
	}
	return nil
}

// Source returns the named source's configuration, or nil
func (c *Config) Source(name string) *SourceConfig {
	switch name {
	case SourceJumpit:
		return &c.Jumpit
	case SourceWanted:
		return &c.Wanted
	case SourceJobKorea:
		return &c.JobKorea
	case SourceGamejob:
		return &c.Gamejob
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
