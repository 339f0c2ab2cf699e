package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "SPORTS_DOWNLOADER_CONFIG"
	websiteURLEnv    = "WEBSITE_URL"
	downloadPathEnv  = "DOWNLOAD_PATH"
	checkIntervalEnv = "CHECK_INTERVAL"
	retentionDaysEnv = "RETENTION_DAYS"
	dataFileEnv      = "DATA_FILE"
	knownLinksEnv    = "KNOWN_LINKS_FILE"
	logFileEnv       = "LOG_FILE"
	logLevelEnv      = "LOG_LEVEL"
	maxDownloadEnv   = "MAX_DOWNLOAD_TIME"
	maxFileSizeEnv   = "MAX_FILE_SIZE"
	startDateEnv     = "START_DATE"
)

// startDateLayouts are the accepted ISO-8601 forms for START_DATE.
var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Config holds all settings required across the application. It is built
// once at startup and passed to component constructors; nothing reads
// configuration from ambient state after that.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig describes the polled website and discovery cadence.
type SiteConfig struct {
	URL                  string `yaml:"url"`
	Scanner              string `yaml:"scanner"`
	CheckIntervalSeconds int    `yaml:"checkIntervalSeconds"`
	StartDate            string `yaml:"startDate"`

	startDate time.Time `yaml:"-"`
}

// StorageConfig locates the download directory and both ledger files.
type StorageConfig struct {
	DownloadPath   string `yaml:"downloadPath"`
	DataFile       string `yaml:"dataFile"`
	KnownLinksFile string `yaml:"knownLinksFile"`
	RetentionDays  int    `yaml:"retentionDays"`
}

// RetrievalConfig bounds a single media retrieval.
type RetrievalConfig struct {
	MaxDownloadSeconds int   `yaml:"maxDownloadSeconds"`
	MaxFileSizeBytes   int64 `yaml:"maxFileSizeBytes"`
}

// LoggingConfig controls log destination and verbosity.
type LoggingConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// CheckInterval returns the poll interval as a duration.
func (s SiteConfig) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalSeconds) * time.Second
}

// Start resolves the configured cutoff date. Links discovered before this
// instant are never downloaded.
func (s SiteConfig) Start() time.Time {
	if !s.startDate.IsZero() {
		return s.startDate
	}
	return todayMidnight()
}

// Retention returns the media retention window as a duration.
func (s StorageConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// MaxDownloadTime returns the retrieval wall-clock budget as a duration.
func (r RetrievalConfig) MaxDownloadTime() time.Duration {
	return time.Duration(r.MaxDownloadSeconds) * time.Second
}

// Load reads YAML configuration (if present) and applies environment
// overrides for every recognized option.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindStartDate()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(websiteURLEnv); v != "" {
		c.Site.URL = v
	}
	if v := os.Getenv(startDateEnv); v != "" {
		c.Site.StartDate = v
	}
	if v, ok := envInt(checkIntervalEnv); ok {
		c.Site.CheckIntervalSeconds = v
	}

	if v := os.Getenv(downloadPathEnv); v != "" {
		c.Storage.DownloadPath = v
	}
	if v := os.Getenv(dataFileEnv); v != "" {
		c.Storage.DataFile = v
	}
	if v := os.Getenv(knownLinksEnv); v != "" {
		c.Storage.KnownLinksFile = v
	}
	if v, ok := envInt(retentionDaysEnv); ok {
		c.Storage.RetentionDays = v
	}

	if v, ok := envInt(maxDownloadEnv); ok {
		c.Retrieval.MaxDownloadSeconds = v
	}
	if v := os.Getenv(maxFileSizeEnv); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Retrieval.MaxFileSizeBytes = parsed
		} else {
			log.Printf("config: invalid %s=%q, keeping %d", maxFileSizeEnv, v, c.Retrieval.MaxFileSizeBytes)
		}
	}

	if v := os.Getenv(logFileEnv); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// bindStartDate parses the ISO-8601 start date; malformed or absent values
// revert to today at midnight.
func (c *Config) bindStartDate() {
	if c.Site.StartDate == "" {
		c.Site.startDate = todayMidnight()
		return
	}

	for _, layout := range startDateLayouts {
		if t, err := time.ParseInLocation(layout, c.Site.StartDate, time.Local); err == nil {
			c.Site.startDate = t
			return
		}
	}

	log.Printf("config: invalid start date %q, reverting to today at midnight", c.Site.StartDate)
	c.Site.startDate = todayMidnight()
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, ignoring", name, v)
		return 0, false
	}
	return parsed, true
}

func todayMidnight() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func mergeConfig(base, override Config) Config {
	if override.Site.URL != "" {
		base.Site.URL = override.Site.URL
	}
	if override.Site.Scanner != "" {
		base.Site.Scanner = override.Site.Scanner
	}
	if override.Site.CheckIntervalSeconds > 0 {
		base.Site.CheckIntervalSeconds = override.Site.CheckIntervalSeconds
	}
	if override.Site.StartDate != "" {
		base.Site.StartDate = override.Site.StartDate
	}

	if override.Storage.DownloadPath != "" {
		base.Storage.DownloadPath = override.Storage.DownloadPath
	}
	if override.Storage.DataFile != "" {
		base.Storage.DataFile = override.Storage.DataFile
	}
	if override.Storage.KnownLinksFile != "" {
		base.Storage.KnownLinksFile = override.Storage.KnownLinksFile
	}
	if override.Storage.RetentionDays > 0 {
		base.Storage.RetentionDays = override.Storage.RetentionDays
	}

	if override.Retrieval.MaxDownloadSeconds > 0 {
		base.Retrieval.MaxDownloadSeconds = override.Retrieval.MaxDownloadSeconds
	}
	if override.Retrieval.MaxFileSizeBytes > 0 {
		base.Retrieval.MaxFileSizeBytes = override.Retrieval.MaxFileSizeBytes
	}

	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Site: SiteConfig{
			URL:                  "https://basketballreplays.net",
			Scanner:              "replays",
			CheckIntervalSeconds: 300,
		},
		Storage: StorageConfig{
			DownloadPath:   "/downloads",
			DataFile:       "/var/lib/sports-downloader/sports_downloads.json",
			KnownLinksFile: "/var/lib/sports-downloader/sports_known_links.json",
			RetentionDays:  7,
		},
		Retrieval: RetrievalConfig{
			MaxDownloadSeconds: 14400,
			MaxFileSizeBytes:   16106127360,
		},
		Logging: LoggingConfig{
			File:  "/var/log/sports_downloader.log",
			Level: "info",
		},
	}
}
