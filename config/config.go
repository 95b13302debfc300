// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads service settings from YAML and the environment.
//
// Load reads an optional .env file with godotenv, then lets cleanenv fill a
// Config from a YAML file (when given) and environment variables, applying
// env-default values for anything unset. Environment variables always win
// over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/poiesic/caselaw/bulk"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheNone   = "none"
)

// Config holds every setting the engine and the HTTP server need.
type Config struct {
	Archive       ArchiveConfig       `yaml:"archive"`
	CourtListener CourtListenerConfig `yaml:"courtlistener"`
	CAP           CAPConfig           `yaml:"cap"`
	Cache         CacheConfig         `yaml:"cache"`
	Search        SearchConfig        `yaml:"search"`
	Server        ServerConfig        `yaml:"server"`
}

// ArchiveConfig locates the bulk export and the on-disk index.
type ArchiveConfig struct {
	// DataRoot is a directory or an s3://bucket/prefix URL. Empty leaves the
	// local archive unavailable.
	DataRoot string `yaml:"data_root" env:"CASELAW_DATA_ROOT"`
	// IndexPath is the badger directory. Empty keeps the index in memory.
	IndexPath string `yaml:"index_path" env:"CASELAW_INDEX_PATH"`
	// PoolSize bounds concurrent volume reads. 0 means one per CPU.
	PoolSize int `yaml:"pool_size" env:"CASELAW_POOL_SIZE" env-default:"0"`

	S3Region       string `yaml:"s3_region" env:"CASELAW_S3_REGION" env-default:"us-east-1"`
	S3Endpoint     string `yaml:"s3_endpoint" env:"CASELAW_S3_ENDPOINT"`
	S3AccessKey    string `yaml:"s3_access_key" env:"CASELAW_S3_ACCESS_KEY"`
	S3SecretKey    string `yaml:"s3_secret_key" env:"CASELAW_S3_SECRET_KEY"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style" env:"CASELAW_S3_USE_PATH_STYLE" env-default:"false"`
}

// S3 returns the S3 settings for bulk.NewReader.
func (a ArchiveConfig) S3() bulk.S3Config {
	return bulk.S3Config{
		Region:       a.S3Region,
		AccessKey:    a.S3AccessKey,
		SecretKey:    a.S3SecretKey,
		Endpoint:     a.S3Endpoint,
		UsePathStyle: a.S3UsePathStyle,
	}
}

// CourtListenerConfig configures the CourtListener adapter.
type CourtListenerConfig struct {
	Enabled  bool   `yaml:"enabled" env:"CASELAW_COURTLISTENER_ENABLED"`
	BaseURL  string `yaml:"base_url" env:"CASELAW_COURTLISTENER_URL" env-default:"https://www.courtlistener.com/api/rest/v4/"`
	Token    string `yaml:"token" env:"COURTLISTENER_TOKEN"`
	MaxPages int    `yaml:"max_pages" env:"CASELAW_COURTLISTENER_MAX_PAGES" env-default:"3"`
	// RequestsPerSecond paces outbound calls. 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"CASELAW_COURTLISTENER_RPS" env-default:"0"`
}

// CAPConfig configures the Caselaw Access Project adapter.
type CAPConfig struct {
	Enabled           bool    `yaml:"enabled" env:"CASELAW_CAP_ENABLED"`
	BaseURL           string  `yaml:"base_url" env:"CASELAW_CAP_URL" env-default:"https://api.case.law/v1/"`
	APIKey            string  `yaml:"api_key" env:"CAP_API_KEY"`
	MaxPages          int     `yaml:"max_pages" env:"CASELAW_CAP_MAX_PAGES" env-default:"3"`
	FullCase          bool    `yaml:"full_case" env:"CASELAW_CAP_FULL_CASE" env-default:"false"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"CASELAW_CAP_RPS" env-default:"0"`
}

// CacheConfig selects and sizes the query cache.
type CacheConfig struct {
	Backend  string        `yaml:"backend" env:"CASELAW_CACHE" env-default:"memory"`
	TTL      time.Duration `yaml:"ttl" env:"CASELAW_CACHE_TTL" env-default:"30m"`
	Capacity int           `yaml:"capacity" env:"CASELAW_CACHE_CAPACITY"`
}

// SearchConfig holds orchestration defaults.
type SearchConfig struct {
	// Timeout bounds each search. 0 means no bound beyond the caller's context.
	Timeout       time.Duration `yaml:"timeout" env:"CASELAW_SEARCH_TIMEOUT"`
	PreferOffline bool          `yaml:"prefer_offline" env:"CASELAW_PREFER_OFFLINE"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"CASELAW_ADDR" env-default:":8080"`
}

// Default returns the settings whose zero value is meaningful, so that a
// file or variable can still set them to zero or false. Everything else is
// defaulted through env-default tags.
func Default() *Config {
	return &Config{
		CourtListener: CourtListenerConfig{Enabled: true},
		CAP:           CAPConfig{Enabled: true},
		Cache:         CacheConfig{Capacity: 1000},
		Search:        SearchConfig{Timeout: 30 * time.Second, PreferOffline: true},
	}
}

// Load reads configuration. dotenv files are loaded first (".env" when none
// are named; missing files are ignored), then path is read as YAML when it is
// not empty, and finally environment variables are applied.
func Load(path string, dotenv ...string) (*Config, error) {
	if err := loadDotenv(dotenv...); err != nil {
		return nil, err
	}

	cfg := Default()
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Archive.PoolSize < 0 {
		return errors.New("config: archive pool_size must not be negative")
	}
	if c.Archive.DataRoot != "" {
		if _, _, err := bulk.ParseRoot(c.Archive.DataRoot, c.Archive.S3()); err != nil {
			return fmt.Errorf("config: archive data_root: %w", err)
		}
	}

	if c.CourtListener.Enabled {
		if err := validateURL("courtlistener base_url", c.CourtListener.BaseURL); err != nil {
			return err
		}
		if c.CourtListener.MaxPages < 1 {
			return errors.New("config: courtlistener max_pages must be at least 1")
		}
		if c.CourtListener.RequestsPerSecond < 0 {
			return errors.New("config: courtlistener requests_per_second must not be negative")
		}
	}
	if c.CAP.Enabled {
		if err := validateURL("cap base_url", c.CAP.BaseURL); err != nil {
			return err
		}
		if c.CAP.MaxPages < 1 {
			return errors.New("config: cap max_pages must be at least 1")
		}
		if c.CAP.RequestsPerSecond < 0 {
			return errors.New("config: cap requests_per_second must not be negative")
		}
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheBadger:
		if c.Cache.TTL <= 0 {
			return errors.New("config: cache ttl must be positive")
		}
		if c.Cache.Capacity < 0 {
			return errors.New("config: cache capacity must not be negative")
		}
	case CacheNone:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}

	if c.Search.Timeout < 0 {
		return errors.New("config: search timeout must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New("config: server addr is required")
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: %s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}
