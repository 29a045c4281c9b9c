
// Package config assembles run settings from flags, SITESCRIBE_* environment
// variables, an optional .env file and an optional YAML config file.
// Explicit flags win over the config file, which wins over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sitescribe/internal/discovery"
	"sitescribe/internal/models"
)

// ErrUsage marks command-line mistakes, as opposed to bad values.
var ErrUsage = errors.New("usage error")

type Config struct {
	URL          string
	SitemapURL   string
	OutputDir    string
	Delay        time.Duration
	MaxPages     int
	MaxDepth     int
	WordPress    bool
	Feeds        bool
	ConfigPath   string
	LedgerPath   string
	LinksOut     string
	URLsFile     string
	DiscoverOnly bool
	Timeout      time.Duration
	LogLevel     string
	UserAgent    string

	hosts []discovery.HostRule
}

// LoadDotEnv loads path into the environment. A missing file is not an
// error; variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Parse reads args (without the program name). Usage problems wrap ErrUsage.
func Parse(args []string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("sitescribe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := &Config{}
	fs.StringVar(&cfg.URL, "url", getEnv("SITESCRIBE_URL", ""), "base URL of the site to scrape (SITESCRIBE_URL)")
	fs.StringVar(&cfg.SitemapURL, "sitemap", getEnv("SITESCRIBE_SITEMAP", ""), "explicit sitemap URL, skips candidate guessing (SITESCRIBE_SITEMAP)")
	fs.StringVar(&cfg.OutputDir, "output-dir", getEnv("SITESCRIBE_OUTPUT_DIR", "scraped_articles"), "directory for markdown files (SITESCRIBE_OUTPUT_DIR)")
	delay := fs.Float64("delay", getEnvFloat("SITESCRIBE_DELAY", 1), "seconds to wait after every request (SITESCRIBE_DELAY)")
	fs.IntVar(&cfg.MaxPages, "max-pages", getEnvInt("SITESCRIBE_MAX_PAGES", 0), "maximum articles to scrape, 0 for no limit (SITESCRIBE_MAX_PAGES)")
	fs.IntVar(&cfg.MaxDepth, "max-depth", getEnvInt("SITESCRIBE_MAX_DEPTH", discovery.DefaultMaxDepth), "maximum sitemap index nesting (SITESCRIBE_MAX_DEPTH)")
	fs.BoolVar(&cfg.WordPress, "wordpress", getEnvBool("SITESCRIBE_WORDPRESS", false), "also try the WordPress sitemaps (SITESCRIBE_WORDPRESS)")
	fs.BoolVar(&cfg.Feeds, "feeds", getEnvBool("SITESCRIBE_FEEDS", false), "fall back to RSS/Atom feeds (SITESCRIBE_FEEDS)")
	fs.StringVar(&cfg.ConfigPath, "config", getEnv("SITESCRIBE_CONFIG", ""), "YAML config file (SITESCRIBE_CONFIG)")
	fs.StringVar(&cfg.LedgerPath, "ledger", getEnv("SITESCRIBE_LEDGER", ""), "SQLite ledger of saved articles (SITESCRIBE_LEDGER)")
	fs.StringVar(&cfg.LinksOut, "links-out", "", "write discovered links to this .csv or .ndjson file")
	fs.StringVar(&cfg.URLsFile, "urls", "", "scrape the links in this .csv or .ndjson file instead of discovering them")
	fs.BoolVar(&cfg.DiscoverOnly, "discover-only", false, "stop after link discovery")
	fs.DurationVar(&cfg.Timeout, "timeout", getEnvDuration("SITESCRIBE_TIMEOUT", 30*time.Second), "per-request timeout (SITESCRIBE_TIMEOUT)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("SITESCRIBE_LOG_LEVEL", "info"), "debug, info, warn or error (SITESCRIBE_LOG_LEVEL)")
	fs.StringVar(&cfg.UserAgent, "user-agent", getEnv("SITESCRIBE_USER_AGENT", ""), "User-Agent header (SITESCRIBE_USER_AGENT)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	if cfg.URL == "" && cfg.URLsFile == "" {
		return nil, fmt.Errorf("%w: missing --url", ErrUsage)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if cfg.ConfigPath != "" {
		fc, err := LoadFile(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(fc, set, delay); err != nil {
			return nil, err
		}
	}

	if *delay < 0 {
		return nil, fmt.Errorf("invalid --delay %v: must not be negative", *delay)
	}
	cfg.Delay = time.Duration(*delay * float64(time.Second))
	if cfg.MaxPages < 0 {
		return nil, fmt.Errorf("invalid --max-pages %d: must not be negative", cfg.MaxPages)
	}
	if cfg.URL != "" {
		cfg.URL = NormalizeBaseURL(cfg.URL)
		if err := discovery.ValidateBaseURL(cfg.URL); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// apply copies file settings that were not given as flags.
func (c *Config) apply(fc *FileConfig, set map[string]bool, delay *float64) error {
	if fc == nil {
		return nil
	}
	if fc.UserAgent != "" && !set["user-agent"] {
		c.UserAgent = fc.UserAgent
	}
	if fc.Delay != nil && !set["delay"] {
		*delay = *fc.Delay
	}
	if fc.MaxDepth > 0 && !set["max-depth"] {
		c.MaxDepth = fc.MaxDepth
	}
	rules, err := fc.HostRules()
	if err != nil {
		return err
	}
	c.hosts = rules
	return nil
}

// NormalizeBaseURL adds the trailing slash the link predicates expect of a
// bare site root.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

// Options converts the config into discovery options.
func (c *Config) Options() models.Options {
	return models.Options{
		BaseURL:      c.URL,
		SitemapURL:   c.SitemapURL,
		TryWordPress: c.WordPress,
		TryFeeds:     c.Feeds,
		Delay:        c.Delay,
		MaxPages:     c.MaxPages,
		MaxDepth:     c.MaxDepth,
	}
}

// HostTable is the built-in host table extended by the config file.
func (c *Config) HostTable() discovery.HostTable {
	return discovery.DefaultHosts().With(c.hosts...)
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
