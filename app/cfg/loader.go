package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./calcomb.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port        string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	ProfilesDir string `long:"profiles-dir" env:"PROFILES_DIR" default:"./profiles" description:"Directory containing extraction profile files (optional)"`
	WorkerCount int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of concurrent calendar insert workers"`

	// Scraping configuration
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Page fetch timeout in seconds"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"Cal Comb/1.0" description:"User agent string for HTTP requests"`

	// Semantic extraction configuration
	OpenAIKey          string `long:"openai-key" env:"OPENAI_API_KEY" description:"OpenAI API key; semantic fallback extraction is disabled when empty"`
	OpenAIModel        string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4-turbo-preview" description:"Model used for semantic extraction"`
	EnrichDescriptions bool   `long:"enrich-descriptions" env:"ENRICH_DESCRIPTIONS" description:"Enrich extracted event descriptions with an additional model call"`

	// Calendar configuration
	CalendarID    string `long:"calendar-id" env:"CALENDAR_ID" default:"primary" description:"Target Google Calendar ID"`
	EventTimezone string `long:"event-timezone" env:"EVENT_TIMEZONE" default:"America/New_York" description:"IANA timezone attached to submitted events"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		ProfilesDir:        raw.ProfilesDir,
		WorkerCount:        raw.WorkerCount,
		FetchTimeout:       raw.FetchTimeout,
		UserAgent:          raw.UserAgent,
		OpenAIKey:          raw.OpenAIKey,
		OpenAIModel:        raw.OpenAIModel,
		EnrichDescriptions: raw.EnrichDescriptions,
		CalendarID:         raw.CalendarID,
		EventTimezone:      raw.EventTimezone,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if _, err := time.LoadLocation(cfg.EventTimezone); err != nil {
		return nil, fmt.Errorf("invalid event timezone %q: %w", cfg.EventTimezone, err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting replaces the global configuration. Test helper only.
func SetForTesting(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
