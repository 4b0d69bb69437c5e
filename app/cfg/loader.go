package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./data/player.db" description:"Path to the sqlite database file"`
	SeedFile string `long:"seed-file" env:"SEED_FILE" description:"YAML file with the podcast loaded into an empty store (built-in sample when empty)"`
	NoSeed   bool   `long:"no-seed" env:"NO_SEED" description:"Start with an empty store instead of the seed podcast"`

	// Server configuration
	Port string `long:"port" env:"PORT" default:"3000" description:"HTTP server port"`
	CORS string `long:"cors" env:"CORS" default:"true" choice:"true" choice:"false" description:"Send permissive CORS headers"`

	// Feed loading
	RequestTimeout  time.Duration `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"25s" description:"Overall deadline for requests that fetch a feed"`
	ValidateTimeout time.Duration `long:"validate-timeout" env:"VALIDATE_TIMEOUT" default:"10s" description:"Deadline for feed validation"`
	FetchTimeout    time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"HTTP client timeout for feed downloads"`
	MaxEpisodes     int           `long:"max-episodes" env:"MAX_EPISODES" default:"50" description:"Maximum number of episodes kept per podcast"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" default:"Podcast Player/1.0" description:"User agent string for HTTP requests"`

	// Background refresh
	RefreshInterval time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"0" description:"Interval between background refreshes of subscribed feeds (0 disables)"`
	WorkerCount     int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background refresh workers"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses flags and environment. It returns nil, nil when help was shown.
func Load() (*Cfg, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.MaxEpisodes <= 0 {
		return nil, fmt.Errorf("max episodes must be positive, got %d", raw.MaxEpisodes)
	}
	if raw.RefreshInterval < 0 {
		return nil, fmt.Errorf("refresh interval must be non-negative, got %s", raw.RefreshInterval)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		SeedFile:        raw.SeedFile,
		NoSeed:          raw.NoSeed,
		Port:            raw.Port,
		CORS:            raw.CORS == "true",
		RequestTimeout:  raw.RequestTimeout,
		ValidateTimeout: raw.ValidateTimeout,
		FetchTimeout:    raw.FetchTimeout,
		MaxEpisodes:     raw.MaxEpisodes,
		UserAgent:       raw.UserAgent,
		RefreshInterval: raw.RefreshInterval,
		WorkerCount:     max(raw.WorkerCount, 1),
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	slog.Debug("Timezone configured", "timezone", timezone)
	return nil
}
