package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Interfaces     []string
	Addr           string
	MockMode       bool
	DBPath         string
	Debug          bool
	GracePeriod    time.Duration
	ControllerFile string
	TraceOutput    string // "", "stdout" or a file path
	AllowedOrigins []string

	// Controllers is the parsed ControllerFile, if one was given.
	Controllers *ControllerFile
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("pktsender", flag.ContinueOnError)

	ifaceStr := getEnv("PKTSENDER_INTERFACE", "")
	originStr := getEnv("PKTSENDER_ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")
	cfg.Addr = getEnv("PKTSENDER_ADDR", ":8080")
	cfg.MockMode = getEnvBool("PKTSENDER_MOCK", false)
	cfg.DBPath = getEnv("PKTSENDER_DB", getDefaultDBPath())
	cfg.Debug = getEnvBool("PKTSENDER_DEBUG", false)
	cfg.GracePeriod = getEnvDuration("PKTSENDER_STOP_GRACE", 2*time.Second)
	cfg.ControllerFile = getEnv("PKTSENDER_CONFIG", "")
	cfg.TraceOutput = getEnv("PKTSENDER_TRACE", "")

	fs.StringVar(&ifaceStr, "i", ifaceStr, "Interface(s) to bind packet senders to (comma separated)")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	fs.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Record frames in memory instead of transmitting")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite activity journal (:memory: for none)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.DurationVar(&cfg.GracePeriod, "stop-grace", cfg.GracePeriod, "How long a stop waits for a worker before cancelling it")
	fs.StringVar(&cfg.ControllerFile, "config", cfg.ControllerFile, "YAML file with packet_senders and packets")
	fs.StringVar(&cfg.TraceOutput, "trace", cfg.TraceOutput, "Export traces to stdout or a file (empty to disable)")
	fs.StringVar(&originStr, "origins", originStr, "Allowed WebSocket origins (comma separated)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Interfaces = splitList(ifaceStr)
	cfg.AllowedOrigins = splitList(originStr)

	if cfg.ControllerFile != "" {
		cf, err := LoadControllerFile(cfg.ControllerFile)
		if err != nil {
			return nil, err
		}
		cfg.Controllers = cf
	}
	return cfg, nil
}

// Senders merges -i interfaces with the packet_senders of the controller
// file, keeping the first occurrence of each interface.
func (c *Config) Senders() []domain.SenderConfig {
	var out []domain.SenderConfig
	seen := make(map[string]bool)
	add := func(sc domain.SenderConfig) {
		if seen[sc.Interface] {
			return
		}
		seen[sc.Interface] = true
		out = append(out, sc)
	}
	for _, iface := range c.Interfaces {
		add(domain.SenderConfig{Interface: iface})
	}
	if c.Controllers != nil {
		for _, sc := range c.Controllers.PacketSenders {
			add(sc)
		}
	}
	return out
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, &domain.MissingFieldError{Field: "addr"})
	}
	if c.GracePeriod <= 0 {
		errs = append(errs, &domain.InvalidFieldError{Field: "stop-grace", Value: c.GracePeriod.String()})
	}
	if c.DBPath == "" {
		errs = append(errs, &domain.MissingFieldError{Field: "db"})
	}
	if len(c.Senders()) == 0 {
		errs = append(errs, fmt.Errorf("%w: no packet senders configured (use -i or packet_senders)", domain.ErrConfiguration))
	}
	for _, iface := range c.Interfaces {
		if err := (domain.SenderConfig{Interface: iface}).Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Controllers != nil {
		if err := c.Controllers.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDefaultDBPath returns the journal path in the user's home directory,
// creating ~/.pktsender if needed.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("could not get user home directory, using current dir", "error", err)
		return "pktsender.db"
	}

	dir := filepath.Join(home, ".pktsender")
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("could not create .pktsender directory, using current dir", "error", err)
		return "pktsender.db"
	}
	return filepath.Join(dir, "activity.db")
}
