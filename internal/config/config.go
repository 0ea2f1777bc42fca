// Package config loads process configuration from the environment.
//
// Values come from, in increasing precedence: built-in defaults, a .env
// file in the working directory (when present), and the process
// environment. Command-line flags in cmd/ override the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/signalsfoundry/railsim/internal/observability"
	"github.com/signalsfoundry/railsim/timectrl"
)

// Defaults.
const (
	DefaultGRPCAddr = ":50051"
	DefaultHTTPAddr = ":8080"
	DefaultTick     = 100 * time.Millisecond
	DefaultWSBuffer = 8

	DefaultDemoInterval = 3 * time.Second
)

// Config is the resolved process configuration.
type Config struct {
	GRPCAddr        string
	HTTPAddr        string
	Tick            time.Duration
	Mode            timectrl.Mode
	DefaultScenario string
	Strict          bool
	WSBuffer        int
	DemoInterval    time.Duration
	DemoAutoplay    bool
	LogLevel        string
	LogFormat       string
	Tracing         observability.TracingConfig
}

// Load reads a .env file if one exists and then the environment.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are skipped.
// Variables already set in the environment are never overwritten.
func LoadFiles(paths ...string) (Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		GRPCAddr:        getEnv("RAILSIM_GRPC_ADDR", DefaultGRPCAddr),
		HTTPAddr:        getEnv("RAILSIM_HTTP_ADDR", DefaultHTTPAddr),
		DefaultScenario: strings.TrimSpace(os.Getenv("RAILSIM_DEFAULT_SCENARIO")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Tracing:         observability.TracingConfigFromEnv(),
	}

	var err error
	if cfg.Tick, err = getEnvDuration("RAILSIM_TICK", DefaultTick); err != nil {
		return Config{}, err
	}
	if cfg.Tick <= 0 {
		return Config{}, fmt.Errorf("RAILSIM_TICK must be positive, got %s", cfg.Tick)
	}

	switch mode := strings.ToLower(getEnv("RAILSIM_MODE", "realtime")); mode {
	case "realtime", "accelerated":
		cfg.Mode = timectrl.ParseMode(mode)
	default:
		return Config{}, fmt.Errorf("RAILSIM_MODE must be realtime or accelerated, got %q", mode)
	}

	if cfg.Strict, err = getEnvBool("RAILSIM_STRICT", false); err != nil {
		return Config{}, err
	}
	if cfg.WSBuffer, err = getEnvInt("RAILSIM_WS_BUFFER", DefaultWSBuffer); err != nil {
		return Config{}, err
	}
	if cfg.WSBuffer < 1 {
		return Config{}, fmt.Errorf("RAILSIM_WS_BUFFER must be at least 1, got %d", cfg.WSBuffer)
	}
	if cfg.DemoInterval, err = getEnvDuration("RAILSIM_DEMO_INTERVAL", DefaultDemoInterval); err != nil {
		return Config{}, err
	}
	if cfg.DemoInterval <= 0 {
		return Config{}, fmt.Errorf("RAILSIM_DEMO_INTERVAL must be positive, got %s", cfg.DemoInterval)
	}
	if cfg.DemoAutoplay, err = getEnvBool("RAILSIM_DEMO_AUTOPLAY", false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
