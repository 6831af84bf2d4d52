package appconf

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all the configuration settings for the Application. Values
// come from defaults, then TRAINMAPPER_* environment variables, then an
// optional YAML file, and finally command-line flags.
type Config struct {
	Port      int            `yaml:"port" validate:"gt=0,lte=65535"`
	Env       string         `yaml:"env" validate:"oneof=development test production"`
	LogLevel  string         `yaml:"logLevel" validate:"oneof=debug info warn error"`
	RateLimit int            `yaml:"rateLimit" validate:"gte=0"`
	Schedule  ScheduleConfig `yaml:"schedule"`
	Registry  RegistryConfig `yaml:"registry"`
	Resolver  ResolverConfig `yaml:"resolver"`

	// TrustedProxies lists the IPs or CIDR ranges of reverse proxies whose
	// X-Forwarded-For header is believed when identifying clients.
	TrustedProxies []string `yaml:"trustedProxies" validate:"dive,ip|cidr"`
}

// ScheduleConfig points at the static timetable. Either both table paths or
// a GTFS zip feed must be set.
type ScheduleConfig struct {
	StopsPath     string `yaml:"stops" validate:"required_without=FeedPath"`
	StopTimesPath string `yaml:"stopTimes" validate:"required_without=FeedPath"`
	FeedPath      string `yaml:"feed"`
}

// RegistryConfig selects the backing store of the city registry.
type RegistryConfig struct {
	Driver        string        `yaml:"driver" validate:"oneof=sqlite postgres memory"`
	DSN           string        `yaml:"dsn" validate:"required_unless=Driver memory"`
	CacheTTL      time.Duration `yaml:"cacheTTL" validate:"gte=0"`
	SeedFromStops bool          `yaml:"seedFromStops"`
}

type ResolverConfig struct {
	FuzzyThreshold int `yaml:"fuzzyThreshold" validate:"gte=0"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Port:      4000,
		Env:       "development",
		LogLevel:  "info",
		RateLimit: 100,
		Schedule: ScheduleConfig{
			StopsPath:     "data/stops.txt",
			StopTimesPath: "data/stop_times.txt",
		},
		Registry: RegistryConfig{
			Driver:        "sqlite",
			DSN:           "trainmapper.db",
			CacheTTL:      5 * time.Minute,
			SeedFromStops: true,
		},
		Resolver: ResolverConfig{
			FuzzyThreshold: 7,
		},
	}
}

// Environment returns the parsed operating environment.
func (c Config) Environment() Environment {
	return EnvFlagToEnvironment(c.Env)
}

var dsnPasswordPattern = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|[^\s&]+)`)

// Redacted returns a copy of c that is safe to display, with any password in
// the registry DSN masked.
func (c Config) Redacted() Config {
	c.Registry.DSN = RedactDSN(c.Registry.DSN)
	return c
}

// RedactDSN masks the password of a URL-style DSN
// ("postgres://app:xxxxx@db/trainmapper") and password=... settings of a
// keyword/value DSN or a URL query.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		dsn = u.Redacted()
	}
	return dsnPasswordPattern.ReplaceAllString(dsn, "${1}xxxxx")
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFile overlays the YAML document at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads a .env file into the process environment when one exists.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// ApplyEnv overlays TRAINMAPPER_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("TRAINMAPPER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRAINMAPPER_PORT: %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("TRAINMAPPER_ENV"); v != "" {
		cfg.Env = strings.ToLower(v)
	}
	if v := os.Getenv("TRAINMAPPER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("TRAINMAPPER_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRAINMAPPER_RATE_LIMIT: %q", v)
		}
		cfg.RateLimit = limit
	}
	if v := os.Getenv("TRAINMAPPER_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = SplitList(v)
	}
	if v := os.Getenv("TRAINMAPPER_STOPS"); v != "" {
		cfg.Schedule.StopsPath = v
	}
	if v := os.Getenv("TRAINMAPPER_STOP_TIMES"); v != "" {
		cfg.Schedule.StopTimesPath = v
	}
	if v := os.Getenv("TRAINMAPPER_FEED"); v != "" {
		cfg.Schedule.FeedPath = v
	}
	if v := os.Getenv("TRAINMAPPER_REGISTRY_DRIVER"); v != "" {
		cfg.Registry.Driver = strings.ToLower(v)
	}
	if v := firstNonEmpty(os.Getenv("TRAINMAPPER_REGISTRY_DSN"), os.Getenv("DATABASE_URL")); v != "" {
		cfg.Registry.DSN = v
	}
	if v := os.Getenv("TRAINMAPPER_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TRAINMAPPER_CACHE_TTL: %q", v)
		}
		cfg.Registry.CacheTTL = ttl
	}
	if v := os.Getenv("TRAINMAPPER_FUZZY_THRESHOLD"); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRAINMAPPER_FUZZY_THRESHOLD: %q", v)
		}
		cfg.Resolver.FuzzyThreshold = threshold
	}
	return nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SplitList splits a comma-separated value, dropping blank entries.
func SplitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
