package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ReferenceLatest makes the cutoff follow the newest measurement in the dataset.
const ReferenceLatest = "latest"

const dateLayout = "2006-01-02"

var metricNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	QueryTimeout time.Duration

	// ReferenceDate is either ReferenceLatest or a YYYY-MM-DD date. The cutoff
	// for "last twelve months" queries is this date minus 365 days.
	ReferenceDate string

	MetricsEnabled   bool
	MetricsNamespace string
}

var defaults = map[string]string{
	"app_env":              "dev",
	"log_level":            "info",
	"http_addr":            ":8080",
	"db_driver":            "sqlite3",
	"db_dsn":               "",
	"sqlite_path":          "Resources/hawaii.sqlite",
	"db_max_open_conns":    "4",
	"db_max_idle_conns":    "4",
	"db_conn_max_lifetime": "0s",
	"db_log_sql":           "false",
	"query_timeout":        "5s",
	"reference_date":       "2017-08-23",
	"metrics_enabled":      "true",
	"metrics_namespace":    "climate_api",
}

// LoadFromEnv layers defaults, the YAML file named by CONFIG_FILE (if any) and
// the process environment, then validates the result.
func LoadFromEnv() (Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("CONFIG_FILE %q: %w", path, err)
		}
	}

	// Blank variables are skipped and leave the file value in place.
	envProvider := env.ProviderWithValue("", ".", func(s string, v string) (string, interface{}) {
		key := strings.ToLower(s)
		if _, ok := defaults[key]; !ok {
			return "", nil
		}
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
		return key, v
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	return fromKoanf(k)
}

// lookup returns the trimmed value for key, falling back to the default when the
// key is missing or blank.
func lookup(k *koanf.Koanf, key string) string {
	v := strings.TrimSpace(k.String(key))
	if v == "" {
		return defaults[key]
	}
	return v
}

func fromKoanf(k *koanf.Koanf) (Config, error) {
	appEnv := lookup(k, "app_env")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(lookup(k, "log_level"))
	if err != nil {
		return Config{}, err
	}

	driver := lookup(k, "db_driver")
	if driver != "sqlite3" {
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3)", driver)
	}

	maxOpenConns, err := parseNonNegativeInt("DB_MAX_OPEN_CONNS", lookup(k, "db_max_open_conns"))
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseNonNegativeInt("DB_MAX_IDLE_CONNS", lookup(k, "db_max_idle_conns"))
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := lookup(k, "db_conn_max_lifetime")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL, err := parseBool("DB_LOG_SQL", lookup(k, "db_log_sql"))
	if err != nil {
		return Config{}, err
	}

	queryTimeoutStr := lookup(k, "query_timeout")
	queryTimeout, err := time.ParseDuration(queryTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid QUERY_TIMEOUT %q: %w", queryTimeoutStr, err)
	}
	if queryTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid QUERY_TIMEOUT %q (must be > 0)", queryTimeoutStr)
	}

	referenceDate := lookup(k, "reference_date")
	if referenceDate != ReferenceLatest {
		if _, err := time.Parse(dateLayout, referenceDate); err != nil {
			return Config{}, fmt.Errorf("invalid REFERENCE_DATE %q (expected YYYY-MM-DD or %q)", referenceDate, ReferenceLatest)
		}
	}

	metricsEnabled, err := parseBool("METRICS_ENABLED", lookup(k, "metrics_enabled"))
	if err != nil {
		return Config{}, err
	}

	metricsNamespace := lookup(k, "metrics_namespace")
	if !metricNameRe.MatchString(metricsNamespace) {
		return Config{}, fmt.Errorf("invalid METRICS_NAMESPACE %q (letters, digits and underscores)", metricsNamespace)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        lookup(k, "http_addr"),
		Driver:          driver,
		DSN:             strings.TrimSpace(k.String("db_dsn")),
		Path:            lookup(k, "sqlite_path"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		QueryTimeout:    queryTimeout,
		ReferenceDate:   referenceDate,
		MetricsEnabled:  metricsEnabled,

		MetricsNamespace: metricsNamespace,
	}, nil
}

func parseNonNegativeInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q (must be >= 0)", name, s)
	}
	return n, nil
}

func parseBool(name, s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q (expected true or false)", name, s)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
