package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultListenAddress     = ":8080"
	defaultIngestAPIURL      = "http://localhost:3000"
	defaultRetentionHours    = 4
	defaultCleanupMinutes    = 60
	defaultActiveWindowMins  = 60
	defaultScrapeTimeoutSecs = 300
	defaultStatsBufSize      = 128
)

// JobConfiguration is the flat configuration map read from the environment.
// Components unmarshal or pick the keys they need from it.
type JobConfiguration map[string]any

// ReadConfig loads the .env file (when present) and assembles the runtime
// configuration from environment variables.
func ReadConfig() JobConfiguration {
	jc := JobConfiguration{}

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, reading configuration from environment")
	}

	level := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	jc["log_level"] = level.String()
	SetLogLevel(level)

	listenAddress := os.Getenv("LISTEN_ADDRESS")
	if listenAddress == "" {
		listenAddress = defaultListenAddress
	}
	jc["listen_address"] = listenAddress

	// API key for authenticating callers of this worker
	if apiKey := os.Getenv("API_KEY"); apiKey != "" {
		jc["api_key"] = apiKey
	}

	if apifyKey := os.Getenv("APIFY_API_KEY"); apifyKey != "" {
		logrus.Info("Apify API key found")
		jc["apify_api_key"] = apifyKey
	} else {
		jc["apify_api_key"] = ""
	}

	ingestURL := os.Getenv("INGEST_API_URL")
	if ingestURL == "" {
		ingestURL = defaultIngestAPIURL
	}
	jc["ingest_api_url"] = ingestURL

	// The internal secret identifies this worker to the ingestion API.
	// Processing happens outside the user's request lifecycle, so the
	// worker authenticates with its own credential, never the user's.
	if secret := os.Getenv("INGEST_INTERNAL_SECRET"); secret != "" {
		jc["ingest_internal_secret"] = secret
	} else {
		logrus.Warn("INGEST_INTERNAL_SECRET not set; ingestion calls will be unauthenticated")
		jc["ingest_internal_secret"] = ""
	}

	jc["job_retention"] = hoursFromEnv("JOB_RETENTION_HOURS", defaultRetentionHours)
	jc["cleanup_interval"] = minutesFromEnv("CLEANUP_INTERVAL_MINUTES", defaultCleanupMinutes)
	jc["active_window"] = minutesFromEnv("ACTIVE_WINDOW_MINUTES", defaultActiveWindowMins)
	jc["scrape_timeout"] = secondsFromEnv("SCRAPE_TIMEOUT_SECONDS", defaultScrapeTimeoutSecs)

	bufSize := defaultStatsBufSize
	if s := os.Getenv("STATS_BUF_SIZE"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			bufSize = v
		} else {
			logrus.Errorf("Error parsing STATS_BUF_SIZE %q, using default", s)
		}
	}
	jc["stats_buf_size"] = uint(bufSize)

	jc["profiling_enabled"] = os.Getenv("ENABLE_PPROF") == "true"

	return jc
}

func hoursFromEnv(key string, def int) time.Duration {
	v := def
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			v = n
		} else {
			logrus.Errorf("Error parsing %s %q, using default", key, s)
		}
	}
	return time.Duration(v) * time.Hour
}

func minutesFromEnv(key string, def int) time.Duration {
	v := def
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			v = n
		} else {
			logrus.Errorf("Error parsing %s %q, using default", key, s)
		}
	}
	return time.Duration(v) * time.Minute
}

func secondsFromEnv(key string, def int) time.Duration {
	v := def
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			v = n
		} else {
			logrus.Errorf("Error parsing %s %q, using default", key, s)
		}
	}
	return time.Duration(v) * time.Second
}

// Unmarshal unmarshals the configuration into the supplied struct.
func (jc JobConfiguration) Unmarshal(v any) error {
	data, err := json.Marshal(jc)
	if err != nil {
		return fmt.Errorf("error marshalling configuration: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	return nil
}

func (jc JobConfiguration) ListenAddress() string {
	return jc.GetString("listen_address", defaultListenAddress)
}

// GetString safely extracts a string, with a default fallback.
func (jc JobConfiguration) GetString(key string, def string) string {
	if v, ok := jc[key]; ok {
		if val, ok := v.(string); ok {
			return val
		}
	}
	return def
}

// GetInt safely extracts an int, with a default fallback.
func (jc JobConfiguration) GetInt(key string, def int) int {
	if v, ok := jc[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case uint:
			return int(val)
		case float64:
			return int(val)
		}
	}
	return def
}

// GetUint safely extracts a uint, with a default fallback.
func (jc JobConfiguration) GetUint(key string, def uint) uint {
	if v, ok := jc[key]; ok {
		switch val := v.(type) {
		case uint:
			return val
		case int:
			if val >= 0 {
				return uint(val)
			}
		}
	}
	return def
}

// GetBool safely extracts a bool, with a default fallback.
func (jc JobConfiguration) GetBool(key string, def bool) bool {
	if v, ok := jc[key]; ok {
		if val, ok := v.(bool); ok {
			return val
		}
	}
	return def
}

// GetDuration safely extracts a duration, with a default fallback.
func (jc JobConfiguration) GetDuration(key string, def time.Duration) time.Duration {
	if v, ok := jc[key]; ok {
		if val, ok := v.(time.Duration); ok {
			return val
		}
	}
	return def
}

// ParseLogLevel parses a string and returns the corresponding logrus.Level.
func ParseLogLevel(logLevel string) logrus.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		logrus.Errorf("Invalid log level %q, setting to %s", logLevel, logrus.InfoLevel)
		return logrus.InfoLevel
	}
}

// SetLogLevel sets the log level for the application.
func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
}
