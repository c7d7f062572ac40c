package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AdapterKind string

const (
	AdapterWebSocket AdapterKind = "ws"
	AdapterNATS      AdapterKind = "nats"
	AdapterLog       AdapterKind = "log"
)

type Config struct {
	// DatabaseURL is empty when routes come from the scenario file only.
	DatabaseURL string
	RoutesDB    string

	ScenarioFile  string
	FrameInterval time.Duration
	FollowZoom    float64
	Seed          uint64

	Adapter           AdapterKind
	HTTPAddr          string
	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	MetricsAddr       string

	LogFormat string
	LogLevel  string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Route database is optional: DATABASE_URL / PG_DSN, else PG* vars if PGDATABASE is set
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" && os.Getenv("PGDATABASE") != "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		db := os.Getenv("PGDATABASE")
		sslmode := getenvDefault("PGSSLMODE", "disable")
		if pass != "" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			dsn = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	}
	cfg.DatabaseURL = dsn
	cfg.RoutesDB = strings.TrimSpace(os.Getenv("ROUTES_DB"))

	cfg.ScenarioFile = os.Getenv("SCENARIO_FILE")

	// Frame interval
	if v := os.Getenv("FRAME_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid FRAME_INTERVAL_MS: %q", v)
		}
		cfg.FrameInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.FrameInterval = 16 * time.Millisecond
	}

	if v := os.Getenv("FOLLOW_ZOOM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 22 {
			return nil, fmt.Errorf("invalid FOLLOW_ZOOM: %q", v)
		}
		cfg.FollowZoom = f
	} else {
		cfg.FollowZoom = 15
	}

	// Seed 0 means random placement on every start
	if v := os.Getenv("SIM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SIM_SEED: %q", v)
		}
		cfg.Seed = n
	}

	switch k := AdapterKind(strings.ToLower(getenvDefault("MAP_ADAPTER", string(AdapterWebSocket)))); k {
	case AdapterWebSocket, AdapterNATS, AdapterLog:
		cfg.Adapter = k
	default:
		return nil, fmt.Errorf("invalid MAP_ADAPTER: %q (want ws, nats or log)", k)
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "tracker")

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			cfg.LogNATSSubjects = true
		default:
			cfg.LogNATSSubjects = false
		}
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.LogFormat = getenvDefault("LOG_FORMAT", "console")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
