package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config contains runtime configuration required by the collector.
type Config struct {
	// DBURL selects the shared Postgres backend. When empty the collector
	// falls back to an embedded SQLite database at DBPath.
	DBURL  string `env:"DB_URL"`
	DBPath string `env:"DB_PATH" envDefault:"mole.db"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// AlertWebhookURL enables the alert channel when set.
	AlertWebhookURL string `env:"ALERT_WEBHOOK_URL"`

	// PerfThresholdSecs is the request time above which an instrumented
	// request is flagged as a performance event.
	PerfThresholdSecs float64 `env:"PERF_THRESHOLD" envDefault:"10"`

	// APIKeysRaw format: "app1:key1,app2:key2"
	APIKeysRaw string `env:"API_KEYS"`

	APIKeys map[string]string `env:"-"` // apiKey -> app name
}

// Load reads required values from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	apiKeys := map[string]string{}
	if raw := strings.TrimSpace(cfg.APIKeysRaw); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				return Config{}, errors.New(`API_KEYS must be "app:key,app:key"`)
			}
			app := strings.TrimSpace(parts[0])
			key := strings.TrimSpace(parts[1])
			if app == "" || key == "" {
				return Config{}, errors.New(`API_KEYS must be "app:key,app:key"`)
			}
			apiKeys[key] = app
		}
	}

	// Local dev fallback so the collector runs out-of-the-box.
	if len(apiKeys) == 0 {
		apiKeys["mole-key-123"] = "mole"
	}
	cfg.APIKeys = apiKeys

	return cfg, nil
}
