package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk shape of cmd/staticserve's configuration
// file, grounded on Radiergummi-tspages/config/config.go's
// toml.DecodeFile-plus-env-fallback approach: TOML values win, an
// environment variable fills an unset field, a hardcoded default fills
// whatever is left.
type fileConfig struct {
	Root           string   `toml:"root"`
	Addr           string   `toml:"addr"`
	MetricsAddr    string   `toml:"metrics_addr"`
	Compressions   []string `toml:"compressions"`
	MaxAgeSeconds  int      `toml:"max_age_seconds"`
	MinStreamBytes int64    `toml:"min_stream_bytes"`
	MaxCacheBytes  int64    `toml:"max_cache_bytes"`
	StripSegments  int      `toml:"strip_segments"`
	Secure         bool     `toml:"secure"`
	WarmIndexDirs  []string `toml:"warm_index_dirs"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	var md toml.MetaData
	if path != "" {
		var err error
		md, err = toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Warn("unknown keys in config file", "keys", strings.Join(keys, ", "))
	}

	strDefault(&cfg.Root, "STATICSERVE_ROOT", ".")
	strDefault(&cfg.Addr, "STATICSERVE_ADDR", ":8080")
	strDefault(&cfg.MetricsAddr, "STATICSERVE_METRICS_ADDR", "")

	if !md.IsDefined("max_age_seconds") {
		if v := os.Getenv("STATICSERVE_MAX_AGE_SECONDS"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, fmt.Errorf("STATICSERVE_MAX_AGE_SECONDS: %w", err)
			}
			cfg.MaxAgeSeconds = n
		}
	}

	return cfg, nil
}

func strDefault(dst *string, envKey, def string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
	if *dst == "" {
		*dst = def
	}
}
