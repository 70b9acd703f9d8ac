package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lockview/lockview/pkg/errors"
)

// configFilename is searched from the working directory upward.
const configFilename = ".lockview.yaml"

// Duration wraps time.Duration so YAML can say "24h" or "30m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "duration %q", raw)
	}
	d.Duration = parsed
	return nil
}

// Config holds settings read from .lockview.yaml. Flags override it.
type Config struct {
	// Lockfile is the path to the lockfile, relative to the config file.
	Lockfile string `yaml:"lockfile"`

	// Platform, Machine and Python pick the default target environment
	// for selection and graph filtering.
	Platform string `yaml:"platform"`
	Machine  string `yaml:"machine"`
	Python   string `yaml:"python"`

	Cache struct {
		// Dir overrides the cache directory.
		Dir string `yaml:"dir"`
		// TTL bounds cached index responses, e.g. "24h".
		TTL Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Index struct {
		// URL points audit at a different package index, e.g. a
		// private mirror exposing the PyPI JSON API.
		URL string `yaml:"url"`
	} `yaml:"index"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// defaultConfig returns the config used when no file is found.
func defaultConfig() *Config {
	cfg := &Config{
		Platform: "linux",
		Machine:  "x86_64",
		Python:   "3.12",
	}
	cfg.Cache.TTL = Duration{24 * time.Hour}
	cfg.Server.Addr = ":8080"
	return cfg
}

// loadConfig walks from dir toward the filesystem root looking for
// .lockview.yaml. A missing file is not an error: defaults apply.
func loadConfig(dir string) (*Config, error) {
	path, ok := findConfig(dir)
	if !ok {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}

	// The lockfile path is relative to the config file, not the cwd.
	if cfg.Lockfile != "" && !filepath.IsAbs(cfg.Lockfile) {
		cfg.Lockfile = filepath.Join(filepath.Dir(path), cfg.Lockfile)
	}
	return cfg, nil
}

func findConfig(dir string) (string, bool) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(current, configFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

const configKey ctxKey = 1

func withConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

func configFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
