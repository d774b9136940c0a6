package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"srccompiler/internal/datasource/httpds"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: SRCCOMPILER_STORE__DSN sets store.dsn.
const EnvPrefix = "SRCCOMPILER_"

// FlagKeys maps CLI flag names to config keys. Only changed flags listed
// here override the configuration.
var FlagKeys = map[string]string{
	"job":             "job",
	"store":           "store.kind",
	"dsn":             "store.dsn",
	"quarantine-dir":  "quarantine_dir",
	"workers":         "runtime.workers",
	"metrics-backend": "metrics.backend",
	"pushgateway-url": "metrics.pushgateway_url",
	"statsd-addr":     "metrics.statsd_addr",
}

// Load builds a Config from defaults, the file at path (YAML or JSON by
// extension; skipped when path is empty), SRCCOMPILER_* environment
// variables and changed flags, in increasing precedence. Relative paths are
// resolved against base_dir, except paths given as flags, which are taken
// relative to the working directory.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	flagged := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			flagged[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			// Lifts single values into lists, e.g. "encoding: cp1252" or
			// "header_row: 2". No string splitting: "," is a valid delimiter.
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := resolvePaths(&cfg, path, flagged); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("config: %s: unsupported extension (want .yaml, .yml or .json)", path)
	}
}

// envKey maps SRCCOMPILER_STORE__DSN to store.dsn.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func resolvePaths(cfg *Config, cfgPath string, flagged map[string]bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("config: getwd: %w", err)
	}
	anchor := cwd
	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return fmt.Errorf("config: %s: %w", cfgPath, err)
		}
		anchor = filepath.Dir(abs)
	}
	switch {
	case cfg.BaseDir == "":
		cfg.BaseDir = anchor
	case !filepath.IsAbs(cfg.BaseDir):
		cfg.BaseDir = filepath.Join(anchor, cfg.BaseDir)
	}

	baseFor := func(key string) string {
		if flagged[key] {
			return cwd
		}
		return cfg.BaseDir
	}

	for i := range cfg.Files {
		if httpds.IsURL(cfg.Files[i].Path) {
			continue
		}
		cfg.Files[i].Path = resolvePathRelativeTo(cfg.Files[i].Path, cfg.BaseDir)
	}
	cfg.QuarantineDir = resolvePathRelativeTo(cfg.QuarantineDir, baseFor("quarantine_dir"))
	if isFileDSN(cfg.Store.Kind, cfg.Store.DSN) {
		cfg.Store.DSN = resolvePathRelativeTo(cfg.Store.DSN, baseFor("store.dsn"))
	}
	return nil
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// isFileDSN reports whether dsn is a plain database file path.
func isFileDSN(kind, dsn string) bool {
	if kind != "sqlite" && kind != "duckdb" {
		return false
	}
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return false
	}
	return !strings.Contains(dsn, "?")
}
