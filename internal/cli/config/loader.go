package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in the command context. The cli
// package stores, commands retrieve; sharing the key through this
// package avoids an import cycle between the two.
type loggerKey struct{}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > quel.yaml > quel.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("quel.yaml"); err == nil {
		return "quel.yaml"
	}
	if _, err := os.Stat("quel.yml"); err == nil {
		return "quel.yml"
	}
	return ""
}

// Reset clears the koanf instance and the loaded config. Used for testing.
func Reset() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// Load reads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// The --params flag is handled outside the layering: its name=value
// pairs overlay the params map after everything else has merged, so a
// single flag value adds to the file-configured params instead of
// replacing the whole map.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for a fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"catalog": "",
		"output":  DefaultOutput,
		"verbose": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (QUEL_ prefix)
	// Transform: QUEL_CATALOG -> catalog
	if err := k.Load(env.Provider("QUEL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "QUEL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// --config names the file itself and --params overlays the
			// params map below; neither is a config key.
			if f.Name == "config" || f.Name == "params" {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct. Weak typing keeps env values
	// usable: QUEL_VERBOSE=true arrives as a string.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Overlay --params pairs onto the merged params map
	if flags != nil && flags.Changed("params") {
		pairs, err := flags.GetStringToString("params")
		if err != nil {
			return nil, fmt.Errorf("failed to read params flag: %w", err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]any, len(pairs))
		}
		for name, raw := range pairs {
			cfg.Params[name] = ParamValue(raw)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// ParamValue interprets a parameter value given on the command line the
// way the YAML parser would: bools and numbers become typed values,
// everything else stays a string.
func ParamValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// FileUsed returns the path to the config file being used, if any.
func FileUsed() string {
	return configFileUsed
}

// Current returns the config loaded by the last Load call, or nil.
func Current() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
