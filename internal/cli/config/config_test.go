package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a quel.yaml into a temp dir and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// newFlagSet builds a flag set with the root command's persistent flags.
func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("catalog", "", "")
	flags.String("output", "", "")
	flags.StringToString("params", nil, "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	Reset()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent", "quel.yaml"), nil)
	require.Error(t, err, "explicit config file must exist")

	Reset()
	cfg, err = Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Catalog)
	assert.Equal(t, OutputTable, cfg.Output)
	assert.Empty(t, cfg.Params)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "", FileUsed())
}

func TestLoadFile(t *testing.T) {
	Reset()
	cfgPath := writeConfigFile(t, `catalog: shop.yaml
output: markdown
verbose: true
params:
  pid: 5
  tag: chair
  strict: true
`)

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "shop.yaml", cfg.Catalog)
	assert.Equal(t, OutputMarkdown, cfg.Output)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, cfgPath, FileUsed())

	// YAML scalars keep their types through the params map.
	assert.Equal(t, 5, cfg.Params["pid"])
	assert.Equal(t, "chair", cfg.Params["tag"])
	assert.Equal(t, true, cfg.Params["strict"])
}

func TestEnvOverridesFile(t *testing.T) {
	Reset()
	cfgPath := writeConfigFile(t, "output: markdown\n")
	t.Setenv("QUEL_OUTPUT", "plain")

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, OutputPlain, cfg.Output, "env var should override config file")
}

func TestFlagOverridesEnvAndFile(t *testing.T) {
	Reset()
	cfgPath := writeConfigFile(t, "output: markdown\n")
	t.Setenv("QUEL_OUTPUT", "plain")

	flags := newFlagSet()
	require.NoError(t, flags.Set("output", "table"))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, OutputTable, cfg.Output, "flag should override env var and config file")
}

func TestFlagNotSetUsesEnv(t *testing.T) {
	Reset()
	cfgPath := writeConfigFile(t, "catalog: from_file.yaml\n")
	t.Setenv("QUEL_CATALOG", "from_env.yaml")

	// Flag declared but never set: Changed stays false.
	flags := newFlagSet()

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_env.yaml", cfg.Catalog, "env var should be used when flag is not set")
}

func TestParamsFlagOverlaysFileParams(t *testing.T) {
	Reset()
	cfgPath := writeConfigFile(t, `params:
  pid: 1
  tag: chair
`)

	flags := newFlagSet()
	require.NoError(t, flags.Set("params", "pid=5,min=1.5,strict=false,name=table"))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	// Flag pairs win per key; untouched file params survive.
	assert.Equal(t, 5, cfg.Params["pid"])
	assert.Equal(t, "chair", cfg.Params["tag"])
	assert.Equal(t, 1.5, cfg.Params["min"])
	assert.Equal(t, false, cfg.Params["strict"])
	assert.Equal(t, "table", cfg.Params["name"])
}

func TestInvalidOutputRejected(t *testing.T) {
	Reset()
	cfgPath := writeConfigFile(t, "output: sideways\n")

	_, err := Load(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output style")
	assert.Contains(t, err.Error(), "sideways")
}

func TestCurrentTracksLastLoad(t *testing.T) {
	Reset()
	assert.Nil(t, Current())

	cfgPath := writeConfigFile(t, "catalog: shop.yaml\n")
	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, Current())

	Reset()
	assert.Nil(t, Current())
}

func TestParamValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"false", false},
		{"42", 42},
		{"-7", -7},
		{"1.5", 1.5},
		{"0", 0},
		{"chair", "chair"},
		{"TRUE", "TRUE"},
		{"", ""},
		{"12abc", "12abc"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParamValue(tt.raw))
		})
	}
}
