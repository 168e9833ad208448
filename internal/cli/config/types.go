// Package config loads the quel CLI configuration from its config
// file, QUEL_-prefixed environment variables, and command-line flags.
package config

import "fmt"

// Config holds all CLI configuration options.
type Config struct {
	Catalog string         `koanf:"catalog"`
	Output  string         `koanf:"output"`
	Params  map[string]any `koanf:"params"`
	Verbose bool           `koanf:"verbose"`
}

// Output styles understood by the command renderers.
const (
	OutputTable    = "table"
	OutputPlain    = "plain"
	OutputMarkdown = "markdown"
)

// Default configuration values.
const (
	DefaultOutput = OutputTable
)

// Validate checks the loaded configuration for values no command can
// work with.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputTable, OutputPlain, OutputMarkdown:
		return nil
	default:
		return fmt.Errorf("unknown output style %q (expected table, plain, or markdown)", c.Output)
	}
}
