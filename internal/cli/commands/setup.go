// Package commands implements the quel subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quellabs/quel/internal/cli/config"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/quel"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Catalog *metadata.Catalog
}

// NewCommandContext resolves the configuration and loads the entity
// catalog it names. With no catalog configured the context carries an
// empty one, so catalog-free queries still compile.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		Catalog: catalog,
	}, nil
}

// Compiler builds a compiler over the loaded catalog.
func (c *CommandContext) Compiler() *quel.Compiler {
	return quel.New(c.Catalog, quel.WithLogger(c.Logger))
}

func loadCatalog(cfg *config.Config) (*metadata.Catalog, error) {
	if cfg.Catalog == "" {
		return metadata.NewCatalog()
	}
	return metadata.LoadFile(cfg.Catalog)
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.Current() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.Current(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Catalog: os.Getenv("QUEL_CATALOG"),
		Output:  getEnvOrDefault("QUEL_OUTPUT", config.DefaultOutput),
		Verbose: os.Getenv("QUEL_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// source is one piece of query text with the name it is reported under.
type source struct {
	name string
	text string
}

// gatherSources resolves the query text for a command invocation:
// the --expr flag, the named files, or piped stdin, in that order.
func gatherSources(cmd *cobra.Command, args []string, expr string) ([]source, error) {
	if expr != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either --expr or files, not both")
		}
		return []source{{name: "query", text: expr}}, nil
	}

	if len(args) > 0 {
		sources := make([]source, 0, len(args))
		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
			sources = append(sources, source{name: path, text: string(content)})
		}
		return sources, nil
	}

	if stdin, ok := cmd.InOrStdin().(*os.File); !ok || !isTerminal(stdin) {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(content)) != "" {
			return []source{{name: "stdin", text: string(content)}}, nil
		}
	}

	return nil, fmt.Errorf("no input: pass files, --expr, or pipe a query (or run 'quel repl')")
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
