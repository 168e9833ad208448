package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/quellabs/quel/internal/cli/config"
	"github.com/quellabs/quel/pkg/format"
	"github.com/quellabs/quel/pkg/metadata"
	"github.com/quellabs/quel/pkg/parser"
	"github.com/quellabs/quel/pkg/plan"
	"github.com/quellabs/quel/pkg/quel"
)

// REPL output modes. Each query renders in the current mode until a
// meta-command switches it.
const (
	modeSQL    = "sql"
	modePlan   = "plan"
	modeTokens = "tokens"
	modeAST    = "ast"
	modeFmt    = "fmt"
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive query shell",
		Long: `Read queries interactively and compile each one against the loaded
catalog. Queries end with a semicolon and may span lines; backslash
meta-commands switch what gets printed (SQL, plan, tokens, syntax tree,
or canonical form).`,
		Example: `  quel repl -c shop.yaml
  quel repl -c shop.yaml -p pid=5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runRepl(cmd, cmdCtx)
		},
	}
}

// replSession holds the shell state between lines.
type replSession struct {
	compiler *quel.Compiler
	cfg      *config.Config
	catalog  *metadata.Catalog
	mode     string
	out      io.Writer
	errOut   io.Writer
}

func runRepl(cmd *cobra.Command, cmdCtx *CommandContext) error {
	sess := &replSession{
		compiler: cmdCtx.Compiler(),
		cfg:      cmdCtx.Cfg,
		catalog:  cmdCtx.Catalog,
		mode:     modeSQL,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "quel> ",
		HistoryFile:     ".quel_history",
		AutoComplete:    newReplCompleter(cmdCtx.Catalog),
		InterruptPrompt: "^C",
		EOFPrompt:       `\quit`,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	catalogName := cmdCtx.Cfg.Catalog
	if catalogName == "" {
		catalogName = "(none)"
	}
	_, _ = fmt.Fprintf(sess.out, "quel shell (catalog: %s)\n", catalogName)
	_, _ = fmt.Fprintln(sess.out, `Queries end with ';'. Type \help for commands, \quit to exit.`)
	_, _ = fmt.Fprintln(sess.out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt("quel> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Meta-commands apply between queries, not inside one.
		if buf.Len() == 0 && strings.HasPrefix(line, `\`) {
			if quit := sess.handleMeta(line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line queries until a semicolon. Lines join
		// with newlines, so range declarations read as written.
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt("  ...> ")
			continue
		}
		rl.SetPrompt("quel> ")

		query := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()

		sess.eval(query)
		_, _ = fmt.Fprintln(sess.out)
	}

	return nil
}

// eval compiles one query and renders it in the session's mode.
func (s *replSession) eval(query string) {
	switch s.mode {
	case modeTokens:
		toks, err := lexAll(query)
		renderTokens(s.out, s.cfg.Output, toks)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case modeFmt:
		q, err := parser.Parse(query)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		_, _ = fmt.Fprint(s.out, format.Query(q))

	case modeAST:
		compiled, err := s.compiler.Compile(query)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		writeAST(s.out, compiled.Query)

	case modePlan:
		p, err := s.compiler.Plan(query, plan.WithParams(s.cfg.Params))
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		renderStages(s.out, s.cfg.Output, p)

	default:
		compiled, err := s.compiler.Compile(query)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		stmt, err := compiled.SQL()
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		renderStatement(s.out, s.cfg.Output, stmt)
	}
}

// handleMeta runs one backslash command. It reports whether the shell
// should exit.
func (s *replSession) handleMeta(line string) bool {
	parts := strings.Fields(line)
	switch parts[0] {
	case `\quit`, `\q`, `\exit`:
		return true

	case `\help`:
		printReplHelp(s.out)

	case `\sql`, `\plan`, `\tokens`, `\ast`, `\fmt`:
		s.mode = strings.TrimPrefix(parts[0], `\`)
		_, _ = fmt.Fprintf(s.out, "output mode: %s\n", s.mode)

	case `\entities`:
		s.listEntities()

	case `\clear`:
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type \\help for commands)\n", parts[0])
	}
	return false
}

func (s *replSession) listEntities() {
	names := s.catalog.Names()
	if len(names) == 0 {
		_, _ = fmt.Fprintln(s.out, "(no catalog loaded)")
		return
	}

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		e, _ := s.catalog.Entity(name)
		rows = append(rows, table.Row{name, e.Table, strings.Join(e.ID, ", ")})
	}
	writeTable(s.out, s.cfg.Output, table.Row{"Entity", "Table", "ID"}, rows)
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  \sql            print generated SQL (default)
  \plan           print the staged execution plan
  \tokens         print the token stream
  \ast            print the syntax tree
  \fmt            print the canonical form
  \entities       list catalog entities
  \clear          clear the screen
  \help           show this help message
  \quit           exit

Tips:
  - Queries end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for clause words and entity names
`
	_, _ = fmt.Fprintln(w, help)
}

// clauseWords are the words the parser recognizes from grammar
// position, offered for tab completion.
var clauseWords = []string{
	"range", "of", "is", "via", "retrieve", "unique", "where", "as",
	"and", "or", "not", "null", "true", "false",
}

// newReplCompleter builds a completer over clause words, catalog entity
// names, and the meta-commands.
func newReplCompleter(catalog *metadata.Catalog) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, word := range clauseWords {
		items = append(items, readline.PcItem(word))
	}
	for _, name := range catalog.Names() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items,
		readline.PcItem(`\sql`),
		readline.PcItem(`\plan`),
		readline.PcItem(`\tokens`),
		readline.PcItem(`\ast`),
		readline.PcItem(`\fmt`),
		readline.PcItem(`\entities`),
		readline.PcItem(`\help`),
		readline.PcItem(`\quit`),
	)
	return readline.NewPrefixCompleter(items...)
}
