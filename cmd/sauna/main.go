// Command sauna drives autonomous coding-agent backends from the terminal.
//
// Commands:
//   - (root): run a single prompt against an agent backend
//   - loop: run a prompt repeatedly, a fixed number of times or until interrupted
//   - chat: hold an interactive multi-turn conversation
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/amanape/sauna/claude"
	_ "github.com/amanape/sauna/codex"
	"github.com/amanape/sauna/config"
	"github.com/amanape/sauna/internal/logging"
	"github.com/amanape/sauna/provider"
	"github.com/amanape/sauna/runner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootFlags are shared by all commands.
type rootFlags struct {
	providerName string
	model        string
	contextPaths []string
	workDir      string
	verbosity    int
	noColor      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "sauna [flags] <prompt>",
		Short: "Drive coding-agent backends from the terminal",
		Long: `sauna dispatches a prompt to an agent backend (claude or codex), streams
the agent's activity back, and formats it for the terminal.`,
		Example: `  sauna "Fix the failing test in pkg/parser"
  sauna --model opus "Refactor the cache layer"
  echo "Add docs" | sauna
  sauna loop -n 5 "Pick one TODO and resolve it"
  sauna chat`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runSingle(cmd, args, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.providerName, "provider", "", "Agent backend: claude, codex (default: inferred from model)")
	pf.StringVar(&flags.model, "model", "", "Model name or alias (e.g. opus, sonnet, gpt-5-codex)")
	pf.StringArrayVarP(&flags.contextPaths, "context", "c", nil, "Context file attached to the prompt (repeatable)")
	pf.StringVar(&flags.workDir, "dir", "", "Working directory for the agent (defaults to current directory)")
	pf.CountVarP(&flags.verbosity, "verbose", "v", "Increase logging: -v debug, -vv raw wire lines")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable ANSI colors")

	cmd.AddCommand(newLoopCmd(flags))
	cmd.AddCommand(newChatCmd(flags))

	return cmd
}

func newLoopCmd(flags *rootFlags) *cobra.Command {
	var count int
	var forever bool

	cmd := &cobra.Command{
		Use:   "loop [flags] <prompt>",
		Short: "Run a prompt repeatedly",
		Long: `Loop runs the same prompt across repeated, independent agent sessions.
A failed iteration is reported and the loop moves on to the next one.
With --forever, iterations continue until interrupted.`,
		Example: `  sauna loop -n 3 "Fix one lint warning"
  sauna loop --forever "Pick the top task from TASKS.md and do it"`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts, ctx, cancel, ok := setup(cmd, args, flags)
			if !ok {
				os.Exit(1)
			}
			defer cancel()
			opts.Count = count
			opts.Forever = forever
			runner.RunLoop(ctx, opts)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of iterations")
	cmd.Flags().BoolVar(&forever, "forever", false, "Loop until interrupted")

	return cmd
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [flags] [initial prompt]",
		Short: "Hold an interactive multi-turn conversation",
		Long: `Chat opens one continuous conversation with an agent backend. Each line
you type is a turn; type "exit" or press Ctrl-D to leave.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts, ctx, cancel, ok := setupChat(cmd, args, flags)
			if !ok {
				os.Exit(1)
			}
			defer cancel()
			if err := runner.RunInteractive(ctx, opts, os.Stdin); err != nil && ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func runSingle(cmd *cobra.Command, args []string, flags *rootFlags) {
	opts, ctx, cancel, ok := setup(cmd, args, flags)
	if !ok {
		os.Exit(1)
	}
	defer cancel()
	if !runner.Run(ctx, opts) {
		os.Exit(1)
	}
}

// setup resolves configuration, selects and checks the provider, and builds
// runner options. The prompt comes from args or, when absent, stdin.
func setup(cmd *cobra.Command, args []string, flags *rootFlags) (runner.Options, context.Context, context.CancelFunc, bool) {
	prompt := strings.Join(args, " ")
	if prompt == "" {
		prompt = readFromStdin()
	}
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "Error: no prompt provided")
		cmd.Usage()
		return runner.Options{}, nil, nil, false
	}
	return buildOptions(prompt, flags)
}

// setupChat is setup without the stdin fallback: stdin belongs to the
// conversation, and an empty prompt just means no initial turn.
func setupChat(cmd *cobra.Command, args []string, flags *rootFlags) (runner.Options, context.Context, context.CancelFunc, bool) {
	return buildOptions(strings.Join(args, " "), flags)
}

func buildOptions(prompt string, flags *rootFlags) (runner.Options, context.Context, context.CancelFunc, bool) {
	fileCfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return runner.Options{}, nil, nil, false
	}

	providerName := firstNonEmpty(flags.providerName, fileCfg.Provider)
	model := firstNonEmpty(flags.model, fileCfg.Model)
	verbosity := flags.verbosity
	if verbosity == 0 && fileCfg.Verbose {
		verbosity = 1
	}
	noColor := flags.noColor || fileCfg.NoColor
	contextPaths := flags.contextPaths
	if len(contextPaths) == 0 {
		contextPaths = fileCfg.Context
	}

	logger := newLogger(verbosity)

	var p provider.Provider
	if providerName != "" {
		p, err = provider.ForName(providerName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return runner.Options{}, nil, nil, false
		}
	} else {
		p = provider.Detect(model)
	}

	// Availability is checked after selection so a bad provider name and
	// missing credentials stay distinct failures.
	if !p.Available() {
		fmt.Fprintf(os.Stderr, "Error: %s CLI not found on PATH\n", p.Name())
		return runner.Options{}, nil, nil, false
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	opts := runner.Options{
		Provider: p,
		Config: provider.Config{
			Prompt:       prompt,
			Model:        model,
			WorkDir:      workDir,
			ContextPaths: contextPaths,
			Logger:       logger,
		},
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
		NoColor: noColor,
		Logger:  logger,
	}

	ctx, cancel := signalContext()
	return opts, ctx, cancel, true
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing current iteration...")
		cancel()
	}()
	return ctx, cancel
}

func newLogger(verbosity int) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.LevelFor(verbosity),
	}))
}

// readFromStdin reads a prompt from stdin when it is piped in.
func readFromStdin() string {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
