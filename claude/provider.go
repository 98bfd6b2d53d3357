// Package claude wraps the Claude Code CLI as an agent backend. It owns the
// stream-json wire format; nothing outside this package depends on it.
package claude

import (
	"context"
	"maps"
	"os/exec"
	"strings"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/provider"
)

const binaryName = "claude"

// aliases maps short model names to full identifiers. Frozen at init;
// KnownAliases hands out copies.
var aliases = map[string]string{
	"opus":   "claude-opus-4-1",
	"sonnet": "claude-sonnet-4-5",
	"haiku":  "claude-haiku-4-5",
}

// Backend implements provider.Provider for the Claude Code CLI.
type Backend struct {
	binary string
}

// New creates the Claude backend.
func New() *Backend {
	return &Backend{binary: binaryName}
}

var (
	_ provider.Provider     = (*Backend)(nil)
	_ provider.ModelMatcher = (*Backend)(nil)
)

func init() {
	provider.Register(New())
}

// Name returns "claude".
func (b *Backend) Name() string { return "claude" }

// Available reports whether the claude binary is on PATH.
func (b *Backend) Available() bool {
	_, err := exec.LookPath(b.binary)
	return err == nil
}

// ResolveModel maps a model alias to its full identifier. Unrecognized names
// pass through unchanged; empty input resolves to "".
func (b *Backend) ResolveModel(alias string) string {
	if alias == "" {
		return ""
	}
	if full, ok := aliases[alias]; ok {
		return full
	}
	return alias
}

// KnownAliases returns a copy of the alias table.
func (b *Backend) KnownAliases() map[string]string {
	return maps.Clone(aliases)
}

// MatchesModel claims models following Claude naming conventions.
func (b *Backend) MatchesModel(model string) bool {
	return strings.HasPrefix(model, "claude")
}

// baseArgs are the flags common to single-shot and interactive sessions.
func (b *Backend) baseArgs(model string) []string {
	args := []string{
		"--output-format", "stream-json",
		"--include-partial-messages",
		"--verbose",
		"--dangerously-skip-permissions",
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	return args
}

// NewSession starts a single-shot session: one subprocess, one prompt, a
// stream of canonical events that ends when the subprocess exits.
func (b *Backend) NewSession(ctx context.Context, cfg provider.Config) (<-chan event.Event, error) {
	prompt := provider.ExpandPrompt(cfg.Prompt, cfg.ContextPaths)
	args := append([]string{"-p", prompt}, b.baseArgs(b.ResolveModel(cfg.Model))...)

	proc, err := startProcess(b.binary, args, cfg, false)
	if err != nil {
		return nil, err
	}

	events := make(chan event.Event, eventBufferSize)
	go func() {
		defer close(events)
		st := NewState()
		pumpEvents(proc, st, cfg, events, logSessionID(cfg), nil)
		if err := proc.Wait(); err != nil {
			events <- event.Error{Message: "claude exited: " + err.Error()}
		}
	}()

	return events, nil
}
