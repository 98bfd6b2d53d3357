// Package codex wraps the Codex CLI (codex exec --json) as an agent backend.
// It owns the JSONL thread/item wire format; nothing outside this package
// depends on it.
package codex

import (
	"context"
	"maps"
	"os/exec"
	"strings"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/provider"
)

const binaryName = "codex"

// aliases maps short model names to full identifiers. Frozen at init;
// KnownAliases hands out copies.
var aliases = map[string]string{
	"gpt":   "gpt-5",
	"codex": "gpt-5-codex",
	"mini":  "gpt-5-codex-mini",
}

// Backend implements provider.Provider for the Codex CLI.
type Backend struct {
	binary string
}

// New creates the Codex backend.
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

// Name returns "codex".
func (b *Backend) Name() string { return "codex" }

// Available reports whether the codex binary is on PATH.
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

// MatchesModel claims models following OpenAI naming conventions.
func (b *Backend) MatchesModel(model string) bool {
	for _, prefix := range []string{"gpt", "codex", "o3", "o4"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// execArgs builds the argument list for one codex exec invocation. resumeID
// continues an existing thread; empty starts a new one.
func (b *Backend) execArgs(model, resumeID, prompt string) []string {
	args := []string{"exec"}
	if resumeID != "" {
		args = append(args, "resume", resumeID)
	}
	args = append(args, "--json", "--skip-git-repo-check", "--full-auto")
	if model != "" {
		args = append(args, "-m", model)
	}
	return append(args, prompt)
}

// NewSession starts a single-shot session: one subprocess, one prompt, a
// stream of canonical events that ends when the subprocess exits.
func (b *Backend) NewSession(ctx context.Context, cfg provider.Config) (<-chan event.Event, error) {
	prompt := provider.ExpandPrompt(cfg.Prompt, cfg.ContextPaths)
	args := b.execArgs(b.ResolveModel(cfg.Model), "", prompt)

	proc, err := startProcess(b.binary, args, cfg)
	if err != nil {
		return nil, err
	}

	events := make(chan event.Event, eventBufferSize)
	go func() {
		defer close(events)
		st := NewState()
		pumpEvents(proc, st, cfg, events, logThreadID(cfg), nil)
		if err := proc.Wait(); err != nil {
			events <- event.Error{Message: "codex exited: " + err.Error()}
		}
	}()

	return events, nil
}
