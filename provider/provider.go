// Package provider defines the backend-agnostic session contract and the
// registry that selects a concrete backend for an invocation.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amanape/sauna/event"
)

// Config is the per-session configuration passed to a provider. Model may be
// an alias; providers resolve it through their alias table.
type Config struct {
	Prompt       string
	Model        string
	WorkDir      string
	ContextPaths []string
	Logger       *slog.Logger
}

// InteractiveSession is one multi-turn conversation with a backend.
//
// Stream drains exactly one turn: it pulls canonical events one at a time
// and returns once a Result event (success or failure) is observed, leaving
// the underlying connection open for the next Send. Close releases the
// connection and is idempotent.
type InteractiveSession interface {
	Send(ctx context.Context, message string) error
	Stream(ctx context.Context, handler func(event.Event) error) error
	Close() error
}

// Provider is the capability contract every backend implements. Providers
// are process-wide singletons; selection never checks availability so that
// "no credentials" and "bad provider name" stay distinguishable failures.
type Provider interface {
	// Name returns the provider identifier (e.g. "claude", "codex").
	Name() string

	// Available reports whether the backend can serve sessions. It never
	// fails; a missing CLI binary simply reports false.
	Available() bool

	// ResolveModel maps a model alias to its full identifier. Unrecognized
	// names pass through unchanged; empty input resolves to "".
	ResolveModel(alias string) string

	// KnownAliases returns a copy of the provider's alias table.
	KnownAliases() map[string]string

	// NewSession starts a single-shot session. The returned channel closes
	// when the backend's message stream ends.
	NewSession(ctx context.Context, cfg Config) (<-chan event.Event, error)

	// NewInteractive opens a multi-turn session.
	NewInteractive(ctx context.Context, cfg Config) (InteractiveSession, error)
}

// ModelMatcher is an optional interface for providers that can claim model
// names by naming convention. Detect consults it during backend selection.
type ModelMatcher interface {
	MatchesModel(model string) bool
}

// DefaultName is the provider chosen when neither an explicit name nor a
// model-name match decides.
const DefaultName = "claude"

var registry []Provider

// Register adds a provider to the registry. Backend packages call it from
// init; registration order is selection order.
func Register(p Provider) {
	registry = append(registry, p)
}

// All returns the registered providers in registration order.
func All() []Provider {
	out := make([]Provider, len(registry))
	copy(out, registry)
	return out
}

// ForName returns the provider with the given name. Unknown names fail with
// an error listing the valid choices.
func ForName(name string) (Provider, error) {
	for _, p := range registry {
		if p.Name() == name {
			return p, nil
		}
	}
	names := make([]string, 0, len(registry))
	for _, p := range registry {
		names = append(names, p.Name())
	}
	return nil, fmt.Errorf("unknown provider %q (valid: %s)", name, strings.Join(names, ", "))
}

// Detect selects a provider for the given model name. An empty model, or one
// no provider claims, selects the default provider.
func Detect(model string) Provider {
	if model != "" {
		for _, p := range registry {
			if _, ok := p.KnownAliases()[model]; ok {
				return p
			}
			if m, ok := p.(ModelMatcher); ok && m.MatchesModel(model) {
				return p
			}
		}
	}
	for _, p := range registry {
		if p.Name() == DefaultName {
			return p
		}
	}
	if len(registry) > 0 {
		return registry[0]
	}
	return nil
}

// ExpandPrompt appends context attachment references to a prompt. It is
// applied to single-shot prompts and to the first turn of an interactive
// session; later turns are sent verbatim.
func ExpandPrompt(prompt string, contextPaths []string) string {
	if len(contextPaths) == 0 {
		return prompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nContext files:\n")
	for _, p := range contextPaths {
		b.WriteString("@")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
