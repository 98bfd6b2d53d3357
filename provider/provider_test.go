package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanape/sauna/event"
)

type fakeProvider struct {
	name     string
	aliases  map[string]string
	prefixes []string
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return true }

func (f *fakeProvider) ResolveModel(alias string) string {
	if full, ok := f.aliases[alias]; ok {
		return full
	}
	return alias
}

func (f *fakeProvider) KnownAliases() map[string]string { return f.aliases }

func (f *fakeProvider) NewSession(ctx context.Context, cfg Config) (<-chan event.Event, error) {
	ch := make(chan event.Event)
	close(ch)
	return ch, nil
}

func (f *fakeProvider) NewInteractive(ctx context.Context, cfg Config) (InteractiveSession, error) {
	return nil, nil
}

func (f *fakeProvider) MatchesModel(model string) bool {
	for _, p := range f.prefixes {
		if len(model) >= len(p) && model[:len(p)] == p {
			return true
		}
	}
	return false
}

// withRegistry swaps in a test registry for the duration of the test.
func withRegistry(t *testing.T, providers ...Provider) {
	t.Helper()
	saved := registry
	registry = providers
	t.Cleanup(func() { registry = saved })
}

func testProviders() (*fakeProvider, *fakeProvider) {
	claude := &fakeProvider{
		name:     "claude",
		aliases:  map[string]string{"opus": "claude-opus-4-1", "sonnet": "claude-sonnet-4-5"},
		prefixes: []string{"claude"},
	}
	codex := &fakeProvider{
		name:     "codex",
		aliases:  map[string]string{"gpt": "gpt-5"},
		prefixes: []string{"gpt", "codex"},
	}
	return claude, codex
}

func TestForName(t *testing.T) {
	claude, codex := testProviders()
	withRegistry(t, claude, codex)

	p, err := ForName("codex")
	require.NoError(t, err)
	assert.Equal(t, "codex", p.Name())

	_, err = ForName("gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "gemini"`)
	assert.Contains(t, err.Error(), "claude, codex")
}

func TestDetect(t *testing.T) {
	claude, codex := testProviders()
	withRegistry(t, claude, codex)

	tests := []struct {
		model string
		want  string
	}{
		{"", "claude"},                // empty model: default
		{"opus", "claude"},            // alias match
		{"gpt", "codex"},              // alias match
		{"claude-haiku-4-5", "claude"}, // prefix match
		{"gpt-5-codex", "codex"},      // prefix match
		{"mystery-model", "claude"},   // unclaimed: default
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.model).Name(), "model %q", tt.model)
	}
}

func TestDetect_FallsBackToFirstRegistered(t *testing.T) {
	_, codex := testProviders()
	withRegistry(t, codex)
	assert.Equal(t, "codex", Detect("").Name())

	withRegistry(t)
	assert.Nil(t, Detect(""))
}

func TestExpandPrompt(t *testing.T) {
	assert.Equal(t, "do it", ExpandPrompt("do it", nil))

	got := ExpandPrompt("review this", []string{"README.md", "docs/design.md"})
	assert.Equal(t, "review this\n\nContext files:\n@README.md\n@docs/design.md\n", got)
}
