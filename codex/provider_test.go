package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveModel(t *testing.T) {
	b := New()

	assert.Equal(t, "gpt-5-codex", b.ResolveModel("codex"))
	assert.Equal(t, "gpt-5-codex-mini", b.ResolveModel("mini"))
	assert.Equal(t, "o3-pro", b.ResolveModel("o3-pro"))
	assert.Equal(t, "", b.ResolveModel(""))
}

func TestMatchesModel(t *testing.T) {
	b := New()

	assert.True(t, b.MatchesModel("gpt-5"))
	assert.True(t, b.MatchesModel("codex-latest"))
	assert.True(t, b.MatchesModel("o3"))
	assert.False(t, b.MatchesModel("claude-opus-4-1"))
	assert.False(t, b.MatchesModel(""))
}

func TestExecArgs(t *testing.T) {
	b := New()

	args := b.execArgs("", "", "fix the bug")
	assert.Equal(t, []string{"exec", "--json", "--skip-git-repo-check", "--full-auto", "fix the bug"}, args)

	args = b.execArgs("gpt-5-codex", "th_123", "keep going")
	assert.Equal(t, []string{
		"exec", "resume", "th_123",
		"--json", "--skip-git-repo-check", "--full-auto",
		"-m", "gpt-5-codex",
		"keep going",
	}, args)
}
