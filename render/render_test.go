package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amanape/sauna/event"
)

func newTestRenderer() (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRenderer(out, errOut, true), out, errOut
}

func TestRenderer_StripsLeadingBlankLinesFromFirstText(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.TextDelta{Text: "\n\nHello"})
	r.Handle(event.TextDelta{Text: " world"})

	assert.Equal(t, "Hello world", out.String())
}

func TestRenderer_FirstTextStateSurvivesAllBlankChunk(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.TextDelta{Text: "\r\n\n"})
	r.Handle(event.TextDelta{Text: "\nHi"})

	assert.Equal(t, "Hi", out.String())
}

func TestRenderer_LaterTextKeptVerbatim(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.TextDelta{Text: "first"})
	r.Handle(event.TextDelta{Text: "\n\nsecond"})

	assert.Equal(t, "first\n\nsecond", out.String())
}

func TestRenderer_ToolEndStartsOwnLine(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.TextDelta{Text: "working on it"})
	r.Handle(event.ToolEnd{Name: "Bash", Detail: "go test ./..."})

	assert.Equal(t, "working on it\n[Bash: go test ./...]\n", out.String())
}

func TestRenderer_ToolEndAfterNewlineAddsNoBlankLine(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.TextDelta{Text: "done\n"})
	r.Handle(event.ToolEnd{Name: "Read"})

	assert.Equal(t, "done\n[Read]\n", out.String())
}

func TestRenderer_ToolEndTruncatesLongDetail(t *testing.T) {
	r, out, _ := newTestRenderer()

	detail := strings.Repeat("x", 200)
	r.Handle(event.ToolEnd{Name: "Bash", Detail: detail})

	line := out.String()
	assert.Contains(t, line, "...")
	assert.Contains(t, line, strings.Repeat("x", maxDetailLen-3))
	assert.NotContains(t, line, strings.Repeat("x", maxDetailLen-2))
}

func TestRenderer_SuccessSummary(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.Result{
		Success: true,
		Summary: event.Summary{InputTokens: 1200, OutputTokens: 340, NumTurns: 2, DurationMs: 4200},
	})

	assert.Equal(t, "✓ 4.2s · 1200 in / 340 out tokens · 2 turns\n", out.String())
}

func TestRenderer_SuccessSummarySingleTurn(t *testing.T) {
	r, out, _ := newTestRenderer()

	r.Handle(event.Result{
		Success: true,
		Summary: event.Summary{InputTokens: 10, OutputTokens: 5, NumTurns: 1, DurationMs: 500},
	})

	assert.Equal(t, "✓ 0.5s · 10 in / 5 out tokens · 1 turn\n", out.String())
}

func TestRenderer_FailureGoesToErrorSink(t *testing.T) {
	r, out, errOut := newTestRenderer()

	r.Handle(event.TextDelta{Text: "partial"})
	r.Handle(event.Result{Success: false, Errors: []string{"budget exceeded", "tool denied"}})

	assert.Equal(t, "partial\n", out.String())
	assert.Equal(t, "✗ budget exceeded; tool denied\n", errOut.String())
}

func TestRenderer_FailureWithoutMessage(t *testing.T) {
	r, _, errOut := newTestRenderer()

	r.Handle(event.Result{Success: false})

	assert.Equal(t, "✗ agent reported failure\n", errOut.String())
}

func TestRenderer_ErrorEvent(t *testing.T) {
	r, out, errOut := newTestRenderer()

	r.Handle(event.Error{Message: "stream disconnected"})

	assert.Empty(t, out.String())
	assert.Equal(t, "[Error] stream disconnected\n", errOut.String())
}

func TestRenderer_ToolStartSilent(t *testing.T) {
	r, out, errOut := newTestRenderer()

	r.Handle(event.ToolStart{Name: "Bash"})

	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestRenderer_ColorsSuppressedForNonTerminal(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRenderer(out, nil, false)

	r.Handle(event.ToolEnd{Name: "Bash", Detail: "ls"})

	assert.Equal(t, "[Bash: ls]\n", out.String())
}

func TestRenderer_NilErrOutFallsBackToOut(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRenderer(out, nil, true)

	r.Handle(event.Error{Message: "oops"})
	r.Handle(event.TextDelta{Text: "still here"})

	assert.Equal(t, "[Error] oops\nstill here", out.String())
}

func TestRenderer_EndsWithNewline(t *testing.T) {
	r, _, _ := newTestRenderer()

	assert.True(t, r.EndsWithNewline())
	r.Handle(event.TextDelta{Text: "abc"})
	assert.False(t, r.EndsWithNewline())
	r.Handle(event.TextDelta{Text: "def\n"})
	assert.True(t, r.EndsWithNewline())
}
