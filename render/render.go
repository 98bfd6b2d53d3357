// Package render turns canonical events into formatted terminal output.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/amanape/sauna/event"
)

// ANSI color codes - chosen to work on both light and dark backgrounds
const (
	colorReset = "\x1b[0m"
	colorDim   = "\x1b[2m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
)

const maxDetailLen = 80

// Renderer writes formatted output for a stream of canonical events. Create
// one per logical run: its newline and first-text state must not leak across
// runs.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool

	// lastNewline tracks whether the literal text written to out so far ends
	// in a line terminator; color codes are not text and never affect it.
	lastNewline bool
	// firstText is true until the first non-empty text chunk is written.
	firstText bool
}

// NewRenderer creates a renderer writing to out, with errors going to errOut.
// A nil errOut falls back to out. If noColor is false, colors are still
// suppressed when out is not a terminal.
func NewRenderer(out, errOut io.Writer, noColor bool) *Renderer {
	if errOut == nil {
		errOut = out
	}
	if !noColor {
		noColor = !isTerminal(out)
	}
	return &Renderer{
		out:         out,
		errOut:      errOut,
		noColor:     noColor,
		lastNewline: true,
		firstText:   true,
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// color returns the color code if colors are enabled, empty string otherwise.
func (r *Renderer) color(c string) string {
	if r.noColor {
		return ""
	}
	return c
}

// Handle renders one event.
func (r *Renderer) Handle(ev event.Event) {
	switch e := ev.(type) {
	case event.TextDelta:
		r.text(e.Text)
	case event.ToolStart:
		// Intentionally silent; the tag line is printed on ToolEnd.
	case event.ToolEnd:
		r.toolEnd(e)
	case event.Result:
		r.result(e)
	case event.Error:
		r.error(e.Message)
	}
}

// text writes a streaming text chunk verbatim, except that leading blank
// lines are stripped from the very first text output of the run.
func (r *Renderer) text(s string) {
	if r.firstText {
		s = strings.TrimLeft(s, "\r\n")
		if s == "" {
			return
		}
		r.firstText = false
	}
	r.write(s)
}

// toolEnd prints a dimmed bracketed tag line. Tags never share a line with
// preceding text.
func (r *Renderer) toolEnd(e event.ToolEnd) {
	r.breakLine()
	tag := e.Name
	if e.Detail != "" {
		tag += ": " + truncate(e.Detail, maxDetailLen)
	}
	fmt.Fprintf(r.out, "%s[%s]%s", r.color(colorDim), tag, r.color(colorReset))
	r.write("\n")
}

// result prints the one-line usage summary for a success, or routes a
// failure to the error sink.
func (r *Renderer) result(e event.Result) {
	if !e.Success {
		msg := strings.Join(e.Errors, "; ")
		if msg == "" {
			msg = "agent reported failure"
		}
		r.breakLine()
		fmt.Fprintf(r.errOut, "%s✗ %s%s\n", r.color(colorRed), msg, r.color(colorReset))
		if r.errOut == r.out {
			r.lastNewline = true
		}
		return
	}

	r.breakLine()
	s := e.Summary
	fmt.Fprintf(r.out, "%s✓ %.1fs · %d in / %d out tokens · %d %s%s",
		r.color(colorGreen), float64(s.DurationMs)/1000, s.InputTokens, s.OutputTokens,
		s.NumTurns, plural(s.NumTurns, "turn"), r.color(colorReset))
	r.write("\n")
}

// error prints a standalone error in the attention color to the error sink.
func (r *Renderer) error(msg string) {
	r.breakLine()
	fmt.Fprintf(r.errOut, "%s[Error]%s %s\n", r.color(colorRed), r.color(colorReset), msg)
	if r.errOut == r.out {
		r.lastNewline = true
	}
}

// breakLine ensures subsequent output starts on its own line.
func (r *Renderer) breakLine() {
	if !r.lastNewline {
		r.write("\n")
	}
}

// write emits literal text to out and recomputes the newline flag from it.
func (r *Renderer) write(s string) {
	if s == "" {
		return
	}
	io.WriteString(r.out, s)
	r.lastNewline = strings.HasSuffix(s, "\n")
}

// EndsWithNewline reports whether the literal text written so far ends in a
// line terminator.
func (r *Renderer) EndsWithNewline() bool {
	return r.lastNewline
}

// truncate truncates a string to the given max length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// plural returns the singular or trivially-pluralized form of word.
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
