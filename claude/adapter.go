package claude

import (
	"bytes"
	"strings"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/internal/detail"
)

// State is the adapter's cross-message state for one session. Tool
// invocations stream in three phases (open, accumulate, close) with no
// correlation id shared across phases; the pending tool name and argument
// buffer correlate them. Create one State per session with NewState and
// thread it through every Translate call for that session.
type State struct {
	pendingTool string
	argBuf      bytes.Buffer
	textEmitted bool
}

// NewState returns a fresh adapter state for a new session.
func NewState() *State {
	return &State{}
}

// Translate converts one wire message into zero or more canonical events,
// updating st. It never fails: malformed or unrecognized input translates to
// no events.
func Translate(msg Message, st *State) []event.Event {
	switch m := msg.(type) {
	case StreamEvent:
		return translateStreamEvent(m, st)
	case ResultMessage:
		return translateResult(m, st)
	default:
		// system, assistant, unknown — nothing to emit.
		return nil
	}
}

func translateStreamEvent(m StreamEvent, st *State) []event.Event {
	inner, err := ParseStreamEvent(m)
	if err != nil || inner == nil {
		return nil
	}

	switch e := inner.(type) {
	case ContentBlockStart:
		if e.ContentBlock.Type != "tool_use" || e.ContentBlock.Name == "" {
			return nil
		}
		// A still-pending tool is abandoned silently: the backend moved on
		// without closing it, and no orphan ToolEnd is synthesized.
		st.pendingTool = e.ContentBlock.Name
		st.argBuf.Reset()
		return []event.Event{event.ToolStart{Name: e.ContentBlock.Name}}

	case ContentBlockDelta:
		switch e.Delta.Type {
		case "text_delta":
			return textDelta(e.Delta.Text, st)
		case "input_json_delta":
			if st.pendingTool != "" {
				st.argBuf.WriteString(e.Delta.PartialJSON)
			}
			return nil
		default:
			// thinking_delta and future delta types.
			return nil
		}

	case ContentBlockStop:
		if st.pendingTool == "" {
			return nil
		}
		name := st.pendingTool
		st.pendingTool = ""
		return []event.Event{event.ToolEnd{
			Name:   name,
			Detail: detail.FromArgs(st.argBuf.Bytes()),
		}}
	}

	return nil
}

func translateResult(m ResultMessage, st *State) []event.Event {
	if m.IsError {
		errText := strings.TrimSpace(m.Result)
		if errText == "" {
			errText = m.Subtype
		}
		return []event.Event{event.Result{Success: false, Errors: []string{errText}}}
	}

	var events []event.Event

	// Some invocations deliver the whole answer in the result message instead
	// of streaming it. Synthesize one text event so the answer is not lost.
	if !st.textEmitted && m.Result != "" {
		events = append(events, textDelta(m.Result, st)...)
	}

	events = append(events, event.Result{
		Success: true,
		Summary: event.Summary{
			InputTokens:  m.Usage.InputTokens,
			OutputTokens: m.Usage.OutputTokens,
			NumTurns:     m.NumTurns,
			DurationMs:   m.DurationMs,
		},
	})
	return events
}

// textDelta wraps non-empty text in a TextDelta and records that text has
// been emitted this session. Empty fragments are dropped.
func textDelta(text string, st *State) []event.Event {
	if text == "" {
		return nil
	}
	st.textEmitted = true
	return []event.Event{event.TextDelta{Text: text}}
}
