package codex

import (
	"time"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/internal/detail"
)

// State is the adapter's cross-message state for one session. Tool items
// stream in three phases (item.started, item.updated, item.completed) with
// the item payload as the argument buffer; the pending tool name correlates
// them. Create one State per session with NewState and thread it through
// every Translate call for that session.
type State struct {
	pendingTool string
	argBuf      []byte
	turnStart   time.Time
}

// NewState returns a fresh adapter state for a new session.
func NewState() *State {
	return &State{}
}

// toolName maps an item to its display tool name, or "" for items that are
// not tool invocations (messages, reasoning).
func toolName(item Item) string {
	switch item.ItemType {
	case "command_execution":
		return "Bash"
	case "file_change", "file_changes":
		return "Edit"
	case "web_search":
		return "WebSearch"
	case "mcp_tool_call":
		if item.Name != "" {
			return item.Name
		}
		return "MCP"
	default:
		return ""
	}
}

// Translate converts one wire message into zero or more canonical events,
// updating st. It never fails: malformed or unrecognized input translates to
// no events.
func Translate(msg Message, st *State) []event.Event {
	switch m := msg.(type) {
	case TurnStarted:
		st.turnStart = time.Now()
		return nil

	case ItemStarted:
		name := toolName(m.Item)
		if name == "" {
			return nil
		}
		// A still-pending tool is abandoned silently; no orphan ToolEnd.
		st.pendingTool = name
		st.argBuf = m.Item.Raw
		return []event.Event{event.ToolStart{Name: name}}

	case ItemUpdated:
		if st.pendingTool != "" && toolName(m.Item) == st.pendingTool {
			st.argBuf = m.Item.Raw
		}
		return nil

	case ItemCompleted:
		return translateItemCompleted(m.Item, st)

	case TurnCompleted:
		var durationMs int64
		if !st.turnStart.IsZero() {
			durationMs = time.Since(st.turnStart).Milliseconds()
		}
		return []event.Event{event.Result{
			Success: true,
			Summary: event.Summary{
				InputTokens:  m.Usage.InputTokens,
				OutputTokens: m.Usage.OutputTokens,
				NumTurns:     1,
				DurationMs:   durationMs,
			},
		}}

	case TurnFailed:
		errText := m.Error.Message
		if errText == "" {
			errText = "turn failed"
		}
		return []event.Event{event.Result{Success: false, Errors: []string{errText}}}

	case ErrorMessage:
		if m.Message == "" {
			return nil
		}
		return []event.Event{event.Error{Message: m.Message}}

	default:
		// thread.started and unknown types — nothing to emit.
		return nil
	}
}

func translateItemCompleted(item Item, st *State) []event.Event {
	switch item.ItemType {
	case "agent_message":
		if item.Text == "" {
			return nil
		}
		return []event.Event{event.TextDelta{Text: item.Text}}

	case "reasoning":
		return nil

	case "error":
		if item.Text == "" {
			return nil
		}
		return []event.Event{event.Error{Message: item.Text}}
	}

	name := toolName(item)
	if name == "" {
		return nil
	}

	// The completed payload supersedes whatever accumulated.
	args := item.Raw
	if len(args) == 0 {
		args = st.argBuf
	}
	st.pendingTool = ""
	st.argBuf = nil

	// A command execution that never reports an exit status produces no
	// ToolEnd. Matches the upstream behavior; see DESIGN.md.
	if item.ItemType == "command_execution" && item.ExitStatus == nil {
		return nil
	}

	return []event.Event{event.ToolEnd{
		Name:   name,
		Detail: detail.FromArgs(args),
	}}
}
