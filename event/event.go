// Package event defines the backend-agnostic event vocabulary shared by all
// adapters and the stream renderer.
//
// Each backend package (claude, codex) translates its proprietary wire
// messages into these events; everything downstream of the adapters speaks
// only this vocabulary.
package event

// EventType discriminates between event kinds.
type EventType int

const (
	// EventTypeTextDelta fires for streaming assistant text chunks.
	EventTypeTextDelta EventType = iota
	// EventTypeToolStart fires when a tool invocation begins.
	EventTypeToolStart
	// EventTypeToolEnd fires when a tool invocation completes.
	EventTypeToolEnd
	// EventTypeResult fires once per run/turn when the backend reports
	// terminal success or failure.
	EventTypeResult
	// EventTypeError fires for standalone backend errors.
	EventTypeError
)

// Event is the interface for all canonical events.
type Event interface {
	Type() EventType
}

// TextDelta contains a streaming text chunk. Adapters never emit a
// TextDelta with empty Text.
type TextDelta struct {
	Text string
}

// Type returns the event type.
func (e TextDelta) Type() EventType { return EventTypeTextDelta }

// ToolStart fires when the backend announces a tool invocation.
type ToolStart struct {
	Name string
}

// Type returns the event type.
func (e ToolStart) Type() EventType { return EventTypeToolStart }

// ToolEnd fires when a tool invocation completes. Detail is an optional
// single-line human-readable summary of the tool's arguments; it is empty
// when the arguments could not be parsed.
//
// A ToolEnd may arrive without a preceding ToolStart for the same name
// (the backend abandoned an earlier invocation); consumers must render it
// gracefully.
type ToolEnd struct {
	Name   string
	Detail string
}

// Type returns the event type.
func (e ToolEnd) Type() EventType { return EventTypeToolEnd }

// Summary contains usage and timing data for a successful run.
type Summary struct {
	InputTokens  int
	OutputTokens int
	NumTurns     int
	DurationMs   int64
}

// Result is the terminal event for a run or turn. Summary is populated only
// when Success is true; Errors only when it is false.
type Result struct {
	Summary Summary
	Errors  []string
	Success bool
}

// Type returns the event type.
func (e Result) Type() EventType { return EventTypeResult }

// Error contains a standalone backend error that does not terminate the run.
type Error struct {
	Message string
}

// Type returns the event type.
func (e Error) Type() EventType { return EventTypeError }
