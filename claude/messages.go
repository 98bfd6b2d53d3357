package claude

import (
	"encoding/json"
)

// MessageType discriminates between wire message kinds.
type MessageType string

const (
	MessageTypeSystem      MessageType = "system"
	MessageTypeAssistant   MessageType = "assistant"
	MessageTypeUser        MessageType = "user"
	MessageTypeResult      MessageType = "result"
	MessageTypeStreamEvent MessageType = "stream_event"
)

// Message is the interface for all wire messages read from the CLI.
type Message interface {
	MsgType() MessageType
}

// SystemMessage represents session initialization and system events.
type SystemMessage struct {
	Type      MessageType `json:"type"`
	Subtype   string      `json:"subtype"`
	SessionID string      `json:"session_id"`
	Model     string      `json:"model,omitempty"`
	CWD       string      `json:"cwd,omitempty"`
	Tools     []string    `json:"tools,omitempty"`
}

// MsgType returns the message type.
func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// Usage tracks token usage on result messages.
type Usage struct {
	InputTokens          int `json:"input_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens"`
	OutputTokens         int `json:"output_tokens"`
}

// ResultMessage contains turn completion metrics.
type ResultMessage struct {
	Type       MessageType `json:"type"`
	Subtype    string      `json:"subtype"`
	SessionID  string      `json:"session_id"`
	Result     string      `json:"result"`
	Usage      Usage       `json:"usage"`
	NumTurns   int         `json:"num_turns"`
	DurationMs int64       `json:"duration_ms"`
	IsError    bool        `json:"is_error"`
}

// MsgType returns the message type.
func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }

// AssistantMessage is a complete (non-streamed) message from the CLI.
// The adapter ignores these; streamed deltas and the result fallback cover
// their content. They are parsed so the session id can be captured.
type AssistantMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

// MsgType returns the message type.
func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// StreamEvent wraps a streaming update. The inner event carries its own type
// discriminator; see ParseStreamEvent.
type StreamEvent struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id"`
	Event     json.RawMessage `json:"event"`
}

// MsgType returns the message type.
func (m StreamEvent) MsgType() MessageType { return MessageTypeStreamEvent }

// ParseMessage parses a single NDJSON line from the CLI into a typed wire
// message. Unknown message types return (nil, nil) — the protocol is allowed
// to grow without breaking older readers.
func ParseMessage(line []byte) (Message, error) {
	var probe struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case MessageTypeSystem:
		var m SystemMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeResult:
		var m ResultMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeAssistant:
		var m AssistantMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeStreamEvent:
		var m StreamEvent
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, nil
	}
}

// StreamEventType discriminates between inner stream event kinds.
type StreamEventType string

const (
	StreamEventTypeContentBlockStart StreamEventType = "content_block_start"
	StreamEventTypeContentBlockDelta StreamEventType = "content_block_delta"
	StreamEventTypeContentBlockStop  StreamEventType = "content_block_stop"
)

// StreamEventData is the interface for inner stream events.
type StreamEventData interface {
	EventType() StreamEventType
}

// ContentBlock describes the block opened by a content_block_start event.
type ContentBlock struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"` // tool name for tool_use blocks
}

// ContentBlockStart opens a new content block.
type ContentBlockStart struct {
	Type         StreamEventType `json:"type"`
	ContentBlock ContentBlock    `json:"content_block"`
	Index        int             `json:"index"`
}

// EventType returns the stream event type.
func (e ContentBlockStart) EventType() StreamEventType { return StreamEventTypeContentBlockStart }

// ContentBlockDelta carries incremental block content.
type ContentBlockDelta struct {
	Type  StreamEventType `json:"type"`
	Delta Delta           `json:"delta"`
	Index int             `json:"index"`
}

// Delta is the payload of a content_block_delta event.
type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
}

// EventType returns the stream event type.
func (e ContentBlockDelta) EventType() StreamEventType { return StreamEventTypeContentBlockDelta }

// ContentBlockStop marks block completion.
type ContentBlockStop struct {
	Type  StreamEventType `json:"type"`
	Index int             `json:"index"`
}

// EventType returns the stream event type.
func (e ContentBlockStop) EventType() StreamEventType { return StreamEventTypeContentBlockStop }

// ParseStreamEvent parses the inner event of a StreamEvent. Lifecycle events
// the adapter does not act on (message_start, message_delta, message_stop)
// and unknown types return (nil, nil).
func ParseStreamEvent(m StreamEvent) (StreamEventData, error) {
	var probe struct {
		Type StreamEventType `json:"type"`
	}
	if err := json.Unmarshal(m.Event, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case StreamEventTypeContentBlockStart:
		var e ContentBlockStart
		if err := json.Unmarshal(m.Event, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeContentBlockDelta:
		var e ContentBlockDelta
		if err := json.Unmarshal(m.Event, &e); err != nil {
			return nil, err
		}
		return e, nil
	case StreamEventTypeContentBlockStop:
		var e ContentBlockStop
		if err := json.Unmarshal(m.Event, &e); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, nil
	}
}

// userTextMessage is the NDJSON frame for sending a user turn to the CLI.
type userTextMessage struct {
	Type    string           `json:"type"`
	Message userMessageInner `json:"message"`
}

type userMessageInner struct {
	Role    string        `json:"role"`
	Content []userContent `json:"content"`
}

type userContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// newUserTextMessage builds a user turn frame.
func newUserTextMessage(text string) userTextMessage {
	return userTextMessage{
		Type: "user",
		Message: userMessageInner{
			Role:    "user",
			Content: []userContent{{Type: "text", Text: text}},
		},
	}
}
