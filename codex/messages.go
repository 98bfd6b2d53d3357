package codex

import (
	"encoding/json"
)

// MessageType discriminates between wire message kinds from codex exec --json.
type MessageType string

const (
	MessageTypeThreadStarted MessageType = "thread.started"
	MessageTypeTurnStarted   MessageType = "turn.started"
	MessageTypeTurnCompleted MessageType = "turn.completed"
	MessageTypeTurnFailed    MessageType = "turn.failed"
	MessageTypeItemStarted   MessageType = "item.started"
	MessageTypeItemUpdated   MessageType = "item.updated"
	MessageTypeItemCompleted MessageType = "item.completed"
	MessageTypeError         MessageType = "error"
)

// Message is the interface for all wire messages read from the CLI.
type Message interface {
	MsgType() MessageType
}

// ThreadStarted announces a new thread. The thread id is the session
// identifier used to resume the conversation on later turns.
type ThreadStarted struct {
	Type     MessageType `json:"type"`
	ThreadID string      `json:"thread_id"`
}

// MsgType returns the message type.
func (m ThreadStarted) MsgType() MessageType { return MessageTypeThreadStarted }

// TurnStarted marks the beginning of a turn.
type TurnStarted struct {
	Type MessageType `json:"type"`
}

// MsgType returns the message type.
func (m TurnStarted) MsgType() MessageType { return MessageTypeTurnStarted }

// Usage contains token usage for a turn.
type Usage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

// TurnCompleted marks a successful turn with usage data.
type TurnCompleted struct {
	Type  MessageType `json:"type"`
	Usage Usage       `json:"usage"`
}

// MsgType returns the message type.
func (m TurnCompleted) MsgType() MessageType { return MessageTypeTurnCompleted }

// TurnFailed marks a failed turn.
type TurnFailed struct {
	Type  MessageType `json:"type"`
	Error ErrorBody   `json:"error"`
}

// MsgType returns the message type.
func (m TurnFailed) MsgType() MessageType { return MessageTypeTurnFailed }

// ErrorBody is the error payload on turn.failed and error messages.
type ErrorBody struct {
	Message string `json:"message"`
}

// Item is a unit of agent activity: a message, a reasoning block, or a tool
// invocation. Raw preserves the full payload for detail extraction.
type Item struct {
	ID         string          `json:"id"`
	ItemType   string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	Command    string          `json:"command,omitempty"`
	Name       string          `json:"name,omitempty"` // mcp_tool_call tool name
	ExitStatus *int            `json:"exit_status,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// ItemStarted opens an item.
type ItemStarted struct {
	Type MessageType `json:"type"`
	Item Item        `json:"item"`
}

// MsgType returns the message type.
func (m ItemStarted) MsgType() MessageType { return MessageTypeItemStarted }

// ItemUpdated carries a fresher snapshot of an in-progress item.
type ItemUpdated struct {
	Type MessageType `json:"type"`
	Item Item        `json:"item"`
}

// MsgType returns the message type.
func (m ItemUpdated) MsgType() MessageType { return MessageTypeItemUpdated }

// ItemCompleted closes an item with its final payload.
type ItemCompleted struct {
	Type MessageType `json:"type"`
	Item Item        `json:"item"`
}

// MsgType returns the message type.
func (m ItemCompleted) MsgType() MessageType { return MessageTypeItemCompleted }

// ErrorMessage is a standalone error outside the turn lifecycle.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// MsgType returns the message type.
func (m ErrorMessage) MsgType() MessageType { return MessageTypeError }

// ParseMessage parses a single JSONL line from codex exec into a typed wire
// message. Unknown message types return (nil, nil).
func ParseMessage(line []byte) (Message, error) {
	var probe struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case MessageTypeThreadStarted:
		var m ThreadStarted
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeTurnStarted:
		return TurnStarted{Type: probe.Type}, nil
	case MessageTypeTurnCompleted:
		var m TurnCompleted
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeTurnFailed:
		var m TurnFailed
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	case MessageTypeItemStarted:
		return parseItemMessage(line, func(it Item) Message { return ItemStarted{Type: probe.Type, Item: it} })
	case MessageTypeItemUpdated:
		return parseItemMessage(line, func(it Item) Message { return ItemUpdated{Type: probe.Type, Item: it} })
	case MessageTypeItemCompleted:
		return parseItemMessage(line, func(it Item) Message { return ItemCompleted{Type: probe.Type, Item: it} })
	case MessageTypeError:
		var m ErrorMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, nil
	}
}

// parseItemMessage decodes an item-bearing message, preserving the raw item
// payload on Item.Raw.
func parseItemMessage(line []byte, build func(Item) Message) (Message, error) {
	var envelope struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, err
	}
	var item Item
	if len(envelope.Item) > 0 {
		if err := json.Unmarshal(envelope.Item, &item); err != nil {
			return nil, err
		}
		item.Raw = envelope.Item
	}
	return build(item), nil
}
