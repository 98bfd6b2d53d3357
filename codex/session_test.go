package codex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/provider"
)

// streamSession builds a session with a hand-fed event channel, bypassing the
// subprocess. Only Stream behavior is exercised.
func streamSession() (*InteractiveSession, chan event.Event) {
	events := make(chan event.Event, 16)
	return &InteractiveSession{
		events: events,
		closed: make(chan struct{}),
	}, events
}

func TestStream_ReturnsAfterResult(t *testing.T) {
	s, events := streamSession()

	events <- event.ToolStart{Name: "Bash"}
	events <- event.ToolEnd{Name: "Bash", Detail: "ls"}
	events <- event.Result{Success: true}

	var seen []event.Event
	err := s.Stream(context.Background(), func(ev event.Event) error {
		seen = append(seen, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestStream_BeforeFirstSend(t *testing.T) {
	s := &InteractiveSession{closed: make(chan struct{})}
	err := s.Stream(context.Background(), func(event.Event) error { return nil })
	assert.ErrorIs(t, err, ErrStreamEnded)
}

func TestStream_ProcessDeathMidTurn(t *testing.T) {
	s, events := streamSession()
	events <- event.TextDelta{Text: "partial"}
	close(events)

	err := s.Stream(context.Background(), func(event.Event) error { return nil })
	assert.ErrorIs(t, err, ErrStreamEnded)
}

func TestStream_AfterClose(t *testing.T) {
	s, events := streamSession()
	close(s.closed)
	close(events)

	err := s.Stream(context.Background(), func(event.Event) error { return nil })
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestStream_DrainsTurnDespiteCancelledContext(t *testing.T) {
	s, events := streamSession()
	events <- event.ToolEnd{Name: "Bash", Detail: "ls"}
	events <- event.Result{Success: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An in-progress turn always drains to its Result; cancellation is
	// observed between turns, never mid-turn.
	var seen int
	err := s.Stream(ctx, func(event.Event) error { seen++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestThreadIDCapture(t *testing.T) {
	s := &InteractiveSession{closed: make(chan struct{})}

	assert.Empty(t, s.ThreadID())
	s.setThreadID("th_abc")
	assert.Equal(t, "th_abc", s.ThreadID())
}

func TestSendAfterClose(t *testing.T) {
	b := New()
	sess, err := b.NewInteractive(context.Background(), provider.Config{Prompt: "hi"})
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	assert.ErrorIs(t, sess.Send(context.Background(), "hello"), ErrSessionClosed)
}
