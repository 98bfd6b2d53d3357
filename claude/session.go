package claude

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/internal/cliproc"
	"github.com/amanape/sauna/provider"
)

const eventBufferSize = 64

// ErrSessionClosed is returned by Send and Stream after Close.
var ErrSessionClosed = errors.New("claude: session is closed")

// ErrStreamEnded is returned by Stream when the subprocess ends mid-turn.
var ErrStreamEnded = errors.New("claude: session ended without a result")

func startProcess(binary string, args []string, cfg provider.Config, stdin bool) (*cliproc.Process, error) {
	return cliproc.Start(cliproc.Options{
		Binary: binary,
		Args:   args,
		Dir:    cfg.WorkDir,
		Stdin:  stdin,
		Logger: cfg.Logger,
	})
}

// pumpEvents reads wire messages until EOF, translating each into canonical
// events on out. onSessionID, when non-nil, receives every session id seen.
// closed, when non-nil, aborts channel sends once it is closed.
func pumpEvents(proc *cliproc.Process, st *State, cfg provider.Config, out chan<- event.Event, onSessionID func(string), closed <-chan struct{}) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for {
		line, err := proc.ReadLine()
		if err != nil {
			return
		}

		msg, err := ParseMessage(line)
		if err != nil {
			logger.Debug("skipping unparseable line", "error", err)
			continue
		}
		if msg == nil {
			continue
		}

		if onSessionID != nil {
			if id := sessionID(msg); id != "" {
				onSessionID(id)
			}
		}

		for _, ev := range Translate(msg, st) {
			if closed == nil {
				out <- ev
				continue
			}
			select {
			case out <- ev:
			case <-closed:
				return
			}
		}
	}
}

// logSessionID returns a callback that debug-logs each newly observed
// session id, or nil when no logger is configured.
func logSessionID(cfg provider.Config) func(string) {
	logger := cfg.Logger
	if logger == nil {
		return nil
	}
	var last string
	return func(id string) {
		if id != last {
			last = id
			logger.Debug("session established", "session_id", id, "model", cfg.Model)
		}
	}
}

// sessionID extracts the backend-assigned session id carried by a message,
// or "" when the message has none.
func sessionID(msg Message) string {
	switch m := msg.(type) {
	case SystemMessage:
		return m.SessionID
	case AssistantMessage:
		return m.SessionID
	case StreamEvent:
		return m.SessionID
	case ResultMessage:
		return m.SessionID
	}
	return ""
}

// InteractiveSession is a multi-turn conversation over one long-lived
// subprocess speaking stream-json on both stdin and stdout.
type InteractiveSession struct {
	proc   *cliproc.Process
	events chan event.Event
	cfg    provider.Config

	mu        sync.Mutex
	sessionID string
	firstTurn bool

	closeOnce sync.Once
	closed    chan struct{}
}

var _ provider.InteractiveSession = (*InteractiveSession)(nil)

// NewInteractive opens a multi-turn session.
func (b *Backend) NewInteractive(ctx context.Context, cfg provider.Config) (provider.InteractiveSession, error) {
	args := append([]string{"--input-format", "stream-json"}, b.baseArgs(b.ResolveModel(cfg.Model))...)

	proc, err := startProcess(b.binary, args, cfg, true)
	if err != nil {
		return nil, err
	}

	s := &InteractiveSession{
		proc:      proc,
		events:    make(chan event.Event, eventBufferSize),
		cfg:       cfg,
		firstTurn: true,
		closed:    make(chan struct{}),
	}

	onID := s.setSessionID
	if logID := logSessionID(cfg); logID != nil {
		onID = func(id string) {
			s.setSessionID(id)
			logID(id)
		}
	}

	go func() {
		defer close(s.events)
		st := NewState()
		pumpEvents(proc, st, cfg, s.events, onID, s.closed)
	}()

	return s, nil
}

func (s *InteractiveSession) setSessionID(id string) {
	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()
}

// SessionID returns the backend-assigned session id, or "" before the
// backend reports one.
func (s *InteractiveSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Send enqueues one user turn. The first turn is expanded with the session's
// context attachments; later turns are sent verbatim.
func (s *InteractiveSession) Send(ctx context.Context, message string) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	s.mu.Lock()
	if s.firstTurn {
		message = provider.ExpandPrompt(message, s.cfg.ContextPaths)
		s.firstTurn = false
	}
	s.mu.Unlock()

	return s.proc.WriteMessage(newUserTextMessage(message))
}

// Stream drains one turn's worth of events, invoking handler for each. It
// pulls events one at a time and returns once a Result event is observed,
// leaving the subprocess running for the next Send. An in-progress turn is
// never abandoned: cancellation is only observed by callers between turns.
func (s *InteractiveSession) Stream(ctx context.Context, handler func(event.Event) error) error {
	for {
		ev, ok := <-s.events
		if !ok {
			select {
			case <-s.closed:
				return ErrSessionClosed
			default:
			}
			return ErrStreamEnded
		}
		if err := handler(ev); err != nil {
			return err
		}
		if ev.Type() == event.EventTypeResult {
			return nil
		}
	}
}

// Close shuts the subprocess down. Idempotent. The subprocess exit status is
// ignored: a session torn down on purpose is not an error.
func (s *InteractiveSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.proc.Stop()
	})
	return nil
}
