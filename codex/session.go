package codex

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
var ErrSessionClosed = errors.New("codex: session is closed")

// ErrStreamEnded is returned by Stream when the subprocess ends mid-turn.
var ErrStreamEnded = errors.New("codex: session ended without a result")

func startProcess(binary string, args []string, cfg provider.Config) (*cliproc.Process, error) {
	return cliproc.Start(cliproc.Options{
		Binary: binary,
		Args:   args,
		Dir:    cfg.WorkDir,
		Logger: cfg.Logger,
	})
}

// pumpEvents reads wire messages until EOF, translating each into canonical
// events on out. onThreadID, when non-nil, receives every thread id seen.
// closed, when non-nil, aborts channel sends once it is closed.
func pumpEvents(proc *cliproc.Process, st *State, cfg provider.Config, out chan<- event.Event, onThreadID func(string), closed <-chan struct{}) {
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

		if onThreadID != nil {
			if ts, ok := msg.(ThreadStarted); ok && ts.ThreadID != "" {
				onThreadID(ts.ThreadID)
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

// logThreadID returns a callback that debug-logs each newly observed thread
// id, or nil when no logger is configured.
func logThreadID(cfg provider.Config) func(string) {
	logger := cfg.Logger
	if logger == nil {
		return nil
	}
	var last string
	return func(id string) {
		if id != last {
			last = id
			logger.Debug("thread established", "thread_id", id, "model", cfg.Model)
		}
	}
}

// InteractiveSession is a multi-turn conversation. The CLI has no long-lived
// streaming input mode, so each turn spawns a fresh subprocess; continuity
// comes from resuming the thread id captured on the first turn.
type InteractiveSession struct {
	backend *Backend
	cfg     provider.Config
	model   string

	mu        sync.Mutex
	firstTurn bool
	proc      *cliproc.Process
	events    chan event.Event

	// idMu guards threadID separately: the pump goroutine stores it while
	// Send may be holding mu to reap the previous subprocess.
	idMu     sync.Mutex
	threadID string

	closeOnce sync.Once
	closed    chan struct{}
}

var _ provider.InteractiveSession = (*InteractiveSession)(nil)

// NewInteractive opens a multi-turn session. No subprocess is spawned until
// the first Send.
func (b *Backend) NewInteractive(ctx context.Context, cfg provider.Config) (provider.InteractiveSession, error) {
	return &InteractiveSession{
		backend:   b,
		cfg:       cfg,
		model:     b.ResolveModel(cfg.Model),
		firstTurn: true,
		closed:    make(chan struct{}),
	}, nil
}

// Send starts one user turn by spawning a subprocess for it. The first turn
// is expanded with the session's context attachments and starts a new
// thread; later turns resume the captured thread id verbatim.
func (s *InteractiveSession) Send(ctx context.Context, message string) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		// The previous turn's subprocess exits on its own after its result;
		// reap it and discard anything left after the Result event.
		_ = s.proc.Stop()
		for range s.events {
		}
		s.proc = nil
	}

	resumeID := s.ThreadID()
	if s.firstTurn {
		message = provider.ExpandPrompt(message, s.cfg.ContextPaths)
		s.firstTurn = false
	}

	args := s.backend.execArgs(s.model, resumeID, message)
	proc, err := startProcess(s.backend.binary, args, s.cfg)
	if err != nil {
		return err
	}

	events := make(chan event.Event, eventBufferSize)
	s.proc = proc
	s.events = events

	onID := s.setThreadID
	if logID := logThreadID(s.cfg); logID != nil {
		onID = func(id string) {
			s.setThreadID(id)
			logID(id)
		}
	}

	go func() {
		defer close(events)
		st := NewState()
		pumpEvents(proc, st, s.cfg, events, onID, s.closed)
	}()

	return nil
}

func (s *InteractiveSession) setThreadID(id string) {
	s.idMu.Lock()
	s.threadID = id
	s.idMu.Unlock()
}

// ThreadID returns the backend-assigned thread id, or "" before the backend
// reports one.
func (s *InteractiveSession) ThreadID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.threadID
}

// Stream drains one turn's worth of events, invoking handler for each. It
// pulls events one at a time and returns once a Result event is observed.
// An in-progress turn is never abandoned: cancellation is only observed by
// callers between turns.
func (s *InteractiveSession) Stream(ctx context.Context, handler func(event.Event) error) error {
	s.mu.Lock()
	events := s.events
	s.mu.Unlock()

	if events == nil {
		return ErrStreamEnded
	}

	for {
		ev, ok := <-events
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

// Close shuts down any in-flight subprocess. Idempotent.
func (s *InteractiveSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		proc := s.proc
		s.mu.Unlock()
		if proc != nil {
			_ = proc.Stop()
		}
	})
	return nil
}
