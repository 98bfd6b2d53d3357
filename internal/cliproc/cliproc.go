// Package cliproc manages an agent CLI subprocess speaking a line-oriented
// JSON protocol on stdout, with optional NDJSON input on stdin.
package cliproc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/amanape/sauna/internal/logging"
)

// maxLineSize bounds a single protocol line. Tool results can carry large
// file contents, so the cap is generous.
const maxLineSize = 10 * 1024 * 1024

const stopGracePeriod = 5 * time.Second

// Process is a running CLI subprocess.
type Process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	logger  *slog.Logger

	mu       sync.Mutex
	stopOnce sync.Once
	waitErr  error
	waited   bool
}

// Options configures process startup.
type Options struct {
	// Binary is the executable name or path.
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory; empty means inherit.
	Dir string
	// Stdin enables a stdin pipe for NDJSON input.
	Stdin bool
	// Logger receives debug logs; nil disables logging.
	Logger *slog.Logger
}

// Start spawns the subprocess and wires its pipes. Stderr is inherited so
// backend diagnostics reach the user's terminal.
func Start(opts Options) (*Process, error) {
	cmd := exec.Command(opts.Binary, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Stderr = os.Stderr

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var stdin io.WriteCloser
	if opts.Stdin {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdin = pipe
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Binary, err)
	}
	logger.Debug("process started", "binary", opts.Binary, "pid", cmd.Process.Pid)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Process{
		cmd:     cmd,
		stdin:   stdin,
		scanner: scanner,
		logger:  logger,
	}, nil
}

// ReadLine returns the next non-empty protocol line, or io.EOF when the
// subprocess closes stdout.
func (p *Process) ReadLine() ([]byte, error) {
	for p.scanner.Scan() {
		line := p.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// Copy: the scanner reuses its buffer on the next Scan.
		out := make([]byte, len(line))
		copy(out, line)
		p.logger.Log(context.Background(), logging.LevelTrace, "wire line", "line", string(out))
		return out, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// WriteMessage marshals v and writes it as one NDJSON line to stdin.
func (p *Process) WriteMessage(v any) error {
	if p.stdin == nil {
		return errors.New("process has no stdin pipe")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

// Wait blocks until the subprocess exits and returns its exit error.
// Safe to call more than once.
func (p *Process) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.waited {
		p.waitErr = p.cmd.Wait()
		p.waited = true
	}
	return p.waitErr
}

// Stop shuts the subprocess down: close stdin, wait with a grace period,
// then kill. Safe to call more than once.
func (p *Process) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		if p.stdin != nil {
			_ = p.stdin.Close()
		}

		done := make(chan error, 1)
		go func() { done <- p.Wait() }()

		select {
		case err = <-done:
		case <-time.After(stopGracePeriod):
			p.logger.Debug("grace period elapsed, killing process", "pid", p.cmd.Process.Pid)
			_ = p.cmd.Process.Kill()
			err = <-done
		}
	})
	return err
}
