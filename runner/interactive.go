package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/render"
)

// RunInteractive holds one multi-turn conversation, reading user turns from
// in until EOF or an exit command. Turn failures are reported to the error
// sink and leave the session open for the next turn.
func RunInteractive(ctx context.Context, opts Options, in io.Reader) error {
	sess, err := opts.Provider.NewInteractive(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer sess.Close()

	// One renderer for the whole session: formatting state carries across
	// turns within a conversation.
	r := render.NewRenderer(opts.Out, opts.ErrOut, opts.NoColor)

	// An initial prompt, when configured, becomes the first turn.
	if opts.Config.Prompt != "" {
		if err := runTurn(ctx, opts, sess, r, opts.Config.Prompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(opts.Out, "\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := runTurn(ctx, opts, sess, r, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// runTurn sends one user message and streams its response. A failed turn is
// reported, not fatal; only a broken session ends the conversation.
func runTurn(ctx context.Context, opts Options, sess sessionLike, r *render.Renderer, message string) error {
	if err := sess.Send(ctx, message); err != nil {
		return fmt.Errorf("send turn: %w", err)
	}

	err := sess.Stream(ctx, func(ev event.Event) error {
		r.Handle(ev)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		// Report and keep the session open; the next turn may succeed.
		fmt.Fprintf(opts.errSink(), "Turn failed: %v\n", err)
	}
	return nil
}

// sessionLike is the subset of provider.InteractiveSession runTurn needs.
type sessionLike interface {
	Send(ctx context.Context, message string) error
	Stream(ctx context.Context, handler func(event.Event) error) error
}
