package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Request states. The loop and a cancelled caller race to move a queued
// request out of reqQueued; whoever wins decides whether fn runs.
const (
	reqQueued int32 = iota
	reqClaimed
	reqAbandoned
)

// request is one unit of work for the run loop.
type request struct {
	ctx   context.Context
	fn    func(ctx context.Context)
	state atomic.Int32
	done  chan struct{}
}

// Run processes requests one at a time, in arrival order, until ctx is
// cancelled. Voice transcripts, button presses and assistant questions all
// pass through here, so narration never interleaves. Blocks; run it in its
// own goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info("engine loop started")
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine loop stopped")
			return
		case req := <-e.queue:
			if req.state.CompareAndSwap(reqQueued, reqClaimed) {
				req.fn(req.ctx)
				close(req.done)
			}
		}
	}
}

// submit queues fn and waits until the run loop has executed it. A full
// queue blocks the caller; nothing is dropped. If ctx ends before the loop
// picks the request up, fn never runs. Once the loop has claimed it, the
// caller waits for fn to finish and gets its result, so a command that
// took effect is never reported as cancelled.
func (e *Engine) submit(ctx context.Context, fn func(ctx context.Context)) error {
	req := &request{ctx: ctx, fn: fn, done: make(chan struct{})}

	select {
	case e.queue <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		if req.state.CompareAndSwap(reqQueued, reqAbandoned) {
			return ctx.Err()
		}
		<-req.done
		return nil
	}
}

// Hear classifies a transcript and dispatches the resulting command.
func (e *Engine) Hear(ctx context.Context, transcript string) (Reply, error) {
	var reply Reply
	err := e.submit(ctx, func(ctx context.Context) {
		cmd, perr := e.parser.Parse(ctx, transcript)
		if perr != nil {
			e.log.Warn("parsing %q: %v", transcript, perr)
			cmd = domain.Command{Kind: domain.CommandUnrecognized, Transcript: transcript}
		}
		reply = e.Dispatch(ctx, cmd)
	})
	return reply, err
}

// Do dispatches a command that did not come from speech, such as a
// button press.
func (e *Engine) Do(ctx context.Context, cmd domain.Command) (Reply, error) {
	var reply Reply
	err := e.submit(ctx, func(ctx context.Context) {
		reply = e.Dispatch(ctx, cmd)
	})
	return reply, err
}

// Choose opens a recipe at its first step and narrates it.
func (e *Engine) Choose(ctx context.Context, r *domain.Recipe) (Reply, error) {
	if r == nil {
		return Reply{}, domain.ErrNoRecipe
	}
	var reply Reply
	err := e.submit(ctx, func(ctx context.Context) {
		reply = e.choose(ctx, r)
	})
	return reply, err
}

// ChooseByID loads a recipe from the source and opens it.
func (e *Engine) ChooseByID(ctx context.Context, id string) (Reply, error) {
	r, err := e.recipes.Get(ctx, id)
	if err != nil {
		return Reply{}, fmt.Errorf("loading recipe %s: %w", id, err)
	}
	return e.Choose(ctx, r)
}

// Search looks up recipes, narrating when nothing comes back or the
// source fails.
func (e *Engine) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	var (
		results []domain.Recipe
		serr    error
	)
	if err := e.submit(ctx, func(ctx context.Context) {
		results, serr = e.search(ctx, query)
	}); err != nil {
		return nil, err
	}
	return results, serr
}

// Ask forwards a free-form question to the assistant. Without a recipe
// the assistant answers as a general cooking helper.
func (e *Engine) Ask(ctx context.Context, question string, constraints map[string]string) (Reply, error) {
	var (
		reply Reply
		aerr  error
	)
	if err := e.submit(ctx, func(ctx context.Context) {
		reply, aerr = e.assist(ctx, question, constraints, false)
	}); err != nil {
		return Reply{}, err
	}
	return reply, aerr
}

// Elaborate asks the assistant to expand on the current step.
func (e *Engine) Elaborate(ctx context.Context) (Reply, error) {
	var (
		reply Reply
		aerr  error
	)
	if err := e.submit(ctx, func(ctx context.Context) {
		reply, aerr = e.assist(ctx, "", nil, true)
	}); err != nil {
		return Reply{}, err
	}
	return reply, aerr
}
