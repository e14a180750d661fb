// Package engine implements the cooking assistant's command dispatcher:
// the step cursor, voice command handling, timer creation and the
// language-model assistant, all narrated through a single notifier.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/timer"
)

// DefaultQueueSize is the request buffer used by Run.
const DefaultQueueSize = 32

// Option configures the engine.
type Option func(*Engine)

// WithAssistant enables Ask and Elaborate.
func WithAssistant(a domain.Assistant) Option {
	return func(e *Engine) {
		e.assistant = a
	}
}

// WithClock sets the clock used for session timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithQueueSize sets how many requests may wait for the run loop.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// Engine owns the cooking session. It depends only on interfaces and the
// timer registry, and is fully testable with mocks.
type Engine struct {
	recipes   domain.RecipeSource
	parser    domain.IntentParser
	timers    *timer.Registry
	notifier  domain.Notifier
	assistant domain.Assistant
	clock     clock.Clock
	log       *logger.Logger

	queueSize int
	queue     chan *request

	mu      sync.RWMutex
	session domain.Session
}

// Reply describes what one request did. Narration is the text that was
// sent to the notifier, or "" when nothing was said.
type Reply struct {
	Command   domain.Command
	Narration string
	StepIndex int
	Timer     *domain.Timer
}

// State is a snapshot of the cooking view.
type State struct {
	Recipe      *domain.Recipe
	StepIndex   int
	Step        string
	HasNext     bool
	HasPrevious bool
	// StepTimer is the current step's suggested timer, 0 when it has none.
	StepTimer   time.Duration
	Timers      []domain.Timer
}

// New creates a cooking engine with the given dependencies and options.
func New(
	recipes domain.RecipeSource,
	parser domain.IntentParser,
	timers *timer.Registry,
	notifier domain.Notifier,
	log *logger.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		recipes:   recipes,
		parser:    parser,
		timers:    timers,
		notifier:  notifier,
		clock:     clock.System{},
		log:       log,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = make(chan *request, e.queueSize)
	return e
}

// State returns a copy of the current cooking view.
func (e *Engine) State() State {
	e.mu.RLock()
	s := State{
		Recipe:      e.session.Recipe,
		StepIndex:   e.session.StepIndex,
		Step:        e.session.CurrentStep(),
		HasNext:     e.session.HasNext(),
		HasPrevious: e.session.HasPrevious(),
		StepTimer:   e.session.Recipe.StepTimer(e.session.StepIndex),
	}
	e.mu.RUnlock()

	if e.timers != nil {
		s.Timers = e.timers.List()
	}
	return s
}

// Timers returns the registry the engine creates timers in.
func (e *Engine) Timers() *timer.Registry {
	return e.timers
}

// Dispatch carries out one command and narrates exactly one
// acknowledgment. The only silent case is Repeat on an empty step.
// Dispatch is not safe for concurrent use; Run serializes callers.
func (e *Engine) Dispatch(ctx context.Context, cmd domain.Command) Reply {
	reply := Reply{Command: cmd}

	switch cmd.Kind {
	case domain.CommandNext, domain.CommandPrevious, domain.CommandRepeat:
		reply.Narration = e.navigate(cmd.Kind)

	case domain.CommandCreateTimer:
		t, err := e.timers.Create(cmd.Label, cmd.Seconds)
		if err != nil {
			e.log.Error("creating timer from %q: %v", cmd.Transcript, err)
			reply.Narration = LineTimerFailed()
			break
		}
		reply.Timer = t
		reply.Narration = LineTimerStarted(t.Label, cmd.Quantity, cmd.Unit)

	case domain.CommandNutritionQuery:
		e.mu.RLock()
		r := e.session.Recipe
		e.mu.RUnlock()
		if r != nil && r.Nutrition != nil {
			reply.Narration = LineNutrition(r.Title, r.Nutrition, r.Allergens)
		} else {
			reply.Narration = LineNutritionPending()
		}

	default:
		reply.Narration = LineUnrecognized()
	}

	reply.StepIndex = e.stepIndex()
	e.say(ctx, reply.Narration)
	return reply
}

// navigate moves the cursor and returns what to say.
func (e *Engine) navigate(kind domain.CommandKind) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.session
	if s.Recipe == nil {
		return LinePickRecipe()
	}

	switch kind {
	case domain.CommandNext:
		if !s.HasNext() {
			return LineLastStep()
		}
		s.StepIndex++
	case domain.CommandPrevious:
		if !s.HasPrevious() {
			return LineFirstStep()
		}
		s.StepIndex--
	}
	s.UpdatedAt = e.clock.Now()
	return s.CurrentStep()
}

// choose opens a recipe at its first step and narrates it.
func (e *Engine) choose(ctx context.Context, r *domain.Recipe) Reply {
	now := e.clock.Now()

	e.mu.Lock()
	e.session = domain.Session{Recipe: r, StepIndex: 0, StartedAt: now, UpdatedAt: now}
	e.mu.Unlock()

	e.log.Info("cooking %q (%d steps)", r.Title, len(r.Steps))

	text := r.Step(0)
	if text == "" {
		text = LineNoInstructions()
	}
	e.say(ctx, text)
	return Reply{Narration: text}
}

// search queries the recipe source. Empty queries return nothing silently.
func (e *Engine) search(ctx context.Context, query string) ([]domain.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	results, err := e.recipes.Search(ctx, query)
	if err != nil {
		e.log.Error("searching recipes for %q: %v", query, err)
		e.say(ctx, LineSearchFailed())
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	if len(results) == 0 {
		e.say(ctx, LineNoResults())
	}
	return results, nil
}

// assist forwards a question, or an empty one for step guidance, to the
// assistant and narrates the answer.
func (e *Engine) assist(ctx context.Context, question string, constraints map[string]string, requireRecipe bool) (Reply, error) {
	e.mu.RLock()
	recipe, idx := e.session.Recipe, e.session.StepIndex
	e.mu.RUnlock()

	if requireRecipe && recipe == nil {
		e.say(ctx, LinePickRecipe())
		return Reply{Narration: LinePickRecipe()}, domain.ErrNoRecipe
	}

	if e.assistant == nil {
		e.say(ctx, LineAssistantUnavailable())
		return Reply{Narration: LineAssistantUnavailable(), StepIndex: idx}, domain.ErrAssistantUnavailable
	}

	text, err := e.assistant.Assist(ctx, domain.AssistRequest{
		Recipe:      recipe,
		StepIndex:   idx,
		Constraints: constraints,
		Question:    question,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		e.log.Error("assistant: %v", err)
		e.say(ctx, LineAssistantUnavailable())
		return Reply{Narration: LineAssistantUnavailable(), StepIndex: idx},
			fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
	}

	text = strings.TrimSpace(text)
	e.say(ctx, text)
	return Reply{Narration: text, StepIndex: idx}, nil
}

func (e *Engine) stepIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.StepIndex
}

// say narrates text through the notifier. Empty text is skipped.
func (e *Engine) say(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if err := e.notifier.Notify(ctx, text); err != nil {
		e.log.Warn("narrating: %v", err)
	}
}
