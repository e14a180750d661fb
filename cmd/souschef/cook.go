package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/conversation"
	"github.com/hammamikhairi/souschef/internal/display"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/speech"
)

const (
	// How long to let narration finish before moving on or exiting.
	ingredientsWait = 20 * time.Second
	goodbyeWait     = 3 * time.Second
	// Pause before reopening the microphone after a failed session.
	listenRetry = time.Second
)

var errNotTerminal = errors.New("cook needs an interactive terminal; use `souschef serve` for the HTTP API")

const helpText = `Say or type: next, go back, say again, set a pasta timer for 8 minutes.
Also: explain, ask <question>, start timer, timers, pause/resume/cancel <timer>, clear timers, quit.`

func newCookCmd(a *app) *cobra.Command {
	var (
		query string
		voice bool
	)

	cmd := &cobra.Command{
		Use:   "cook",
		Short: "Cook a recipe in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal() {
				return errNotTerminal
			}
			return a.cook(cmd.Context(), query, voice)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search recipes before picking one")
	cmd.Flags().BoolVar(&voice, "voice", false, "listen for spoken commands with the local Whisper model")
	return cmd
}

func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (a *app) cook(ctx context.Context, query string, voice bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := a.wire(ctx)
	if err != nil {
		return err
	}

	r, err := pickRecipe(ctx, d.recipes, query)
	if errors.Is(err, huh.ErrUserAborted) {
		return nil
	}
	if err != nil {
		return err
	}

	var eng *engine.Engine
	ui := display.NewUI(display.StatusFunc(func() display.Status {
		return cookStatus(eng.State())
	}))
	var notifier domain.Notifier = conversation.NewCLINotifier(a.log.Named("cli"), ui.Printf)
	if d.narrator != nil {
		notifier = speech.NewSpeakingNotifier(notifier, d.narrator, a.log.Named("voice"))
		d.narrator.Prefetch(ctx, speech.ListeningFillers()...)
		d.narrator.Prefetch(ctx, r.Steps...)
	}

	eng = a.engine(d, notifier)
	go eng.Run(ctx)

	sup := a.supervisor(d.timers, notifier)
	sup.Start(ctx)
	defer sup.Stop()

	s := &cookSession{
		eng:      eng,
		ui:       ui,
		narrator: d.narrator,
		log:      a.log.Named("cook"),
		language: a.cfg.Speech.Language,
		voiceCh:  make(chan string, 1),
		offered:  -1,
	}
	tagline := "Type 'help' for commands, 'quit' to exit."
	if voice {
		s.rec = a.recognizer(d.narrator)
		tagline = "Voice mode on. Speak or type commands, 'quit' to exit."
	}

	fmt.Println(display.RenderBanner(tagline))
	fmt.Println()

	go func() {
		ui.WaitReady()
		s.run(ctx, r)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal until quit.
	err = ui.Run()
	cancel()
	return err
}

// ── Recipe picker ────────────────────────────────────────────────

// pickRecipe searches src and lets the cook choose when more than one
// recipe matches.
func pickRecipe(ctx context.Context, src domain.RecipeSource, query string) (*domain.Recipe, error) {
	found, err := src.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching recipes: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no recipes match %q: %w", query, domain.ErrNotFound)
	}

	id := found[0].ID
	if len(found) > 1 {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("What are we cooking?").
					Options(recipeOptions(found)...).
					Value(&id),
			),
		).WithTheme(huh.ThemeCharm()).WithShowHelp(false)
		if err := form.RunWithContext(ctx); err != nil {
			return nil, err
		}
	}
	return src.Get(ctx, id)
}

func recipeOptions(recipes []domain.Recipe) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(recipes))
	for _, r := range recipes {
		label := r.Title
		var tags []string
		for _, t := range []string{r.Area, r.Category} {
			if t != "" {
				tags = append(tags, t)
			}
		}
		if len(tags) > 0 {
			label = fmt.Sprintf("%s (%s)", r.Title, strings.Join(tags, ", "))
		}
		options = append(options, huh.NewOption(label, r.ID))
	}
	return options
}

// cookStatus maps the engine state onto the status line.
func cookStatus(st engine.State) display.Status {
	s := display.Status{Timers: st.Timers}
	if st.Recipe != nil {
		s.Recipe = st.Recipe.Title
		s.Steps = len(st.Recipe.Steps)
		if s.Steps > 0 {
			s.Step = st.StepIndex + 1
		}
	}
	return s
}

func ingredientNames(r *domain.Recipe) []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.Name != "" {
			names = append(names, strings.ToLower(ing.Name))
		}
	}
	return names
}

// ── Session ──────────────────────────────────────────────────────

// cookSession feeds typed and spoken input to the engine.
type cookSession struct {
	eng      *engine.Engine
	ui       *display.UI
	narrator *speech.Narrator   // nil when narration is off
	rec      *speech.Recognizer // nil without --voice
	log      *logger.Logger
	language string
	voiceCh  chan string
	offered  int // step whose suggested timer was last offered, -1 for none
}

func (s *cookSession) run(ctx context.Context, r *domain.Recipe) {
	s.say(speech.LineWelcome())
	s.say(speech.LineRecipeSelected(r.Title, ingredientNames(r)))
	// Step one would cut the ingredient list off.
	s.waitQuiet(ctx, ingredientsWait)

	if _, err := s.eng.Choose(ctx, r); err != nil {
		s.log.Error("choosing %s: %v", r.ID, err)
		return
	}
	s.ui.PrintHint(helpText)
	s.offerStepTimer()

	if s.rec != nil {
		go s.listen(ctx)
	}

	inputs := s.ui.InputChan()
	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case <-s.ui.QuitChan():
			return
		case input = <-inputs:
		case input = <-s.voiceCh:
			s.ui.PrintVoice(input)
		}

		if !s.handle(ctx, strings.TrimSpace(input)) {
			s.say(speech.LineBye())
			s.waitQuiet(ctx, goodbyeWait)
			return
		}
	}
}

// handle runs one line of input. It returns false when the cook quits.
func (s *cookSession) handle(ctx context.Context, input string) bool {
	lower := strings.ToLower(input)
	verb, arg, _ := strings.Cut(lower, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch {
	case input == "":
	case lower == "quit" || lower == "exit" || lower == "bye":
		return false
	case lower == "help":
		s.ui.PrintHint(helpText)
	case lower == "timers":
		s.showTimers()
	case lower == "start timer" || lower == "start the timer":
		err = s.startStepTimer(ctx)
	case lower == "clear timers":
		n := s.eng.Timers().ClearExpired()
		s.ui.PrintHint(fmt.Sprintf("Cleared %d finished timer(s).", n))
	case (verb == "pause" || verb == "resume" || verb == "cancel") && arg != "":
		s.timerAction(verb, arg)
	case lower == "explain" || lower == "elaborate" || lower == "tell me more":
		_, err = s.eng.Elaborate(ctx)
	case verb == "ask" && arg != "":
		_, err = s.eng.Ask(ctx, strings.TrimSpace(input[len("ask"):]), nil)
	default:
		_, err = s.eng.Hear(ctx, input)
		s.offerStepTimer()
	}

	if err != nil && ctx.Err() == nil {
		s.log.Error("handling %q: %v", input, err)
	}
	return true
}

// offerStepTimer mentions the current step's suggested timer, once per
// step visit.
func (s *cookSession) offerStepTimer() {
	st := s.eng.State()
	if st.StepTimer <= 0 {
		s.offered = -1
		return
	}
	if s.offered == st.StepIndex {
		return
	}
	s.offered = st.StepIndex
	s.ui.PrintHint(fmt.Sprintf("This step takes about %s. Say \"start timer\" to time it.", spokenDuration(st.StepTimer)))
}

// startStepTimer starts the current step's suggested timer through the
// engine, so it is announced like a spoken timer command.
func (s *cookSession) startStepTimer(ctx context.Context) error {
	st := s.eng.State()
	if st.StepTimer <= 0 {
		s.ui.PrintHint("This step has no suggested timer.")
		return nil
	}
	secs := int(st.StepTimer / time.Second)
	cmd := domain.Command{
		Kind:     domain.CommandCreateTimer,
		Label:    fmt.Sprintf("step %d", st.StepIndex+1),
		Seconds:  secs,
		Quantity: float64(secs),
		Unit:     domain.UnitSeconds,
	}
	if secs%60 == 0 {
		cmd.Quantity, cmd.Unit = float64(secs/60), domain.UnitMinutes
	}
	_, err := s.eng.Do(ctx, cmd)
	return err
}

// spokenDuration renders 300s as "5 minutes" and 90s as "90 seconds".
func spokenDuration(d time.Duration) string {
	secs := int(d / time.Second)
	n, unit := secs, "second"
	if secs%60 == 0 {
		n, unit = secs/60, "minute"
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func (s *cookSession) showTimers() {
	timers := s.eng.Timers().List()
	if len(timers) == 0 {
		s.ui.PrintHint("No timers.")
		return
	}
	for i := range timers {
		t := &timers[i]
		s.ui.PrintInstruction(fmt.Sprintf("%-12s %-8s %ds left", t.Label, t.Status(), t.RemainingSeconds()))
	}
}

// timerAction pauses, resumes or cancels the first timer with the given
// label.
func (s *cookSession) timerAction(verb, label string) {
	reg := s.eng.Timers()
	label = strings.TrimSuffix(label, " timer")

	var found *domain.Timer
	for _, t := range reg.List() {
		if strings.EqualFold(t.Label, label) {
			found = &t
			break
		}
	}
	if found == nil {
		s.ui.PrintHint(fmt.Sprintf("No %s timer.", label))
		return
	}

	switch verb {
	case "cancel":
		reg.Remove(found.ID)
		s.say(fmt.Sprintf("Cancelled the %s timer.", found.Label))
	case "pause", "resume":
		// Toggle flips the state, so only call it when it would change.
		if (verb == "pause") != found.Active {
			return
		}
		if _, err := reg.Toggle(found.ID); err != nil {
			s.log.Error("toggling %s: %v", found.ID, err)
			return
		}
		state := "paused"
		if verb == "resume" {
			state = "resumed"
		}
		s.say(fmt.Sprintf("The %s timer is %s.", found.Label, state))
	}
}

// listen keeps recognition sessions open back to back until ctx ends.
// Only the first session speaks a cue, after the opening narration.
func (s *cookSession) listen(ctx context.Context) {
	s.waitQuiet(ctx, ingredientsWait)
	quiet := false
	for ctx.Err() == nil {
		ended := make(chan struct{})
		failed := false
		stop, err := s.rec.Start(ctx, speech.ListenOptions{
			Language: s.language,
			Quiet:    quiet,
			OnResult: func(text string) {
				select {
				case s.voiceCh <- text:
				case <-ctx.Done():
				}
			},
			OnError: func(err error) {
				s.log.Warn("recognition: %v", err)
				failed = true
			},
			OnEnd: func() { close(ended) },
		})
		if errors.Is(err, domain.ErrRecognitionUnsupported) {
			s.say(speech.LineVoiceUnavailable())
			return
		}
		if err != nil {
			s.log.Error("starting recognition: %v", err)
			return
		}
		quiet = true

		s.ui.SetListening(true)
		select {
		case <-ended:
		case <-ctx.Done():
			stop()
			<-ended
		}
		s.ui.SetListening(false)

		if failed {
			select {
			case <-time.After(listenRetry):
			case <-ctx.Done():
			}
		}
	}
}

// say prints a line and speaks it when narration is on.
func (s *cookSession) say(text string) {
	s.ui.PrintChat(text)
	if s.narrator != nil {
		s.narrator.Say(text, speech.PriorityNormal)
	}
}

// waitQuiet blocks until the narrator has nothing left to say, or limit
// passes.
func (s *cookSession) waitQuiet(ctx context.Context, limit time.Duration) {
	if s.narrator == nil {
		return
	}
	deadline := time.After(limit)
	for s.narrator.IsSpeaking() || s.narrator.QueueLen() > 0 {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			return
		case <-ctx.Done():
			return
		}
	}
}
