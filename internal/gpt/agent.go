package gpt

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.Assistant = (*Agent)(nil)

// Chatter sends a conversation and returns the model's reply. *Client
// implements it.
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// AgentOption configures the Agent.
type AgentOption func(*Agent)

// WithTimers lets the agent describe running timers in its context, so
// "how long is left on the pasta" gets a real answer.
func WithTimers(list func() []domain.Timer) AgentOption {
	return func(a *Agent) { a.timers = list }
}

// Agent wraps the chat client with cooking-domain context building.
// It is the single entry-point the engine calls for AI-powered features.
type Agent struct {
	client Chatter
	log    *logger.Logger
	timers func() []domain.Timer
}

// NewAgent creates a cooking AI agent backed by the given client.
func NewAgent(client Chatter, log *logger.Logger, opts ...AgentOption) *Agent {
	a := &Agent{client: client, log: log}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ── Public API ───────────────────────────────────────────────────

// Assist picks a prompt for the request and returns the model's answer:
//   - no question: elaborate on the current step (needs a recipe)
//   - a question with a recipe: recipe help with full context
//   - a question without a recipe: general cooking help
func (a *Agent) Assist(ctx context.Context, req domain.AssistRequest) (string, error) {
	question := strings.TrimSpace(req.Question)

	var messages []Message
	switch {
	case question == "" && req.Recipe == nil:
		return "", domain.ErrNoRecipe
	case question == "":
		messages = a.elaborateMessages(req)
	case req.Recipe == nil:
		messages = []Message{
			TextMessage(RoleSystem, PromptGeneralHelp),
			TextMessage(RoleUser, fmt.Sprintf("Question: %q", question)),
		}
	default:
		messages = a.helpMessages(req, question)
	}

	a.log.Debug("gpt: assist (recipe=%v, question=%q)", req.Recipe != nil, truncate(question, 60))

	raw, err := a.client.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	answer := stripCodeFence(raw)
	if answer == "" {
		return "", fmt.Errorf("gpt: empty answer")
	}
	return answer, nil
}

// stripCodeFence removes ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// ── Context building ─────────────────────────────────────────────

func (a *Agent) elaborateMessages(req domain.AssistRequest) []Message {
	r := req.Recipe
	var b strings.Builder
	fmt.Fprintf(&b, "Recipe: %q\n", r.Title)
	writeConstraints(&b, req.Constraints)
	fmt.Fprintf(&b, "\nCURRENT STEP %d: %q\n", req.StepIndex+1, r.Step(req.StepIndex))

	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ingredientLine(ing))
	}
	if len(names) == 0 {
		b.WriteString("\nIngredients: not specified\n")
	} else {
		fmt.Fprintf(&b, "\nIngredients: %s\n", strings.Join(names, ", "))
	}

	return []Message{
		TextMessage(RoleSystem, PromptElaborateStep),
		TextMessage(RoleUser, b.String()),
	}
}

func (a *Agent) helpMessages(req domain.AssistRequest, question string) []Message {
	return []Message{
		TextMessage(RoleSystem, PromptRecipeHelp),
		TextMessage(RoleUser, a.buildContext(req)),
		// Fake an ack so the model treats context as established.
		TextMessage(RoleAssistant, "Got it, I have the recipe."),
		TextMessage(RoleUser, question),
	}
}

// buildContext serializes the recipe, the cook's position and any running
// timers into a plain-text block the model can reason over.
func (a *Agent) buildContext(req domain.AssistRequest) string {
	r := req.Recipe

	var b strings.Builder
	b.WriteString("[Recipe]\n")
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Category: %s\n", orUnknown(r.Category))
	fmt.Fprintf(&b, "Cuisine: %s\n", orUnknown(r.Area))

	b.WriteString("\nIngredients:\n")
	if len(r.Ingredients) == 0 {
		b.WriteString("- not specified\n")
	}
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "- %s\n", ingredientLine(ing))
	}

	b.WriteString("\nSteps:\n")
	if len(r.Steps) == 0 {
		b.WriteString("No instructions available.\n")
	}
	for i, step := range r.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\n[Position]\n")
	fmt.Fprintf(&b, "Currently on step %d of %d: %q\n", req.StepIndex+1, len(r.Steps), r.Step(req.StepIndex))
	writeConstraints(&b, req.Constraints)

	if a.timers != nil {
		b.WriteString("\n[Timers]\n")
		timers := a.timers()
		if len(timers) == 0 {
			b.WriteString("No timers.\n")
		}
		for _, t := range timers {
			fmt.Fprintf(&b, "%s: %s, %s left\n", t.Label, t.Status(), formatDuration(t.Remaining))
		}
	}

	return b.String()
}

func writeConstraints(b *strings.Builder, c map[string]string) {
	if len(c) == 0 {
		return
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("Special requirements:\n")
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %s\n", k, c[k])
	}
}

func ingredientLine(ing domain.Ingredient) string {
	if ing.Measure == "" {
		return ing.Name
	}
	return ing.Measure + " " + ing.Name
}

func orUnknown(s string) string {
	if s == "" {
		return "not specified"
	}
	return s
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
