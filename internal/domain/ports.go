package domain

import "context"

// RecipeSource provides recipes. Implementations can be in-memory,
// file-based, or backed by a public recipe API.
type RecipeSource interface {
	Search(ctx context.Context, query string) ([]Recipe, error)
	Get(ctx context.Context, id string) (*Recipe, error)
}

// IntentParser classifies a raw transcript into a command.
type IntentParser interface {
	Parse(ctx context.Context, transcript string) (Command, error)
}

// Notifier delivers messages to the cook. Implementations print,
// speak, or stream them to a browser.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// Narrator speaks text aloud. A new call interrupts whatever is still
// being spoken.
type Narrator interface {
	Speak(ctx context.Context, text string) error
}

// Assistant answers questions about the recipe being cooked.
type Assistant interface {
	Assist(ctx context.Context, req AssistRequest) (string, error)
}

// AssistRequest is the structured request sent to the language-model
// assistant. An empty Question asks for guidance on the current step.
type AssistRequest struct {
	Recipe      *Recipe
	StepIndex   int
	Constraints map[string]string
	Question    string
}

// PantryStore persists pantry items.
type PantryStore interface {
	Add(ctx context.Context, item *PantryItem) error
	List(ctx context.Context) ([]*PantryItem, error)
	Delete(ctx context.Context, id string) error
}
