package speech

import (
	"fmt"
	"math/rand"
	"strings"
)

// Lines spoken by the cook-mode front end around the engine's own
// narration.

func LineWelcome() string {
	return "Hello. What are we cooking today?"
}

func LineBye() string {
	return "Bye."
}

func LineVoiceUnavailable() string {
	return "Voice input isn't available here. Type your commands instead."
}

// LineRecipeSelected reads out the ingredients so the cook can gather
// them before step one.
func LineRecipeSelected(title string, ingredients []string) string {
	if len(ingredients) == 0 {
		return title + "."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s. You'll need ", title)
	for i, ing := range ingredients {
		switch {
		case i > 0 && i == len(ingredients)-1:
			b.WriteString(" and ")
		case i > 0:
			b.WriteString(", ")
		}
		b.WriteString(ing)
	}
	b.WriteString(".")
	return b.String()
}

var listeningFillers = []string{
	"I'm listening.",
	"Listening.",
	"Yes chef?",
	"What do you need?",
	"I'm here.",
}

// LineListening returns a random acknowledgment for an opened session.
func LineListening() string {
	return listeningFillers[rand.Intn(len(listeningFillers))]
}

// ListeningFillers returns every acknowledgment so they can be
// prefetched.
func ListeningFillers() []string {
	out := make([]string, len(listeningFillers))
	copy(out, listeningFillers)
	return out
}
