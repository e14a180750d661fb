package gpt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// fakeChat records the conversation it was sent.
type fakeChat struct {
	reply string
	err   error
	sent  []Message
}

func (f *fakeChat) Chat(_ context.Context, messages []Message) (string, error) {
	f.sent = messages
	return f.reply, f.err
}

func (f *fakeChat) text(i int) string {
	return f.sent[i].Content
}

var curry = &domain.Recipe{
	ID:    "curry",
	Title: "Chickpea Curry",
	Area:  "Indian",
	Steps: []string{"Dice onions.", "Fry onions until golden.", "Add chickpeas."},

	Ingredients: []domain.Ingredient{
		{Name: "Onions", Measure: "2 large"},
		{Name: "Salt"},
	},
}

func TestAgentElaborateStep(t *testing.T) {
	chat := &fakeChat{reply: "Keep the heat medium."}
	a := NewAgent(chat, logger.New(logger.LevelOff, nil))

	got, err := a.Assist(context.Background(), domain.AssistRequest{
		Recipe:      curry,
		StepIndex:   1,
		Constraints: map[string]string{"diet": "vegan"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Keep the heat medium.", got)

	require.Len(t, chat.sent, 2)
	assert.Equal(t, PromptElaborateStep, chat.text(0))
	user := chat.text(1)
	assert.Contains(t, user, `CURRENT STEP 2: "Fry onions until golden."`)
	assert.Contains(t, user, "2 large Onions, Salt")
	assert.Contains(t, user, "- diet: vegan")
}

func TestAgentRecipeHelp(t *testing.T) {
	chat := &fakeChat{reply: "```\nAbout eight minutes.\n```"}
	timers := func() []domain.Timer {
		return []domain.Timer{{Label: "onions", Remaining: 90 * time.Second, Active: true}}
	}
	a := NewAgent(chat, logger.New(logger.LevelOff, nil), WithTimers(timers))

	got, err := a.Assist(context.Background(), domain.AssistRequest{
		Recipe:    curry,
		StepIndex: 0,
		Question:  "how long do the onions take?",
	})
	require.NoError(t, err)
	assert.Equal(t, "About eight minutes.", got)

	require.Len(t, chat.sent, 4)
	assert.Equal(t, PromptRecipeHelp, chat.text(0))
	ctxBlock := chat.text(1)
	assert.Contains(t, ctxBlock, "Title: Chickpea Curry")
	assert.Contains(t, ctxBlock, "Category: not specified")
	assert.Contains(t, ctxBlock, "3. Add chickpeas.")
	assert.Contains(t, ctxBlock, `Currently on step 1 of 3: "Dice onions."`)
	assert.Contains(t, ctxBlock, "onions: running, 1m30s left")
	assert.Equal(t, "how long do the onions take?", chat.text(3))
}

func TestAgentGeneralHelp(t *testing.T) {
	chat := &fakeChat{reply: "Salt the water well."}
	a := NewAgent(chat, logger.New(logger.LevelOff, nil))

	_, err := a.Assist(context.Background(), domain.AssistRequest{Question: "how do I cook pasta"})
	require.NoError(t, err)
	require.Len(t, chat.sent, 2)
	assert.Equal(t, PromptGeneralHelp, chat.text(0))
	assert.True(t, strings.Contains(chat.text(1), "how do I cook pasta"))
}

func TestAgentErrors(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)

	_, err := NewAgent(&fakeChat{}, log).Assist(context.Background(), domain.AssistRequest{})
	assert.ErrorIs(t, err, domain.ErrNoRecipe)

	boom := errors.New("boom")
	_, err = NewAgent(&fakeChat{err: boom}, log).Assist(context.Background(), domain.AssistRequest{Question: "q"})
	assert.ErrorIs(t, err, boom)

	_, err = NewAgent(&fakeChat{reply: "  "}, log).Assist(context.Background(), domain.AssistRequest{Question: "q"})
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"```\nfenced\n```", "fenced"},
		{"```text\nfenced too\n```  ", "fenced too"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFence(tt.in))
	}
}
