package domain

import "time"

// Session is the cursor of the cooking view: which recipe is open and
// which step the cook is on.
type Session struct {
	Recipe    *Recipe
	StepIndex int
	StartedAt time.Time
	UpdatedAt time.Time
}

// HasNext reports whether a further step exists.
func (s *Session) HasNext() bool {
	return s.Recipe != nil && s.StepIndex < len(s.Recipe.Steps)-1
}

// HasPrevious reports whether the cook can go back a step.
func (s *Session) HasPrevious() bool {
	return s.Recipe != nil && s.StepIndex > 0
}

// CurrentStep returns the text of the current step, or "".
func (s *Session) CurrentStep() string {
	return s.Recipe.Step(s.StepIndex)
}
