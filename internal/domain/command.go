package domain

// CommandKind classifies a recognized utterance.
type CommandKind int

const (
	CommandUnrecognized CommandKind = iota
	CommandNext
	CommandPrevious
	CommandRepeat
	CommandCreateTimer
	CommandNutritionQuery
)

// String returns the snake_case name of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandNext:
		return "next"
	case CommandPrevious:
		return "previous"
	case CommandRepeat:
		return "repeat"
	case CommandCreateTimer:
		return "create_timer"
	case CommandNutritionQuery:
		return "nutrition_query"
	default:
		return "unrecognized"
	}
}

// Timer units as they are spoken back to the cook.
const (
	UnitSeconds = "seconds"
	UnitMinutes = "minutes"
)

// Command is the structured result of classifying one transcript.
// Label, Seconds, Quantity and Unit are only set for CommandCreateTimer.
type Command struct {
	Kind       CommandKind
	Transcript string

	Label    string
	Seconds  int
	Quantity float64 // as spoken, e.g. 1.5
	Unit     string  // UnitSeconds or UnitMinutes
}
