package conversation

import (
	"context"
	"testing"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input    string
		wantKind domain.CommandKind
	}{
		// Navigation
		{"next", domain.CommandNext},
		{"next step", domain.CommandNext},
		{"Next step please", domain.CommandNext},
		{"go next", domain.CommandNext},
		{"continue", domain.CommandNext},
		{"previous", domain.CommandPrevious},
		{"go back", domain.CommandPrevious},
		{"back", domain.CommandPrevious},
		{"prev step", domain.CommandPrevious},
		{"previous step", domain.CommandPrevious},
		{"repeat", domain.CommandRepeat},
		{"say again", domain.CommandRepeat},
		{"one more time", domain.CommandRepeat},

		// Anchored at the start only
		{"nextdoor", domain.CommandUnrecognized},
		{"what comes next", domain.CommandUnrecognized},

		// Nutrition
		{"how many calories is this", domain.CommandNutritionQuery},
		{"what are the macros", domain.CommandNutritionQuery},
		{"macro", domain.CommandNutritionQuery},

		// Fallback
		{"what's the weather", domain.CommandUnrecognized},
		{"", domain.CommandUnrecognized},
		{"   ", domain.CommandUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Kind != tt.wantKind {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, cmd.Kind, tt.wantKind)
			}
			if cmd.Transcript != tt.input {
				t.Errorf("Transcript = %q, want %q", cmd.Transcript, tt.input)
			}
		})
	}
}

func TestKeywordParserTimers(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input    string
		label    string
		seconds  int
		quantity float64
		unit     string
	}{
		{"set a pasta timer to 8 minutes", "pasta", 480, 8, domain.UnitMinutes},
		{"set timer 30 seconds", "kitchen", 30, 30, domain.UnitSeconds},
		{"Set an egg timer for 1.5 minutes", "egg", 90, 1.5, domain.UnitMinutes},
		{"please set a timer to 2 mins", "kitchen", 120, 2, domain.UnitMinutes},
		{"set rice cooker timer to 1 min", "rice cooker", 60, 1, domain.UnitMinutes},
		{"set timer to 45 secs", "kitchen", 45, 45, domain.UnitSeconds},
		{"set timer to 2.6 seconds", "kitchen", 3, 2.6, domain.UnitSeconds},
		{"set a timer for 0.5 minutes", "kitchen", 30, 0.5, domain.UnitMinutes},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Kind != domain.CommandCreateTimer {
				t.Fatalf("Parse(%q) = %s, want create_timer", tt.input, cmd.Kind)
			}
			if cmd.Label != tt.label {
				t.Errorf("Label = %q, want %q", cmd.Label, tt.label)
			}
			if cmd.Seconds != tt.seconds {
				t.Errorf("Seconds = %d, want %d", cmd.Seconds, tt.seconds)
			}
			if cmd.Quantity != tt.quantity {
				t.Errorf("Quantity = %v, want %v", cmd.Quantity, tt.quantity)
			}
			if cmd.Unit != tt.unit {
				t.Errorf("Unit = %q, want %q", cmd.Unit, tt.unit)
			}
		})
	}
}

func TestKeywordParserZeroTimerFallsThrough(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input    string
		wantKind domain.CommandKind
	}{
		{"set timer to 0 minutes", domain.CommandUnrecognized},
		{"set timer to 0.2 seconds", domain.CommandUnrecognized},
		{"set a macro timer to 0 seconds", domain.CommandNutritionQuery},
	}

	for _, tt := range tests {
		cmd, _ := parser.Parse(ctx, tt.input)
		if cmd.Kind != tt.wantKind {
			t.Errorf("Parse(%q) = %s, want %s", tt.input, cmd.Kind, tt.wantKind)
		}
	}
}
