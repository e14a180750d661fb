package httpapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
)

const dateLayout = "2006-01-02"

// Date accepts "2006-01-02" or RFC3339. Date-only values are midnight UTC.
type Date struct{ t time.Time }

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = time.Time{}
		return nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.t = t
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.t = t.UTC()
		return nil
	}
	return fmt.Errorf("expires_on: use YYYY-MM-DD or an RFC3339 time")
}

// Time returns the parsed value, zero when unset.
func (d Date) Time() time.Time { return d.t }

type chooseRequest struct {
	RecipeID string `json:"recipe_id" binding:"required"`
}

type voiceRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

type assistRequest struct {
	Question    string            `json:"question"`
	Constraints map[string]string `json:"constraints"`
	// Recipe and StepIndex make the call stateless: the assistant sees
	// this recipe instead of the one being cooked.
	Recipe    *domain.Recipe `json:"recipe"`
	StepIndex int            `json:"step_index"`
}

type timerRequest struct {
	Label   string `json:"label"`
	Seconds int    `json:"seconds" binding:"required,min=1"`
}

type pantryRequest struct {
	Name      string `json:"name" binding:"required"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	Location  string `json:"location"`
	ExpiresOn Date   `json:"expires_on"`
}

type timerResponse struct {
	ID               string     `json:"id"`
	Label            string     `json:"label"`
	DurationSeconds  int        `json:"duration_seconds"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Status           string     `json:"status"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiredAt        *time.Time `json:"expired_at,omitempty"`
}

func toTimerResponse(t *domain.Timer) timerResponse {
	r := timerResponse{
		ID:               t.ID,
		Label:            t.Label,
		DurationSeconds:  t.DurationSeconds(),
		RemainingSeconds: t.RemainingSeconds(),
		Status:           t.Status().String(),
		Active:           t.Active,
		CreatedAt:        t.CreatedAt,
	}
	if !t.ExpiredAt.IsZero() {
		at := t.ExpiredAt
		r.ExpiredAt = &at
	}
	return r
}

func toTimerResponses(ts []domain.Timer) []timerResponse {
	out := make([]timerResponse, 0, len(ts))
	for i := range ts {
		out = append(out, toTimerResponse(&ts[i]))
	}
	return out
}

type replyResponse struct {
	Command   string         `json:"command,omitempty"`
	Narration string         `json:"narration"`
	StepIndex int            `json:"step_index"`
	Timer     *timerResponse `json:"timer,omitempty"`
}

func toReplyResponse(r engine.Reply) replyResponse {
	out := replyResponse{Narration: r.Narration, StepIndex: r.StepIndex}
	if r.Command.Kind != domain.CommandUnrecognized || r.Command.Transcript != "" {
		out.Command = r.Command.Kind.String()
	}
	if r.Timer != nil {
		t := toTimerResponse(r.Timer)
		out.Timer = &t
	}
	return out
}

type stateResponse struct {
	Recipe           *domain.Recipe  `json:"recipe"`
	StepIndex        int             `json:"step_index"`
	Step             string          `json:"step"`
	StepTimerSeconds int             `json:"step_timer_seconds,omitempty"`
	HasNext          bool            `json:"has_next"`
	HasPrevious      bool            `json:"has_previous"`
	Timers           []timerResponse `json:"timers"`
}

func toStateResponse(s engine.State) stateResponse {
	return stateResponse{
		Recipe:           s.Recipe,
		StepIndex:        s.StepIndex,
		Step:             s.Step,
		StepTimerSeconds: int(s.StepTimer / time.Second),
		HasNext:          s.HasNext,
		HasPrevious:      s.HasPrevious,
		Timers:           toTimerResponses(s.Timers),
	}
}

// recipeResponse is the full recipe plus derived flags.
type recipeResponse struct {
	*domain.Recipe
	HighSodium bool `json:"high_sodium"`
}

func toRecipeResponse(r *domain.Recipe) recipeResponse {
	return recipeResponse{Recipe: r, HighSodium: r.Nutrition.HighSodium()}
}

type pantryResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Quantity        string    `json:"quantity,omitempty"`
	Unit            string    `json:"unit,omitempty"`
	Location        string    `json:"location,omitempty"`
	ExpiresOn       string    `json:"expires_on,omitempty"`
	DaysUntilExpiry *int      `json:"days_until_expiry,omitempty"`
	AtRisk          bool      `json:"at_risk"`
	AddedAt         time.Time `json:"added_at"`
}

func toPantryResponse(p *domain.PantryItem, now time.Time) pantryResponse {
	r := pantryResponse{
		ID:       p.ID,
		Name:     p.Name,
		Quantity: p.Quantity,
		Unit:     p.Unit,
		Location: p.Location,
		AddedAt:  p.AddedAt,
	}
	if !p.ExpiresOn.IsZero() {
		days := p.DaysUntilExpiry(now)
		r.ExpiresOn = p.ExpiresOn.Format(dateLayout)
		r.DaysUntilExpiry = &days
		r.AtRisk = p.AtRisk(now)
	}
	return r
}

func toPantryResponses(items []*domain.PantryItem, now time.Time) []pantryResponse {
	out := make([]pantryResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toPantryResponse(it, now))
	}
	return out
}

func toSummaries(rs []domain.Recipe) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, 0, len(rs))
	for i := range rs {
		out = append(out, rs[i].Summary())
	}
	return out
}
