package domain

import (
	"sort"
	"time"
)

// AtRiskWindow is how close to its expiry date an item is flagged.
const AtRiskWindow = 3

// PantryItem is one thing on the shelf.
type PantryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  string    `json:"quantity"`
	Unit      string    `json:"unit"`
	Location  string    `json:"location"`
	ExpiresOn time.Time `json:"expires_on"`
	AddedAt   time.Time `json:"added_at"`
}

// DaysUntilExpiry counts calendar days from now to the expiry date.
// Negative values mean the item is past its date.
func (p *PantryItem) DaysUntilExpiry(now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := p.ExpiresOn.Date()
	exp := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24)
}

// AtRisk reports whether the item should be used up soon.
func (p *PantryItem) AtRisk(now time.Time) bool {
	return p.DaysUntilExpiry(now) <= AtRiskWindow
}

// ExpiringSoon returns the items that are at risk, soonest first.
func ExpiringSoon(items []*PantryItem, now time.Time) []*PantryItem {
	var out []*PantryItem
	for _, it := range items {
		if !it.ExpiresOn.IsZero() && it.AtRisk(now) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresOn.Before(out[j].ExpiresOn) })
	return out
}
