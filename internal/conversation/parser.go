// Package conversation turns what the cook says into commands and carries
// the assistant's replies back to them.
package conversation

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches transcripts to commands using an ordered list of
// patterns. The first rule that produces a command wins.
type KeywordParser struct {
	log   *logger.Logger
	rules []patternRule
}

// patternRule pairs a pattern with an extractor. extract returns ok=false
// to let evaluation fall through to the next rule.
type patternRule struct {
	regex   *regexp.Regexp
	extract func(m []string) (domain.Command, bool)
}

// timerPattern recognizes "set a pasta timer to 8 minutes" and
// "set timer 30 seconds". The label is optional.
var timerPattern = regexp.MustCompile(
	`set (?:an? )?(?P<label>\w+(?: \w+)*)? ?timer (?:to |for )?(?P<num>\d+(?:\.\d+)?) (?P<unit>seconds?|secs?|minutes?|mins?)`)

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.rules = []patternRule{
		{regexp.MustCompile(`^(next|next step|go next|continue)\b`), kind(domain.CommandNext)},
		{regexp.MustCompile(`^(previous|back|go back|prev step|previous step)\b`), kind(domain.CommandPrevious)},
		{regexp.MustCompile(`^(repeat|say again|one more time)\b`), kind(domain.CommandRepeat)},
		{timerPattern, extractTimer},
		{regexp.MustCompile(`calorie|macros?`), kind(domain.CommandNutritionQuery)},
	}
	return p
}

func kind(k domain.CommandKind) func([]string) (domain.Command, bool) {
	return func([]string) (domain.Command, bool) {
		return domain.Command{Kind: k}, true
	}
}

// extractTimer converts a timer match into a CreateTimer command.
// Quantities that round to zero seconds are rejected.
func extractTimer(m []string) (domain.Command, bool) {
	label := strings.TrimSpace(m[timerPattern.SubexpIndex("label")])
	if label == "" {
		label = domain.DefaultTimerLabel
	}

	q, err := strconv.ParseFloat(m[timerPattern.SubexpIndex("num")], 64)
	if err != nil {
		return domain.Command{}, false
	}

	unit := domain.UnitMinutes
	secs := int(math.Round(q * 60))
	if strings.HasPrefix(m[timerPattern.SubexpIndex("unit")], "sec") {
		unit = domain.UnitSeconds
		secs = int(math.Round(q))
	}
	if secs <= 0 {
		return domain.Command{}, false
	}

	return domain.Command{
		Kind:     domain.CommandCreateTimer,
		Label:    label,
		Seconds:  secs,
		Quantity: q,
		Unit:     unit,
	}, true
}

// Parse classifies a transcript. It never fails; anything it does not
// understand comes back as CommandUnrecognized.
func (p *KeywordParser) Parse(ctx context.Context, transcript string) (domain.Command, error) {
	text := strings.ToLower(strings.TrimSpace(transcript))
	p.log.Debug("parsing transcript: %q", text)

	if text != "" {
		for _, rule := range p.rules {
			m := rule.regex.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			cmd, ok := rule.extract(m)
			if !ok {
				continue
			}
			cmd.Transcript = transcript
			p.log.Debug("matched command: %s", cmd.Kind)
			return cmd, nil
		}
	}

	p.log.Debug("no match, returning unrecognized")
	return domain.Command{Kind: domain.CommandUnrecognized, Transcript: transcript}, nil
}
