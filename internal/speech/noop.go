package speech

import (
	"context"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

var _ domain.Narrator = (*NoOp)(nil)

// NoOp is the narrator used when speech output is disabled.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a narrator that only logs.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Speak logs the text at debug level.
func (n *NoOp) Speak(_ context.Context, text string) error {
	n.log.Debug("would say %q", truncate(text, 60))
	return nil
}
