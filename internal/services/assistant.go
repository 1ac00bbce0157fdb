package services

import (
	"context"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/bobby-s-dev/agri-copilot/internal/prompt"
	"go.uber.org/zap"
)

// FallbackAnswer is shown when the reasoning backend cannot answer.
const FallbackAnswer = "답변 생성 실패"

// Assistant runs one user turn: aggregate, assemble, reason.
type Assistant struct {
	aggregator *ContextAggregator
	backend    ReasoningBackend
	logger     *zap.Logger
	now        func() time.Time
}

func NewAssistant(aggregator *ContextAggregator, backend ReasoningBackend, logger *zap.Logger) *Assistant {
	return &Assistant{
		aggregator: aggregator,
		backend:    backend,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessTurn returns a copy of session with the new turn appended. It does not
// fail: a backend error yields FallbackAnswer.
func (a *Assistant) ProcessTurn(ctx context.Context, session models.Session, in models.TurnInput) (models.Session, models.Turn) {
	aggregated, status := a.aggregator.Aggregate(ctx, in)
	messages := prompt.Assemble(aggregated, in.Query, in.Image)

	answer := FallbackAnswer
	if a.backend == nil {
		a.logger.Warn("No reasoning backend configured", zap.String("session_id", session.ID))
	} else if out, err := a.backend.Complete(ctx, messages); err != nil {
		a.logger.Warn("Reasoning backend failed",
			zap.String("session_id", session.ID),
			zap.Error(err))
	} else {
		answer = out
	}

	turn := models.Turn{
		Query:         in.Query,
		ImageAttached: in.Image != nil,
		Answer:        answer,
		Status:        status,
		Context:       aggregated,
		At:            a.now(),
	}
	return session.WithTurn(turn), turn
}
