package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// ViewCounterFlow records page hits under normalized identifiers. Recording
// is fire-and-forget from the client's perspective; the atomic upsert makes
// concurrent hits race-free.
type ViewCounterFlow interface {
	RecordHit(ctx context.Context, rawIdentifier string) (string, error)
	ListCounters(ctx context.Context) ([]dto.CounterDTO, error)
}

// ViewCounterFlowImpl implements ViewCounterFlow
type ViewCounterFlowImpl struct {
	counterRepo repository.ViewCounterRepository
}

func NewViewCounterFlow(counterRepo repository.ViewCounterRepository) ViewCounterFlow {
	return &ViewCounterFlowImpl{counterRepo: counterRepo}
}

func (f *ViewCounterFlowImpl) RecordHit(ctx context.Context, rawIdentifier string) (string, error) {
	if strings.TrimSpace(rawIdentifier) == "" {
		return "", NewBusinessError("IDENTIFIER_REQUIRED", "Identifier is required", ErrIdentifierRequired)
	}

	identifier := utils.NormalizeCounterIdentifier(rawIdentifier)
	if err := f.counterRepo.IncrementHit(ctx, identifier); err != nil {
		return "", NewBusinessError("RECORD_HIT_FAILED", "Failed to record hit", err)
	}
	return identifier, nil
}

func (f *ViewCounterFlowImpl) ListCounters(ctx context.Context) ([]dto.CounterDTO, error) {
	rows, err := f.counterRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_COUNTERS_FAILED", "Failed to list counters", err)
	}
	out := make([]dto.CounterDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.CounterDTO{
			Identifier: row.Identifier,
			Count:      row.Count,
			UpdatedAt:  row.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
