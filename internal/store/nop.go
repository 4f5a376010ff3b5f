package store

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobmerge/internal/model"
)

// NopSink is the record sink used in dry-run mode. It logs what it would have
// written and persists nothing.
type NopSink struct {
	logger *slog.Logger
}

func NewNopSink(logger *slog.Logger) *NopSink { return &NopSink{logger: logger} }

func (s *NopSink) Upsert(_ context.Context, records []model.OutputRecord) error {
	s.logger.Info("dry run: skipping upsert", "records", len(records))
	return nil
}
