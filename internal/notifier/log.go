package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the run summary to the given logger as one structured line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each run report via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the report. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, r model.RunReport) error {
	n.logger.Info("run summary",
		"dry_run", r.DryRun,
		"fetched", r.Fetched,
		"malformed", r.Malformed,
		"candidate_pairs", r.CandidatePairs,
		"dropped_duplicates", r.DroppedByDedup(),
		"keyword_classified", r.KeywordClassified,
		"oracle_classified", r.OracleClassified,
		"dropped_unclassified", r.DroppedUnclassified,
		"unknown_locations", r.UnknownLocations,
		"output", r.Output,
		"duration", r.Duration.Round(time.Millisecond),
	)
	return nil
}
