package classify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobmerge/internal/model"
)

// Oracle labels a single normalized job title.
type Oracle interface {
	Classify(ctx context.Context, title string) (string, error)
}

// Result is the outcome of classifying one batch.
type Result struct {
	Records      []model.JobRecord // classified, in input order
	Unclassified []model.JobRecord // still Unknown after both layers
	ByKeyword    int
	ByOracle     int
}

// Classifier assigns a job function using keyword rules first and the oracle
// for titles no rule matches.
type Classifier struct {
	oracle      Oracle
	concurrency int
	logger      *slog.Logger
}

// NewClassifier creates a Classifier. concurrency bounds in-flight oracle calls.
func NewClassifier(oracle Oracle, concurrency int, logger *slog.Logger) *Classifier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Classifier{oracle: oracle, concurrency: concurrency, logger: logger}
}

// Classify labels every record. Records the oracle cannot place in one of the
// canonical functions are returned in Result.Unclassified.
func (c *Classifier) Classify(ctx context.Context, records []model.JobRecord) (Result, error) {
	labels := make([]string, len(records))
	fromOracle := make([]bool, len(records))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, r := range records {
		normalized := NormalizeTitle(r.Title)
		if fn := MatchKeywords(normalized); fn != model.FunctionUnknown {
			labels[i] = fn
			continue
		}

		labels[i] = model.FunctionUnknown
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			label, err := c.oracle.Classify(ctx, normalized)
			if err != nil {
				c.logger.Warn("oracle classification failed",
					"job_id", records[i].JobID,
					"title", records[i].Title,
					"error", err,
				)
				return nil
			}
			if !model.IsJobFunction(label) {
				c.logger.Debug("oracle label rejected",
					"job_id", records[i].JobID,
					"title", normalized,
					"label", label,
					"error", model.ErrOracleUnparseable,
				)
				return nil
			}
			labels[i] = label
			fromOracle[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}

	var res Result
	for i, r := range records {
		r.JobFunction = labels[i]
		if r.JobFunction == model.FunctionUnknown {
			res.Unclassified = append(res.Unclassified, r)
			continue
		}
		if fromOracle[i] {
			res.ByOracle++
		} else {
			res.ByKeyword++
		}
		res.Records = append(res.Records, r)
	}

	c.logger.Info("classification complete",
		"records", len(records),
		"by_keyword", res.ByKeyword,
		"by_oracle", res.ByOracle,
		"unclassified", len(res.Unclassified),
	)
	return res, nil
}
