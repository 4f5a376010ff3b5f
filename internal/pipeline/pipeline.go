package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobmerge/internal/classify"
	"github.com/amishk599/jobmerge/internal/location"
	"github.com/amishk599/jobmerge/internal/model"
	"github.com/amishk599/jobmerge/internal/similarity"
)

// Reason explains why a record is missing from the output.
type Reason string

const (
	ReasonMalformed         Reason = "malformed"
	ReasonDuplicate         Reason = "duplicate"
	ReasonUnclassified      Reason = "unclassified"
	ReasonIdentityCollision Reason = "identity_collision"
)

// DroppedRecord is a record removed by one of the stages.
type DroppedRecord struct {
	Record model.JobRecord
	Reason Reason
	Detail string
}

// Result is everything one run produced.
type Result struct {
	Output  []model.OutputRecord
	Dropped []DroppedRecord
	Report  model.RunReport
}

// Config names the collections and how the run is reported.
type Config struct {
	Primary   string // favored in dedup tie-breaks
	Secondary string
	DryRun    bool
}

// Stages are the enrichment steps, applied in order: dedup, classify, locate.
type Stages struct {
	Dedup      *similarity.Engine
	Classifier *classify.Classifier
	Locator    *location.Normalizer
}

// Pipeline owns one merge run end to end:
// fetch → validate → dedup → classify → locate → project → upsert → notify.
type Pipeline struct {
	cfg      Config
	source   model.BatchSource
	sink     model.RecordSink
	notifier model.Notifier
	stages   Stages
	logger   *slog.Logger
}

// New creates a pipeline wired with all its dependencies. notifier may be nil.
func New(
	cfg Config,
	source model.BatchSource,
	sink model.RecordSink,
	notifier model.Notifier,
	stages Stages,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		sink:     sink,
		notifier: notifier,
		stages:   stages,
		logger:   logger,
	}
}

// Run fetches the latest batch of both sources, processes them and upserts the
// result. A notification failure is logged and does not fail the run.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	primary, err := p.source.FetchLatestBatch(ctx, p.cfg.Primary)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %s: %w", p.cfg.Primary, err)
	}
	secondary, err := p.source.FetchLatestBatch(ctx, p.cfg.Secondary)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %s: %w", p.cfg.Secondary, err)
	}

	res, err := p.Process(ctx, primary, secondary)
	if err != nil {
		return Result{}, err
	}
	res.Report.StartedAt = start

	if len(res.Output) > 0 {
		if err := p.sink.Upsert(ctx, res.Output); err != nil {
			return Result{}, fmt.Errorf("upserting %d records: %w", len(res.Output), err)
		}
	}
	res.Report.Duration = time.Since(start)

	p.logger.Info("run complete",
		"dry_run", p.cfg.DryRun,
		"fetched_primary", len(primary),
		"fetched_secondary", len(secondary),
		"output", res.Report.Output,
		"dropped", len(res.Dropped),
		"duration", res.Report.Duration.Round(time.Millisecond),
	)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, res.Report); err != nil {
			p.logger.Warn("notify failed", "error", err)
		}
	}
	return res, nil
}

// Process runs every enrichment stage over the two collections and returns the
// projected output sorted by posted date, newest first. Nothing is persisted.
func (p *Pipeline) Process(ctx context.Context, primary, secondary []model.JobRecord) (Result, error) {
	var res Result
	res.Report.DryRun = p.cfg.DryRun
	res.Report.Fetched = map[string]int{
		p.cfg.Primary:   len(primary),
		p.cfg.Secondary: len(secondary),
	}

	primary = p.validate(primary, &res)
	secondary = p.validate(secondary, &res)

	deduped, err := p.stages.Dedup.Deduplicate(ctx, primary, secondary)
	if err != nil {
		return Result{}, fmt.Errorf("dedup: %w", err)
	}
	res.Report.EmbeddingFailures = deduped.EmbeddingFailures
	res.Report.CandidatePairs = len(deduped.Pairs)
	res.Report.DroppedPrimary = len(deduped.DroppedPrimary)
	res.Report.DroppedSecondary = len(deduped.DroppedSecondary)
	for _, r := range deduped.DroppedPrimary {
		res.Dropped = append(res.Dropped, DroppedRecord{Record: r, Reason: ReasonDuplicate, Detail: "lost to " + p.cfg.Secondary})
	}
	for _, r := range deduped.DroppedSecondary {
		res.Dropped = append(res.Dropped, DroppedRecord{Record: r, Reason: ReasonDuplicate, Detail: "lost to " + p.cfg.Primary})
	}

	classified, err := p.stages.Classifier.Classify(ctx, deduped.Records)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	res.Report.KeywordClassified = classified.ByKeyword
	res.Report.OracleClassified = classified.ByOracle
	res.Report.DroppedUnclassified = len(classified.Unclassified)
	for _, r := range classified.Unclassified {
		res.Dropped = append(res.Dropped, DroppedRecord{Record: r, Reason: ReasonUnclassified})
	}

	located, err := p.stages.Locator.Normalize(ctx, classified.Records)
	if err != nil {
		return Result{}, fmt.Errorf("locate: %w", err)
	}
	res.Report.RemoteLocations = located.Remote
	res.Report.UnknownLocations = located.Unknown
	res.Report.LocationsQueried = located.Queried
	res.Report.LocationsUnresolved = located.Unresolved

	seen := make(map[string]string, len(located.Records))
	res.Output = make([]model.OutputRecord, 0, len(located.Records))
	for _, r := range located.Records {
		id := r.Identity()
		if owner, ok := seen[id]; ok {
			p.logger.Warn("record identity collision, keeping first",
				"my_id", id,
				"kept_source", owner,
				"dropped_source", r.Source,
			)
			res.Dropped = append(res.Dropped, DroppedRecord{Record: r, Reason: ReasonIdentityCollision, Detail: "collides with " + owner})
			res.Report.IdentityCollisions++
			continue
		}
		seen[id] = r.Source
		res.Output = append(res.Output, Project(r))
	}
	SortByPostedDate(res.Output)
	res.Report.Output = len(res.Output)

	return res, nil
}

func (p *Pipeline) validate(records []model.JobRecord, res *Result) []model.JobRecord {
	valid := make([]model.JobRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			p.logger.Warn("skipping malformed record", "source", r.Source, "error", err)
			res.Dropped = append(res.Dropped, DroppedRecord{Record: r, Reason: ReasonMalformed, Detail: err.Error()})
			res.Report.Malformed++
			continue
		}
		valid = append(valid, r)
	}
	return valid
}
