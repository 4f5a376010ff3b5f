package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobmerge/internal/model"
)

// DefaultThreshold is the cosine score a pair must exceed to count as a duplicate.
const DefaultThreshold = 0.85

// Pair is a cross-source candidate: index I in the primary collection matched
// index J in the secondary one.
type Pair struct {
	I, J  int
	Score float64
	Loser Loser
}

// Result is the outcome of one deduplication pass.
type Result struct {
	Records           []model.JobRecord // survivors: primary first, then secondary
	DroppedPrimary    []model.JobRecord
	DroppedSecondary  []model.JobRecord
	Pairs             []Pair // sorted by score, highest first
	EmbeddingFailures int
}

// Engine removes cross-source near-duplicates using signature embeddings.
type Engine struct {
	embedder    model.Embedder
	threshold   float64
	concurrency int
	logger      *slog.Logger
}

// NewEngine creates an Engine. concurrency bounds in-flight embedding calls.
func NewEngine(embedder model.Embedder, threshold float64, concurrency int, logger *slog.Logger) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		embedder:    embedder,
		threshold:   threshold,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Deduplicate matches every primary record against every secondary record and
// drops the loser of each candidate pair. A record that fails to embed takes
// no part in matching and is kept.
func (e *Engine) Deduplicate(ctx context.Context, primary, secondary []model.JobRecord) (Result, error) {
	va, failedA, err := e.embedAll(ctx, primary)
	if err != nil {
		return Result{}, err
	}
	vb, failedB, err := e.embedAll(ctx, secondary)
	if err != nil {
		return Result{}, err
	}

	res := Result{EmbeddingFailures: failedA + failedB}

	scores := Matrix(va, vb)
	for i := range scores {
		if va[i] == nil {
			continue
		}
		for j, s := range scores[i] {
			if vb[j] == nil || !IsCandidate(s, e.threshold) {
				continue
			}
			res.Pairs = append(res.Pairs, Pair{I: i, J: j, Score: s})
		}
	}
	sort.SliceStable(res.Pairs, func(x, y int) bool {
		return res.Pairs[x].Score > res.Pairs[y].Score
	})

	dropA := make(map[int]bool)
	dropB := make(map[int]bool)
	for k := range res.Pairs {
		p := &res.Pairs[k]
		p.Loser = Resolve(primary[p.I], secondary[p.J])
		if p.Loser == LoserA {
			dropA[p.I] = true
		} else {
			dropB[p.J] = true
		}
		e.logger.Debug("duplicate pair",
			"primary", primary[p.I].Signature(),
			"secondary", secondary[p.J].Signature(),
			"score", p.Score,
			"dropped", p.Loser,
		)
	}

	res.Records = make([]model.JobRecord, 0, len(primary)+len(secondary)-len(dropA)-len(dropB))
	for i, r := range primary {
		r.Embedding = va[i]
		if dropA[i] {
			res.DroppedPrimary = append(res.DroppedPrimary, r)
			continue
		}
		res.Records = append(res.Records, r)
	}
	for j, r := range secondary {
		r.Embedding = vb[j]
		if dropB[j] {
			res.DroppedSecondary = append(res.DroppedSecondary, r)
			continue
		}
		res.Records = append(res.Records, r)
	}

	e.logger.Info("deduplication complete",
		"primary", len(primary),
		"secondary", len(secondary),
		"candidate_pairs", len(res.Pairs),
		"dropped_primary", len(dropA),
		"dropped_secondary", len(dropB),
		"embedding_failures", res.EmbeddingFailures,
	)
	return res, nil
}

// embedAll embeds every record's signature with bounded concurrency. Vectors
// are returned by record index; a failed embedding leaves a nil entry.
func (e *Engine) embedAll(ctx context.Context, records []model.JobRecord) ([][]float32, int, error) {
	vecs := make([][]float32, len(records))
	errs := make([]error, len(records))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range records {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			vec, err := e.embedder.Embed(ctx, records[i].Signature())
			if err != nil {
				errs[i] = err
				return nil
			}
			vecs[i] = vec
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("embed signatures: %w", err)
	}

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		e.logger.Warn("embedding unavailable, record excluded from matching",
			"source", records[i].Source,
			"job_id", records[i].JobID,
			"error", err,
		)
	}
	return vecs, failed, nil
}
