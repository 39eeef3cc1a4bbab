package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
	"github.com/fairyhunter13/ai-talent-ranker/pkg/textx"
	"github.com/fairyhunter13/ai-talent-ranker/pkg/vecmath"
)

// EmbedOutcome is the explicit result of an embedding attempt: either a
// provider vector or a zero vector with the degradation reason. Downstream
// similarity treats a zero vector as "no signal", never as an error.
type EmbedOutcome struct {
	Vector   []float32
	Degraded bool
	Reason   string
}

// embedText calls the embedding provider for one text and degrades to a zero
// vector instead of propagating provider failures.
func embedText(ctx domain.Context, ai domain.AIClient, dim int, text string) EmbedOutcome {
	vecs, err := ai.Embed(ctx, []string{text})
	if err != nil {
		return EmbedOutcome{Vector: vecmath.Zero(dim), Degraded: true, Reason: err.Error()}
	}
	if len(vecs) == 0 || len(vecs[0]) != dim {
		return EmbedOutcome{Vector: vecmath.Zero(dim), Degraded: true, Reason: fmt.Sprintf("unexpected embedding shape: %d vectors", len(vecs))}
	}
	return EmbedOutcome{Vector: vecs[0]}
}

// VectorRanker orders a candidate pool by cosine similarity to the job
// embedding, backfilling missing profile vectors on first reference.
type VectorRanker struct {
	Vectors     domain.VectorRepository
	AI          domain.AIClient
	Dim         int
	Concurrency int
}

// Rank resolves each candidate's vector (backfilling absent ones with
// bounded concurrency), scores it against jobVec, and returns the top
// min(topN, len(pool)) results sorted by similarity descending.
// Store failures are fatal; provider failures degrade per candidate.
func (vr *VectorRanker) Rank(ctx domain.Context, jobVec []float32, pool []domain.CandidateProfile, topN int) ([]domain.SimilarityResult, error) {
	results := make([]domain.SimilarityResult, len(pool))

	limit := vr.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range pool {
		g.Go(func() error {
			vec, err := vr.candidateVector(gctx, p)
			if err != nil {
				return err
			}
			results[i] = domain.SimilarityResult{
				Profile:    p,
				Similarity: vecmath.Cosine(jobVec, vec),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("op=rank: %w", err)
	}

	// Stable sort keeps pool order for equal similarities, making the
	// ranking deterministic.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Similarity > results[b].Similarity
	})
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

// candidateVector loads the stored vector for p, computing and upserting one
// when absent. A degraded embedding is used in-memory but not persisted so a
// later request can retry the backfill.
func (vr *VectorRanker) candidateVector(ctx domain.Context, p domain.CandidateProfile) ([]float32, error) {
	v, err := vr.Vectors.Get(ctx, p.ID)
	if err == nil {
		return v.Embedding, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	summary := BuildProfileSummary(p)
	outcome := embedText(ctx, vr.AI, vr.Dim, summary)
	if outcome.Degraded {
		observability.RecordFallback(string(domain.StageVectorRanked))
		slog.Warn("profile embedding degraded to zero vector",
			slog.String("stage", string(domain.StageVectorRanked)),
			slog.String("profile_id", p.ID),
			slog.String("reason", outcome.Reason))
		return outcome.Vector, nil
	}
	if err := vr.Vectors.Upsert(ctx, domain.ProfileVector{ProfileID: p.ID, Embedding: outcome.Vector}); err != nil {
		return nil, err
	}
	return outcome.Vector, nil
}

// BuildProfileSummary synthesizes the text that represents a profile in
// embedding space. Deterministic for a given profile snapshot, which is what
// makes concurrent lock-free backfill safe.
func BuildProfileSummary(p domain.CandidateProfile) string {
	var b strings.Builder
	writeSection := func(label, val string) {
		val = textx.SanitizeText(val)
		if val == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(val)
		b.WriteString("\n")
	}
	writeSection("Name", p.FullName)
	writeSection("Current position", p.CurrentPosition)
	writeSection("Programming languages", strings.Join(p.ProgrammingLanguages, ", "))
	writeSection("Other competencies", strings.Join(p.OtherCompetencies, ", "))
	writeSection("About", p.About)
	writeSection("Work experience", p.WorkExperience)
	writeSection("Education", p.Education)
	return strings.TrimSpace(b.String())
}
