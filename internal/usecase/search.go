package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	adapterobs "github.com/fairyhunter13/ai-talent-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
	"github.com/fairyhunter13/ai-talent-ranker/internal/observability"
)

const (
	defaultMaxCandidates  = 20
	defaultThresholdLimit = 50
)

// Options tune the search pipeline. Every field has a working default from
// the config layer.
type Options struct {
	RerankConcurrency   int
	BackfillConcurrency int
	ChatModel           string
	ChatMaxTokens       int
	EmbeddingDim        int
	Vocabulary          []string
}

// SearchService runs the full ranking pipeline: filter the active pool,
// embed the job, rank by vector similarity, assess the survivors with the
// generation model, and aggregate.
type SearchService struct {
	Profiles domain.ProfileRepository
	Vectors  domain.VectorRepository
	AI       domain.AIClient
	Opts     Options

	ranker   *VectorRanker
	reranker *Reranker
}

// NewSearchService wires the pipeline stages.
func NewSearchService(profiles domain.ProfileRepository, vectors domain.VectorRepository, ai domain.AIClient, opts Options) *SearchService {
	if opts.EmbeddingDim <= 0 {
		opts.EmbeddingDim = domain.EmbeddingDim
	}
	return &SearchService{
		Profiles: profiles,
		Vectors:  vectors,
		AI:       ai,
		Opts:     opts,
		ranker: &VectorRanker{
			Vectors:     vectors,
			AI:          ai,
			Dim:         opts.EmbeddingDim,
			Concurrency: opts.BackfillConcurrency,
		},
		reranker: NewReranker(ai, opts.ChatModel, opts.ChatMaxTokens, opts.RerankConcurrency),
	}
}

// Search executes one JobQuery end to end. Only store failures and an
// invalid query are fatal; provider failures degrade per candidate inside
// the rank and assess stages.
func (s *SearchService) Search(ctx domain.Context, q domain.JobQuery) (domain.SearchResult, error) {
	start := time.Now()
	log := observability.LoggerFromContext(ctx)

	if err := validateQuery(&q); err != nil {
		adapterobs.SearchesTotal.WithLabelValues("invalid").Inc()
		adapterobs.ObserveStage(string(domain.StageFatal), time.Since(start))
		return domain.SearchResult{}, err
	}
	adapterobs.ObserveStage(string(domain.StageValidated), time.Since(start))

	pool, err := s.Profiles.ListActive(ctx)
	if err != nil {
		adapterobs.SearchesTotal.WithLabelValues("error").Inc()
		adapterobs.ObserveStage(string(domain.StageFatal), time.Since(start))
		return domain.SearchResult{}, fmt.Errorf("op=search list profiles: %w", err)
	}
	log.Debug("active profile pool loaded", "pool_size", len(pool))

	pool, filters := s.applyFilters(ctx, q, pool)
	totalFound := len(pool)

	if totalFound == 0 {
		adapterobs.SearchesTotal.WithLabelValues("empty").Inc()
		return domain.SearchResult{
			JobTitle:       q.JobTitle,
			FiltersApplied: filters,
			Candidates:     []domain.RankedCandidate{},
			ProcessingTime: time.Since(start),
		}, nil
	}

	jobVec := s.embedJob(ctx, q)

	topN := q.MaxCandidates
	if topN > totalFound {
		topN = totalFound
	}
	rankStart := time.Now()
	ranked, err := s.ranker.Rank(ctx, jobVec, pool, topN)
	if err != nil {
		adapterobs.SearchesTotal.WithLabelValues("error").Inc()
		return domain.SearchResult{}, err
	}
	adapterobs.ObserveStage(string(domain.StageVectorRanked), time.Since(rankStart))
	log.Debug("vector ranking complete", "pool_size", totalFound, "ranked", len(ranked))

	assessStart := time.Now()
	assessments := s.reranker.Assess(ctx, q, ranked)
	adapterobs.ObserveStage(string(domain.StageLLMAssessed), time.Since(assessStart))

	candidates := mergeAndSort(ranked, assessments)
	for _, c := range candidates {
		adapterobs.ObserveRanking(c.Assessment.MatchScore, c.Similarity)
	}
	adapterobs.CandidatesProcessedHistogram.Observe(float64(len(candidates)))
	adapterobs.SearchesTotal.WithLabelValues("success").Inc()
	adapterobs.ObserveStage(string(domain.StageAggregated), time.Since(start))

	res := domain.SearchResult{
		JobTitle:           q.JobTitle,
		TotalProfilesFound: totalFound,
		ProcessedByAI:      len(candidates),
		FiltersApplied:     filters,
		Candidates:         candidates,
		ProcessingTime:     time.Since(start),
	}
	log.Info("candidate search complete",
		"job_title", q.JobTitle,
		"total_found", res.TotalProfilesFound,
		"processed_by_ai", res.ProcessedByAI,
		"duration_ms", res.ProcessingTime.Milliseconds())
	return res, nil
}

func validateQuery(q *domain.JobQuery) error {
	q.JobTitle = strings.TrimSpace(q.JobTitle)
	q.JobDescription = strings.TrimSpace(q.JobDescription)
	if q.JobTitle == "" {
		return fmt.Errorf("op=search job_title is required: %w", domain.ErrInvalidArgument)
	}
	if q.JobDescription == "" {
		return fmt.Errorf("op=search job_description is required: %w", domain.ErrInvalidArgument)
	}
	if q.MaxCandidates <= 0 {
		q.MaxCandidates = defaultMaxCandidates
	}
	if q.ThresholdFilterLimit <= 0 {
		q.ThresholdFilterLimit = defaultThresholdLimit
	}
	return nil
}

// applyFilters runs the skill filter and, when the pool is still larger than
// the threshold, the cascading keyword filter. Returns the narrowed pool and
// the human-readable filter labels for the response.
func (s *SearchService) applyFilters(ctx domain.Context, q domain.JobQuery, pool []domain.CandidateProfile) ([]domain.CandidateProfile, []string) {
	filterStart := time.Now()
	log := observability.LoggerFromContext(ctx)
	filters := make([]string, 0, 3)

	if len(q.RequiredSkills) > 0 {
		pool = FilterBySkills(pool, q.RequiredSkills)
		filters = append(filters, "Skills: "+strings.Join(q.RequiredSkills, ", "))
	}
	if lvl := strings.TrimSpace(q.ExperienceLevel); lvl != "" {
		filters = append(filters, "Experience: "+lvl)
	}

	if len(pool) > q.ThresholdFilterLimit {
		jobText := q.JobTitle + " " + q.JobDescription + " " + q.AdditionalRequirements
		keywords := ExtractKeyTerms(jobText, s.Opts.Vocabulary)
		if len(keywords) > 0 || strings.TrimSpace(q.ExperienceLevel) != "" {
			narrowed := FilterByKeywords(pool, keywords, q.ExperienceLevel)
			// An over-aggressive cascade that empties the pool is a no-op,
			// the broader pool ranks instead.
			if len(narrowed) > 0 {
				pool = narrowed
				if len(keywords) > 0 {
					n := len(keywords)
					if n > 3 {
						n = 3
					}
					filters = append(filters, "Additional keywords: "+strings.Join(keywords[:n], ", "))
				}
			} else {
				log.Debug("keyword cascade emptied the pool, skipping", "keywords", keywords)
			}
		}
	}

	adapterobs.ObserveStage(string(domain.StageFiltered), time.Since(filterStart))
	return pool, filters
}

// embedJob embeds the query text. A degraded job embedding yields zero
// similarity everywhere, so ranking falls back to pool order and the
// assessments still run.
func (s *SearchService) embedJob(ctx domain.Context, q domain.JobQuery) []float32 {
	embedStart := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "Job: %s\n\nDescription: %s", q.JobTitle, q.JobDescription)
	if q.AdditionalRequirements != "" {
		fmt.Fprintf(&b, "\n\nRequirements: %s", q.AdditionalRequirements)
	}
	outcome := embedText(ctx, s.AI, s.Opts.EmbeddingDim, b.String())
	if outcome.Degraded {
		adapterobs.RecordFallback(string(domain.StageEmbedded))
		observability.LoggerFromContext(ctx).Warn("job embedding degraded to zero vector",
			"stage", string(domain.StageEmbedded), "reason", outcome.Reason)
	}
	adapterobs.ObserveStage(string(domain.StageEmbedded), time.Since(embedStart))
	return outcome.Vector
}

// mergeAndSort pairs each ranked candidate with its assessment and orders by
// match score descending, similarity descending on ties. The stable sort
// preserves vector rank for full ties.
func mergeAndSort(ranked []domain.SimilarityResult, assessments []domain.LLMAssessment) []domain.RankedCandidate {
	out := make([]domain.RankedCandidate, len(ranked))
	for i, sr := range ranked {
		out[i] = domain.RankedCandidate{
			Profile:    sr.Profile,
			Similarity: sr.Similarity,
			Assessment: assessments[i],
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Assessment.MatchScore != out[b].Assessment.MatchScore {
			return out[a].Assessment.MatchScore > out[b].Assessment.MatchScore
		}
		return out[a].Similarity > out[b].Similarity
	})
	return out
}
