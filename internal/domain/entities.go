package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamTimeout  = errors.New("upstream timeout")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInternal         = errors.New("internal error")
)

// SearchStage enumerates pipeline stages for logging and metrics.
// A search moves Validated -> Filtered -> Embedded -> VectorRanked ->
// LLMAssessed -> Aggregated; Fatal is the terminal error exit.
type SearchStage string

const (
	StageValidated    SearchStage = "validated"
	StageFiltered     SearchStage = "filtered"
	StageEmbedded     SearchStage = "embedded"
	StageVectorRanked SearchStage = "vector_ranked"
	StageLLMAssessed  SearchStage = "llm_assessed"
	StageAggregated   SearchStage = "aggregated"
	StageFatal        SearchStage = "fatal"
)

// EmbeddingDim is the fixed vector length produced by the embeddings model.
const EmbeddingDim = 1024

// JobQuery is one ranking request. Transient, one per invocation.
// Invariants: MaxCandidates > 0; ThresholdFilterLimit > 0.
type JobQuery struct {
	JobTitle               string
	JobDescription         string
	RequiredSkills         []string
	AdditionalRequirements string
	ExperienceLevel        string
	MaxCandidates          int
	ThresholdFilterLimit   int
}

// CandidateProfile is owned by the profile store and read-only to the pipeline.
type CandidateProfile struct {
	ID                   string
	FullName             string
	Email                string
	CurrentPosition      string
	ProgrammingLanguages []string
	OtherCompetencies    []string
	About                string
	WorkExperience       string
	Education            string
	ExperienceLevel      string
	Active               bool
}

// ProfileVector is the persisted embedding for one profile.
// At most one row per profile id; writes are upserts.
type ProfileVector struct {
	ProfileID string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimilarityResult pairs a profile with its cosine similarity to the job
// embedding. Derived, never persisted.
type SimilarityResult struct {
	Profile    CandidateProfile
	Similarity float64 // [-1, 1]
}

// LLMAssessment is the structured relevance assessment for one candidate.
// Fallback is true when the generation call failed and the assessment was
// derived from the similarity score instead.
type LLMAssessment struct {
	ProfileID   string
	MatchScore  float64 // [0, 1]
	Summary     string
	Strengths   []string
	GrowthAreas []string
	Fallback    bool
}

// RankedCandidate is the externally visible unit: profile projection plus
// similarity plus assessment. Ordering is a property of the response.
type RankedCandidate struct {
	Profile    CandidateProfile
	Similarity float64
	Assessment LLMAssessment
}

// SearchResult is the aggregated response for one JobQuery.
type SearchResult struct {
	JobTitle           string
	TotalProfilesFound int
	ProcessedByAI      int
	FiltersApplied     []string
	Candidates         []RankedCandidate
	ProcessingTime     time.Duration
}

// Ports

// ProfileRepository reads candidate profiles from the surrounding store layer.
type ProfileRepository interface {
	ListActive(ctx Context) ([]CandidateProfile, error)
}

// VectorRepository persists profile embeddings keyed uniquely by profile id.
// Upsert must be idempotent; concurrent upserts for one id converge by
// last-write-wins.
type VectorRepository interface {
	Get(ctx Context, profileID string) (ProfileVector, error)
	Upsert(ctx Context, v ProfileVector) error
}

// AIClient is the port to the external embedding and generation providers.
type AIClient interface {
	// Embed returns one fixed-length vector per input text.
	Embed(ctx Context, texts []string) ([][]float32, error)
	// ChatJSON returns the model's message content for a structured prompt.
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Context is an alias so adapters and usecases pass context.Context through
// without the domain package naming it in every signature.
type Context = context.Context
