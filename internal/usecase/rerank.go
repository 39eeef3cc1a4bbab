package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"golang.org/x/sync/errgroup"

	aix "github.com/fairyhunter13/ai-talent-ranker/internal/adapter/ai"
	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
	"github.com/fairyhunter13/ai-talent-ranker/pkg/textx"
)

// systemPersona frames every assessment call. Kept stable so repeated
// assessments of the same candidate vary only with provider noise.
const systemPersona = "You are a professional HR expert experienced in IT recruiting. " +
	"Assess candidate profiles objectively, weighing skills, work experience, " +
	"education and growth potential."

// fallbackSummary is the ai_summary used when the generation call failed and
// the assessment was derived from vector similarity alone.
const fallbackSummary = "Baseline assessment derived from profile vector similarity."

// promptTokenBudget bounds the user prompt; profiles whose free text blows
// the budget get their longest sections truncated before the call.
const promptTokenBudget = 6000

// Reranker requests a structured relevance assessment per candidate from the
// generation provider, with bounded parallelism and per-candidate fallback.
type Reranker struct {
	AI          domain.AIClient
	Model       string
	MaxTokens   int
	Concurrency int

	cleaner *aix.ResponseCleaner
	tokens  *tokencount.Counter
}

// NewReranker constructs a Reranker.
func NewReranker(ai domain.AIClient, model string, maxTokens, concurrency int) *Reranker {
	return &Reranker{
		AI:          ai,
		Model:       model,
		MaxTokens:   maxTokens,
		Concurrency: concurrency,
		cleaner:     aix.NewResponseCleaner(),
		tokens:      tokencount.DefaultCounter,
	}
}

// Assess returns one assessment per ranked candidate, positionally aligned
// with the input. Workers run with a fixed concurrency limit to respect
// provider rate limits; one candidate's failure never aborts the batch, so
// Assess itself cannot fail.
func (rr *Reranker) Assess(ctx domain.Context, q domain.JobQuery, ranked []domain.SimilarityResult) []domain.LLMAssessment {
	out := make([]domain.LLMAssessment, len(ranked))

	limit := rr.Concurrency
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, sr := range ranked {
		g.Go(func() error {
			out[i] = rr.assessOne(ctx, q, sr)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (rr *Reranker) assessOne(ctx domain.Context, q domain.JobQuery, sr domain.SimilarityResult) domain.LLMAssessment {
	prompt := rr.buildPrompt(q, sr)
	raw, err := rr.AI.ChatJSON(ctx, systemPersona, prompt, rr.MaxTokens)
	if err != nil {
		return rr.fallback(sr, fmt.Sprintf("chat call: %v", err))
	}
	parsed, err := rr.parseAssessment(raw)
	if err != nil {
		return rr.fallback(sr, fmt.Sprintf("parse response: %v", err))
	}
	parsed.ProfileID = sr.Profile.ID
	return parsed
}

// fallback produces the degraded assessment: match score equals the vector
// similarity, lists empty, flag set. Individual failures degrade, they are
// never escalated.
func (rr *Reranker) fallback(sr domain.SimilarityResult, reason string) domain.LLMAssessment {
	observability.RecordFallback(string(domain.StageLLMAssessed))
	slog.Warn("candidate assessment fell back to similarity",
		slog.String("stage", string(domain.StageLLMAssessed)),
		slog.String("profile_id", sr.Profile.ID),
		slog.String("reason", reason))
	return domain.LLMAssessment{
		ProfileID:  sr.Profile.ID,
		MatchScore: sr.Similarity,
		Summary:    fallbackSummary,
		Fallback:   true,
	}
}

type assessmentJSON struct {
	MatchScore  float64  `json:"match_score"`
	Strengths   []string `json:"strengths"`
	GrowthAreas []string `json:"growth_areas"`
	Summary     string   `json:"summary"`
}

func (rr *Reranker) parseAssessment(raw string) (domain.LLMAssessment, error) {
	cleaned := rr.cleaner.CleanJSONResponse(raw)
	var a assessmentJSON
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return domain.LLMAssessment{}, fmt.Errorf("assessment json: %w", err)
	}
	score := a.MatchScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return domain.LLMAssessment{
		MatchScore:  score,
		Summary:     strings.TrimSpace(a.Summary),
		Strengths:   a.Strengths,
		GrowthAreas: a.GrowthAreas,
	}, nil
}

func (rr *Reranker) buildPrompt(q domain.JobQuery, sr domain.SimilarityResult) string {
	info := rr.candidateInfo(sr, 1200, 2000)
	prompt := rr.renderPrompt(q, info)
	if !rr.tokens.FitsBudget(prompt, rr.Model, promptTokenBudget) {
		// Long free-text sections are the only unbounded inputs
		info = rr.candidateInfo(sr, 400, 600)
		prompt = rr.renderPrompt(q, info)
	}
	return prompt
}

func (rr *Reranker) candidateInfo(sr domain.SimilarityResult, aboutMax, workMax int) string {
	p := sr.Profile
	var b strings.Builder
	b.WriteString("CANDIDATE:\n")
	fmt.Fprintf(&b, "Name: %s\n", textx.FirstNonEmpty(p.FullName, p.ID))
	if p.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", p.Email)
	}
	if p.CurrentPosition != "" {
		fmt.Fprintf(&b, "Current position: %s\n", p.CurrentPosition)
	}
	fmt.Fprintf(&b, "Programming languages: %s\n", textx.FirstNonEmpty(strings.Join(p.ProgrammingLanguages, ", "), "not listed"))
	fmt.Fprintf(&b, "Other skills: %s\n", textx.FirstNonEmpty(strings.Join(p.OtherCompetencies, ", "), "not listed"))
	fmt.Fprintf(&b, "About: %s\n", textx.FirstNonEmpty(textx.Truncate(textx.SanitizeText(p.About), aboutMax), "not provided"))
	fmt.Fprintf(&b, "Work experience: %s\n", textx.FirstNonEmpty(textx.Truncate(textx.SanitizeText(p.WorkExperience), workMax), "not provided"))
	fmt.Fprintf(&b, "Education: %s\n", textx.FirstNonEmpty(textx.SanitizeText(p.Education), "not provided"))
	fmt.Fprintf(&b, "Vector similarity to the job: %.2f", sr.Similarity)
	return b.String()
}

func (rr *Reranker) renderPrompt(q domain.JobQuery, candidateInfo string) string {
	var b strings.Builder
	b.WriteString("Analyze how well the candidate matches the job requirements.\n\n")
	b.WriteString("JOB:\n")
	fmt.Fprintf(&b, "Title: %s\n", q.JobTitle)
	fmt.Fprintf(&b, "Description: %s\n", q.JobDescription)
	if q.AdditionalRequirements != "" {
		fmt.Fprintf(&b, "Additional requirements: %s\n", q.AdditionalRequirements)
	}
	if len(q.RequiredSkills) > 0 {
		fmt.Fprintf(&b, "Required skills: %s\n", strings.Join(q.RequiredSkills, ", "))
	}
	b.WriteString("\n")
	b.WriteString(candidateInfo)
	b.WriteString("\n\nTASKS:\n")
	b.WriteString("1. Score the candidate's match from 0.0 to 1.0 (1.0 is a perfect match)\n")
	b.WriteString("2. Name 2-3 key strengths\n")
	b.WriteString("3. Name 1-2 growth areas or missing skills\n")
	b.WriteString("4. Write a short conclusion (2-3 sentences)\n\n")
	b.WriteString("ANSWER AS JSON:\n")
	b.WriteString(`{"match_score": 0.85, "strengths": ["..."], "growth_areas": ["..."], "summary": "..."}`)
	b.WriteString("\n\nIMPORTANT: respond with ONLY the JSON, no additional text.")
	return b.String()
}
