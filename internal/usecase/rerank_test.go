package usecase_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
	"github.com/fairyhunter13/ai-talent-ranker/internal/usecase"
)

func jobQuery() domain.JobQuery {
	return domain.JobQuery{
		JobTitle:       "Senior Go Developer",
		JobDescription: "Build backend services",
		RequiredSkills: []string{"Go", "PostgreSQL"},
	}
}

func similarity(id string, sim float64) domain.SimilarityResult {
	return domain.SimilarityResult{Profile: profile(id), Similarity: sim}
}

func TestAssess_ParsesStructuredResponse(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{chatFn: func(_, _ string) (string, error) {
		return "```json\n{\"match_score\": 0.91, \"strengths\": [\"go\", \"sql\"], \"growth_areas\": [\"k8s\"], \"summary\": \"  strong fit  \"}\n```", nil
	}}
	rr := usecase.NewReranker(ai, "test-model", 1000, 2)

	out := rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{similarity("p1", 0.8)})
	require.Len(t, out, 1)
	a := out[0]
	assert.Equal(t, "p1", a.ProfileID)
	assert.Equal(t, 0.91, a.MatchScore)
	assert.Equal(t, []string{"go", "sql"}, a.Strengths)
	assert.Equal(t, []string{"k8s"}, a.GrowthAreas)
	assert.Equal(t, "strong fit", a.Summary)
	assert.False(t, a.Fallback)
}

func TestAssess_FallbackOnChatError(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{chatFn: func(_, _ string) (string, error) {
		return "", errProviderDown
	}}
	rr := usecase.NewReranker(ai, "test-model", 1000, 2)

	out := rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{similarity("p1", 0.62)})
	require.Len(t, out, 1)
	a := out[0]
	assert.True(t, a.Fallback)
	assert.Equal(t, 0.62, a.MatchScore)
	assert.Empty(t, a.Strengths)
	assert.Empty(t, a.GrowthAreas)
	assert.NotEmpty(t, a.Summary)
}

func TestAssess_FallbackOnUnparsableResponse(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{chatFn: func(_, _ string) (string, error) {
		return "I am sorry, I cannot produce JSON today", nil
	}}
	rr := usecase.NewReranker(ai, "test-model", 1000, 2)

	out := rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{similarity("p1", 0.4)})
	require.True(t, out[0].Fallback)
	assert.Equal(t, 0.4, out[0].MatchScore)
}

func TestAssess_ClampsScoreToUnitInterval(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{chatFn: func(_, _ string) (string, error) {
		return `{"match_score": 1.7, "summary": "overeager"}`, nil
	}}
	rr := usecase.NewReranker(ai, "test-model", 1000, 2)
	out := rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{similarity("p1", 0.5)})
	assert.Equal(t, 1.0, out[0].MatchScore)

	ai.chatFn = func(_, _ string) (string, error) {
		return `{"match_score": -0.2, "summary": "negative"}`, nil
	}
	out = rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{similarity("p1", 0.5)})
	assert.Equal(t, 0.0, out[0].MatchScore)
}

func TestAssess_OneFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()
	var calls int32
	ai := &fakeAI{chatFn: func(_, userPrompt string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 && strings.Contains(userPrompt, "Candidate p1") {
			return "", errProviderDown
		}
		return `{"match_score": 0.8, "summary": "ok"}`, nil
	}}
	rr := usecase.NewReranker(ai, "test-model", 1000, 1)

	out := rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{
		similarity("p1", 0.9), similarity("p2", 0.7),
	})
	require.Len(t, out, 2)
	assert.True(t, out[0].Fallback)
	assert.False(t, out[1].Fallback)
	assert.Equal(t, "p1", out[0].ProfileID)
	assert.Equal(t, "p2", out[1].ProfileID)
}

func TestAssess_PromptCarriesJobAndCandidate(t *testing.T) {
	t.Parallel()
	ai := &fakeAI{}
	rr := usecase.NewReranker(ai, "test-model", 1000, 2)
	rr.Assess(context.Background(), jobQuery(), []domain.SimilarityResult{similarity("p1", 0.753)})

	assert.Contains(t, ai.lastSys, "HR expert")
	assert.Contains(t, ai.lastUser, "Senior Go Developer")
	assert.Contains(t, ai.lastUser, "Candidate p1")
	assert.Contains(t, ai.lastUser, "Required skills: Go, PostgreSQL")
	// similarity rendered to two decimals
	assert.Contains(t, ai.lastUser, "0.75")
	assert.Contains(t, ai.lastUser, "ONLY the JSON")
}

func TestAssess_RespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	inFlight, peak := 0, 0
	gate := make(chan struct{})
	ai := &fakeAI{chatFn: func(_, _ string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		<-gate
		mu.Lock()
		inFlight--
		mu.Unlock()
		return `{"match_score": 0.5, "summary": "ok"}`, nil
	}}
	rr := usecase.NewReranker(ai, "test-model", 1000, 2)

	batch := []domain.SimilarityResult{
		similarity("a", 0.1), similarity("b", 0.2), similarity("c", 0.3),
		similarity("d", 0.4), similarity("e", 0.5), similarity("f", 0.6),
	}
	done := make(chan struct{})
	go func() {
		rr.Assess(context.Background(), jobQuery(), batch)
		close(done)
	}()
	close(gate)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2)
}
