package usecase_test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
)

// fakeAI is a function-field stub for the AI client port. Unset fields
// return canned defaults so each test only configures what it exercises.
type fakeAI struct {
	mu        sync.Mutex
	embedFn   func(texts []string) ([][]float32, error)
	chatFn    func(systemPrompt, userPrompt string) (string, error)
	embeds    int
	chats     int
	lastUser  string
	lastSys   string
	dimension int
}

func (f *fakeAI) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.embeds++
	f.mu.Unlock()
	if f.embedFn != nil {
		return f.embedFn(texts)
	}
	dim := f.dimension
	if dim == 0 {
		dim = domain.EmbeddingDim
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, dim)
		// deterministic non-zero vector derived from text length
		v[0] = float32(len(texts[i])%7 + 1)
		v[1] = 1
		out[i] = v
	}
	return out, nil
}

func (f *fakeAI) ChatJSON(_ domain.Context, systemPrompt, userPrompt string, _ int) (string, error) {
	f.mu.Lock()
	f.chats++
	f.lastSys = systemPrompt
	f.lastUser = userPrompt
	f.mu.Unlock()
	if f.chatFn != nil {
		return f.chatFn(systemPrompt, userPrompt)
	}
	return `{"match_score": 0.75, "strengths": ["go"], "growth_areas": ["k8s"], "summary": "solid"}`, nil
}

func (f *fakeAI) embedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embeds
}

func (f *fakeAI) chatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats
}

// fakeVectors is an in-memory vector store.
type fakeVectors struct {
	mu      sync.Mutex
	store   map[string][]float32
	getErr  error
	putErr  error
	upserts int
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{store: map[string][]float32{}}
}

func (f *fakeVectors) Get(_ domain.Context, profileID string) (domain.ProfileVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.ProfileVector{}, f.getErr
	}
	v, ok := f.store[profileID]
	if !ok {
		return domain.ProfileVector{}, fmt.Errorf("op=vectors.get: %w", domain.ErrNotFound)
	}
	return domain.ProfileVector{ProfileID: profileID, Embedding: v}, nil
}

func (f *fakeVectors) Upsert(_ domain.Context, v domain.ProfileVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.upserts++
	f.store[v.ProfileID] = v.Embedding
	return nil
}

func (f *fakeVectors) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

// fakeProfiles serves a fixed pool.
type fakeProfiles struct {
	pool []domain.CandidateProfile
	err  error
}

func (f *fakeProfiles) ListActive(_ domain.Context) ([]domain.CandidateProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pool, nil
}

var errProviderDown = errors.New("provider down")

func profile(id string, mut ...func(*domain.CandidateProfile)) domain.CandidateProfile {
	p := domain.CandidateProfile{
		ID:                   id,
		FullName:             "Candidate " + id,
		Email:                id + "@example.com",
		CurrentPosition:      "Engineer",
		ProgrammingLanguages: []string{"Go"},
		OtherCompetencies:    []string{"PostgreSQL"},
		About:                "Backend engineer who enjoys distributed systems",
		WorkExperience:       "Five years building APIs",
		Education:            "BSc Computer Science",
		Active:               true,
	}
	for _, m := range mut {
		m(&p)
	}
	return p
}
