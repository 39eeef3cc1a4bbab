// Package stub implements a deterministic offline AI client.
//
// It serves local development without provider credentials: embeddings are
// derived from the input text so different profiles land in different spots
// of the vector space, and assessments follow the real response schema.
package stub

import (
	"encoding/json"
	"hash/fnv"

	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
)

// Client is a fast, deterministic AI client for local runs.
type Client struct {
	Dim int
}

// New constructs a stub client producing vectors of the given dimension.
func New(dim int) *Client {
	if dim <= 0 {
		dim = domain.EmbeddingDim
	}
	return &Client{Dim: dim}
}

// Embed returns one fixed-length vector per text, derived from a hash of the
// text so equal inputs embed equally and distinct inputs usually differ.
func (c *Client) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum64()
		v := make([]float32, c.Dim)
		for j := 0; j < 8 && j < c.Dim; j++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			v[j] = float32(int64(seed>>33))/float32(1<<31) + 0.01
		}
		res[i] = v
	}
	return res, nil
}

// ChatJSON returns a compact JSON string matching the assessment schema.
func (c *Client) ChatJSON(_ domain.Context, _ string, _ string, _ int) (string, error) {
	payload := map[string]any{
		"match_score":  0.82,
		"strengths":    []string{"Relevant backend experience", "Strong core language skills"},
		"growth_areas": []string{"Cloud deployment exposure"},
		"summary":      "Solid fit for the role with relevant production experience.",
	}
	b, _ := json.Marshal(payload)
	return string(b), nil
}
