package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
)

// VectorRepo persists profile embeddings in a pgvector column keyed uniquely
// by profile id. Concurrent upserts for the same id converge to a single row
// (last write wins); the embedded text is deterministic per profile snapshot,
// so ordering does not matter.
type VectorRepo struct{ Pool PgxPool }

// NewVectorRepo constructs a VectorRepo with the given pool.
func NewVectorRepo(p PgxPool) *VectorRepo { return &VectorRepo{Pool: p} }

// Get loads the vector for a profile id.
func (r *VectorRepo) Get(ctx domain.Context, profileID string) (domain.ProfileVector, error) {
	tracer := otel.Tracer("repo.vectors")
	ctx, span := tracer.Start(ctx, "vectors.Get")
	defer span.End()
	q := `SELECT profile_id, embedding, created_at, updated_at FROM profile_vectors WHERE profile_id=$1`
	row := r.Pool.QueryRow(ctx, q, profileID)
	var v domain.ProfileVector
	var emb pgvector.Vector
	if err := row.Scan(&v.ProfileID, &emb, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ProfileVector{}, fmt.Errorf("op=vectors.get: %w", domain.ErrNotFound)
		}
		return domain.ProfileVector{}, fmt.Errorf("op=vectors.get: %w: %v", domain.ErrStoreUnavailable, err)
	}
	v.Embedding = emb.Slice()
	return v, nil
}

// Upsert stores a vector for a profile id, replacing any existing row.
func (r *VectorRepo) Upsert(ctx domain.Context, v domain.ProfileVector) error {
	tracer := otel.Tracer("repo.vectors")
	ctx, span := tracer.Start(ctx, "vectors.Upsert")
	defer span.End()
	now := time.Now().UTC()
	q := `INSERT INTO profile_vectors (profile_id, embedding, created_at, updated_at)
	VALUES ($1,$2,$3,$4)
	ON CONFLICT (profile_id)
	DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = EXCLUDED.updated_at`
	_, err := r.Pool.Exec(ctx, q, v.ProfileID, pgvector.NewVector(v.Embedding), now, now)
	if err != nil {
		return fmt.Errorf("op=vectors.upsert: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
