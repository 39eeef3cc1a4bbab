package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-talent-ranker/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
)

func TestVectorRepo_Get_Success(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*dest[0].(*string) = "p1"
		*dest[1].(*pgvector.Vector) = pgvector.NewVector([]float32{0.1, 0.2, 0.3})
		*dest[2].(*time.Time) = now
		*dest[3].(*time.Time) = now
		return nil
	}}}
	repo := postgres.NewVectorRepo(pool)

	v, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", v.ProfileID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v.Embedding)
	assert.Equal(t, now, v.CreatedAt)
}

func TestVectorRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewVectorRepo(pool)

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorRepo_Get_StoreError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(...any) error { return errors.New("conn reset") }}}
	repo := postgres.NewVectorRepo(pool)

	_, err := repo.Get(context.Background(), "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestVectorRepo_Upsert_Success(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	repo := postgres.NewVectorRepo(pool)

	err := repo.Upsert(context.Background(), domain.ProfileVector{
		ProfileID: "p1",
		Embedding: []float32{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Contains(t, pool.execSQL, "ON CONFLICT (profile_id)")
	require.Len(t, pool.execArgs, 4)
	assert.Equal(t, "p1", pool.execArgs[0])
	assert.Equal(t, pgvector.NewVector([]float32{1, 2, 3}), pool.execArgs[1])
}

func TestVectorRepo_Upsert_StoreError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("conn reset")}
	repo := postgres.NewVectorRepo(pool)

	err := repo.Upsert(context.Background(), domain.ProfileVector{ProfileID: "p1", Embedding: []float32{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
