// Package postgres provides PostgreSQL database adapters.
//
// It implements the repository ports for the candidate profile store and the
// profile vector store using pgx with the pgvector codec.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ProfileRepo loads candidate profiles. The table is owned by the surrounding
// platform; this repo is read-only.
type ProfileRepo struct{ Pool PgxPool }

// NewProfileRepo constructs a ProfileRepo with the given pool.
func NewProfileRepo(p PgxPool) *ProfileRepo { return &ProfileRepo{Pool: p} }

// ListActive returns all active candidate profiles.
func (r *ProfileRepo) ListActive(ctx domain.Context) ([]domain.CandidateProfile, error) {
	tracer := otel.Tracer("repo.profiles")
	ctx, span := tracer.Start(ctx, "profiles.ListActive")
	defer span.End()
	q := `SELECT id, full_name, COALESCE(email,''), COALESCE(current_position,''),
		COALESCE(programming_languages,'{}'), COALESCE(other_competencies,'{}'),
		COALESCE(about,''), COALESCE(work_experience,''), COALESCE(education,''),
		COALESCE(experience_level,''), is_active
	FROM candidate_profiles WHERE is_active = TRUE AND role = 'user'`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=profiles.list_active: %w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var out []domain.CandidateProfile
	for rows.Next() {
		var p domain.CandidateProfile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.CurrentPosition,
			&p.ProgrammingLanguages, &p.OtherCompetencies,
			&p.About, &p.WorkExperience, &p.Education,
			&p.ExperienceLevel, &p.Active); err != nil {
			return nil, fmt.Errorf("op=profiles.list_active: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=profiles.list_active: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}
