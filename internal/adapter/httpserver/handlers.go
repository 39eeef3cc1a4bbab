package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-talent-ranker/internal/config"
	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
	"github.com/fairyhunter13/ai-talent-ranker/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg     config.Config
	Search  *usecase.SearchService
	DBCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, search *usecase.SearchService, dbCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Search: search, DBCheck: dbCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type searchRequest struct {
	JobTitle               string   `json:"job_title" validate:"required,max=200"`
	JobDescription         string   `json:"job_description" validate:"required,max=8000"`
	RequiredSkills         []string `json:"required_skills" validate:"max=30,dive,max=100"`
	AdditionalRequirements string   `json:"additional_requirements" validate:"max=4000"`
	ExperienceLevel        string   `json:"experience_level" validate:"max=50"`
	MaxCandidates          int      `json:"max_candidates" validate:"min=0,max=100"`
	ThresholdFilterLimit   int      `json:"threshold_filter_limit" validate:"min=0,max=1000"`
}

type candidateResponse struct {
	ID                   string   `json:"id"`
	FullName             string   `json:"full_name"`
	Email                string   `json:"email"`
	CurrentPosition      string   `json:"current_position"`
	ExperienceYears      int      `json:"experience_years"`
	ProgrammingLanguages []string `json:"programming_languages"`
	KeySkills            []string `json:"key_skills"`
	MatchScore           float64  `json:"match_score"`
	SimilarityScore      float64  `json:"similarity_score"`
	AISummary            string   `json:"ai_summary"`
	Strengths            []string `json:"strengths"`
	GrowthAreas          []string `json:"growth_areas"`
	Fallback             bool     `json:"fallback"`
}

type searchResponse struct {
	JobTitle           string              `json:"job_title"`
	TotalProfilesFound int                 `json:"total_profiles_found"`
	ProcessedByAI      int                 `json:"processed_by_ai"`
	FiltersApplied     []string            `json:"filters_applied"`
	Candidates         []candidateResponse `json:"candidates"`
	ProcessingTime     float64             `json:"processing_time_seconds"`
}

// SearchHandler runs one candidate search for a job query.
func (s *Server) SearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Accept negotiation: only JSON responses supported
		if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusNotAcceptable)
			_ = json.NewEncoder(w).Encode(errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a}}})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}

		res, err := s.Search.Search(r.Context(), domain.JobQuery{
			JobTitle:               req.JobTitle,
			JobDescription:         req.JobDescription,
			RequiredSkills:         req.RequiredSkills,
			AdditionalRequirements: req.AdditionalRequirements,
			ExperienceLevel:        req.ExperienceLevel,
			MaxCandidates:          req.MaxCandidates,
			ThresholdFilterLimit:   req.ThresholdFilterLimit,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSearchResponse(res))
	}
}

func toSearchResponse(res domain.SearchResult) searchResponse {
	out := searchResponse{
		JobTitle:           res.JobTitle,
		TotalProfilesFound: res.TotalProfilesFound,
		ProcessedByAI:      res.ProcessedByAI,
		FiltersApplied:     res.FiltersApplied,
		Candidates:         make([]candidateResponse, 0, len(res.Candidates)),
		ProcessingTime:     round3(res.ProcessingTime.Seconds()),
	}
	if out.FiltersApplied == nil {
		out.FiltersApplied = []string{}
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, candidateResponse{
			ID:                   c.Profile.ID,
			FullName:             c.Profile.FullName,
			Email:                c.Profile.Email,
			CurrentPosition:      c.Profile.CurrentPosition,
			ExperienceYears:      usecase.EstimateExperienceYears(c.Profile.WorkExperience),
			ProgrammingLanguages: emptyNotNil(c.Profile.ProgrammingLanguages),
			KeySkills:            emptyNotNil(c.Profile.OtherCompetencies),
			MatchScore:           round3(c.Assessment.MatchScore),
			SimilarityScore:      round3(c.Similarity),
			AISummary:            c.Assessment.Summary,
			Strengths:            emptyNotNil(c.Assessment.Strengths),
			GrowthAreas:          emptyNotNil(c.Assessment.GrowthAreas),
			Fallback:             c.Assessment.Fallback,
		})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ReadyzHandler probes the profile store.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 1)
		ok := true
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
				ok = false
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
