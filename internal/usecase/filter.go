package usecase

import (
	"strings"

	"github.com/fairyhunter13/ai-talent-ranker/internal/domain"
)

// maxKeyTerms caps how many vocabulary terms the cascading filter extracts
// from the job text.
const maxKeyTerms = 5

// FilterBySkills returns the subset of pool where any required skill matches
// (case-insensitive substring) any of the candidate's skill lists, other
// competencies or about text. An empty skill list returns pool unchanged.
// Pure function over the snapshot it is given.
func FilterBySkills(pool []domain.CandidateProfile, skills []string) []domain.CandidateProfile {
	if len(skills) == 0 {
		return pool
	}
	out := make([]domain.CandidateProfile, 0, len(pool))
	for _, p := range pool {
		if profileMatchesAnySkill(p, skills) {
			out = append(out, p)
		}
	}
	return out
}

func profileMatchesAnySkill(p domain.CandidateProfile, skills []string) bool {
	fields := make([]string, 0, len(p.ProgrammingLanguages)+len(p.OtherCompetencies)+1)
	fields = append(fields, p.ProgrammingLanguages...)
	fields = append(fields, p.OtherCompetencies...)
	fields = append(fields, p.About)
	for _, skill := range skills {
		s := strings.ToLower(strings.TrimSpace(skill))
		if s == "" {
			continue
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), s) {
				return true
			}
		}
	}
	return false
}

// ExtractKeyTerms returns up to maxKeyTerms vocabulary terms present in text,
// in vocabulary order. A fixed lookup, not NLP: the stage must stay
// deterministic and testable independent of any model.
func ExtractKeyTerms(text string, vocab []string) []string {
	lower := strings.ToLower(text)
	var terms []string
	for _, term := range vocab {
		if strings.Contains(lower, strings.ToLower(term)) {
			terms = append(terms, term)
			if len(terms) == maxKeyTerms {
				break
			}
		}
	}
	return terms
}

// FilterByKeywords narrows pool to candidates whose about or work-experience
// text contains at least one keyword, or whose experience-level tag matches
// the hint when supplied. Matching is case-insensitive substring both ways
// for the tag.
func FilterByKeywords(pool []domain.CandidateProfile, keywords []string, experienceLevel string) []domain.CandidateProfile {
	hint := strings.ToLower(strings.TrimSpace(experienceLevel))
	out := make([]domain.CandidateProfile, 0, len(pool))
	for _, p := range pool {
		if profileMatchesKeywords(p, keywords) || matchesExperienceLevel(p, hint) {
			out = append(out, p)
		}
	}
	return out
}

func profileMatchesKeywords(p domain.CandidateProfile, keywords []string) bool {
	about := strings.ToLower(p.About)
	work := strings.ToLower(p.WorkExperience)
	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		if strings.Contains(about, k) || strings.Contains(work, k) {
			return true
		}
	}
	return false
}

func matchesExperienceLevel(p domain.CandidateProfile, hint string) bool {
	if hint == "" {
		return false
	}
	tag := strings.ToLower(p.ExperienceLevel)
	if tag == "" {
		return false
	}
	return strings.Contains(tag, hint) || strings.Contains(hint, tag)
}
