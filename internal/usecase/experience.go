package usecase

import (
	"regexp"
	"strconv"
)

var yearsRe = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|yrs?)`)

// EstimateExperienceYears scans free-form work-experience text for explicit
// year counts ("5 years", "10+ yrs") and returns the largest one found, or 0.
// A heuristic over unstructured text, good enough for a response projection;
// never used in filtering or scoring.
func EstimateExperienceYears(text string) int {
	best := 0
	for _, m := range yearsRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > best && n <= 60 {
			best = n
		}
	}
	return best
}
