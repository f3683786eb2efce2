// Package evidence interprets the closed evidence-level vocabularies used
// across PharmGKB, ClinVar, and CPIC into human-readable descriptions and a
// single overall-confidence banding.
package evidence

import (
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

// Interpretation is a human-readable rendering of one evidence-level code.
type Interpretation struct {
	Level       string
	Description string
	Score       float64
}

var pharmGKBLevels = map[string]Interpretation{
	"1A": {Level: "1A", Description: "High/replicated", Score: 5},
	"1B": {Level: "1B", Description: "High/single-cohort", Score: 4},
	"2A": {Level: "2A", Description: "Moderate", Score: 3},
	"2B": {Level: "2B", Description: "Moderate/unreplicated", Score: 2},
	"3":  {Level: "3", Description: "Low", Score: 1},
	"4":  {Level: "4", Description: "Very Low", Score: 0},
}

var cpicLevels = map[string]Interpretation{
	"A": {Level: "A", Description: "Strong", Score: 5},
	"B": {Level: "B", Description: "Moderate", Score: 3},
	"C": {Level: "C", Description: "Optional", Score: 1},
	"D": {Level: "D", Description: "No recommendation", Score: 0},
}

var clinVarReviewLabels = map[int]string{
	0: "No assertion criteria provided",
	1: "Criteria provided, single submitter",
	2: "Criteria provided, multiple submitters, no conflicts",
	3: "Reviewed by expert panel",
	4: "Practice guideline",
}

// InterpretPharmGKBLevel maps a PharmGKB evidence-level term to its
// description and numeric score.
func InterpretPharmGKBLevel(level string) (Interpretation, bool) {
	v, ok := pharmGKBLevels[strings.ToUpper(strings.TrimSpace(level))]
	return v, ok
}

// InterpretCPICLevel maps a CPIC level letter to its description and score.
func InterpretCPICLevel(level string) (Interpretation, bool) {
	v, ok := cpicLevels[strings.ToUpper(strings.TrimSpace(level))]
	return v, ok
}

// InterpretClinVarStars maps a 0-4 star rating to its review-status label
// and uses the star count itself as the numeric score.
func InterpretClinVarStars(stars int) Interpretation {
	label, ok := clinVarReviewLabels[stars]
	if !ok {
		label = "Unknown review status"
	}
	return Interpretation{Description: label, Score: float64(stars)}
}

// bandFor implements spec.md §4.4's binning:
// {Very High >=4, High >=3, Moderate >=2, Low >=1, Very Low <1}.
func bandFor(mean float64) domain.ConfidenceBand {
	switch {
	case mean >= 4:
		return domain.ConfidenceVeryHigh
	case mean >= 3:
		return domain.ConfidenceHigh
	case mean >= 2:
		return domain.ConfidenceModerate
	case mean >= 1:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceVeryLow
	}
}

// OverallConfidence computes the mean of the mapped numeric scores from
// whichever of PharmGKB/ClinVar/CPIC evidence is present, and bins it.
// Sources with no evidence are excluded from the mean, not scored as zero.
func OverallConfidence(pharmGKBLevel string, clinVarStars *int, cpicLevel string) (domain.ConfidenceBand, float64) {
	var scores []float64

	if interp, ok := InterpretPharmGKBLevel(pharmGKBLevel); ok {
		scores = append(scores, interp.Score)
	}
	if clinVarStars != nil {
		scores = append(scores, InterpretClinVarStars(*clinVarStars).Score)
	}
	if interp, ok := InterpretCPICLevel(cpicLevel); ok {
		scores = append(scores, interp.Score)
	}

	if len(scores) == 0 {
		return domain.ConfidenceVeryLow, 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	return bandFor(mean), mean
}
