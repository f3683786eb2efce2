// Package sources implements the pure C3 adapters: each file normalises one
// upstream's payload shape into the domain model, isolated from the HTTP
// client and the orchestrator.
package sources

import (
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

// rsidPrefix is the prefix of a bare dbSNP identifier.
const rsidPrefix = "rs"

// IsRSID reports whether s looks like a dbSNP rsID (^rs\d+$).
func IsRSID(s string) bool {
	if !strings.HasPrefix(s, rsidPrefix) || len(s) <= len(rsidPrefix) {
		return false
	}
	for _, r := range s[len(rsidPrefix):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExtractRSID walks a variant's cross-references looking for dbSNP, used
// wherever a source payload nests the rsID instead of surfacing it directly.
func ExtractRSID(xrefs []XRef) string {
	for _, x := range xrefs {
		if strings.EqualFold(x.Database, "dbSNP") && IsRSID(x.ID) {
			return x.ID
		}
	}
	return ""
}

// XRef is a generic cross-reference entry as UniProt/ClinVar payloads embed it.
type XRef struct {
	Database string `json:"database"`
	ID       string `json:"id"`
}

// ExtractPubMedIDs scans a slice of evidence blocks for PubMed source IDs.
func ExtractPubMedIDs(evidences []Evidence) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, ev := range evidences {
		if !strings.EqualFold(ev.Source, "PubMed") || ev.ID == "" {
			continue
		}
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		ids = append(ids, ev.ID)
	}
	return ids
}

// Evidence is a generic UniProt-style evidence annotation.
type Evidence struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// DedupePMIDs merges publication ID lists, preserving first-seen order.
func DedupePMIDs(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// clinvarStarRatings maps ClinVar review status strings to the fixed 0-4
// star rating (Glossary).
var clinvarStarRatings = map[string]int{
	"no assertion provided":                                  0,
	"no assertion criteria provided":                         0,
	"no classification provided":                             0,
	"criteria provided, single submitter":                    1,
	"criteria provided, conflicting classifications":         1,
	"criteria provided, conflicting interpretations":         1,
	"criteria provided, multiple submitters, no conflicts":   2,
	"reviewed by expert panel":                               3,
	"practice guideline":                                     4,
}

// ClinVarStarRating resolves a review status string to its star rating,
// defaulting to 0 for unrecognised statuses.
func ClinVarStarRating(reviewStatus string) int {
	if stars, ok := clinvarStarRatings[strings.ToLower(strings.TrimSpace(reviewStatus))]; ok {
		return stars
	}
	return 0
}

// adverseReactionTerms is the closed vocabulary Phase 3 mines OpenFDA label
// text for. Matched terms are returned as plain strings; they are not mapped
// to SNOMED.
var adverseReactionTerms = []string{"myopathy", "bleeding", "rash", "nausea", "hepatotoxicity"}

// ExtractAdverseReactionTerms scans free text for the closed adverse-reaction
// vocabulary and returns the matched terms, de-duplicated and in vocabulary order.
func ExtractAdverseReactionTerms(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range adverseReactionTerms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// clinicalSignificancePriority is the diplotype-selection preference order
// of spec.md Phase 1 step 4.
var clinicalSignificancePriority = []domain.ClinicalSignificance{
	domain.SigDrugResponse,
	domain.SigPathogenic,
	domain.SigLikelyPathogenic,
	domain.SigVUS,
	domain.SigBenign,
	domain.SigLikelyBenign,
}

// ClinicalSignificancePriority returns the ranked preference list used when
// picking a realistic diplotype from categorised variants.
func ClinicalSignificancePriority() []domain.ClinicalSignificance {
	return clinicalSignificancePriority
}
