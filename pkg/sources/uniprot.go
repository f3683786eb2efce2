package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

// UniProtVariant is one entry from the UniProt variation API.
type UniProtVariant struct {
	FeatureID              string     `json:"featureId"`
	WildType               string     `json:"wildType"`
	Mutation               string     `json:"mutatedType"`
	Begin                  string     `json:"begin"`
	GenomicLocation        string     `json:"genomicLocation"`
	ClinicalSignificances  []struct {
		Type     string `json:"type"`
		Sources  []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sources"`
	} `json:"clinicalSignificances"`
	PopulationFrequencies []struct {
		Source    string  `json:"source"`
		Frequency float64 `json:"frequency"`
	} `json:"populationFrequencies"`
	Evidences []struct {
		Code   string `json:"code"`
		Source struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"source"`
	} `json:"evidences"`
	Xrefs []XRef `json:"xrefs"`
}

type uniprotVariationResponse struct {
	Features []UniProtVariant `json:"features"`
}

// FetchVariants retrieves the raw variation catalogue for a UniProt accession.
func FetchVariants(ctx context.Context, c *client.Client, proteinID string) domain.Result[[]UniProtVariant] {
	result := c.Get(ctx, "uniprot", fmt.Sprintf("/variation/%s", proteinID), nil, nil)
	if !result.IsOK() {
		return domain.Failed[[]UniProtVariant](result.Status, result.Err)
	}
	var payload uniprotVariationResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]UniProtVariant](domain.StatusMalformed, domain.ContractViolationErr("uniprot", err.Error()))
	}
	return domain.Ok(payload.Features)
}

// FilterClinical drops variants carrying no clinicalSignificances entries.
func FilterClinical(raw []UniProtVariant) []UniProtVariant {
	var out []UniProtVariant
	for _, v := range raw {
		if len(v.ClinicalSignificances) > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Categorise groups clinically significant variants by their first reported
// significance string.
func Categorise(variants []UniProtVariant) map[string][]UniProtVariant {
	out := make(map[string][]UniProtVariant)
	for _, v := range variants {
		if len(v.ClinicalSignificances) == 0 {
			continue
		}
		sig := v.ClinicalSignificances[0].Type
		out[sig] = append(out[sig], v)
	}
	return out
}

// PubMedEvidence is one variant's PubMed-sourced evidence entry keyed by
// feature ID, as extracted per category.
type PubMedEvidence struct {
	Variant   UniProtVariant
	PubMedIDs []string
}

// ExtractPubmedEvidence builds {category -> {featureId -> evidence}} from a
// categorised variant map.
func ExtractPubmedEvidence(categorised map[string][]UniProtVariant) map[string]map[string]PubMedEvidence {
	out := make(map[string]map[string]PubMedEvidence)
	for category, variants := range categorised {
		bucket := make(map[string]PubMedEvidence)
		for _, v := range variants {
			var ids []string
			for _, ev := range v.Evidences {
				if ev.Source.Name == "PubMed" && ev.Source.ID != "" {
					ids = append(ids, ev.Source.ID)
				}
			}
			bucket[v.FeatureID] = PubMedEvidence{Variant: v, PubMedIDs: ids}
		}
		out[category] = bucket
	}
	return out
}

// rankScore implements the ranking formula of spec.md §4.3: presence of
// populationFrequencies (+100, +20 if >= 2 sources), presence of evidences
// (+50, +30 if any PubMed source).
func rankScore(v UniProtVariant) int {
	score := 0
	if len(v.PopulationFrequencies) > 0 {
		score += 100
		if len(v.PopulationFrequencies) >= 2 {
			score += 20
		}
	}
	if len(v.Evidences) > 0 {
		score += 50
		for _, ev := range v.Evidences {
			if ev.Source.Name == "PubMed" {
				score += 30
				break
			}
		}
	}
	return score
}

// RankVariants orders variants by rankScore, highest first, stable on ties.
func RankVariants(variants []UniProtVariant) []UniProtVariant {
	out := make([]UniProtVariant, len(variants))
	copy(out, variants)
	sort.SliceStable(out, func(i, j int) bool {
		return rankScore(out[i]) > rankScore(out[j])
	})
	return out
}

// RestoreEvidences re-attaches evidences stripped from selected variants by
// matching on location or genomic location against the original catalogue.
func RestoreEvidences(selected []UniProtVariant, originals []UniProtVariant) []UniProtVariant {
	byLocation := make(map[string]UniProtVariant)
	for _, o := range originals {
		if o.Begin != "" {
			byLocation[o.Begin] = o
		}
		if o.GenomicLocation != "" {
			byLocation[o.GenomicLocation] = o
		}
	}
	out := make([]UniProtVariant, len(selected))
	for i, v := range selected {
		if len(v.Evidences) == 0 {
			if orig, ok := byLocation[v.Begin]; ok && len(orig.Evidences) > 0 {
				v.Evidences = orig.Evidences
			} else if orig, ok := byLocation[v.GenomicLocation]; ok && len(orig.Evidences) > 0 {
				v.Evidences = orig.Evidences
			}
		}
		out[i] = v
	}
	return out
}

// ToDomainVariant converts a fetched UniProt variant plus its derived
// clinical significance into the shared domain.Variant shape.
func ToDomainVariant(v UniProtVariant, geneSymbol string, significance domain.ClinicalSignificance) domain.Variant {
	rsid := ExtractRSID(v.Xrefs)
	var pubmedIDs []string
	for _, ev := range v.Evidences {
		if ev.Source.Name == "PubMed" && ev.Source.ID != "" {
			pubmedIDs = append(pubmedIDs, ev.Source.ID)
		}
	}
	variant := domain.Variant{
		VariantID:            v.FeatureID,
		RSID:                 rsid,
		GeneSymbol:           geneSymbol,
		WildType:             v.WildType,
		AlternativeSequence:  v.Mutation,
		ClinicalSignificance: significance,
	}
	if len(pubmedIDs) > 0 {
		variant.Literature = &domain.LiteratureInfo{VariantPubs: pubmedIDs}
	}
	return variant
}
