package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

type pharmgkbRawChemical struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pharmgkbRawAllelePhenotype struct {
	Allele    string `json:"allele"`
	Phenotype string `json:"phenotype"`
}

type pharmgkbRawLevel struct {
	Term string `json:"term"`
}

type pharmgkbRawAnnotation struct {
	ID                      string                       `json:"id"`
	Name                    string                       `json:"name"`
	Score                   float64                      `json:"score"`
	Types                   []string                     `json:"types"`
	RelatedChemicals        []pharmgkbRawChemical        `json:"relatedChemicals"`
	RelatedDiseases         []pharmgkbRawChemical        `json:"relatedDiseases"`
	AllelePhenotypes        []pharmgkbRawAllelePhenotype `json:"allelePhenotypes"`
	LevelOfEvidence         pharmgkbRawLevel             `json:"levelOfEvidence"`
	History                 []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"history"`
}

type pharmgkbAnnotationResponse struct {
	Data []pharmgkbRawAnnotation `json:"data"`
}

// FetchGeneAnnotations queries PharmGKB's clinicalAnnotation endpoint for a gene.
func FetchGeneAnnotations(ctx context.Context, c *client.Client, geneSymbol string) domain.Result[[]pharmgkbRawAnnotation] {
	q := url.Values{}
	q.Set("location.genes.symbol", geneSymbol)

	result := c.Get(ctx, "pharmgkb", "/v1/data/clinicalAnnotation", q, nil)
	if !result.IsOK() {
		return domain.Failed[[]pharmgkbRawAnnotation](result.Status, result.Err)
	}
	var payload pharmgkbAnnotationResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]pharmgkbRawAnnotation](domain.StatusMalformed, domain.ContractViolationErr("pharmgkb", err.Error()))
	}
	return domain.Ok(payload.Data)
}

// FetchVariantAnnotations queries PharmGKB's variant endpoint by rsID.
func FetchVariantAnnotations(ctx context.Context, c *client.Client, rsid string) domain.Result[[]pharmgkbRawAnnotation] {
	q := url.Values{}
	q.Set("name", rsid)

	result := c.Get(ctx, "pharmgkb", "/v1/data/variant", q, nil)
	if !result.IsOK() {
		return domain.Failed[[]pharmgkbRawAnnotation](result.Status, result.Err)
	}
	var payload pharmgkbAnnotationResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]pharmgkbRawAnnotation](domain.StatusMalformed, domain.ContractViolationErr("pharmgkb", err.Error()))
	}
	return domain.Ok(payload.Data)
}

// NormaliseAnnotations converts raw PharmGKB clinical annotations into the
// domain shape per spec.md §4.3.
func NormaliseAnnotations(raw []pharmgkbRawAnnotation) []domain.PharmGKBAnnotation {
	out := make([]domain.PharmGKBAnnotation, 0, len(raw))
	for _, a := range raw {
		var chemicals, diseases []string
		for _, c := range a.RelatedChemicals {
			chemicals = append(chemicals, c.Name)
		}
		for _, d := range a.RelatedDiseases {
			diseases = append(diseases, d.Name)
		}
		var alleles []domain.AllelePhenotype
		for _, ap := range a.AllelePhenotypes {
			alleles = append(alleles, domain.AllelePhenotype{Allele: ap.Allele, Phenotype: ap.Phenotype})
		}
		var history []string
		for _, h := range a.History {
			history = append(history, h.Text)
		}
		out = append(out, domain.PharmGKBAnnotation{
			AnnotationID:            a.ID,
			AccessionID:             a.ID,
			EvidenceLevel:           a.LevelOfEvidence.Term,
			Score:                   a.Score,
			ClinicalAnnotationTypes: a.Types,
			RelatedChemicals:        chemicals,
			AllelePhenotypes:        alleles,
			RelatedDiseases:         diseases,
			History:                 history,
		})
	}
	return out
}

// ExtractDrugsFromAnnotations walks relatedChemicals and builds drug
// recommendations from the first allele-phenotype text, de-duplicated by name.
func ExtractDrugsFromAnnotations(annotations []domain.PharmGKBAnnotation) []domain.PharmGKBDrug {
	seen := make(map[string]bool)
	var drugs []domain.PharmGKBDrug
	for _, ann := range annotations {
		recommendation := ""
		if len(ann.AllelePhenotypes) > 0 {
			recommendation = ann.AllelePhenotypes[0].Phenotype
		}
		for _, name := range ann.RelatedChemicals {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			drugs = append(drugs, domain.PharmGKBDrug{
				Name:           name,
				Recommendation: recommendation,
				EvidenceLevel:  ann.EvidenceLevel,
			})
		}
	}
	return drugs
}

// pgxPhenotypeKeywords gates which allele-phenotype texts count as phenotype
// evidence worth surfacing (metabolizer/clearance/response language).
var pgxPhenotypeKeywords = []string{"metabolizer", "metaboliser", "function", "clearance", "response", "efficacy", "toxicity"}

// ExtractPhenotypesFromAnnotations collects allele-phenotype texts that carry
// pharmacogenomic signal, de-duplicated.
func ExtractPhenotypesFromAnnotations(annotations []domain.PharmGKBAnnotation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ann := range annotations {
		for _, ap := range ann.AllelePhenotypes {
			lower := strings.ToLower(ap.Phenotype)
			for _, kw := range pgxPhenotypeKeywords {
				if strings.Contains(lower, kw) {
					if !seen[ap.Phenotype] {
						seen[ap.Phenotype] = true
						out = append(out, ap.Phenotype)
					}
					break
				}
			}
		}
	}
	return out
}
