package phases

import (
	"context"
	"fmt"
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
	"github.com/ugent-pgx/knowledge-graph/pkg/sources"
)

const geneLiteratureLimit = 5
const drugLiteratureLimit = 3

// EnrichmentResult is phase 3's output: the variants with literature
// attached, the drugs affected by them enriched with cross-reference
// identifiers, the diseases they're associated with, and the publication
// pool discovered along the way.
type EnrichmentResult struct {
	Variants     []domain.Variant
	Drugs        []domain.Drug
	Diseases     []string
	Publications map[string]domain.Publication
}

// RunEnrichment implements §4.4.3: it resolves each drug surfaced by phase 2
// against ChEMBL/RxNorm/SNOMED, mines openFDA label text for adverse
// reactions, and gathers gene- and drug-level literature from Europe PMC.
// A drug that can't be resolved against a given upstream keeps whatever
// cross-reference fields it already has — enrichment degrades gracefully,
// one missing upstream per drug is not a phase failure.
func RunEnrichment(ctx context.Context, c *client.Client, r *resolver.Resolver, geneSymbol string, variants []domain.Variant, bus *eventbus.Bus) EnrichmentResult {
	bus.Emit(eventbus.StageEnrichment, eventbus.SubstageDrugDiseaseContext, eventbus.LevelInfo,
		fmt.Sprintf("enriching drugs and diseases for %s", geneSymbol), nil, nil)

	publications := make(map[string]domain.Publication)
	genePubs := fetchLiterature(ctx, c, geneSymbol, "", "", geneLiteratureLimit, publications)

	drugs := collectDrugs(variants)
	diseases := collectDiseases(variants)

	drugPubs := make(map[string][]string, len(drugs))
	for i, d := range drugs {
		drugs[i] = enrichDrug(ctx, c, r, d, bus)
		drugPubs[d.Name] = fetchLiterature(ctx, c, geneSymbol, d.Name, "", drugLiteratureLimit, publications)
	}

	out := make([]domain.Variant, len(variants))
	for i, v := range variants {
		if v.Literature == nil {
			v.Literature = &domain.LiteratureInfo{}
		}
		v.Literature.GenePubs = genePubs
		if v.PharmGKB != nil && len(v.PharmGKB.Drugs) > 0 {
			merged := make(map[string][]string)
			for _, d := range v.PharmGKB.Drugs {
				if pubs, ok := drugPubs[d.Name]; ok {
					merged[d.Name] = pubs
				}
			}
			if len(merged) > 0 {
				v.Literature.DrugPubs = merged
			}
		}
		out[i] = v
	}

	return EnrichmentResult{Variants: out, Drugs: drugs, Diseases: diseases, Publications: publications}
}

// collectDrugs builds one domain.Drug per uniquely-named variant drug,
// aggregating the gene's variant IDs that carry it.
func collectDrugs(variants []domain.Variant) []domain.Drug {
	byName := make(map[string]*domain.Drug)
	var order []string
	for _, v := range variants {
		if v.PharmGKB == nil {
			continue
		}
		for _, d := range v.PharmGKB.Drugs {
			entry, ok := byName[d.Name]
			if !ok {
				entry = &domain.Drug{Name: d.Name, Recommendation: d.Recommendation, EvidenceLevel: d.EvidenceLevel}
				byName[d.Name] = entry
				order = append(order, d.Name)
			}
			entry.Variants = append(entry.Variants, v.VariantID)
			if entry.Recommendation == "" {
				entry.Recommendation = d.Recommendation
			}
		}
	}
	out := make([]domain.Drug, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// collectDiseases pools disease names from three sources, per spec.md §4.4
// Phase 3: PharmGKB's already-structured related-disease field, ClinVar
// phenotype strings (which are themselves disease names), and disease names
// mined out of PharmGKB phenotype prose via the pharmacogenomics-aware
// pattern library in pkg/sources.
func collectDiseases(variants []domain.Variant) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(d string) {
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}

	for _, v := range variants {
		if v.PharmGKB != nil {
			for _, ann := range v.PharmGKB.Annotations {
				for _, d := range ann.RelatedDiseases {
					add(d)
				}
			}
			for _, p := range v.PharmGKB.Phenotypes {
				for _, d := range sources.ExtractPharmGKBDiseases(p) {
					add(d)
				}
			}
		}
		if v.ClinVar != nil {
			for _, p := range v.ClinVar.Phenotypes {
				if len(strings.TrimSpace(p)) > 3 {
					add(p)
				}
			}
		}
	}
	return out
}

// enrichDrug resolves cross-reference identifiers for one drug and, when
// PharmGKB supplied no recommendation text, derives one from its ChEMBL
// mechanism of action or a SNOMED post-coordinated expression built from
// openFDA label findings.
func enrichDrug(ctx context.Context, c *client.Client, r *resolver.Resolver, d domain.Drug, bus *eventbus.Bus) domain.Drug {
	if compound := sources.SearchCompound(ctx, c, d.Name); compound.IsOK() {
		d.ChEMBLID = compound.Value.ChEMBLID
		if d.Recommendation == "" {
			if mechanisms := sources.FetchMechanismOfAction(ctx, c, d.ChEMBLID); mechanisms.IsOK() && len(mechanisms.Value) > 0 {
				d.Recommendation = fmt.Sprintf("Acts via %s", mechanisms.Value[0].Mechanism)
			}
		}
	} else {
		bus.Emit(eventbus.StageEnrichment, eventbus.SubstageDrugDiseaseContext, eventbus.LevelWarn,
			fmt.Sprintf("no ChEMBL match for %s", d.Name), nil, nil)
	}

	if match := r.ResolveRxNorm(ctx, d.Name); match.IsOK() {
		d.RxNormCUI = match.Value.CUI
	}
	if match := r.ResolveDrugSNOMED(ctx, d.Name); match.IsOK() {
		d.SNOMEDCode = match.Value.Code
	}

	if labels := sources.FetchLabelFindings(ctx, c, d.Name); labels.IsOK() && len(labels.Value) > 0 && d.Recommendation == "" {
		if expr, ok := sources.BuildPostCoordinatedExpression(labels.Value[0].Term, "", d.Name); ok {
			d.Recommendation = expr.String()
		}
	}

	return d
}

func fetchLiterature(ctx context.Context, c *client.Client, gene, drug, disease string, limit int, pool map[string]domain.Publication) []string {
	result := sources.SearchLiterature(ctx, c, gene, drug, disease, limit)
	if !result.IsOK() {
		return nil
	}
	ids := make([]string, 0, len(result.Value))
	for _, pub := range result.Value {
		if pub.PMID == "" {
			continue
		}
		pool[pub.PMID] = pub
		ids = append(ids, pub.PMID)
	}
	return ids
}
