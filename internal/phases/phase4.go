package phases

import (
	"context"
	"fmt"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/pkg/hgvs"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
)

var hgvsValidator = hgvs.NewValidator()

// BuildGraph implements §4.4 Phase 4: it assembles the in-memory node/edge
// arena for one gene's diplotype. Variants without an rsID are skipped for
// node/edge emission (the caller still carries them in the plain JSON-LD
// variant array via phase 5) but everything else degrades gracefully — a
// variant whose HGVS notation fails validation, or whose phenotype text
// cannot be resolved to a SNOMED concept, still gets its node and its other
// edges; only the malformed piece is omitted, with a warning event.
func BuildGraph(ctx context.Context, r *resolver.Resolver, geneSymbol, proteinID string, variants []domain.Variant, drugs []domain.Drug, bus *eventbus.Bus) domain.KnowledgeGraph {
	bus.Emit(eventbus.StageEnrichment, eventbus.SubstageRDFAssembly, eventbus.LevelInfo,
		fmt.Sprintf("assembling knowledge graph for %s", geneSymbol), nil, nil)

	g := domain.KnowledgeGraph{Nodes: make(map[string]domain.GraphNode)}

	geneID := "uniprot:" + proteinID
	g.AddNode(domain.GraphNode{ID: geneID, Type: domain.NodeGene, Label: geneSymbol})

	drugNodeByName := make(map[string]string, len(drugs))
	for _, d := range drugs {
		id := drugNodeID(d)
		if id == "" {
			continue
		}
		drugNodeByName[d.Name] = id
		g.AddNode(domain.GraphNode{ID: id, Type: domain.NodeDrug, Label: d.Name, Properties: map[string]any{
			"recommendation": d.Recommendation,
		}})
	}

	for _, v := range variants {
		if v.RSID == "" {
			bus.Emit(eventbus.StageEnrichment, eventbus.SubstageRDFAssembly, eventbus.LevelWarn,
				fmt.Sprintf("skipping graph emission for %s: no rsID", v.VariantID), nil, nil)
			continue
		}
		variantID := "dbsnp:" + v.RSID
		if err := validateNotation(v); err != nil {
			bus.Emit(eventbus.StageEnrichment, eventbus.SubstageRDFAssembly, eventbus.LevelWarn,
				fmt.Sprintf("invalid HGVS notation for %s: %v", v.VariantID, err), nil, nil)
		}
		g.AddNode(domain.GraphNode{ID: variantID, Type: domain.NodeVariant, Label: v.VariantID, Properties: map[string]any{
			"gene_symbol":           v.GeneSymbol,
			"clinical_significance": string(v.ClinicalSignificance),
		}})
		g.Edges = append(g.Edges, domain.GraphEdge{From: geneID, To: variantID, Type: domain.EdgeHasVariant})

		if v.PharmGKB != nil {
			for _, d := range v.PharmGKB.Drugs {
				if drugID, ok := drugNodeByName[d.Name]; ok {
					g.Edges = append(g.Edges, domain.GraphEdge{From: variantID, To: drugID, Type: domain.EdgeAffectsDrug})
				}
			}
		}

		attachFindings(ctx, r, &g, variantID, v, bus)
		attachDiseases(ctx, r, &g, variantID, v, bus)
		attachPublications(&g, variantID, v)
	}

	return g
}

func validateNotation(v domain.Variant) error {
	if v.HGVSNotation != "" {
		if err := hgvsValidator.ValidateHGVS(v.HGVSNotation); err != nil {
			return err
		}
	}
	if v.GenomicNotation != "" {
		return hgvsValidator.ValidateHGVS(v.GenomicNotation)
	}
	return nil
}

func drugNodeID(d domain.Drug) string {
	if d.ChEMBLID != "" {
		return "chembl:" + d.ChEMBLID
	}
	if d.RxNormCUI != "" {
		return "rxnorm:" + d.RxNormCUI
	}
	return ""
}

// attachFindings resolves the variant's ClinVar and PharmGKB phenotype text
// to SNOMED clinical-finding concepts and links them in.
func attachFindings(ctx context.Context, r *resolver.Resolver, g *domain.KnowledgeGraph, variantID string, v domain.Variant, bus *eventbus.Bus) {
	var phenotypes []string
	if v.ClinVar != nil {
		phenotypes = append(phenotypes, v.ClinVar.Phenotypes...)
	}
	if v.PharmGKB != nil {
		phenotypes = append(phenotypes, v.PharmGKB.Phenotypes...)
	}
	for _, text := range phenotypes {
		if text == "" {
			continue
		}
		match := r.ResolveSNOMED(ctx, text)
		if !match.IsOK() {
			bus.Emit(eventbus.StageEnrichment, eventbus.SubstageRDFAssembly, eventbus.LevelWarn,
				fmt.Sprintf("no SNOMED concept for finding %q on %s", text, v.VariantID), nil, nil)
			continue
		}
		findingID := "snomed:" + match.Value.Code
		g.AddNode(domain.GraphNode{ID: findingID, Type: domain.NodeFinding, Label: match.Value.Label})
		g.Edges = append(g.Edges, domain.GraphEdge{From: variantID, To: findingID, Type: domain.EdgeHasClinicalFinding})
	}
}

// attachDiseases resolves the variant's PharmGKB related-disease entries to
// SNOMED disease concepts and links them in.
func attachDiseases(ctx context.Context, r *resolver.Resolver, g *domain.KnowledgeGraph, variantID string, v domain.Variant, bus *eventbus.Bus) {
	if v.PharmGKB == nil {
		return
	}
	seen := make(map[string]bool)
	for _, ann := range v.PharmGKB.Annotations {
		for _, d := range ann.RelatedDiseases {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			match := r.ResolveSNOMED(ctx, d)
			if !match.IsOK() {
				bus.Emit(eventbus.StageEnrichment, eventbus.SubstageRDFAssembly, eventbus.LevelWarn,
					fmt.Sprintf("no SNOMED concept for disease %q on %s", d, v.VariantID), nil, nil)
				continue
			}
			diseaseID := "snomed:" + match.Value.Code
			g.AddNode(domain.GraphNode{ID: diseaseID, Type: domain.NodeDisease, Label: match.Value.Label})
			g.Edges = append(g.Edges, domain.GraphEdge{From: variantID, To: diseaseID, Type: domain.EdgeAssociatedWithDisease})
		}
	}
}

func attachPublications(g *domain.KnowledgeGraph, variantID string, v domain.Variant) {
	if v.Literature == nil {
		return
	}
	pmids := make(map[string]bool)
	for _, pmid := range v.Literature.GenePubs {
		pmids[pmid] = true
	}
	for _, pmid := range v.Literature.VariantPubs {
		pmids[pmid] = true
	}
	for _, list := range v.Literature.DrugPubs {
		for _, pmid := range list {
			pmids[pmid] = true
		}
	}
	for pmid := range pmids {
		if pmid == "" {
			continue
		}
		pubID := "pubmed:" + pmid
		g.AddNode(domain.GraphNode{ID: pubID, Type: domain.NodePublication, Label: pmid})
		g.Edges = append(g.Edges, domain.GraphEdge{From: variantID, To: pubID, Type: domain.EdgeHasEvidence})
	}
}
