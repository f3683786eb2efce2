// Package phases implements the five discovery-through-export stages of the
// per-gene pipeline (§4.1-4.4): variant discovery, clinical validation, drug
// and disease enrichment, in-memory graph assembly, and JSON-LD export.
package phases

import (
	"context"
	"fmt"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
	"github.com/ugent-pgx/knowledge-graph/pkg/sources"
)

// DiscoveryResult is phase 1's output: the resolved protein accession plus
// the two-variant diplotype selected for the gene.
type DiscoveryResult struct {
	ProteinID string
	Variants  []domain.Variant
}

// RunDiscovery resolves a gene symbol to its UniProt accession, fetches its
// variant catalogue, and selects a realistic diplotype from it following the
// priority order of spec.md §4.4.1 step 4: a clinically significant variant
// is preferred over none, higher-priority significance categories are
// preferred over lower ones, and within a category the highest-ranked
// variant (population-frequency and evidence weighted) is kept. A single
// selected variant is duplicated into a homozygous diplotype; no variants
// found yields an empty diplotype rather than an error. A non-empty
// overrideProteinID (the CLI's §6.2 `--protein` flag) skips resolution
// entirely and is used as-is.
func RunDiscovery(ctx context.Context, r *resolver.Resolver, c *client.Client, geneSymbol, overrideProteinID string, bus *eventbus.Bus) (DiscoveryResult, error) {
	proteinID := overrideProteinID
	if proteinID == "" {
		bus.Emit(eventbus.StageAnnotation, eventbus.SubstageVariantDiscovery, eventbus.LevelInfo,
			fmt.Sprintf("resolving UniProt accession for %s", geneSymbol), nil, nil)

		proteinResult := r.ResolveUniProt(ctx, geneSymbol, "human")
		if !proteinResult.IsOK() {
			bus.Emit(eventbus.StageError, eventbus.SubstageVariantDiscovery, eventbus.LevelError,
				fmt.Sprintf("could not resolve UniProt accession for %s", geneSymbol), nil, nil)
			return DiscoveryResult{}, fmt.Errorf("resolve uniprot accession for %s: %w", geneSymbol, proteinResult.Err)
		}
		proteinID = proteinResult.Value
	}

	rawResult := sources.FetchVariants(ctx, c, proteinID)
	if !rawResult.IsOK() {
		bus.Emit(eventbus.StageError, eventbus.SubstageVariantDiscovery, eventbus.LevelError,
			fmt.Sprintf("could not fetch variants for %s (%s)", geneSymbol, proteinID), nil, nil)
		return DiscoveryResult{}, fmt.Errorf("fetch variants for %s (%s): %w", geneSymbol, proteinID, rawResult.Err)
	}

	clinical := sources.FilterClinical(rawResult.Value)
	ranked := sources.RankVariants(clinical)
	categorised := sources.Categorise(ranked)

	selected := selectDiplotype(categorised)
	selected = sources.RestoreEvidences(selected, clinical)

	variants := make([]domain.Variant, 0, len(selected))
	for _, v := range selected {
		variants = append(variants, sources.ToDomainVariant(v, geneSymbol, significanceOf(v)))
	}

	bus.Emit(eventbus.StageAnnotation, eventbus.SubstageVariantDiscovery, eventbus.LevelInfo,
		fmt.Sprintf("selected %d-variant diplotype for %s", len(variants), geneSymbol), nil, nil)

	return DiscoveryResult{ProteinID: proteinID, Variants: variants}, nil
}

// selectDiplotype walks the closed significance-priority order, taking the
// top-ranked variant from the first two categories that have one, then
// duplicating a lone match into a homozygous pair.
func selectDiplotype(categorised map[string][]sources.UniProtVariant) []sources.UniProtVariant {
	var selected []sources.UniProtVariant
	for _, category := range sources.ClinicalSignificancePriority() {
		variants, ok := categorised[string(category)]
		if !ok || len(variants) == 0 {
			continue
		}
		selected = append(selected, variants[0])
		if len(selected) == 2 {
			break
		}
	}
	if len(selected) == 1 {
		selected = append(selected, selected[0])
	}
	return selected
}

func significanceOf(v sources.UniProtVariant) domain.ClinicalSignificance {
	if len(v.ClinicalSignificances) == 0 {
		return ""
	}
	return domain.ClinicalSignificance(v.ClinicalSignificances[0].Type)
}
