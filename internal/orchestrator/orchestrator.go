// Package orchestrator fans a bounded worker pool out over genes, drives
// each through phases 1-5, aggregates the results, and hands the assembled
// patient off to the linker and assembler (§4.5).
package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/ugent-pgx/knowledge-graph/internal/assembler"
	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/internal/linker"
	"github.com/ugent-pgx/knowledge-graph/internal/phases"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
)

// Orchestrator is C5: it owns the rate-limited client and resolver every
// gene's pipeline shares, and the bounded worker pool that drives them.
type Orchestrator struct {
	client     *client.Client
	resolver   *resolver.Resolver
	linker     *linker.Linker
	bus        *eventbus.Bus
	maxWorkers int
	log        *logrus.Logger
}

// New wires a C1 client, C2 resolver, and C7 linker sharing the same
// event bus into an orchestrator bounded to maxWorkers (0 means "compute
// the default from CPU count").
func New(c *client.Client, r *resolver.Resolver, bus *eventbus.Bus, maxWorkers int, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		client:     c,
		resolver:   r,
		linker:     linker.New(r, log),
		bus:        bus,
		maxWorkers: maxWorkers,
		log:        log,
	}
}

// workerCount implements §4.5 step 1: W = min(len(genes), ceiling), where
// ceiling is min(2*CPU, 8) when configured <= 0 and configured otherwise.
func workerCount(configured, numGenes int) int {
	ceiling := configured
	if ceiling <= 0 {
		ceiling = 2 * runtime.NumCPU()
		if ceiling > 8 {
			ceiling = 8
		}
	}
	if numGenes < ceiling {
		return numGenes
	}
	return ceiling
}

// Run executes the full pipeline for a single gene (§4.4 Phases 1-5).
// overrideProteinID, when non-empty, skips UniProt resolution (the CLI's
// §6.2 `--protein` flag).
func (o *Orchestrator) Run(ctx context.Context, gene, overrideProteinID string) domain.GeneRunResult {
	return o.runGene(ctx, gene, overrideProteinID)
}

// RunMulti implements §4.5's run_multi: a bounded worker pool fans out over
// genes, each running P1-P5 independently, then aggregates into the
// variant/drug/disease sets the linker and assembler need. Gene results are
// folded in completion order, not submission order. The per-gene results are
// also returned so a caller (the CLI's exit-code logic, §6.2) can tell a
// total failure from a partial success.
func (o *Orchestrator) RunMulti(ctx context.Context, genes []string, patient domain.Patient) (*assembler.PatientDocument, []domain.GeneRunResult) {
	w := workerCount(o.maxWorkers, len(genes))
	if w < 1 {
		w = 1
	}

	o.bus.Emit(eventbus.StageLabPrep, eventbus.SubstageMultiGene, eventbus.LevelInfo,
		fmt.Sprintf("starting multi-gene run across %d genes with %d workers", len(genes), w), nil, nil)

	p := pool.New().WithMaxGoroutines(w)
	var mu sync.Mutex
	var results []domain.GeneRunResult

	for _, gene := range genes {
		gene := gene
		p.Go(func() {
			result := o.runGene(ctx, gene, "")
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	allVariants, allDrugs, allDiseases, allPublications := aggregate(results, o.bus)

	doc := assembler.Normalise(patient)
	profile := o.buildProfile(genes, allVariants, allDrugs, allDiseases, allPublications, patient)

	o.bus.Emit(eventbus.StageEnrichment, eventbus.SubstageVariantLinking, eventbus.LevelInfo,
		"linking variants to patient conditions and medications", nil, nil)
	profile.VariantLinking = o.linker.Link(ctx, patient, profile.Variants)

	return assembler.Assemble(doc, profile), results
}

// runGene drives one gene through phases 1-5 and reports success/failure per
// §4.4's failure semantics: a phase-level failure (here, only phase 1's
// UniProt resolution or variant-catalogue fetch) is terminal for the gene, but is not terminal for the
// run as a whole — the caller records it and moves on to the next gene.
func (o *Orchestrator) runGene(ctx context.Context, gene, overrideProteinID string) domain.GeneRunResult {
	start := time.Now()

	discovery, err := phases.RunDiscovery(ctx, o.resolver, o.client, gene, overrideProteinID, o.bus)
	if err != nil {
		o.bus.Emit(eventbus.StageError, eventbus.SubstagePipeline, eventbus.LevelError,
			fmt.Sprintf("gene %s failed: %v", gene, err), nil, nil)
		return domain.GeneRunResult{Success: false, Gene: gene, Duration: time.Since(start), Err: err}
	}

	variants := phases.RunClinicalValidation(ctx, o.client, gene, discovery.Variants, o.bus)

	enrichment := phases.RunEnrichment(ctx, o.client, o.resolver, gene, variants, o.bus)

	graph := phases.BuildGraph(ctx, o.resolver, gene, discovery.ProteinID, enrichment.Variants, enrichment.Drugs, o.bus)

	drugs := make(map[string]domain.Drug, len(enrichment.Drugs))
	for _, d := range enrichment.Drugs {
		drugs[d.Name] = d
	}
	diseases := make(map[string]struct{}, len(enrichment.Diseases))
	for _, d := range enrichment.Diseases {
		diseases[d] = struct{}{}
	}

	return domain.GeneRunResult{
		Success:      true,
		Gene:         gene,
		ProteinID:    discovery.ProteinID,
		Variants:     enrichment.Variants,
		Drugs:        drugs,
		Diseases:     diseases,
		Publications: enrichment.Publications,
		Graph:        graph,
		Duration:     time.Since(start),
	}
}

// aggregate folds completed gene runs into the shared variant/drug/disease
// sets §4.5 step 3 describes; a failed gene contributes nothing but is
// logged, not dropped silently.
func aggregate(results []domain.GeneRunResult, bus *eventbus.Bus) ([]domain.Variant, []domain.Drug, []string, map[string]domain.Publication) {
	var variants []domain.Variant
	drugsByName := make(map[string]domain.Drug)
	var drugOrder []string
	diseaseSeen := make(map[string]bool)
	var diseases []string
	publications := make(map[string]domain.Publication)

	for _, r := range results {
		if !r.Success {
			bus.Emit(eventbus.StageError, eventbus.SubstagePipeline, eventbus.LevelWarn,
				fmt.Sprintf("excluding %s from aggregation: %v", r.Gene, r.Err), nil, nil)
			continue
		}
		variants = append(variants, r.Variants...)
		for name, d := range r.Drugs {
			if _, ok := drugsByName[name]; !ok {
				drugOrder = append(drugOrder, name)
			}
			drugsByName[name] = d
		}
		for d := range r.Diseases {
			if diseaseSeen[d] {
				continue
			}
			diseaseSeen[d] = true
			diseases = append(diseases, d)
		}
		for pmid, pub := range r.Publications {
			publications[pmid] = pub
		}
	}

	drugs := make([]domain.Drug, 0, len(drugOrder))
	for _, name := range drugOrder {
		drugs = append(drugs, drugsByName[name])
	}

	return variants, drugs, diseases, publications
}

// buildProfile implements §4.5 step 4: it enriches each variant with
// patient-specific population context and derives ethnicity-aware
// medication adjustments, then fills out the clinical/literature summaries.
func (o *Orchestrator) buildProfile(genes []string, variants []domain.Variant, drugs []domain.Drug, diseases []string, publications map[string]domain.Publication, patient domain.Patient) domain.PharmacogenomicsProfile {
	ethnicity := ""
	if len(patient.Ethnicity) > 0 {
		ethnicity = patient.Ethnicity[0]
	}

	enriched := make([]domain.Variant, len(variants))
	for i, v := range variants {
		enriched[i] = attachPopulationContext(v, ethnicity)
	}

	genePubs := make(map[string][]string)
	variantPubs := make(map[string][]string)
	bySignificance := make(map[string]int)
	for _, v := range enriched {
		if v.ClinicalSignificance != "" {
			bySignificance[string(v.ClinicalSignificance)]++
		}
		if v.Literature == nil {
			continue
		}
		if len(v.Literature.GenePubs) > 0 {
			genePubs[v.GeneSymbol] = v.Literature.GenePubs
		}
		if len(v.Literature.VariantPubs) > 0 {
			variantPubs[v.VariantID] = v.Literature.VariantPubs
		}
	}

	literatureSummary := domain.LiteratureSummary{
		TotalPublications:   len(publications),
		GenePublications:    len(genePubs),
		VariantPublications: len(variantPubs),
	}

	return domain.PharmacogenomicsProfile{
		GenesAnalyzed:      genes,
		Variants:           enriched,
		AffectedDrugs:      drugs,
		AssociatedDiseases: diseases,
		ClinicalSummary: domain.ClinicalSummary{
			TotalVariants:  len(enriched),
			BySignificance: bySignificance,
		},
		LiteratureSummary:              literatureSummary,
		EthnicityMedicationAdjustments: SuggestEthnicityAdjustments(enriched, ethnicity),
		Publications:                   publications,
		GenePublications:               genePubs,
		VariantPublications:            variantPubs,
	}
}

// attachPopulationContext implements §4.5 step 4 and §3's population-
// significance banding: common >=5%, low-frequency 1-5%, rare 0.1-1%,
// ultra-rare <0.1%.
func attachPopulationContext(v domain.Variant, ethnicity string) domain.Variant {
	if ethnicity == "" || v.PopulationFrequencies == nil {
		return v
	}
	freq, ok := v.PopulationFrequencies[ethnicity]
	if !ok {
		return v
	}
	v.PatientPopulationFrequency = &freq
	v.PopulationSignificance = classifyPopulationSignificance(freq)
	v.EthnicityContext = fmt.Sprintf("%s in %s: %.2f%% allele frequency (%s)", v.GeneSymbol, ethnicity, freq*100, v.PopulationSignificance)
	return v
}

func classifyPopulationSignificance(freq float64) domain.PopulationSignificance {
	switch {
	case freq >= 0.05:
		return domain.PopCommon
	case freq >= 0.01:
		return domain.PopLowFrequency
	case freq >= 0.001:
		return domain.PopRare
	default:
		return domain.PopUltraRare
	}
}
