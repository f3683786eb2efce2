package phases

import (
	"context"
	"fmt"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/sources"
)

// RunClinicalValidation implements §4.4.2: it attaches ClinVar review status
// and phenotypes, PharmGKB clinical annotations, and the gene's metabolizer
// phenotype to each discovered variant. A variant missing ClinVar or PharmGKB
// coverage is not an error — the corresponding field is simply left unset and
// a warning event is emitted — but the gene's own PharmGKB annotation fetch
// failing entirely does not fail the phase, since a clinically useless
// variant (no ClinVar, no PharmGKB) is still valid to carry forward for drug
// enrichment in phase 3.
func RunClinicalValidation(ctx context.Context, c *client.Client, geneSymbol string, variants []domain.Variant, bus *eventbus.Bus) []domain.Variant {
	bus.Emit(eventbus.StageAnnotation, eventbus.SubstageClinicalValidation, eventbus.LevelInfo,
		fmt.Sprintf("validating %d variants for %s", len(variants), geneSymbol), nil, nil)

	var geneAnnotations []domain.PharmGKBAnnotation
	if geneResult := sources.FetchGeneAnnotations(ctx, c, geneSymbol); geneResult.IsOK() {
		geneAnnotations = sources.NormaliseAnnotations(geneResult.Value)
	} else {
		bus.Emit(eventbus.StageAnnotation, eventbus.SubstageClinicalValidation, eventbus.LevelWarn,
			fmt.Sprintf("no PharmGKB gene annotations for %s", geneSymbol), nil, nil)
	}

	metabolizer := DetermineMetabolizerPhenotype(geneSymbol, variants)

	out := make([]domain.Variant, len(variants))
	for i, v := range variants {
		v = attachClinVar(ctx, c, v, bus)
		v = attachPharmGKB(ctx, c, v, geneAnnotations, bus)

		result := metabolizer
		v.MetabolizerPhenotype = &result

		out[i] = v
	}
	return out
}

func attachClinVar(ctx context.Context, c *client.Client, v domain.Variant, bus *eventbus.Bus) domain.Variant {
	if v.RSID == "" || !sources.IsRSID(v.RSID) {
		return v
	}
	result := sources.FetchClinVarSummary(ctx, c, v.RSID)
	if !result.IsOK() {
		bus.Emit(eventbus.StageAnnotation, eventbus.SubstageClinicalValidation, eventbus.LevelWarn,
			fmt.Sprintf("no ClinVar record for %s (%s)", v.VariantID, v.RSID), nil, nil)
		return v
	}
	info := result.Value
	v.ClinVar = &info
	return v
}

func attachPharmGKB(ctx context.Context, c *client.Client, v domain.Variant, geneAnnotations []domain.PharmGKBAnnotation, bus *eventbus.Bus) domain.Variant {
	annotations := geneAnnotations
	if v.RSID != "" && sources.IsRSID(v.RSID) {
		result := sources.FetchVariantAnnotations(ctx, c, v.RSID)
		if result.IsOK() {
			annotations = append(append([]domain.PharmGKBAnnotation{}, annotations...), sources.NormaliseAnnotations(result.Value)...)
		} else {
			bus.Emit(eventbus.StageAnnotation, eventbus.SubstageClinicalValidation, eventbus.LevelWarn,
				fmt.Sprintf("no PharmGKB variant annotations for %s (%s)", v.VariantID, v.RSID), nil, nil)
		}
	}
	if len(annotations) == 0 {
		return v
	}
	v.PharmGKB = &domain.PharmGKBInfo{
		Annotations: annotations,
		Drugs:       sources.ExtractDrugsFromAnnotations(annotations),
		Phenotypes:  sources.ExtractPhenotypesFromAnnotations(annotations),
	}
	return v
}
