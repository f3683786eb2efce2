package phases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

func TestDetermineMetabolizerPhenotype_NoVariantsIsIndeterminate(t *testing.T) {
	result := DetermineMetabolizerPhenotype("CYP2C19", nil)
	assert.Equal(t, domain.IndeterminateMetabolizer, result.Phenotype)
	assert.Equal(t, "Unknown/Unknown", result.Diplotype)
}

func TestDetermineMetabolizerPhenotype_HomozygousWildTypeIsNormal(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "CYP2C19", RSID: "rs000000"}}
	result := DetermineMetabolizerPhenotype("CYP2C19", variants)
	assert.Equal(t, "*1/*1", result.Diplotype)
	assert.Equal(t, domain.NormalMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_HomozygousNoFunctionIsPoor(t *testing.T) {
	variants := []domain.Variant{
		{GeneSymbol: "CYP2C19", RSID: "rs4244285"},
		{GeneSymbol: "CYP2C19", RSID: "rs4244285"},
	}
	result := DetermineMetabolizerPhenotype("CYP2C19", variants)
	assert.Equal(t, "*2/*2", result.Diplotype)
	assert.Equal(t, domain.PoorMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_MixedDecreasedAndNormalIsIntermediate(t *testing.T) {
	variants := []domain.Variant{
		{GeneSymbol: "CYP2C19", RSID: "rs4244285"},
		{GeneSymbol: "CYP2C19", RSID: "rs000000"},
	}
	result := DetermineMetabolizerPhenotype("CYP2C19", variants)
	assert.Equal(t, domain.IntermediateMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_AnyIncreasedAlleleIsUltrarapid(t *testing.T) {
	variants := []domain.Variant{
		{GeneSymbol: "CYP2C19", RSID: "rs12248560"},
		{GeneSymbol: "CYP2C19", RSID: "rs000000"},
	}
	result := DetermineMetabolizerPhenotype("CYP2C19", variants)
	assert.Equal(t, domain.UltrarapidMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_PrefersStarAlleleFromAnnotationOverRSIDTable(t *testing.T) {
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2D6",
			RSID:       "rs1065852",
			PharmGKB: &domain.PharmGKBInfo{
				Annotations: []domain.PharmGKBAnnotation{
					{AllelePhenotypes: []domain.AllelePhenotype{{Allele: "CYP2D6*1", Phenotype: "Normal Metabolizer"}}},
				},
			},
		},
	}
	result := DetermineMetabolizerPhenotype("CYP2D6", variants)
	assert.Equal(t, "*1/*1", result.Diplotype)
	assert.Equal(t, domain.NormalMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_SingleVariantIsTreatedAsHomozygous(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "CYP2D6", RSID: "rs3892097"}}
	result := DetermineMetabolizerPhenotype("CYP2D6", variants)
	assert.Equal(t, "*4/*4", result.Diplotype)
	assert.Equal(t, domain.PoorMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_UnknownGeneIsUnknownMetabolizer(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "UNKNOWNGENE", RSID: "rs1"}}
	result := DetermineMetabolizerPhenotype("UNKNOWNGENE", variants)
	assert.Equal(t, domain.UnknownMetabolizer, result.Phenotype)
}

func TestDetermineMetabolizerPhenotype_FunctionalityRendersHumanReadableLabels(t *testing.T) {
	variants := []domain.Variant{
		{GeneSymbol: "CYP2C19", RSID: "rs000000"},
		{GeneSymbol: "CYP2C19", RSID: "rs12248560"},
	}
	result := DetermineMetabolizerPhenotype("CYP2C19", variants)
	assert.Equal(t, "Normal/Increased", result.Functionality)
}
