package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

func TestSuggestEthnicityAdjustments_NoEthnicityReturnsNil(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "CYP2C19"}}
	assert.Nil(t, SuggestEthnicityAdjustments(variants, ""))
}

func TestSuggestEthnicityAdjustments_EastAsianClopidogrelIsConsiderAlternative(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "CYP2C19"}}
	out := SuggestEthnicityAdjustments(variants, "East Asian")
	assert.Len(t, out, 2) // CYP2C19/Clopidogrel + Warfarin
	assert.Equal(t, "Clopidogrel", out[0].Drug)
	assert.Equal(t, "consider alternative", out[0].Adjustment)
}

func TestSuggestEthnicityAdjustments_SouthAsianClopidogrelIsMonitorClosely(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "CYP2C19"}}
	out := SuggestEthnicityAdjustments(variants, "South Asian")
	assert.Equal(t, "monitor closely", out[0].Adjustment)
}

func TestSuggestEthnicityAdjustments_AfricanTacrolimusAndCodeineAndWarfarin(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "CYP3A5"}, {GeneSymbol: "CYP2D6"}}
	out := SuggestEthnicityAdjustments(variants, "African")
	var drugs []string
	for _, a := range out {
		drugs = append(drugs, a.Drug)
	}
	assert.ElementsMatch(t, []string{"Tacrolimus", "Codeine/Tramadol", "Warfarin"}, drugs)
}

func TestSuggestEthnicityAdjustments_WarfarinFiresOnEthnicityAloneRegardlessOfGene(t *testing.T) {
	variants := []domain.Variant{{GeneSymbol: "TPMT"}}
	out := SuggestEthnicityAdjustments(variants, "East Asian")
	assert.Len(t, out, 1)
	assert.Equal(t, "Warfarin", out[0].Drug)
}
