package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

func TestNormalise_BuildsCanonicalEnvelope(t *testing.T) {
	patient := domain.Patient{
		PatientID:  "MRN123",
		Conditions: []domain.Condition{{PreferredLabel: "Type 2 diabetes"}},
	}

	doc := Normalise(patient)

	assert.Equal(t, "http://ugent.be/person/MRN123", doc.ID)
	assert.Equal(t, []string{"foaf:Person", "schema:Person", "schema:Patient"}, doc.Type)
	assert.Equal(t, "MRN123", doc.Identifier)
	assert.Equal(t, CanonicalContext, doc.Context)
	require.Len(t, doc.ClinicalInformation.CurrentConditions, 1)
	assert.Empty(t, doc.Variants)
	assert.True(t, doc.DashboardSource)
}

func TestNormalise_GeneratesFallbackIDWhenPatientIDMissing(t *testing.T) {
	doc := Normalise(domain.Patient{})
	assert.Equal(t, "AUTO_UNKNOWN", doc.PatientID)
}

func TestAssemble_AttachesProfileAndAssignsRSIDFromXref(t *testing.T) {
	doc := Normalise(domain.Patient{PatientID: "P1"})
	profile := domain.PharmacogenomicsProfile{
		GenesAnalyzed: []string{"CYP2C19"},
		Variants: []domain.Variant{
			{
				GeneSymbol: "CYP2C19",
				VariantID:  "VAR_1",
				RawUniProtData: map[string]any{
					"xrefs": []any{
						map[string]any{"database": "dbSNP", "id": "rs4244285"},
					},
				},
			},
		},
	}

	assembled := Assemble(doc, profile)

	require.Len(t, assembled.Variants, 1)
	assert.Equal(t, "rs4244285", assembled.Variants[0].RSID)
	assert.Equal(t, 1, assembled.PharmacogenomicsProfile.TotalVariants)
	assert.Equal(t, 1, assembled.PharmacogenomicsProfile.VariantsByGene["CYP2C19"])
}

func TestAssemble_NeverInventsRSID(t *testing.T) {
	doc := Normalise(domain.Patient{PatientID: "P1"})
	profile := domain.PharmacogenomicsProfile{
		Variants: []domain.Variant{{GeneSymbol: "CYP2D6", VariantID: "VAR_2"}},
	}

	assembled := Assemble(doc, profile)

	require.Len(t, assembled.Variants, 1)
	assert.Empty(t, assembled.Variants[0].RSID)
}

func TestAssignExactRSID_KeepsValidDirectRSID(t *testing.T) {
	v := domain.Variant{RSID: "rs12345"}
	out := AssignExactRSID(v)
	assert.Equal(t, "rs12345", out.RSID)
}

func TestAssignExactRSID_RejectsMalformedDirectRSID(t *testing.T) {
	v := domain.Variant{RSID: "not-an-rsid"}
	out := AssignExactRSID(v)
	assert.Empty(t, out.RSID)
}

func TestAssignExactRSID_FallsBackToClinVarPhenotypeText(t *testing.T) {
	v := domain.Variant{
		ClinVar: &domain.ClinVarInfo{Phenotypes: []string{"Associated with rs9923231 per dbSNP."}},
	}
	out := AssignExactRSID(v)
	assert.Equal(t, "rs9923231", out.RSID)
}
