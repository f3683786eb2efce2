package dbcontract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

func TestCheck_MedicationNotResolvable(t *testing.T) {
	patient := &domain.Patient{
		PatientID:   "pt-1",
		Medications: []domain.Medication{{Name: "Clopidogrel"}},
		Profile: &domain.PharmacogenomicsProfile{
			Publications: map[string]domain.Publication{},
			VariantLinking: domain.VariantLinking{
				Links: []domain.Link{
					{LinkType: domain.LinkMedicationAffectedByVariant, Medication: "Warfarin"},
				},
			},
		},
	}

	violations := Check(patient)
	assert.Len(t, violations, 1)
	assert.Equal(t, "medication_resolvable", violations[0].Rule)
}

func TestCheck_MedicationResolvableCaseInsensitive(t *testing.T) {
	patient := &domain.Patient{
		Medications: []domain.Medication{{Name: "Clopidogrel"}},
		Profile: &domain.PharmacogenomicsProfile{
			Publications: map[string]domain.Publication{},
			VariantLinking: domain.VariantLinking{
				Links: []domain.Link{
					{LinkType: domain.LinkMedicationAffectedByVariant, Medication: "CLOPIDOGREL"},
				},
			},
		},
	}
	assert.Empty(t, Check(patient))
}

func TestCheck_PublicationMissingFromTable(t *testing.T) {
	patient := &domain.Patient{
		Profile: &domain.PharmacogenomicsProfile{
			Publications: map[string]domain.Publication{"111": {PMID: "111"}},
			GenePublications: map[string][]string{
				"CYP2C19": {"111", "222"},
			},
		},
	}
	violations := Check(patient)
	assert.Len(t, violations, 1)
	assert.Equal(t, "gene_publication_in_table", violations[0].Rule)
	assert.Equal(t, "222", violations[0].Subject)
}

func TestCheck_VariantGeneUnresolvable(t *testing.T) {
	patient := &domain.Patient{
		Profile: &domain.PharmacogenomicsProfile{
			Publications: map[string]domain.Publication{},
			Variants:     []domain.Variant{{RSID: "rs4244285", GeneSymbol: ""}},
			VariantLinking: domain.VariantLinking{
				Links: []domain.Link{
					{LinkType: domain.LinkVariantAssociatedPhenotype, Variant: "rs4244285"},
				},
			},
		},
	}
	violations := Check(patient)
	assert.Len(t, violations, 1)
	assert.Equal(t, "variant_gene_resolvable", violations[0].Rule)
}

func TestCheck_NilProfileIsClean(t *testing.T) {
	assert.Empty(t, Check(&domain.Patient{PatientID: "pt-2"}))
}

func TestCheck_ConflictTimestampIgnored(t *testing.T) {
	patient := &domain.Patient{
		Medications: []domain.Medication{{Name: "Tacrolimus"}},
		Profile: &domain.PharmacogenomicsProfile{
			Publications: map[string]domain.Publication{},
			VariantLinking: domain.VariantLinking{
				Conflicts: []domain.Conflict{{DrugName: "Tacrolimus", Timestamp: time.Now()}},
			},
		},
	}
	assert.Empty(t, Check(patient))
}
