package linker

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
)

// newTestLinker wires a resolver whose upstream hosts are registered but
// unreachable; every HostConfig carries a tiny MaxElapsed so a SNOMED lookup
// that can't be satisfied fails fast instead of exhausting the default
// 30-second retry budget.
func newTestLinker(t *testing.T) *Linker {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	fast := domain.HostConfig{RateLimit: 1000, Timeout: 5 * time.Millisecond, MaxElapsed: 5 * time.Millisecond}
	c := client.New(domain.ExternalAPIConfig{
		BioPortal:      fast,
		ClinicalTables: fast,
		RxNorm:         fast,
	}, log)
	r := resolver.New(c, nil, log, "", 64)
	return New(r, log)
}

func TestExtractVariantDrugs_GroupsByLowerCasedName(t *testing.T) {
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2C19", VariantID: "v1", RSID: "rs4244285",
			PharmGKB: &domain.PharmGKBInfo{Drugs: []domain.PharmGKBDrug{
				{Name: "Clopidogrel", Recommendation: "reduced efficacy, consider alternative", EvidenceLevel: "1A"},
			}},
		},
		{
			GeneSymbol: "CYP2C19", VariantID: "v2", RSID: "rs4986893",
			PharmGKB: &domain.PharmGKBInfo{Drugs: []domain.PharmGKBDrug{
				{Name: "clopidogrel", Recommendation: "avoid use", EvidenceLevel: "1A"},
			}},
		},
	}

	drugs := extractVariantDrugs(variants)
	require.Len(t, drugs, 1)
	assert.Equal(t, "Clopidogrel", drugs[0].name)
	assert.Len(t, drugs[0].variants, 2)
	assert.Equal(t, []string{"reduced efficacy, consider alternative", "avoid use"}, drugs[0].recommendations())
}

func TestSeverityFor_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, domain.SeverityInfo, severityFor([]string{"standard dosing applies"}))
}

func TestSeverityFor_EscalatesToWarningOnRiskKeyword(t *testing.T) {
	assert.Equal(t, domain.SeverityWarning, severityFor([]string{"increased risk of bleeding"}))
}

func TestSeverityFor_EscalatesToCriticalOnContraindicated(t *testing.T) {
	assert.Equal(t, domain.SeverityCritical, severityFor([]string{"contraindicated in poor metabolizers"}))
}

func TestLink_DetectsExactNameConflictWithCriticalSeverity(t *testing.T) {
	l := newTestLinker(t)
	patient := domain.Patient{
		Medications: []domain.Medication{{Name: "Clopidogrel"}},
	}
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2C19", VariantID: "v1", RSID: "rs4244285",
			PharmGKB: &domain.PharmGKBInfo{Drugs: []domain.PharmGKBDrug{
				{Name: "Clopidogrel", Recommendation: "contraindicated, avoid use", EvidenceLevel: "1A"},
			}},
		},
	}

	linking := l.Link(t.Context(), patient, variants)

	require.Len(t, linking.Conflicts, 1)
	assert.Equal(t, domain.SeverityCritical, linking.Conflicts[0].Severity)
	assert.Equal(t, domain.MatchExactName, linking.Conflicts[0].MatchMethod)
	assert.Equal(t, 1, linking.Summary.ConflictsCritical)
	assert.Equal(t, 0, linking.Summary.ConflictsWarning)

	var medLinks int
	for _, link := range linking.Links {
		if link.LinkType == domain.LinkMedicationAffectedByVariant {
			medLinks++
		}
	}
	assert.Equal(t, 1, medLinks)
}

func TestLink_NoConflictWhenDrugNotAPatientMedication(t *testing.T) {
	l := newTestLinker(t)
	patient := domain.Patient{Medications: []domain.Medication{{Name: "Metformin"}}}
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2C19", VariantID: "v1",
			PharmGKB: &domain.PharmGKBInfo{Drugs: []domain.PharmGKBDrug{
				{Name: "Clopidogrel", Recommendation: "avoid use", EvidenceLevel: "1A"},
			}},
		},
	}

	linking := l.Link(t.Context(), patient, variants)
	assert.Empty(t, linking.Conflicts)
}

func TestLink_BuildsVariantToPhenotypeLinks(t *testing.T) {
	l := newTestLinker(t)
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2D6", VariantID: "v1",
			PharmGKB: &domain.PharmGKBInfo{Phenotypes: []string{"Poor Metabolizer"}},
		},
	}

	linking := l.Link(t.Context(), domain.Patient{}, variants)

	require.Len(t, linking.Links, 1)
	assert.Equal(t, domain.LinkVariantAssociatedPhenotype, linking.Links[0].LinkType)
	assert.Equal(t, "Poor Metabolizer", linking.Links[0].Phenotype)
}
