package orchestrator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
)

// newOrchestratorTestEnv spins up one fake upstream that answers every host
// this package's pipeline touches, keyed by path substring the same way
// phase1-4's tests do.
func newOrchestratorTestEnv(t *testing.T) *Orchestrator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case strings.Contains(req.URL.Path, "/variation/"):
			w.Write([]byte(`{"features":[
				{"featureId":"VAR_1","wildType":"R","mutatedType":"C","begin":"144",
				 "clinicalSignificances":[{"type":"Drug response"}],
				 "evidences":[{"code":"ECO:0000269","source":{"name":"PubMed","id":"11111111"}}]}
			]}`))
		case strings.Contains(req.URL.Path, "esearch"):
			w.Write([]byte(`{"esearchresult":{"idlist":["12345"]}}`))
		case strings.Contains(req.URL.Path, "esummary"):
			w.Write([]byte(`<?xml version="1.0"?>
<eSummaryResult><DocumentSummarySet><DocumentSummary><Id>12345</Id>
<germline_classification><Description>Pathogenic</Description><ReviewStatus>reviewed by expert panel</ReviewStatus></germline_classification>
<trait_set><trait><trait_name>Clopidogrel response</trait_name></trait></trait_set>
</DocumentSummary></DocumentSummarySet></eSummaryResult>`))
		case strings.Contains(req.URL.Path, "clinicalAnnotation"):
			w.Write([]byte(`{"data":[{"id":"PA1","relatedChemicals":[{"id":"PA450182","name":"clopidogrel"}],
				"allelePhenotypes":[{"allele":"*2","phenotype":"Decreased clopidogrel metabolizer function"}],
				"levelOfEvidence":{"term":"1A"}}]}`))
		case strings.Contains(req.URL.Path, "/data/variant"):
			w.Write([]byte(`{"data":[]}`))
		case strings.Contains(req.URL.Path, "molecule.json"):
			w.Write([]byte(`{"molecules":[{"molecule_chembl_id":"CHEMBL123","pref_name":"CLOPIDOGREL","max_phase":4,"first_approval":1997}]}`))
		case strings.Contains(req.URL.Path, "mechanism.json"):
			w.Write([]byte(`{"mechanisms":[{"mechanism_of_action":"P2Y12 receptor antagonist","target_pref_name":"P2Y12","action_type":"ANTAGONIST"}]}`))
		case strings.Contains(req.URL.Path, "/drug/label.json"):
			w.Write([]byte(`{"results":[{"adverse_reactions":["bleeding risk reported"],"warnings":[]}]}`))
		case strings.Contains(req.URL.Path, "rxcui.json"):
			w.Write([]byte(`{"idGroup":{"rxnormId":["32968"]}}`))
		case strings.Contains(req.URL.Path, "/search") && !strings.Contains(req.URL.Path, "/uniprotkb/"):
			w.Write([]byte(`[1,["73211009"],null,[["Clopidogrel response finding"]]]`))
		default:
			w.Write([]byte(`{"results":[{"primaryAccession":"Q9Y6N2","organism":{"scientificName":"Homo sapiens"}}]}`))
		}
	}))
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	c := client.New(domain.ExternalAPIConfig{}, log)
	host := domain.HostConfig{BaseURL: srv.URL, RateLimit: 1000, Timeout: 2 * time.Second, MaxElapsed: 2 * time.Second}
	for _, name := range []string{"uniprot", "clinvar", "pharmgkb", "chembl", "openfda", "europepmc", "rxnorm", "bioportal", "clinical_tables"} {
		c.Register(name, host)
	}

	r := resolver.New(c, nil, log, "", 64)
	bus := eventbus.New(64)
	return New(c, r, bus, 0, log)
}

func TestWorkerCount_UsesConfiguredCeilingWhenSet(t *testing.T) {
	assert.Equal(t, 3, workerCount(4, 3))
	assert.Equal(t, 4, workerCount(4, 10))
}

func TestWorkerCount_FallsBackToCPUBasedDefaultWhenUnconfigured(t *testing.T) {
	got := workerCount(0, 100)
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, 8)
}

func TestWorkerCount_NeverExceedsGeneCount(t *testing.T) {
	assert.Equal(t, 1, workerCount(8, 1))
}

func TestClassifyPopulationSignificance_BandBoundaries(t *testing.T) {
	assert.Equal(t, domain.PopCommon, classifyPopulationSignificance(0.05))
	assert.Equal(t, domain.PopLowFrequency, classifyPopulationSignificance(0.0499))
	assert.Equal(t, domain.PopLowFrequency, classifyPopulationSignificance(0.01))
	assert.Equal(t, domain.PopRare, classifyPopulationSignificance(0.0099))
	assert.Equal(t, domain.PopRare, classifyPopulationSignificance(0.001))
	assert.Equal(t, domain.PopUltraRare, classifyPopulationSignificance(0.0009))
}

func TestAggregate_ExcludesFailedGenesAndDedupesAcrossSuccessful(t *testing.T) {
	bus := eventbus.New(16)
	results := []domain.GeneRunResult{
		{
			Success: true, Gene: "CYP2C19",
			Variants: []domain.Variant{{GeneSymbol: "CYP2C19", VariantID: "VAR_1"}},
			Drugs:    map[string]domain.Drug{"Clopidogrel": {Name: "Clopidogrel"}},
			Diseases: map[string]struct{}{"Acute coronary syndrome": {}},
			Publications: map[string]domain.Publication{"11111111": {PMID: "11111111"}},
		},
		{
			Success: true, Gene: "CYP2D6",
			Variants: []domain.Variant{{GeneSymbol: "CYP2D6", VariantID: "VAR_2"}},
			Drugs:    map[string]domain.Drug{"Clopidogrel": {Name: "Clopidogrel"}},
			Diseases: map[string]struct{}{"Acute coronary syndrome": {}},
			Publications: map[string]domain.Publication{"22222222": {PMID: "22222222"}},
		},
		{Success: false, Gene: "NOSUCHGENE", Err: assert.AnError},
	}

	variants, drugs, diseases, publications := aggregate(results, bus)

	require.Len(t, variants, 2)
	require.Len(t, drugs, 1)
	require.Len(t, diseases, 1)
	require.Len(t, publications, 2)
}

func TestRunMulti_AggregatesAcrossGenesAndLinksPatient(t *testing.T) {
	o := newOrchestratorTestEnv(t)
	patient := domain.Patient{
		PatientID:   "PT1",
		Ethnicity:   []string{"East Asian"},
		Medications: []domain.Medication{{Name: "Clopidogrel"}},
	}

	doc, results := o.RunMulti(t.Context(), []string{"CYP2C19", "CYP2D6"}, patient)

	require.NotNil(t, doc)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success)
	}
	assert.ElementsMatch(t, []string{"CYP2C19", "CYP2D6"}, doc.PharmacogenomicsProfile.GenesAnalyzed)
	assert.Equal(t, 4, doc.PharmacogenomicsProfile.TotalVariants)
	assert.NotEmpty(t, doc.Variants)
	assert.NotEmpty(t, doc.EthnicityMedicationAdjustments)
}

func TestRun_SingleGeneSucceeds(t *testing.T) {
	o := newOrchestratorTestEnv(t)
	result := o.Run(t.Context(), "CYP2C19", "")
	assert.True(t, result.Success)
	assert.Equal(t, "CYP2C19", result.Gene)
	assert.NotEmpty(t, result.Variants)
}
