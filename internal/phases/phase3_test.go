package phases

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

func newEnrichmentTestEnv(t *testing.T, extra http.HandlerFunc) (*client.Client, *resolver.Resolver) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case strings.Contains(req.URL.Path, "molecule.json"):
			w.Write([]byte(`{"molecules":[{"molecule_chembl_id":"CHEMBL123","pref_name":"CLOPIDOGREL","max_phase":4,"first_approval":1997}]}`))
		case strings.Contains(req.URL.Path, "mechanism.json"):
			w.Write([]byte(`{"mechanisms":[{"mechanism_of_action":"P2Y12 receptor antagonist","target_pref_name":"P2Y12","action_type":"ANTAGONIST"}]}`))
		case strings.Contains(req.URL.Path, "/drug/label.json"):
			w.Write([]byte(`{"results":[{"adverse_reactions":["bleeding risk reported"],"warnings":[]}]}`))
		case strings.Contains(req.URL.Path, "rxcui.json"):
			w.Write([]byte(`{"idGroup":{"rxnormId":["32968"]}}`))
		case strings.Contains(req.URL.Path, "/search"):
			if extra != nil {
				extra(w, req)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	c := client.New(domain.ExternalAPIConfig{}, log)
	host := domain.HostConfig{BaseURL: srv.URL, RateLimit: 1000, Timeout: 2 * time.Second, MaxElapsed: 2 * time.Second}
	c.Register("chembl", host)
	c.Register("openfda", host)
	c.Register("europepmc", host)
	c.Register("rxnorm", host)
	c.Register("bioportal", host)
	c.Register("clinical_tables", host)

	r := resolver.New(c, nil, log, "", 64)
	return c, r
}

func TestRunEnrichment_ResolvesChEMBLAndRxNormForDrug(t *testing.T) {
	c, r := newEnrichmentTestEnv(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[1,["73211009"],null,[["Drug interaction finding"]]]`))
	})
	bus := eventbus.New(16)
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2C19", VariantID: "v1", RSID: "rs4244285",
			PharmGKB: &domain.PharmGKBInfo{
				Drugs: []domain.PharmGKBDrug{{Name: "Clopidogrel", EvidenceLevel: "1A"}},
				Annotations: []domain.PharmGKBAnnotation{
					{RelatedDiseases: []string{"Acute coronary syndrome"}},
				},
			},
		},
	}

	result := RunEnrichment(t.Context(), c, r, "CYP2C19", variants, bus)

	require.Len(t, result.Drugs, 1)
	assert.Equal(t, "CHEMBL123", result.Drugs[0].ChEMBLID)
	assert.Equal(t, "32968", result.Drugs[0].RxNormCUI)
	assert.Contains(t, result.Diseases, "Acute coronary syndrome")

	require.Len(t, result.Variants, 1)
	require.NotNil(t, result.Variants[0].Literature)
}

func TestRunEnrichment_DerivesRecommendationFromMechanismWhenPharmGKBGaveNone(t *testing.T) {
	c, r := newEnrichmentTestEnv(t, nil)
	bus := eventbus.New(16)
	variants := []domain.Variant{
		{
			GeneSymbol: "CYP2C19", VariantID: "v1",
			PharmGKB: &domain.PharmGKBInfo{Drugs: []domain.PharmGKBDrug{{Name: "Clopidogrel"}}},
		},
	}

	result := RunEnrichment(t.Context(), c, r, "CYP2C19", variants, bus)

	require.Len(t, result.Drugs, 1)
	assert.Contains(t, result.Drugs[0].Recommendation, "P2Y12 receptor antagonist")
}
