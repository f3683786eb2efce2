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
	"github.com/ugent-pgx/knowledge-graph/pkg/sources"
)

const variantFixture = `{"features":[
	{"featureId":"VAR_1","wildType":"R","mutatedType":"C","begin":"144",
	 "clinicalSignificances":[{"type":"Pathogenic"}],
	 "evidences":[{"code":"ECO:0000269","source":{"name":"PubMed","id":"11111111"}}]},
	{"featureId":"VAR_2","wildType":"G","mutatedType":"A","begin":"19154",
	 "clinicalSignificances":[{"type":"Drug response"}],
	 "populationFrequencies":[{"source":"gnomAD","frequency":0.12}]},
	{"featureId":"VAR_3","wildType":"T","mutatedType":"G","begin":"55",
	 "clinicalSignificances":[{"type":"Benign"}]}
]}`

func newTestEnv(t *testing.T, handler http.HandlerFunc) (*resolver.Resolver, *client.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	c := client.New(domain.ExternalAPIConfig{}, log)
	c.Register("uniprot", domain.HostConfig{BaseURL: srv.URL, RateLimit: 1000, Timeout: 2 * time.Second, MaxElapsed: 2 * time.Second})
	r := resolver.New(c, nil, log, "", 64)
	return r, c
}

func uniprotHandler(w http.ResponseWriter, req *http.Request) {
	if strings.Contains(req.URL.Path, "/variation/") {
		w.Write([]byte(variantFixture))
		return
	}
	w.Write([]byte(`{"results":[{"primaryAccession":"Q9Y6N2","organism":{"scientificName":"Homo sapiens"}}]}`))
}

func TestRunDiscovery_SelectsDrugResponseAndPathogenicOverBenign(t *testing.T) {
	r, c := newTestEnv(t, uniprotHandler)
	bus := eventbus.New(16)

	result, err := RunDiscovery(t.Context(), r, c, "CYP2C19", "", bus)
	require.NoError(t, err)
	assert.Equal(t, "Q9Y6N2", result.ProteinID)
	require.Len(t, result.Variants, 2)

	var significances []string
	for _, v := range result.Variants {
		significances = append(significances, string(v.ClinicalSignificance))
	}
	assert.ElementsMatch(t, []string{"Drug response", "Pathogenic"}, significances)
}

func TestRunDiscovery_DuplicatesLoneVariantIntoHomozygousDiplotype(t *testing.T) {
	r, c := newTestEnv(t, func(w http.ResponseWriter, req *http.Request) {
		if strings.Contains(req.URL.Path, "/variation/") {
			w.Write([]byte(`{"features":[{"featureId":"VAR_1","clinicalSignificances":[{"type":"Pathogenic"}]}]}`))
			return
		}
		w.Write([]byte(`{"results":[{"primaryAccession":"Q9Y6N2","organism":{"scientificName":"Homo sapiens"}}]}`))
	})
	bus := eventbus.New(16)

	result, err := RunDiscovery(t.Context(), r, c, "CYP2D6", "", bus)
	require.NoError(t, err)
	require.Len(t, result.Variants, 2)
	assert.Equal(t, result.Variants[0].VariantID, result.Variants[1].VariantID)
}

func TestRunDiscovery_FailsWhenGeneCannotBeResolved(t *testing.T) {
	r, c := newTestEnv(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})
	bus := eventbus.New(16)

	_, err := RunDiscovery(t.Context(), r, c, "NOSUCHGENE", "", bus)
	assert.Error(t, err)
}

func TestSelectDiplotype_EmptyWhenNoCategorisedVariants(t *testing.T) {
	assert.Empty(t, selectDiplotype(map[string][]sources.UniProtVariant{}))
}
