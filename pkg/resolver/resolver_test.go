package resolver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc, host string) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	c := client.New(domain.ExternalAPIConfig{}, log)
	c.Register(host, domain.HostConfig{BaseURL: srv.URL, RateLimit: 1000, Timeout: 2 * time.Second, MaxElapsed: 2 * time.Second})
	return New(c, nil, log, "", 64)
}

func TestResolveUniProt_PicksReviewedHumanHit(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"results":[
			{"primaryAccession":"P12345","organism":{"scientificName":"Mus musculus"}},
			{"primaryAccession":"Q9Y6N2","organism":{"scientificName":"Homo sapiens"}}
		]}`))
	}, "uniprot")

	result := r.ResolveUniProt(t.Context(), "CYP2C19", "")
	require.True(t, result.IsOK())
	assert.Equal(t, "Q9Y6N2", result.Value)
}

func TestResolveUniProt_NotFoundWhenNoHumanHit(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"results":[{"primaryAccession":"P00001","organism":{"scientificName":"Mus musculus"}}]}`))
	}, "uniprot")

	result := r.ResolveUniProt(t.Context(), "CYP2C19", "")
	assert.False(t, result.IsOK())
	assert.Equal(t, domain.StatusNotFound, result.Status)
}

func TestResolveUniProt_CachesByNormalizedKey(t *testing.T) {
	calls := 0
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Write([]byte(`{"results":[{"primaryAccession":"Q9Y6N2","organism":{"scientificName":"Homo sapiens"}}]}`))
	}, "uniprot")

	first := r.ResolveUniProt(t.Context(), "CYP2C19", "")
	second := r.ResolveUniProt(t.Context(), "  cyp2c19  ", "")
	require.True(t, first.IsOK())
	require.True(t, second.IsOK())
	assert.Equal(t, 1, calls)
}

func TestResolveRxNorm_ParsesFirstCUI(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"idGroup":{"rxnormId":["32968"]}}`))
	}, "rxnorm")

	result := r.ResolveRxNorm(t.Context(), "clopidogrel")
	require.True(t, result.IsOK())
	assert.Equal(t, "32968", result.Value.CUI)
}

func TestResolveSNOMED_FallsBackToClinicalTablesWithoutBioPortalKey(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[1,["73211009"],null,[["Diabetes mellitus"]]]`))
	}, "clinical_tables")

	result := r.ResolveSNOMED(t.Context(), "diabetes mellitus")
	require.True(t, result.IsOK())
	assert.Equal(t, "73211009", result.Value.Code)
	assert.Equal(t, "general", result.Value.MatchType)
}
