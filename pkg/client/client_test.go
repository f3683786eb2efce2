package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

func newTestClient(baseURL string) *Client {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	c := &Client{httpClient: &http.Client{}, hosts: make(map[string]*host), log: log}
	c.Register("uniprot", domain.HostConfig{
		BaseURL:    baseURL,
		RateLimit:  1000,
		Timeout:    2 * time.Second,
		MaxElapsed: 2 * time.Second,
	})
	return c
}

func TestGet_SuccessReturnsOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result := c.Get(t.Context(), "uniprot", "/foo", nil, nil)
	require.True(t, result.IsOK())
	assert.Equal(t, http.StatusOK, result.Value.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(result.Value.Body))
}

func TestGet_UnregisteredHostIsPermanentFailure(t *testing.T) {
	c := newTestClient("http://unused")
	result := c.Get(t.Context(), "nonexistent", "/foo", nil, nil)
	assert.False(t, result.IsOK())
	assert.Equal(t, domain.StatusPermanentFailed, result.Status)
}

func TestGet_ClientErrorIsPermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result := c.Get(t.Context(), "uniprot", "/missing", nil, nil)
	assert.False(t, result.IsOK())
	assert.Equal(t, domain.StatusPermanentFailed, result.Status)

	perr, ok := result.Err.(*domain.PipelineError)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermanentUpstream, perr.Kind)
}

func TestGet_ServerErrorExhaustsRetriesAsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.hosts["uniprot"].cfg.MaxElapsed = 200 * time.Millisecond
	result := c.Get(t.Context(), "uniprot", "/flaky", nil, nil)
	assert.False(t, result.IsOK())
	assert.Equal(t, domain.StatusTransientFailed, result.Status)
}

func TestGet_QueryParamsAreEncoded(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	q := url.Values{}
	q.Set("accession", "P12345")
	result := c.Get(t.Context(), "uniprot", "/search", q, nil)
	require.True(t, result.IsOK())
	assert.Equal(t, "accession=P12345", gotQuery)
}
