// Package resolver implements the identifier resolver (C2): translating
// gene symbols, clinical terms, and drug names into the stable upstream
// identifiers the rest of the pipeline keys its lookups on.
package resolver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

// SNOMEDMatch is a resolved SNOMED CT concept.
type SNOMEDMatch struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	MatchType string `json:"match_type"` // exact, clinical_finding, general
}

// RxNormMatch is a resolved RxNorm concept.
type RxNormMatch struct {
	CUI string `json:"cui"`
	URI string `json:"uri"`
}

var findingTokens = []string{"disease", "disorder", "finding"}

// Resolver memoises identifier lookups in process-local LRUs; ResolveUniProt
// also uses a shared Redis tier when one is configured. Every local-cache read
// and write takes mu, so local lookups are serialised.
type Resolver struct {
	client *client.Client
	redis  *redis.Client
	log    *logrus.Logger

	mu              sync.Mutex
	uniprotLocal    *lru.Cache[string, string]
	snomedLocal     *lru.Cache[string, SNOMEDMatch]
	drugSnomedLocal *lru.Cache[string, SNOMEDMatch]
	rxnormLocal     *lru.Cache[string, RxNormMatch]

	bioPortalAPIKey string
}

// New builds a Resolver. localSize bounds each in-process LRU tier.
func New(c *client.Client, rdb *redis.Client, log *logrus.Logger, bioPortalAPIKey string, localSize int) *Resolver {
	if localSize <= 0 {
		localSize = 1024
	}
	uniprotLocal, _ := lru.New[string, string](localSize)
	snomedLocal, _ := lru.New[string, SNOMEDMatch](localSize)
	drugSnomedLocal, _ := lru.New[string, SNOMEDMatch](localSize)
	rxnormLocal, _ := lru.New[string, RxNormMatch](localSize)
	return &Resolver{
		client:          c,
		redis:           rdb,
		log:             log,
		uniprotLocal:    uniprotLocal,
		snomedLocal:     snomedLocal,
		drugSnomedLocal: drugSnomedLocal,
		rxnormLocal:     rxnormLocal,
		bioPortalAPIKey: bioPortalAPIKey,
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func redisKey(namespace, key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("pgx:resolver:%s:%s", namespace, hex.EncodeToString(sum[:]))
}

// ResolveUniProt resolves a gene symbol to its reviewed, human UniProt
// accession. organism defaults to "human" when empty.
func (r *Resolver) ResolveUniProt(ctx context.Context, geneSymbol, organism string) domain.Result[string] {
	if organism == "" {
		organism = "human"
	}
	key := normalizeKey(geneSymbol)

	r.mu.Lock()
	if v, ok := r.uniprotLocal.Get(key); ok {
		r.mu.Unlock()
		return domain.Ok(v)
	}
	r.mu.Unlock()

	if v, ok := r.getRedisString(ctx, "uniprot", key); ok {
		r.storeUniProt(key, v)
		return domain.Ok(v)
	}

	q := url.Values{}
	q.Set("query", fmt.Sprintf("gene:%s AND organism_id:9606 AND reviewed:true", geneSymbol))
	q.Set("fields", "accession,organism")
	q.Set("format", "json")

	result := r.client.Get(ctx, "uniprot", "/uniprotkb/search", q, nil)
	if !result.IsOK() {
		return domain.Failed[string](result.Status, result.Err)
	}

	var payload struct {
		Results []struct {
			PrimaryAccession string `json:"primaryAccession"`
			Organism         struct {
				ScientificName string `json:"scientificName"`
			} `json:"organism"`
		} `json:"results"`
	}
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[string](domain.StatusMalformed, domain.ContractViolationErr("uniprot", err.Error()))
	}
	for _, hit := range payload.Results {
		if strings.Contains(strings.ToLower(hit.Organism.ScientificName), "homo sapiens") {
			r.storeUniProt(key, hit.PrimaryAccession)
			r.setRedisString(ctx, "uniprot", key, hit.PrimaryAccession)
			return domain.Ok(hit.PrimaryAccession)
		}
	}
	return domain.Failed[string](domain.StatusNotFound, domain.NotFoundErr("uniprot", "no reviewed human entry for "+geneSymbol))
}

func (r *Resolver) storeUniProt(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uniprotLocal.Add(key, value)
}

// ResolveSNOMED resolves a clinical term to a SNOMED CT concept, preferring
// BioPortal and falling back to the Clinical Tables search API when no
// BioPortal key is configured.
func (r *Resolver) ResolveSNOMED(ctx context.Context, term string) domain.Result[SNOMEDMatch] {
	key := normalizeKey(term)

	r.mu.Lock()
	if v, ok := r.snomedLocal.Get(key); ok {
		r.mu.Unlock()
		return domain.Ok(v)
	}
	r.mu.Unlock()

	if r.bioPortalAPIKey == "" {
		return r.resolveSNOMEDViaClinicalTables(ctx, term, key)
	}

	q := url.Values{}
	q.Set("q", term)
	q.Set("ontologies", "SNOMEDCT")
	q.Set("apikey", r.bioPortalAPIKey)

	result := r.client.Get(ctx, "bioportal", "/search", q, nil)
	if !result.IsOK() {
		return r.resolveSNOMEDViaClinicalTables(ctx, term, key)
	}

	var payload struct {
		Collection []struct {
			PrefLabel string `json:"prefLabel"`
			NotationID string `json:"notation"`
		} `json:"collection"`
	}
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[SNOMEDMatch](domain.StatusMalformed, domain.ContractViolationErr("bioportal", err.Error()))
	}

	lowerTerm := strings.ToLower(term)
	var fallback *SNOMEDMatch
	for _, hit := range payload.Collection {
		if hit.NotationID == "" {
			continue
		}
		if strings.ToLower(hit.PrefLabel) == lowerTerm {
			match := SNOMEDMatch{Code: hit.NotationID, Label: hit.PrefLabel, MatchType: "exact"}
			r.storeSNOMED(key, match)
			return domain.Ok(match)
		}
		if fallback == nil {
			lowerLabel := strings.ToLower(hit.PrefLabel)
			for _, tok := range findingTokens {
				if strings.Contains(lowerLabel, tok) {
					m := SNOMEDMatch{Code: hit.NotationID, Label: hit.PrefLabel, MatchType: "clinical_finding"}
					fallback = &m
					break
				}
			}
		}
	}
	if fallback != nil {
		r.storeSNOMED(key, *fallback)
		return domain.Ok(*fallback)
	}
	if len(payload.Collection) > 0 {
		first := payload.Collection[0]
		match := SNOMEDMatch{Code: first.NotationID, Label: first.PrefLabel, MatchType: "general"}
		r.storeSNOMED(key, match)
		return domain.Ok(match)
	}
	return domain.Failed[SNOMEDMatch](domain.StatusNotFound, domain.NotFoundErr("bioportal", "no SNOMED match for "+term))
}

func (r *Resolver) resolveSNOMEDViaClinicalTables(ctx context.Context, term, key string) domain.Result[SNOMEDMatch] {
	q := url.Values{}
	q.Set("terms", term)
	q.Set("sf", "term_icd9_code,primary_name")

	result := r.client.Get(ctx, "clinical_tables", "/conditions/v3/search", q, nil)
	if !result.IsOK() {
		return domain.Failed[SNOMEDMatch](result.Status, result.Err)
	}

	var payload []interface{}
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil || len(payload) < 4 {
		return domain.Failed[SNOMEDMatch](domain.StatusMalformed, domain.ContractViolationErr("clinical_tables", "unexpected response shape"))
	}
	codes, _ := payload[1].([]interface{})
	if len(codes) == 0 {
		return domain.Failed[SNOMEDMatch](domain.StatusNotFound, domain.NotFoundErr("clinical_tables", "no match for "+term))
	}
	code, _ := codes[0].(string)
	match := SNOMEDMatch{Code: code, Label: term, MatchType: "general"}
	r.storeSNOMED(key, match)
	return domain.Ok(match)
}

func (r *Resolver) storeSNOMED(key string, match SNOMEDMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snomedLocal.Add(key, match)
}

// ResolveDrugSNOMED resolves a drug name to its SNOMED CT substance concept,
// trying progressively looser strategies until one yields a hit.
func (r *Resolver) ResolveDrugSNOMED(ctx context.Context, name string) domain.Result[SNOMEDMatch] {
	key := normalizeKey(name)

	r.mu.Lock()
	if v, ok := r.drugSnomedLocal.Get(key); ok {
		r.mu.Unlock()
		return domain.Ok(v)
	}
	r.mu.Unlock()

	strategies := []string{
		fmt.Sprintf("%s (substance)", name),
		name,
		strings.ReplaceAll(strings.ToLower(name), "-", " "),
	}
	for _, candidate := range strategies {
		result := r.ResolveSNOMED(ctx, candidate)
		if result.IsOK() {
			r.storeDrugSNOMED(key, result.Value)
			return domain.Ok(result.Value)
		}
	}

	rxResult := r.ResolveRxNorm(ctx, name)
	if rxResult.IsOK() {
		result := r.ResolveSNOMED(ctx, name)
		if result.IsOK() {
			r.storeDrugSNOMED(key, result.Value)
			return domain.Ok(result.Value)
		}
	}
	return domain.Failed[SNOMEDMatch](domain.StatusNotFound, domain.NotFoundErr("bioportal", "no drug SNOMED match for "+name))
}

func (r *Resolver) storeDrugSNOMED(key string, match SNOMEDMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drugSnomedLocal.Add(key, match)
}

// ResolveRxNorm resolves a drug name to its RxNorm concept unique identifier.
func (r *Resolver) ResolveRxNorm(ctx context.Context, name string) domain.Result[RxNormMatch] {
	key := normalizeKey(name)

	r.mu.Lock()
	if v, ok := r.rxnormLocal.Get(key); ok {
		r.mu.Unlock()
		return domain.Ok(v)
	}
	r.mu.Unlock()

	q := url.Values{}
	q.Set("name", name)

	result := r.client.Get(ctx, "rxnorm", "/rxcui.json", q, nil)
	if !result.IsOK() {
		return domain.Failed[RxNormMatch](result.Status, result.Err)
	}

	var payload struct {
		IDGroup struct {
			RxnormID []string `json:"rxnormId"`
		} `json:"idGroup"`
	}
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[RxNormMatch](domain.StatusMalformed, domain.ContractViolationErr("rxnorm", err.Error()))
	}
	if len(payload.IDGroup.RxnormID) == 0 {
		return domain.Failed[RxNormMatch](domain.StatusNotFound, domain.NotFoundErr("rxnorm", "no RxCUI for "+name))
	}
	cui := payload.IDGroup.RxnormID[0]
	match := RxNormMatch{CUI: cui, URI: "https://rxnav.nlm.nih.gov/REST/rxcui/" + cui}

	r.mu.Lock()
	r.rxnormLocal.Add(key, match)
	r.mu.Unlock()
	return domain.Ok(match)
}

func (r *Resolver) getRedisString(ctx context.Context, namespace, key string) (string, bool) {
	if r.redis == nil {
		return "", false
	}
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	v, err := r.redis.Get(rctx, redisKey(namespace, key)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (r *Resolver) setRedisString(ctx context.Context, namespace, key, value string) {
	if r.redis == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.redis.Set(rctx, redisKey(namespace, key), value, 24*time.Hour).Err(); err != nil {
		r.log.WithError(err).Warn("resolver: redis write failed")
	}
}
