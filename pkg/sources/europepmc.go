package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

type europePMCResult struct {
	PMID         string `json:"pmid"`
	PMCID        string `json:"pmcid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AuthorString string `json:"authorString"`
	JournalTitle string `json:"journalTitle"`
	PubYear      string `json:"pubYear"`
	AbstractText string `json:"abstractText"`
	CitedByCount int    `json:"citedByCount"`
	OpenAccess   string `json:"isOpenAccess"`
	HasFullText  string `json:"hasTextMinedTerms"`
}

type europePMCSearchResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

// SearchLiterature queries Europe PMC for gene/drug/disease-contextualised
// pharmacogenomics literature, de-duplicating by PMID at the call site.
func SearchLiterature(ctx context.Context, c *client.Client, gene, drug, disease string, maxResults int) domain.Result[[]domain.Publication] {
	parts := []string{quoteIfNeeded(gene)}
	if drug != "" {
		parts = append(parts, quoteIfNeeded(drug))
	}
	if disease != "" {
		parts = append(parts, quoteIfNeeded(disease))
	}
	parts = append(parts, "(pharmacogenomics OR pharmacogenetics OR drug response)")
	query := strings.Join(parts, " AND ")

	q := url.Values{}
	q.Set("query", query)
	q.Set("resultType", "core")
	q.Set("format", "json")
	q.Set("pageSize", strconv.Itoa(maxResults))
	q.Set("sort", "CITED desc")

	result := c.Get(ctx, "europepmc", "/search", q, nil)
	if !result.IsOK() {
		return domain.Failed[[]domain.Publication](result.Status, result.Err)
	}

	var payload europePMCSearchResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]domain.Publication](domain.StatusMalformed, domain.ContractViolationErr("europepmc", err.Error()))
	}

	out := make([]domain.Publication, 0, len(payload.ResultList.Result))
	for _, r := range payload.ResultList.Result {
		out = append(out, toPublication(r))
	}
	return domain.Ok(out)
}

func quoteIfNeeded(s string) string {
	if strings.Contains(s, " OR ") || strings.Contains(s, " AND ") || strings.HasPrefix(s, "(") {
		return s
	}
	if strings.Contains(s, " ") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// FetchPublication hydrates a single PubMed ID via Europe PMC.
func FetchPublication(ctx context.Context, c *client.Client, pmid string) domain.Result[domain.Publication] {
	q := url.Values{}
	q.Set("query", "ext_id:"+pmid+" AND src:MED")
	q.Set("resultType", "core")
	q.Set("format", "json")
	q.Set("pageSize", "1")

	result := c.Get(ctx, "europepmc", "/search", q, nil)
	if !result.IsOK() {
		return domain.Failed[domain.Publication](result.Status, result.Err)
	}
	var payload europePMCSearchResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[domain.Publication](domain.StatusMalformed, domain.ContractViolationErr("europepmc", err.Error()))
	}
	if len(payload.ResultList.Result) == 0 {
		return domain.Failed[domain.Publication](domain.StatusNotFound, domain.NotFoundErr("europepmc", "no record for PMID "+pmid))
	}
	return domain.Ok(toPublication(payload.ResultList.Result[0]))
}

// toPublication derives full-text/PDF URLs per spec.md §4.3: open access +
// pmcid emits Europe PMC and PDF URLs; pmcid alone emits PMC Central URLs;
// hasFullText without pmcid emits the MED article URL; otherwise omitted.
func toPublication(r europePMCResult) domain.Publication {
	var authors []string
	if r.AuthorString != "" {
		for i, a := range strings.Split(r.AuthorString, ",") {
			if i >= 3 {
				break
			}
			authors = append(authors, strings.TrimSpace(a))
		}
	}
	year, _ := strconv.Atoi(r.PubYear)
	abstract := r.AbstractText
	if len(abstract) > 500 {
		abstract = abstract[:500]
	}

	pub := domain.Publication{
		PMID:          r.PMID,
		PMCID:         r.PMCID,
		DOI:           r.DOI,
		Title:         r.Title,
		Authors:       authors,
		Journal:       r.JournalTitle,
		Year:          year,
		Abstract:      abstract,
		CitationCount: r.CitedByCount,
		OpenAccess:    r.OpenAccess == "Y",
	}

	switch {
	case pub.OpenAccess && r.PMCID != "":
		fullText := fmt.Sprintf("https://europepmc.org/article/PMC/%s", r.PMCID)
		pdf := fmt.Sprintf("https://europepmc.org/articles/%s/pdf", r.PMCID)
		pub.FullTextURL = &fullText
		pub.PDFURL = &pdf
	case r.PMCID != "":
		fullText := fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/%s", r.PMCID)
		pub.FullTextURL = &fullText
	case r.HasFullText == "Y" && r.PMID != "":
		fullText := fmt.Sprintf("https://europepmc.org/article/MED/%s", r.PMID)
		pub.FullTextURL = &fullText
	}
	return pub
}
