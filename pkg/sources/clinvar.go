package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

// clinVarSummaryResult mirrors the subset of NCBI's esummary XML for the
// ClinVar database that Phase 2 needs.
type clinVarSummaryResult struct {
	XMLName xml.Name `xml:"eSummaryResult"`
	DocSums []struct {
		ID      string `xml:"Id"`
		Items   []struct {
			Name string `xml:"Name,attr"`
			Text string `xml:",chardata"`
		} `xml:"Item"`
		GermlineClassification struct {
			Description  string `xml:"Description"`
			ReviewStatus string `xml:"ReviewStatus"`
		} `xml:"germline_classification"`
		TraitSet []struct {
			TraitName string `xml:"trait_name"`
		} `xml:"trait_set>trait"`
	} `xml:"DocumentSummarySet>DocumentSummary"`
}

// FetchClinVarSummary queries NCBI eutils esummary for a dbSNP rsID and
// returns the normalised ClinVar fragment, or NotFound when no record exists.
func FetchClinVarSummary(ctx context.Context, c *client.Client, rsid string) domain.Result[domain.ClinVarInfo] {
	if !IsRSID(rsid) {
		return domain.Failed[domain.ClinVarInfo](domain.StatusMalformed, domain.ContractViolationErr("clinvar", "not a dbSNP rsID: "+rsid))
	}

	searchQuery := url.Values{}
	searchQuery.Set("db", "clinvar")
	searchQuery.Set("term", rsid)
	searchQuery.Set("retmode", "json")

	searchResult := c.Get(ctx, "clinvar", "/entrez/eutils/esearch.fcgi", searchQuery, nil)
	if !searchResult.IsOK() {
		return domain.Failed[domain.ClinVarInfo](searchResult.Status, searchResult.Err)
	}

	ids, err := parseESearchIDs(searchResult.Value.Body)
	if err != nil {
		return domain.Failed[domain.ClinVarInfo](domain.StatusMalformed, domain.ContractViolationErr("clinvar", err.Error()))
	}
	if len(ids) == 0 {
		return domain.Failed[domain.ClinVarInfo](domain.StatusNotFound, domain.NotFoundErr("clinvar", "no ClinVar record for "+rsid))
	}

	summaryQuery := url.Values{}
	summaryQuery.Set("db", "clinvar")
	summaryQuery.Set("id", ids[0])

	summaryResult := c.Get(ctx, "clinvar", "/entrez/eutils/esummary.fcgi", summaryQuery, nil)
	if !summaryResult.IsOK() {
		return domain.Failed[domain.ClinVarInfo](summaryResult.Status, summaryResult.Err)
	}

	var parsed clinVarSummaryResult
	if err := xml.Unmarshal(summaryResult.Value.Body, &parsed); err != nil {
		return domain.Failed[domain.ClinVarInfo](domain.StatusMalformed, domain.ContractViolationErr("clinvar", err.Error()))
	}
	if len(parsed.DocSums) == 0 {
		return domain.Failed[domain.ClinVarInfo](domain.StatusNotFound, domain.NotFoundErr("clinvar", "empty esummary for "+rsid))
	}

	doc := parsed.DocSums[0]
	var phenotypes []string
	for _, trait := range doc.TraitSet {
		if trait.TraitName != "" {
			phenotypes = append(phenotypes, trait.TraitName)
		}
	}

	info := domain.ClinVarInfo{
		ClinVarID:    doc.ID,
		ReviewStatus: doc.GermlineClassification.ReviewStatus,
		StarRating:   ClinVarStarRating(doc.GermlineClassification.ReviewStatus),
		Phenotypes:   phenotypes,
	}
	return domain.Ok(info)
}

// esearchResponse is the minimal JSON shape of NCBI's esearch retmode=json.
type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func parseESearchIDs(body []byte) ([]string, error) {
	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}
