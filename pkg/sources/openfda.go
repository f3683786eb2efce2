package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

type openFDALabelResult struct {
	AdverseReactions []string `json:"adverse_reactions"`
	Warnings         []string `json:"warnings"`
	OpenFDA          struct {
		BrandName     []string `json:"brand_name"`
		GenericName   []string `json:"generic_name"`
	} `json:"openfda"`
}

type openFDASearchResponse struct {
	Results []openFDALabelResult `json:"results"`
}

// LabelFinding is one adverse-reaction term mined from a drug label. It
// carries no SNOMED mapping.
type LabelFinding struct {
	DrugName string
	Term     string
}

// FetchLabelFindings queries the openFDA drug label endpoint for drugName
// and mines its adverse-reactions text for the closed vocabulary terms.
func FetchLabelFindings(ctx context.Context, c *client.Client, drugName string) domain.Result[[]LabelFinding] {
	q := url.Values{}
	q.Set("search", fmt.Sprintf(`openfda.generic_name:"%s"`, drugName))
	q.Set("limit", "1")

	result := c.Get(ctx, "openfda", "/drug/label.json", q, nil)
	if !result.IsOK() {
		return domain.Failed[[]LabelFinding](result.Status, result.Err)
	}

	var payload openFDASearchResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]LabelFinding](domain.StatusMalformed, domain.ContractViolationErr("openfda", err.Error()))
	}
	if len(payload.Results) == 0 {
		return domain.Failed[[]LabelFinding](domain.StatusNotFound, domain.NotFoundErr("openfda", "no label for "+drugName))
	}

	label := payload.Results[0]
	text := strings.Join(append(append([]string{}, label.AdverseReactions...), label.Warnings...), " ")
	terms := ExtractAdverseReactionTerms(text)

	out := make([]LabelFinding, 0, len(terms))
	for _, term := range terms {
		out = append(out, LabelFinding{DrugName: drugName, Term: term})
	}
	return domain.Ok(out)
}
