package dbcontract

import (
	"fmt"
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

// Violation is one failed back-reference invariant from §6.4.
type Violation struct {
	Rule    string
	Subject string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Subject)
}

// Check validates the §6.4 database contract against an assembled patient:
// every medication referenced by a PATIENT_MEDICATION_AFFECTED_BY_VARIANT
// link resolves to a current_medications row (case-insensitive); every PMID
// referenced from gene/variant literature tables appears exactly once in the
// publications table; every variant referenced by a link carries a resolvable
// gene_symbol. It is a pure function: no I/O, no database access.
func Check(patient *domain.Patient) []Violation {
	var violations []Violation
	if patient == nil || patient.Profile == nil {
		return violations
	}
	profile := patient.Profile

	medByName := make(map[string]struct{}, len(patient.Medications))
	for _, m := range patient.Medications {
		medByName[strings.ToLower(strings.TrimSpace(m.Name))] = struct{}{}
	}

	variantByKey := make(map[string]domain.Variant, len(profile.Variants))
	for _, v := range profile.Variants {
		variantByKey[variantKey(v)] = v
	}

	for _, link := range profile.VariantLinking.Links {
		if link.LinkType == domain.LinkMedicationAffectedByVariant {
			key := strings.ToLower(strings.TrimSpace(link.Medication))
			if key == "" {
				violations = append(violations, Violation{"medication_resolvable", "link carries empty medication name"})
				continue
			}
			if _, ok := medByName[key]; !ok {
				violations = append(violations, Violation{"medication_resolvable", link.Medication})
			}
		}
		if link.Variant != "" {
			if v, ok := variantByKey[link.Variant]; !ok || v.GeneSymbol == "" {
				violations = append(violations, Violation{"variant_gene_resolvable", link.Variant})
			}
		}
	}

	pmidSeen := make(map[string]int, len(profile.Publications))
	for pmid := range profile.Publications {
		pmidSeen[pmid]++
	}
	for pmid, count := range pmidSeen {
		if count != 1 {
			violations = append(violations, Violation{"publication_deduplicated", pmid})
		}
	}
	checkReferenced := func(table map[string][]string, rule string) {
		for _, pmids := range table {
			for _, pmid := range pmids {
				if _, ok := profile.Publications[pmid]; !ok {
					violations = append(violations, Violation{rule, pmid})
				}
			}
		}
	}
	checkReferenced(profile.GenePublications, "gene_publication_in_table")
	checkReferenced(profile.VariantPublications, "variant_publication_in_table")

	return violations
}

func variantKey(v domain.Variant) string {
	if v.RSID != "" {
		return v.RSID
	}
	return v.VariantID
}
