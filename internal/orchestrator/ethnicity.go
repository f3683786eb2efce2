package orchestrator

import "github.com/ugent-pgx/knowledge-graph/internal/domain"

// SuggestEthnicityAdjustments implements spec.md §4.5 step 4: conservative,
// non-binding medication-adjustment hints derived from a patient's reported
// ethnicity and the genes their variants touched. These are advisory
// population-context suggestions, not dosing guidance. The Clopidogrel,
// Tacrolimus and Codeine/Tramadol hints each need a variant on their gene;
// the Warfarin hint fires on ethnicity alone. An unset ethnicity yields none.
func SuggestEthnicityAdjustments(variants []domain.Variant, ethnicity string) []domain.EthnicityAdjustment {
	if ethnicity == "" {
		return nil
	}

	genes := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.GeneSymbol != "" {
			genes[v.GeneSymbol] = true
		}
	}

	var out []domain.EthnicityAdjustment

	if genes["CYP2C19"] {
		switch ethnicity {
		case "East Asian":
			out = append(out, domain.EthnicityAdjustment{
				Drug:       "Clopidogrel",
				Gene:       "CYP2C19",
				Adjustment: "consider alternative",
				Strength:   "consider",
				Rationale:  "CYP2C19 loss-of-function alleles (*2, *3) are very common in East Asian populations (~13-23%); reduced activation of clopidogrel may occur. Consider alternative antiplatelet agent.",
			})
		case "South Asian", "Southeast Asian":
			out = append(out, domain.EthnicityAdjustment{
				Drug:       "Clopidogrel",
				Gene:       "CYP2C19",
				Adjustment: "monitor closely",
				Strength:   "suggestion",
				Rationale:  "CYP2C19 loss-of-function alleles occur in South/Southeast Asian populations (though less common than East Asians); monitor for reduced clopidogrel efficacy.",
			})
		}
	}

	if ethnicity == "African" && genes["CYP3A5"] {
		out = append(out, domain.EthnicityAdjustment{
			Drug:       "Tacrolimus",
			Gene:       "CYP3A5",
			Adjustment: "↑ dose / monitor",
			Strength:   "consider",
			Rationale:  "High CYP3A5 expression is frequent in African populations; tacrolimus clearance may be higher. Monitor trough levels and adjust.",
		})
	}

	if isAnyOf(ethnicity, "African", "South Asian", "East Asian", "Southeast Asian") && genes["CYP2D6"] {
		out = append(out, domain.EthnicityAdjustment{
			Drug:       "Codeine/Tramadol",
			Gene:       "CYP2D6",
			Adjustment: "monitor closely",
			Strength:   "suggestion",
			Rationale:  "CYP2D6 activity distribution varies by population; risk of altered morphine exposure. Monitor efficacy and adverse events.",
		})
	}

	if isAnyOf(ethnicity, "South Asian", "East Asian", "Southeast Asian", "African") {
		out = append(out, domain.EthnicityAdjustment{
			Drug:       "Warfarin",
			Gene:       "VKORC1/CYP2C9",
			Adjustment: "monitor closely",
			Strength:   "suggestion",
			Rationale:  "Warfarin sensitivity varies by ancestry; consider closer INR monitoring and genotype-guided dosing when available.",
		})
	}

	return out
}

func isAnyOf(value string, candidates ...string) bool {
	for _, c := range candidates {
		if value == c {
			return true
		}
	}
	return false
}
