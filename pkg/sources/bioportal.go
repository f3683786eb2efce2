package sources

import (
	"fmt"
	"regexp"
	"strings"
)

// PostCoordinatedExpression is a SNOMED CT post-coordinated clinical finding
// expression: a focus concept qualified by attribute=value pairs.
type PostCoordinatedExpression struct {
	FocusConceptID    string
	FocusConceptLabel string
	Attributes        []PostCoordinatedAttribute
}

// PostCoordinatedAttribute is one "attribute = value" qualifier.
type PostCoordinatedAttribute struct {
	AttributeID    string
	AttributeLabel string
	ValueID        string
	ValueLabel     string
}

// String renders the canonical SNOMED CT post-coordinated syntax:
// FocusConceptID | Label (finding) : { AttributeID | Label (attribute) = ValueID | Label }
func (e PostCoordinatedExpression) String() string {
	if len(e.Attributes) == 0 {
		return fmt.Sprintf("%s | %s", e.FocusConceptID, e.FocusConceptLabel)
	}
	var attrs []string
	for _, a := range e.Attributes {
		attrs = append(attrs, fmt.Sprintf("%s | %s (attribute) = %s | %s", a.AttributeID, a.AttributeLabel, a.ValueID, a.ValueLabel))
	}
	return fmt.Sprintf("%s | %s (finding) : { %s }", e.FocusConceptID, e.FocusConceptLabel, strings.Join(attrs, " , "))
}

// pgxFindingConcepts maps phenotype-text keyword groups to their SNOMED CT
// focus concept, per bioportal_client.py's detection cascade.
var pgxFindingConcepts = []struct {
	keywords []string
	conceptID string
	label     string
}{
	{[]string{"ineffective", "reduced efficacy", "decreased response", "poor response", "no significant association"}, "406164007", "Ineffective drug therapy"},
	{[]string{"increased concentration", "elevated concentration", "higher concentration", "increased levels", "increased risk"}, "404919007", "Increased drug concentration"},
	{[]string{"decreased concentration", "reduced concentration", "lower concentration", "reduced levels"}, "404920001", "Decreased drug concentration"},
	{[]string{"decreased clearance", "reduced clearance", "decreased metabolism", "reduced metabolism", "increased clearance", "increased metabolism"}, "733423003", "Altered drug clearance"},
}

// BuildPostCoordinatedExpression constructs a SNOMED CT post-coordinated
// clinical finding from phenotype free text plus the drug/gene context that
// produced it, per spec.md §4.3. Returns the zero value's FocusConceptID=""
// when no keyword group matches.
func BuildPostCoordinatedExpression(phenotypeText, geneSymbol, drugName string) (PostCoordinatedExpression, bool) {
	lower := strings.ToLower(phenotypeText)

	var concept *struct {
		keywords  []string
		conceptID string
		label     string
	}
	for i := range pgxFindingConcepts {
		for _, kw := range pgxFindingConcepts[i].keywords {
			if strings.Contains(lower, kw) {
				concept = &pgxFindingConcepts[i]
				break
			}
		}
		if concept != nil {
			break
		}
	}
	if concept == nil {
		return PostCoordinatedExpression{}, false
	}

	expr := PostCoordinatedExpression{FocusConceptID: concept.conceptID, FocusConceptLabel: concept.label}
	if drugName != "" {
		expr.Attributes = append(expr.Attributes, PostCoordinatedAttribute{
			AttributeID: "246075003", AttributeLabel: "Causative agent",
			ValueLabel: fmt.Sprintf("%s (substance)", drugName),
		})
	}
	if geneSymbol != "" {
		expr.Attributes = append(expr.Attributes, PostCoordinatedAttribute{
			AttributeID: "47429007", AttributeLabel: "Associated with",
			ValueLabel: fmt.Sprintf("%s metaboliser genotype", geneSymbol),
		})
	}
	return expr, true
}

// pharmgkbDiseasePatterns is the pharmacogenomics-aware disease-name pattern
// library, per bioportal_client.py's extract_pharmgkb_diseases: free-text
// PharmGKB phenotype prose rarely names a disease in a structured field, so
// the disease has to be mined out of the sentence by keyword/category.
var pharmgkbDiseasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(cardiovascular disease|heart disease|cardiac disease|acute coronary syndrome)\b`),
	regexp.MustCompile(`\b(myocardial infarction|heart attack)\b`),
	regexp.MustCompile(`\b(atrial fibrillation|arrhythmia)\b`),
	regexp.MustCompile(`\b(hypertension|high blood pressure)\b`),
	regexp.MustCompile(`\b(stroke|cerebrovascular disease)\b`),
	regexp.MustCompile(`\b(thrombosis|blood clot|bleeding events?)\b`),
	regexp.MustCompile(`\b(breast cancer|lung cancer|colon cancer|prostate cancer)\b`),
	regexp.MustCompile(`\b(cancer|carcinoma|tumor|malignancy|neoplasm)\b`),
	regexp.MustCompile(`\b(epilepsy|seizure disorder)\b`),
	regexp.MustCompile(`\b(depression|major depression|depressive disorder)\b`),
	regexp.MustCompile(`\b(anxiety|anxiety disorder|panic disorder)\b`),
	regexp.MustCompile(`\b(schizophrenia|psychosis|bipolar disorder)\b`),
	regexp.MustCompile(`\b(alzheimer'?s disease|dementia)\b`),
	regexp.MustCompile(`\b(parkinson'?s disease)\b`),
	regexp.MustCompile(`\b(diabetes|diabetes mellitus|type \d+ diabetes)\b`),
	regexp.MustCompile(`\b(obesity|overweight)\b`),
	regexp.MustCompile(`\b(metabolic syndrome)\b`),
	regexp.MustCompile(`\b(hyperlipidemia|high cholesterol)\b`),
	regexp.MustCompile(`\b(HIV|human immunodeficiency virus)\b`),
	regexp.MustCompile(`\b(hepatitis [ABC]?)\b`),
	regexp.MustCompile(`\b(tuberculosis|TB)\b`),
	regexp.MustCompile(`\b(malaria)\b`),
	regexp.MustCompile(`\b(rheumatoid arthritis|arthritis)\b`),
	regexp.MustCompile(`\b(inflammatory bowel disease|IBD|crohn'?s disease|ulcerative colitis)\b`),
	regexp.MustCompile(`\b(lupus|systemic lupus erythematosus)\b`),
	regexp.MustCompile(`\b(liver disease|hepatic disease|cirrhosis)\b`),
	regexp.MustCompile(`\b(kidney disease|renal disease|chronic kidney disease)\b`),
	regexp.MustCompile(`\b(lung disease|pulmonary disease|asthma|COPD)\b`),
	regexp.MustCompile(`\b(alcoholism|alcohol use disorder|substance abuse)\b`),
	regexp.MustCompile(`\b(opioid addiction|drug addiction)\b`),
	regexp.MustCompile(`\bpatients with ([^,]+(?:disease|disorder|syndrome|condition|cancer))\b`),
	regexp.MustCompile(`\bin patients with ([^,]+(?:disease|disorder|syndrome|cancer))\b`),
	regexp.MustCompile(`\bwho have ([^,]+(?:disease|disorder|syndrome|cancer))\b`),
}

// pharmgkbDiseaseLimit caps the number of diseases mined from one phenotype
// string, matching the original's "top 5 most relevant" truncation.
const pharmgkbDiseaseLimit = 5

// ExtractPharmGKBDiseases mines disease names out of PharmGKB phenotype
// prose using the pharmacogenomics-aware pattern library above, per
// bioportal_client.py's extract_pharmgkb_diseases. Unlike ClinVar phenotypes
// (which are usually disease names already), PharmGKB phenotype text is
// free-form clinical prose, so the disease has to be extracted rather than
// taken verbatim.
func ExtractPharmGKBDiseases(phenotypeText string) []string {
	lower := strings.ToLower(phenotypeText)

	var diseases []string
	for _, pattern := range pharmgkbDiseasePatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			for _, group := range match[1:] {
				trimmed := strings.TrimSpace(group)
				if len(trimmed) > 3 {
					diseases = append(diseases, trimmed)
				}
			}
		}
	}

	seen := make(map[string]struct{})
	var unique []string
	for _, d := range diseases {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
		if len(unique) == pharmgkbDiseaseLimit {
			break
		}
	}
	return unique
}
