// Package linker cross-references a patient's conditions and medications
// against the drugs, phenotypes, and diseases surfaced by variant
// enrichment, producing the typed Link/Conflict graph of §4.7.
package linker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
	"github.com/ugent-pgx/knowledge-graph/pkg/sources"
)

// conflictKeywords escalates a conflict from INFO to WARNING when any term
// appears in the combined recommendation text for the affecting variants.
var conflictKeywords = []string{
	"contraindicated", "avoid", "do not use", "not recommended",
	"risk", "toxicity", "adverse", "reduced efficacy", "ineffective",
}

// criticalKeywords escalates WARNING to CRITICAL.
var criticalKeywords = []string{"contraindicated", "avoid", "do not use"}

// Linker builds the patient/variant linking graph and detects medication
// conflicts, resolving SNOMED CT codes through the shared identifier resolver.
type Linker struct {
	resolver *resolver.Resolver
	log      *logrus.Logger
}

func New(r *resolver.Resolver, log *logrus.Logger) *Linker {
	return &Linker{resolver: r, log: log}
}

// variantDrug groups a drug recommendation across all variants that affect it.
type variantDrug struct {
	name            string
	variants        []drugVariantRef
	interactionType string
}

// drugVariantRef carries one variant's own recommendation and evidence level
// alongside its identity, so a drug affected by several variants never mixes
// up which text belongs to which variant.
type drugVariantRef struct {
	gene           string
	variantID      string
	rsid           string
	recommendation string
	evidenceLevel  string
}

// recommendations returns the non-empty recommendation text across all of
// the drug's affecting variants, in variant order.
func (d variantDrug) recommendations() []string {
	var out []string
	for _, ref := range d.variants {
		if ref.recommendation != "" {
			out = append(out, ref.recommendation)
		}
	}
	return out
}

// evidenceLevels returns the non-empty evidence levels across all of the
// drug's affecting variants, in variant order.
func (d variantDrug) evidenceLevels() []string {
	var out []string
	for _, ref := range d.variants {
		if ref.evidenceLevel != "" {
			out = append(out, ref.evidenceLevel)
		}
	}
	return out
}

type codedEntry struct {
	code string
	name string
}

// Link builds the full VariantLinking result for one patient against the
// set of variants discovered and enriched across all analysed genes.
func (l *Linker) Link(ctx context.Context, patient domain.Patient, variants []domain.Variant) domain.VariantLinking {
	drugs := extractVariantDrugs(variants)
	phenotypes := extractVariantPhenotypes(variants)
	diseases := extractVariantDiseases(variants)

	patientConditionCodes := l.mapConditionsToSNOMED(ctx, patient.Conditions)
	patientMedicationCodes := l.mapMedicationsToSNOMED(ctx, patient.Medications)
	variantDrugCodes := l.mapDrugsToSNOMED(ctx, drugs)
	variantDiseaseCodes := l.mapDiseasesToSNOMED(ctx, diseases)

	conflicts := detectConflicts(patient.Medications, patientMedicationCodes, drugs, variantDrugCodes, variants)
	links := createLinks(
		patient.Conditions, patientConditionCodes,
		patient.Medications, patientMedicationCodes,
		drugs, variantDrugCodes,
		diseases, variantDiseaseCodes,
		variants, phenotypes,
	)
	summary := buildSummary(conflicts, links, patient.Conditions, patient.Medications, variants)

	return domain.VariantLinking{Links: links, Conflicts: conflicts, Summary: summary}
}

func medDisplayName(m domain.Medication) string {
	return m.Name
}

// extractVariantDrugs groups the drug recommendations attached to every
// variant's PharmGKB info, keyed by lower-cased drug name.
func extractVariantDrugs(variants []domain.Variant) []variantDrug {
	byName := make(map[string]*variantDrug)
	var order []string

	for _, v := range variants {
		if v.PharmGKB == nil {
			continue
		}
		for _, d := range v.PharmGKB.Drugs {
			key := strings.ToLower(d.Name)
			if key == "" {
				continue
			}
			entry, ok := byName[key]
			if !ok {
				entry = &variantDrug{name: d.Name}
				byName[key] = entry
				order = append(order, key)
			}
			entry.variants = append(entry.variants, drugVariantRef{
				gene:           v.GeneSymbol,
				variantID:      v.VariantID,
				rsid:           v.RSID,
				recommendation: d.Recommendation,
				evidenceLevel:  d.EvidenceLevel,
			})
		}
	}

	result := make([]variantDrug, 0, len(order))
	for _, key := range order {
		result = append(result, *byName[key])
	}
	return result
}

type variantPhenotype struct {
	variantID string
	gene      string
	text      string
	source    string
}

// extractVariantPhenotypes pulls phenotype text from PharmGKB's own
// phenotype list, its allele/phenotype pairs, and ClinVar phenotypes.
func extractVariantPhenotypes(variants []domain.Variant) []variantPhenotype {
	var out []variantPhenotype
	for _, v := range variants {
		if v.PharmGKB != nil {
			for _, p := range v.PharmGKB.Phenotypes {
				out = append(out, variantPhenotype{variantID: v.VariantID, gene: v.GeneSymbol, text: p, source: "pharmgkb"})
			}
			for _, ann := range v.PharmGKB.Annotations {
				for _, ap := range ann.AllelePhenotypes {
					if ap.Phenotype == "" {
						continue
					}
					out = append(out, variantPhenotype{variantID: v.VariantID, gene: v.GeneSymbol, text: ap.Phenotype, source: "pharmgkb_allele"})
				}
			}
		}
		if v.ClinVar != nil {
			for _, p := range v.ClinVar.Phenotypes {
				out = append(out, variantPhenotype{variantID: v.VariantID, gene: v.GeneSymbol, text: p, source: "clinvar"})
			}
		}
	}
	return out
}

type variantDisease struct {
	text string
	gene string
}

// extractVariantDiseases pulls diseases from PharmGKB's structured
// related-disease field, from ClinVar phenotype strings (themselves disease
// names), and from PharmGKB phenotype prose mined via the
// pharmacogenomics-aware pattern library in pkg/sources, deduped by
// "gene:disease text" so the same disease from two variants on the same
// gene collapses to one entry.
func extractVariantDiseases(variants []domain.Variant) []variantDisease {
	seen := make(map[string]struct{})
	var out []variantDisease
	add := func(gene, text string) {
		if text == "" {
			return
		}
		key := gene + ":" + strings.ToLower(text)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, variantDisease{text: text, gene: gene})
	}

	for _, v := range variants {
		if v.PharmGKB != nil {
			for _, ann := range v.PharmGKB.Annotations {
				for _, d := range ann.RelatedDiseases {
					add(v.GeneSymbol, d)
				}
			}
			for _, p := range v.PharmGKB.Phenotypes {
				for _, d := range sources.ExtractPharmGKBDiseases(p) {
					add(v.GeneSymbol, d)
				}
			}
		}
		if v.ClinVar != nil {
			for _, p := range v.ClinVar.Phenotypes {
				if len(strings.TrimSpace(p)) > 3 {
					add(v.GeneSymbol, p)
				}
			}
		}
	}
	return out
}

func (l *Linker) mapConditionsToSNOMED(ctx context.Context, conditions []domain.Condition) map[string]codedEntry {
	out := make(map[string]codedEntry)
	for _, c := range conditions {
		if c.SNOMEDCode != "" {
			out[c.PreferredLabel] = codedEntry{code: c.SNOMEDCode, name: c.PreferredLabel}
			continue
		}
		res := l.resolver.ResolveSNOMED(ctx, c.PreferredLabel)
		if res.IsOK() {
			out[c.PreferredLabel] = codedEntry{code: res.Value.Code, name: c.PreferredLabel}
		}
	}
	return out
}

func (l *Linker) mapMedicationsToSNOMED(ctx context.Context, medications []domain.Medication) map[string]codedEntry {
	out := make(map[string]codedEntry)
	for _, m := range medications {
		name := medDisplayName(m)
		if m.SNOMEDCode != "" {
			out[name] = codedEntry{code: m.SNOMEDCode, name: name}
			continue
		}
		res := l.resolver.ResolveDrugSNOMED(ctx, name)
		if res.IsOK() {
			out[name] = codedEntry{code: res.Value.Code, name: name}
		}
	}
	return out
}

func (l *Linker) mapDrugsToSNOMED(ctx context.Context, drugs []variantDrug) map[string]codedEntry {
	out := make(map[string]codedEntry)
	for _, d := range drugs {
		res := l.resolver.ResolveDrugSNOMED(ctx, d.name)
		if res.IsOK() {
			out[d.name] = codedEntry{code: res.Value.Code, name: d.name}
		}
	}
	return out
}

func (l *Linker) mapDiseasesToSNOMED(ctx context.Context, diseases []variantDisease) map[string]codedEntry {
	out := make(map[string]codedEntry)
	for _, d := range diseases {
		res := l.resolver.ResolveSNOMED(ctx, d.text)
		if res.IsOK() {
			out[d.text] = codedEntry{code: res.Value.Code, name: d.text}
		}
	}
	return out
}

// detectConflicts flags patient medications that are also variant-affected
// drugs, first by exact name match and then (for anything missed) by
// matching SNOMED CT code.
func detectConflicts(
	medications []domain.Medication,
	medicationCodes map[string]codedEntry,
	drugs []variantDrug,
	drugCodes map[string]codedEntry,
	variants []domain.Variant,
) []domain.Conflict {
	var conflicts []domain.Conflict

	patientByName := make(map[string]domain.Medication)
	for _, m := range medications {
		patientByName[strings.ToLower(medDisplayName(m))] = m
	}
	drugByName := make(map[string]variantDrug)
	for _, d := range drugs {
		drugByName[strings.ToLower(d.name)] = d
	}

	for nameLower, med := range patientByName {
		if d, ok := drugByName[nameLower]; ok {
			if c, ok := analyzeDrugConflict(med, d, domain.MatchExactName); ok {
				conflicts = append(conflicts, c)
			}
		}
	}

	patientCodeIndex := make(map[string]domain.Medication)
	for name, entry := range medicationCodes {
		if entry.code != "" {
			patientCodeIndex[entry.code] = patientByName[strings.ToLower(name)]
		}
	}
	drugCodeIndex := make(map[string]variantDrug)
	for name, entry := range drugCodes {
		if entry.code != "" {
			drugCodeIndex[entry.code] = drugByName[strings.ToLower(name)]
		}
	}

	var codes []string
	for code := range patientCodeIndex {
		if _, ok := drugCodeIndex[code]; ok {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	for _, code := range codes {
		med := patientCodeIndex[code]
		d := drugCodeIndex[code]
		if _, already := drugByName[strings.ToLower(medDisplayName(med))]; already {
			continue
		}
		c, ok := analyzeDrugConflict(med, d, domain.MatchSNOMEDCode)
		if !ok {
			continue
		}
		c.SNOMEDCode = code
		conflicts = append(conflicts, c)
	}

	return conflicts
}

func analyzeDrugConflict(med domain.Medication, d variantDrug, method domain.MatchMethod) (domain.Conflict, bool) {
	if len(d.variants) == 0 {
		return domain.Conflict{}, false
	}

	affecting := make([]domain.AffectingVariant, 0, len(d.variants))
	var recommendations []string
	for _, ref := range d.variants {
		affecting = append(affecting, domain.AffectingVariant{
			Gene:           ref.gene,
			VariantID:      ref.variantID,
			RSID:           ref.rsid,
			Recommendation: ref.recommendation,
			EvidenceLevel:  ref.evidenceLevel,
		})
		if ref.recommendation != "" {
			recommendations = append(recommendations, ref.recommendation)
		}
	}

	severity := severityFor(recommendations)
	recommendation := ""
	if len(recommendations) > 0 {
		recommendation = recommendations[0]
	}

	return domain.Conflict{
		DrugName:             d.name,
		PatientMedicationRef: medDisplayName(med),
		Severity:             severity,
		AffectingVariants:    affecting,
		Recommendation:       recommendation,
		MatchMethod:          method,
		Timestamp:            time.Now().UTC(),
	}, true
}

func severityFor(recommendations []string) domain.ConflictSeverity {
	combined := strings.ToLower(strings.Join(recommendations, " "))
	severity := domain.SeverityInfo
	for _, kw := range conflictKeywords {
		if strings.Contains(combined, kw) {
			severity = severity.Escalate(domain.SeverityWarning)
			break
		}
	}
	if severity == domain.SeverityWarning {
		for _, kw := range criticalKeywords {
			if strings.Contains(combined, kw) {
				severity = severity.Escalate(domain.SeverityCritical)
				break
			}
		}
	}
	return severity
}

// createLinks produces the four link types §4.7 defines. Medication and
// drug links include the SNOMED-code match path only when it finds a
// patient medication not already covered by the exact-name pass.
func createLinks(
	conditions []domain.Condition, conditionCodes map[string]codedEntry,
	medications []domain.Medication, medicationCodes map[string]codedEntry,
	drugs []variantDrug, drugCodes map[string]codedEntry,
	diseases []variantDisease, diseaseCodes map[string]codedEntry,
	variants []domain.Variant, phenotypes []variantPhenotype,
) []domain.Link {
	var links []domain.Link

	patientMedByName := make(map[string]domain.Medication)
	for _, m := range medications {
		patientMedByName[strings.ToLower(medDisplayName(m))] = m
	}

	for _, d := range drugs {
		nameLower := strings.ToLower(d.name)
		med, ok := patientMedByName[nameLower]
		if !ok {
			continue
		}
		snomedCode := ""
		if entry, ok := drugCodes[d.name]; ok {
			snomedCode = entry.code
		}
		for _, ref := range d.variants {
			links = append(links, domain.Link{
				LinkType:        domain.LinkMedicationAffectedByVariant,
				Medication:      medDisplayName(med),
				DrugBankID:      med.DrugBankID,
				Gene:            ref.gene,
				InteractionType: "",
				Recommendations: d.recommendations(),
				EvidenceLevels:  d.evidenceLevels(),
				Variant:         ref.variantID,
				DrugName:        d.name,
				SNOMEDCode:      snomedCode,
				MatchMethod:     domain.MatchExactName,
			})
		}
	}

	patientMedCodeIndex := make(map[string]domain.Medication)
	for name, entry := range medicationCodes {
		if entry.code != "" {
			patientMedCodeIndex[entry.code] = patientMedByName[strings.ToLower(name)]
		}
	}
	for _, d := range drugs {
		nameLower := strings.ToLower(d.name)
		if _, already := patientMedByName[nameLower]; already {
			continue
		}
		entry, ok := drugCodes[d.name]
		if !ok || entry.code == "" {
			continue
		}
		med, ok := patientMedCodeIndex[entry.code]
		if !ok {
			continue
		}
		for _, ref := range d.variants {
			links = append(links, domain.Link{
				LinkType:        domain.LinkMedicationAffectedByVariant,
				Medication:      medDisplayName(med),
				DrugBankID:      med.DrugBankID,
				Gene:            ref.gene,
				Recommendations: d.recommendations(),
				EvidenceLevels:  d.evidenceLevels(),
				Variant:         ref.variantID,
				DrugName:        d.name,
				SNOMEDCode:      entry.code,
				MatchMethod:     domain.MatchSNOMEDCode,
			})
		}
	}

	patientConditionCodeIndex := make(map[string]string)
	for name, entry := range conditionCodes {
		if entry.code != "" {
			patientConditionCodeIndex[entry.code] = name
		}
	}
	for _, d := range diseases {
		entry, ok := diseaseCodes[d.text]
		if !ok || entry.code == "" {
			continue
		}
		conditionName, ok := patientConditionCodeIndex[entry.code]
		if !ok {
			continue
		}
		links = append(links, domain.Link{
			LinkType:   domain.LinkConditionMatchesDisease,
			Gene:       d.gene,
			DrugName:   d.text,
			SNOMEDCode: entry.code,
			MatchMethod: domain.MatchSNOMEDCode,
			Medication:  conditionName,
		})
	}

	for _, p := range phenotypes {
		links = append(links, domain.Link{
			LinkType:  domain.LinkVariantAssociatedPhenotype,
			Variant:   p.variantID,
			Gene:      p.gene,
			Phenotype: p.text,
			MatchMethod: domain.MatchExactName,
		})
	}

	for _, d := range drugs {
		entry := drugCodes[d.name]
		for _, ref := range d.variants {
			links = append(links, domain.Link{
				LinkType:        domain.LinkDrugAffectedByVariant,
				DrugName:        d.name,
				SNOMEDCode:      entry.code,
				Variant:         ref.variantID,
				Gene:            ref.gene,
				Recommendations: d.recommendations(),
				EvidenceLevels:  d.evidenceLevels(),
				MatchMethod:     domain.MatchExactName,
			})
		}
	}

	_ = conditions
	return links
}

func buildSummary(
	conflicts []domain.Conflict,
	links []domain.Link,
	conditions []domain.Condition,
	medications []domain.Medication,
	variants []domain.Variant,
) domain.LinkingSummary {
	byType := make(map[string]int)
	for _, l := range links {
		byType[string(l.LinkType)]++
	}

	var critical, warning int
	for _, c := range conflicts {
		switch c.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityWarning:
			warning++
		}
	}

	variantsWithDrugData := 0
	for _, v := range variants {
		if v.PharmGKB != nil && len(v.PharmGKB.Drugs) > 0 {
			variantsWithDrugData++
		}
	}

	return domain.LinkingSummary{
		LinksByType:          byType,
		ConflictsCritical:    critical,
		ConflictsWarning:     warning,
		ConflictsInfo:        len(conflicts) - critical - warning,
		PatientConditions:    len(conditions),
		PatientMedications:   len(medications),
		TotalVariants:        len(variants),
		VariantsWithDrugData: variantsWithDrugData,
		AnalysisTimestamp:    time.Now().UTC(),
	}
}
