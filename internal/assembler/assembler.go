// Package assembler produces the canonical JSON-LD patient document (§6.1):
// Normalise builds the envelope from an input patient profile, and Assemble
// attaches the pipeline's enriched output once every phase and the linker
// have run.
package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/sources"
)

// CanonicalContext is the fixed @context every assembled document carries.
var CanonicalContext = map[string]string{
	"foaf":                  "http://xmlns.com/foaf/0.1/",
	"schema":                "http://schema.org/",
	"pgx":                   "http://pgx-kg.org/",
	"sdisco":                "http://ugent.be/sdisco/",
	"snomed":                "http://snomed.info/id/",
	"drugbank":              "https://go.drugbank.com/drugs/",
	"ugent":                 "http://ugent.be/person/",
	"dbsnp":                 "https://identifiers.org/dbsnp/",
	"ncbigene":              "https://identifiers.org/ncbigene/",
	"clinpgx":               "https://www.clinpgx.org/haplotype/",
	"gn":                    "http://www.geonames.org/ontology#",
	"skos":                  "http://www.w3.org/2004/02/skos/core#",
	"xsd":                   "http://www.w3.org/2001/XMLSchema#",
	"population_frequencies": "pgx:populationFrequencies",
}

// ClinicalInformation carries the dashboard's clinical subtrees verbatim.
type ClinicalInformation struct {
	Demographics       map[string]any          `json:"demographics,omitempty"`
	CurrentConditions  []domain.Condition       `json:"current_conditions,omitempty"`
	CurrentMedications []domain.Medication       `json:"current_medications,omitempty"`
	OrganFunction      map[string]any            `json:"organ_function,omitempty"`
	LifestyleFactors   []domain.LifestyleFactor `json:"lifestyle_factors,omitempty"`
}

// ProfileSummary is the pharmacogenomics_profile subtree.
type ProfileSummary struct {
	GenesAnalyzed      []string                `json:"genes_analyzed"`
	TotalVariants      int                     `json:"total_variants"`
	VariantsByGene     map[string]int          `json:"variants_by_gene"`
	AffectedDrugs      []domain.Drug           `json:"affected_drugs"`
	AssociatedDiseases []string                `json:"associated_diseases"`
	ClinicalSummary    domain.ClinicalSummary  `json:"clinical_summary"`
	LiteratureSummary  domain.LiteratureSummary `json:"literature_summary"`
}

// PatientDocument is the canonical JSON-LD envelope of spec.md §6.1.
type PatientDocument struct {
	Context     map[string]string `json:"@context"`
	ID          string            `json:"@id"`
	Type        []string          `json:"@type"`
	Identifier  string            `json:"identifier"`
	PatientID   string            `json:"patient_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DateCreated time.Time         `json:"dateCreated"`

	ClinicalInformation ClinicalInformation `json:"clinical_information"`

	PharmacogenomicsProfile ProfileSummary `json:"pharmacogenomics_profile"`
	Variants                []domain.Variant `json:"variants"`

	VariantLinking                 domain.VariantLinking         `json:"variant_linking"`
	EthnicityMedicationAdjustments []domain.EthnicityAdjustment `json:"ethnicity_medication_adjustments,omitempty"`

	DashboardSource bool   `json:"dashboard_source"`
	DataSource      string `json:"dataSource"`
}

// now is overridable in tests; Normalise/Assemble stamp dateCreated/analysis
// timestamps through it instead of calling time.Now() directly so callers
// can pin a deterministic clock.
var now = func() time.Time { return time.Now().UTC() }

// Normalise builds the canonical envelope for one patient, carrying their
// clinical subtrees over verbatim and leaving the pharmacogenomics profile
// and variants empty for Assemble to fill in once enrichment completes.
func Normalise(patient domain.Patient) *PatientDocument {
	patientID := patient.PatientID
	if patientID == "" {
		patientID = "AUTO_UNKNOWN"
	}

	doc := &PatientDocument{
		Context:     CanonicalContext,
		ID:          fmt.Sprintf("http://ugent.be/person/%s", patientID),
		Type:        []string{"foaf:Person", "schema:Person", "schema:Patient"},
		Identifier:  patientID,
		PatientID:   patientID,
		Name:        "Comprehensive Pharmacogenomics Patient Profile",
		Description: "Dashboard-provided clinical profile (normalized to canonical schema)",
		DateCreated: now(),
		ClinicalInformation: ClinicalInformation{
			Demographics:       patient.Demographics,
			CurrentConditions:  patient.Conditions,
			CurrentMedications: patient.Medications,
			OrganFunction:      patient.OrganFunction,
			LifestyleFactors:   patient.Lifestyle,
		},
		PharmacogenomicsProfile: ProfileSummary{
			GenesAnalyzed:      []string{},
			VariantsByGene:     map[string]int{},
			AffectedDrugs:      []domain.Drug{},
			AssociatedDiseases: []string{},
		},
		Variants:        []domain.Variant{},
		DashboardSource: true,
		DataSource:      "Dashboard -> PGx pipeline",
	}
	return doc
}

// Assemble attaches the pipeline's enriched output — variants, drug/disease
// summaries, the linker's VariantLinking, and any ethnicity adjustments — to
// a document previously built by Normalise. It performs the final rsID
// assignment pass before storing the variants.
func Assemble(doc *PatientDocument, profile domain.PharmacogenomicsProfile) *PatientDocument {
	variants := make([]domain.Variant, len(profile.Variants))
	variantsByGene := make(map[string]int)
	for i, v := range profile.Variants {
		v = AssignExactRSID(v)
		variants[i] = v
		variantsByGene[v.GeneSymbol]++
	}

	doc.Variants = variants
	doc.PharmacogenomicsProfile = ProfileSummary{
		GenesAnalyzed:      profile.GenesAnalyzed,
		TotalVariants:      len(variants),
		VariantsByGene:     variantsByGene,
		AffectedDrugs:      profile.AffectedDrugs,
		AssociatedDiseases: profile.AssociatedDiseases,
		ClinicalSummary:    profile.ClinicalSummary,
		LiteratureSummary:  profile.LiteratureSummary,
	}
	doc.VariantLinking = profile.VariantLinking
	doc.EthnicityMedicationAdjustments = profile.EthnicityMedicationAdjustments
	doc.DataSource = dataSourceLabel(profile)

	return doc
}

func dataSourceLabel(profile domain.PharmacogenomicsProfile) string {
	sourceSet := map[string]struct{}{"UniProt": {}, "ClinVar": {}, "PharmGKB": {}}
	for _, v := range profile.Variants {
		if v.PharmGKB != nil {
			sourceSet["PharmGKB"] = struct{}{}
		}
		if v.ClinVar != nil {
			sourceSet["ClinVar"] = struct{}{}
		}
	}
	if len(profile.AffectedDrugs) > 0 {
		sourceSet["ChEMBL"] = struct{}{}
	}
	if len(profile.Publications) > 0 {
		sourceSet["Europe PMC"] = struct{}{}
	}
	names := make([]string, 0, len(sourceSet))
	for name := range sourceSet {
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// AssignExactRSID implements spec.md §4.8's rsID assignment pass: a direct
// rsid is kept only if it matches ^rs\d+$; otherwise an xref with a matching
// dbSNP entry in the variant's raw UniProt payload is preferred; otherwise a
// nested ClinVar block is inspected. An rsID is never invented — if none of
// these resolve, the variant's RSID is left empty (a malformed direct value
// is dropped, not kept).
func AssignExactRSID(v domain.Variant) domain.Variant {
	if sources.IsRSID(v.RSID) {
		return v
	}

	if xrefs := extractRawXrefs(v.RawUniProtData); len(xrefs) > 0 {
		if rsid := sources.ExtractRSID(xrefs); rsid != "" {
			v.RSID = rsid
			return v
		}
	}

	if v.ClinVar != nil {
		for _, phenotype := range v.ClinVar.Phenotypes {
			if rsid := findRSIDToken(phenotype); rsid != "" {
				v.RSID = rsid
				return v
			}
		}
	}

	v.RSID = ""
	return v
}

// extractRawXrefs pulls a "xrefs" array of {database, id} maps out of a
// variant's raw UniProt payload, as stored by phase 1 before the typed
// UniProtVariant is discarded.
func extractRawXrefs(raw map[string]any) []sources.XRef {
	rawXrefs, ok := raw["xrefs"].([]any)
	if !ok {
		return nil
	}
	out := make([]sources.XRef, 0, len(rawXrefs))
	for _, entry := range rawXrefs {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		db, _ := m["database"].(string)
		id, _ := m["id"].(string)
		out = append(out, sources.XRef{Database: db, ID: id})
	}
	return out
}

// findRSIDToken scans free text for the first whitespace-delimited token
// that looks like a dbSNP rsID.
func findRSIDToken(text string) string {
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, ".,;:()")
		if sources.IsRSID(token) {
			return token
		}
	}
	return ""
}
