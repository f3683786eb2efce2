package domain

import "time"

// Patient is the root aggregate for one enrichment run. PatientID is the
// MRN when present and non-empty; otherwise a generated opaque id, with the
// legacy value carried in OtherIdentifiers["legacy_patient_id"].
type Patient struct {
	PatientID        string            `json:"patient_id"`
	OtherIdentifiers map[string]string `json:"other_identifiers,omitempty"`
	Demographics     map[string]any    `json:"demographics,omitempty"`
	Ethnicity        []string          `json:"ethnicity,omitempty"`
	Conditions       []Condition       `json:"current_conditions,omitempty"`
	Medications      []Medication      `json:"current_medications,omitempty"`
	LabResults       []LabResult       `json:"lab_results,omitempty"`
	Lifestyle        []LifestyleFactor `json:"lifestyle_factors,omitempty"`
	OrganFunction    map[string]any    `json:"organ_function,omitempty"`
	Profile          *PharmacogenomicsProfile `json:"pharmacogenomics_profile,omitempty"`
}

// Condition is a patient-reported or chart diagnosis.
type Condition struct {
	SNOMEDCode     string     `json:"snomed_code,omitempty"`
	PreferredLabel string     `json:"preferred_label"`
	DiagnosisDate  *time.Time `json:"diagnosis_date,omitempty"`
	Status         string     `json:"status,omitempty"`
}

// MedicationSource records where a Medication record originated.
type MedicationSource string

const (
	MedSourceEvidenceBased MedicationSource = "evidence_based"
	MedSourceChEMBL        MedicationSource = "chembl"
	MedSourceRxNorm        MedicationSource = "rxnorm"
	MedSourceManual        MedicationSource = "manual"
)

// Medication is owned by Patient; link edges reference it by name, never own it.
type Medication struct {
	Name                 string           `json:"name"`
	SNOMEDCode           string           `json:"snomed_code,omitempty"`
	RxNormCUI            string           `json:"rxnorm_cui,omitempty"`
	ChEMBLID             string           `json:"chembl_id,omitempty"`
	DrugBankID           string           `json:"drugbank_id,omitempty"`
	Dose                 string           `json:"dose,omitempty"`
	Unit                 string           `json:"unit,omitempty"`
	Frequency            string           `json:"frequency,omitempty"`
	TreatsConditionSNOMED string          `json:"treats_condition_snomed,omitempty"`
	Purpose              string           `json:"purpose,omitempty"`
	Source               MedicationSource `json:"source,omitempty"`
}

// LabResult carries a lab value through unmodified.
type LabResult struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// LifestyleFactor carries smoking/alcohol/diet facts; SNOMED-codeable.
type LifestyleFactor struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	SNOMEDCode string `json:"snomed_code,omitempty"`
}

// Gene is keyed by symbol.
type Gene struct {
	Symbol    string   `json:"symbol"`
	ProteinID string   `json:"protein_id,omitempty"`
	HGNCID    string   `json:"hgnc_id,omitempty"`
	EntrezID  string   `json:"entrez_id,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
}

// ClinVarInfo is the ClinVar evidence fragment attached to a Variant.
type ClinVarInfo struct {
	ClinVarID    string   `json:"clinvar_id,omitempty"`
	ReviewStatus string   `json:"review_status,omitempty"`
	StarRating   int      `json:"star_rating"`
	Phenotypes   []string `json:"phenotypes,omitempty"`
}

// PharmGKBAnnotation is one normalised clinical annotation.
type PharmGKBAnnotation struct {
	AnnotationID           string   `json:"annotation_id"`
	AccessionID            string   `json:"accession_id,omitempty"`
	EvidenceLevel          string   `json:"evidence_level,omitempty"`
	Score                  float64  `json:"score,omitempty"`
	ClinicalAnnotationTypes []string `json:"clinical_annotation_types,omitempty"`
	RelatedChemicals       []string `json:"related_chemicals,omitempty"`
	AllelePhenotypes       []AllelePhenotype `json:"allele_phenotypes,omitempty"`
	RelatedDiseases        []string `json:"related_diseases,omitempty"`
	History                []string `json:"history,omitempty"`
}

// AllelePhenotype pairs a star allele with its phenotype text.
type AllelePhenotype struct {
	Allele    string `json:"allele"`
	Phenotype string `json:"phenotype"`
}

// PharmGKBDrug is a drug recommendation attached to a variant.
type PharmGKBDrug struct {
	Name           string `json:"name"`
	Recommendation string `json:"recommendation"`
	EvidenceLevel  string `json:"evidence_level,omitempty"`
}

// PharmGKBInfo groups everything the PharmGKB adapter contributes to a Variant.
type PharmGKBInfo struct {
	Annotations []PharmGKBAnnotation `json:"annotations,omitempty"`
	Drugs       []PharmGKBDrug       `json:"drugs,omitempty"`
	Phenotypes  []string             `json:"phenotypes,omitempty"`
}

// LiteratureInfo groups the PubMed IDs discovered for a variant at gene,
// variant, and drug granularity.
type LiteratureInfo struct {
	GenePubs    []string            `json:"gene_pubs,omitempty"`
	VariantPubs []string            `json:"variant_pubs,omitempty"`
	DrugPubs    map[string][]string `json:"drug_pubs,omitempty"`
}

// PopulationSignificance bands allele frequency in the patient's primary ethnicity.
type PopulationSignificance string

const (
	PopCommon      PopulationSignificance = "common"
	PopLowFrequency PopulationSignificance = "low_frequency"
	PopRare        PopulationSignificance = "rare"
	PopUltraRare   PopulationSignificance = "ultra_rare"
)

// Variant is the richest entity in the model.
type Variant struct {
	GeneSymbol  string `json:"gene_symbol"`
	VariantID   string `json:"variant_id"`
	RSID        string `json:"rsid,omitempty"`
	ProteinID   string `json:"protein_id,omitempty"`

	ClinicalSignificance ClinicalSignificance `json:"clinical_significance,omitempty"`
	ConsequenceType       string               `json:"consequence_type,omitempty"`
	WildType               string               `json:"wild_type,omitempty"`
	AlternativeSequence    string               `json:"alternative_sequence,omitempty"`
	BeginPosition          int                  `json:"begin_position,omitempty"`
	EndPosition            int                  `json:"end_position,omitempty"`
	Codon                  string               `json:"codon,omitempty"`
	GenomicNotation         string              `json:"genomic_notation,omitempty"`
	HGVSNotation            string              `json:"hgvs_notation,omitempty"`

	ClinVar  *ClinVarInfo    `json:"clinvar,omitempty"`
	PharmGKB *PharmGKBInfo   `json:"pharmgkb,omitempty"`
	Literature *LiteratureInfo `json:"literature,omitempty"`

	PopulationFrequencies      map[string]float64      `json:"population_frequencies,omitempty"`
	PatientPopulationFrequency *float64                `json:"patient_population_frequency,omitempty"`
	PopulationSignificance     PopulationSignificance  `json:"population_significance,omitempty"`
	EthnicityContext           string                  `json:"ethnicity_context,omitempty"`

	MetabolizerPhenotype *MetabolizerResult `json:"metabolizer_phenotype,omitempty"`

	RawUniProtData  map[string]any `json:"raw_uniprot_data,omitempty"`
	RawPharmGKBData map[string]any `json:"raw_pharmgkb_data,omitempty"`

	DiscoveryScore int `json:"-"`
}

// MetabolizerResult is the §4.4.1 output attached to the selected diplotype.
type MetabolizerResult struct {
	Diplotype     string               `json:"diplotype"`
	Functionality string               `json:"functionality"`
	Phenotype     MetabolizerPhenotype `json:"phenotype"`
}

// Drug is a variant-affected drug, linked to one-or-more Variants by name.
type Drug struct {
	Name                 string   `json:"name"`
	Recommendation       string   `json:"recommendation,omitempty"`
	EvidenceLevel        string   `json:"evidence_level,omitempty"`
	ChEMBLID             string   `json:"chembl_id,omitempty"`
	RxNormCUI            string   `json:"rxnorm_cui,omitempty"`
	SNOMEDCode           string   `json:"snomed_code,omitempty"`
	PharmGKBAnnotationID string   `json:"pharmgkb_annotation_id,omitempty"`
	Variants             []string `json:"variants,omitempty"`
}

// Publication is content-addressed by PMID.
type Publication struct {
	PMID          string   `json:"pmid"`
	PMCID         string   `json:"pmcid,omitempty"`
	DOI           string   `json:"doi,omitempty"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Journal       string   `json:"journal,omitempty"`
	Year          int      `json:"year,omitempty"`
	Abstract      string   `json:"abstract,omitempty"`
	CitationCount int      `json:"citation_count,omitempty"`
	FullTextURL   *string  `json:"full_text_url,omitempty"`
	PDFURL        *string  `json:"pdf_url,omitempty"`
	OpenAccess    bool     `json:"open_access,omitempty"`
}

// ClinicalSummary counts variants by clinical significance.
type ClinicalSummary struct {
	TotalVariants int            `json:"total_variants"`
	BySignificance map[string]int `json:"by_significance"`
}

// LiteratureSummary counts publications by kind.
type LiteratureSummary struct {
	TotalPublications int `json:"total_publications"`
	GenePublications  int `json:"gene_publications"`
	VariantPublications int `json:"variant_publications"`
}

// EthnicityAdjustment is one recommended dosing/monitoring adjustment.
type EthnicityAdjustment struct {
	Drug      string `json:"drug"`
	Gene      string `json:"gene"`
	Adjustment string `json:"adjustment"`
	Strength  string `json:"strength"`
	Rationale string `json:"rationale"`
}

// Link is a directed edge produced by the linker.
type Link struct {
	LinkType             LinkType    `json:"link_type"`
	Medication           string      `json:"medication,omitempty"`
	DrugBankID           string      `json:"drugbank_id,omitempty"`
	Gene                 string      `json:"gene,omitempty"`
	Diplotype            string      `json:"diplotype,omitempty"`
	Phenotype            string      `json:"phenotype,omitempty"`
	InteractionType      string      `json:"interaction_type,omitempty"`
	ClinicalSignificance string      `json:"clinical_significance,omitempty"`
	Recommendation       string      `json:"recommendation,omitempty"`
	Variant              string      `json:"variant,omitempty"`
	DrugName             string      `json:"drug_name,omitempty"`
	SNOMEDCode           string      `json:"snomed_code,omitempty"`
	Recommendations      []string    `json:"recommendations,omitempty"`
	EvidenceLevels       []string    `json:"evidence_levels,omitempty"`
	MatchMethod          MatchMethod `json:"match_method"`
}

// AffectingVariant is one variant contributing to a Conflict.
type AffectingVariant struct {
	Gene                  string `json:"gene"`
	VariantID             string `json:"variant_id,omitempty"`
	RSID                  string `json:"rsid,omitempty"`
	Recommendation        string `json:"recommendation,omitempty"`
	EvidenceLevel         string `json:"evidence_level,omitempty"`
	ClinicalSignificance string `json:"clinical_significance,omitempty"`
}

// Conflict is a detected drug-gene interaction flagged against a patient medication.
type Conflict struct {
	DrugName            string             `json:"drug_name"`
	PatientMedicationRef string            `json:"patient_medication_ref"`
	Severity            ConflictSeverity   `json:"severity"`
	AffectingVariants    []AffectingVariant `json:"affecting_variants"`
	Recommendation       string             `json:"recommendation,omitempty"`
	MatchMethod          MatchMethod        `json:"match_method"`
	SNOMEDCode           string             `json:"snomed_code,omitempty"`
	Timestamp            time.Time          `json:"timestamp"`
}

// LinkingSummary is the §4.7 step-5 summary.
type LinkingSummary struct {
	LinksByType          map[string]int `json:"links_by_type"`
	ConflictsCritical    int            `json:"conflicts_critical"`
	ConflictsWarning     int            `json:"conflicts_warning"`
	ConflictsInfo        int            `json:"conflicts_info"`
	PatientConditions    int            `json:"patient_conditions"`
	PatientMedications   int            `json:"patient_medications"`
	TotalVariants        int            `json:"total_variants"`
	VariantsWithDrugData int            `json:"variants_with_drug_data"`
	AnalysisTimestamp    time.Time      `json:"analysis_timestamp"`
}

// VariantLinking is the assembled output of the linker (C7).
type VariantLinking struct {
	Links    []Link          `json:"links"`
	Conflicts []Conflict      `json:"conflicts"`
	Summary   LinkingSummary  `json:"summary"`
}

// PharmacogenomicsProfile is owned by Patient.
type PharmacogenomicsProfile struct {
	GenesAnalyzed               []string              `json:"genes_analyzed"`
	Variants                    []Variant             `json:"variants"`
	AffectedDrugs               []Drug                `json:"affected_drugs"`
	AssociatedDiseases          []string              `json:"associated_diseases"`
	ClinicalSummary             ClinicalSummary        `json:"clinical_summary"`
	LiteratureSummary           LiteratureSummary      `json:"literature_summary"`
	VariantLinking              VariantLinking         `json:"variant_linking"`
	EthnicityMedicationAdjustments []EthnicityAdjustment `json:"ethnicity_medication_adjustments,omitempty"`
	Publications                map[string]Publication `json:"publications"`
	GenePublications             map[string][]string    `json:"gene_publications"`
	VariantPublications          map[string][]string    `json:"variant_publications"`
}

// GeneRunResult is what one orchestrator worker returns for a gene (§4.5 step 2).
type GeneRunResult struct {
	Success      bool
	Gene         string
	ProteinID    string
	Variants     []Variant
	Drugs        map[string]Drug
	Diseases     map[string]struct{}
	Publications map[string]Publication
	Graph        KnowledgeGraph
	Duration     time.Duration
	Err          error
}

// GraphNodeType is the entity kind a GraphNode carries.
type GraphNodeType string

const (
	NodeGene        GraphNodeType = "gene"
	NodeVariant     GraphNodeType = "variant"
	NodeDrug        GraphNodeType = "drug"
	NodeFinding     GraphNodeType = "finding"
	NodeDisease     GraphNodeType = "disease"
	NodePublication GraphNodeType = "publication"
)

// GraphEdgeType is the semantic relation a GraphEdge carries.
type GraphEdgeType string

const (
	EdgeHasVariant          GraphEdgeType = "hasVariant"
	EdgeAffectsDrug         GraphEdgeType = "affectsDrug"
	EdgeHasClinicalFinding  GraphEdgeType = "hasClinicalFinding"
	EdgeAssociatedWithDisease GraphEdgeType = "associatedWithDisease"
	EdgeHasEvidence         GraphEdgeType = "hasEvidence"
)

// GraphNode is one entity in the in-memory node/edge arena, keyed by a stable
// namespaced ID (§4.4 Phase 4): `dbsnp:<rsid>`, `uniprot:<accession>`,
// `chembl:<id>`/`rxnorm:<cui>`, `snomed:<code>`, `pubmed:<pmid>`.
type GraphNode struct {
	ID         string        `json:"id"`
	Type       GraphNodeType `json:"type"`
	Label      string        `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
}

// GraphEdge is a directed, semantically-typed relation between two GraphNode IDs.
type GraphEdge struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	Type GraphEdgeType `json:"type"`
}

// KnowledgeGraph is the in-memory arena assembled by Phase 4 for one gene,
// keyed by node ID so duplicate references (the same drug affected by two
// variants, say) collapse onto a single node.
type KnowledgeGraph struct {
	Nodes map[string]GraphNode `json:"nodes"`
	Edges []GraphEdge          `json:"edges"`
}

// AddNode upserts a node by ID; a repeat reference (the same drug affected
// by two variants) is a no-op rather than a duplicate.
func (g *KnowledgeGraph) AddNode(n GraphNode) {
	if g.Nodes == nil {
		g.Nodes = make(map[string]GraphNode)
	}
	if _, exists := g.Nodes[n.ID]; exists {
		return
	}
	g.Nodes[n.ID] = n
}
