package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
)

// pgxTargetGenes is the closed list of PGx-relevant gene targets ChEMBL
// bioactivities are filtered against.
var pgxTargetGenes = []string{
	"CYP2C19", "CYP2D6", "CYP3A4", "CYP3A5", "CYP2C9", "CYP1A2",
	"DPYD", "TPMT", "UGT1A1", "SLCO1B1", "ABCB1",
}

type chemblMolecule struct {
	ChEMBLID          string  `json:"molecule_chembl_id"`
	PrefName          string  `json:"pref_name"`
	MaxPhase          float64 `json:"max_phase"`
	FirstApproval     *int    `json:"first_approval"`
	Withdrawn         bool    `json:"withdrawn_flag"`
	MoleculeProperties struct {
		ALogP             *float64 `json:"alogp"`
		HBD               *int     `json:"hbd"`
		HBA               *int     `json:"hba"`
		PSA               *float64 `json:"psa"`
		RTB               *int     `json:"rtb"`
		NumRO5Violations  *int     `json:"num_ro5_violations"`
	} `json:"molecule_properties"`
	IndicationClass string `json:"indication_class"`
}

type chemblMoleculeResponse struct {
	Molecules []chemblMolecule `json:"molecules"`
}

// CompoundInfo is the ADMET property summary attached to a matched molecule.
type CompoundInfo struct {
	ChEMBLID         string
	PrefName         string
	ALogP            *float64
	HBD              *int
	HBA              *int
	PSA              *float64
	RotatableBonds   *int
	RO5Violations    *int
}

// TargetInteraction is one PGx-relevant bioactivity record.
type TargetInteraction struct {
	TargetChEMBLID string
	TargetName     string
	TargetGene     string
	AssayType      string
	BioactivityType string
	Value          string
	Units          string
}

// MechanismOfAction is one mechanism-of-action record for a matched molecule.
type MechanismOfAction struct {
	Mechanism  string
	TargetName string
	ActionType string
}

// moleculeScore implements the ranking formula of spec.md §4.3.
func moleculeScore(m chemblMolecule, phaseForIndication float64) float64 {
	score := phaseForIndication*10 + m.MaxPhase
	if m.FirstApproval != nil {
		score += 100
	}
	if m.Withdrawn {
		score -= 50
	}
	return score
}

// SearchCompound finds the best-matching ChEMBL molecule for a drug name,
// per the indication-ranking formula of spec.md §4.3.
func SearchCompound(ctx context.Context, c *client.Client, drugName string) domain.Result[CompoundInfo] {
	q := url.Values{}
	q.Set("molecule_synonyms__molecule_synonym__iexact", drugName)
	q.Set("limit", "5")

	result := c.Get(ctx, "chembl", "/molecule.json", q, nil)
	if !result.IsOK() {
		return domain.Failed[CompoundInfo](result.Status, result.Err)
	}

	var payload chemblMoleculeResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[CompoundInfo](domain.StatusMalformed, domain.ContractViolationErr("chembl", err.Error()))
	}
	if len(payload.Molecules) == 0 {
		return domain.Failed[CompoundInfo](domain.StatusNotFound, domain.NotFoundErr("chembl", "no molecule match for "+drugName))
	}

	best := payload.Molecules[0]
	bestScore := moleculeScore(best, 1)
	for _, m := range payload.Molecules[1:] {
		if s := moleculeScore(m, 1); s > bestScore {
			best, bestScore = m, s
		}
	}

	return domain.Ok(CompoundInfo{
		ChEMBLID:       best.ChEMBLID,
		PrefName:       best.PrefName,
		ALogP:          best.MoleculeProperties.ALogP,
		HBD:            best.MoleculeProperties.HBD,
		HBA:            best.MoleculeProperties.HBA,
		PSA:            best.MoleculeProperties.PSA,
		RotatableBonds: best.MoleculeProperties.RTB,
		RO5Violations:  best.MoleculeProperties.NumRO5Violations,
	})
}

type chemblActivity struct {
	TargetChEMBLID  string `json:"target_chembl_id"`
	TargetPrefName  string `json:"target_pref_name"`
	TargetOrganism  string `json:"target_organism"`
	AssayType       string `json:"assay_type"`
	StandardType    string `json:"standard_type"`
	StandardValue   string `json:"standard_value"`
	StandardUnits   string `json:"standard_units"`
}

type chemblActivityResponse struct {
	Activities []chemblActivity `json:"activities"`
}

// FetchTargetInteractions retrieves bioactivities for chemblID and keeps only
// those against PGx-relevant targets.
func FetchTargetInteractions(ctx context.Context, c *client.Client, chemblID string) domain.Result[[]TargetInteraction] {
	q := url.Values{}
	q.Set("molecule_chembl_id", chemblID)
	q.Set("limit", "50")

	result := c.Get(ctx, "chembl", "/activity.json", q, nil)
	if !result.IsOK() {
		return domain.Failed[[]TargetInteraction](result.Status, result.Err)
	}
	var payload chemblActivityResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]TargetInteraction](domain.StatusMalformed, domain.ContractViolationErr("chembl", err.Error()))
	}

	var out []TargetInteraction
	for _, a := range payload.Activities {
		upper := strings.ToUpper(a.TargetPrefName)
		matched := ""
		for _, gene := range pgxTargetGenes {
			if strings.Contains(upper, gene) {
				matched = gene
				break
			}
		}
		if matched == "" {
			continue
		}
		out = append(out, TargetInteraction{
			TargetChEMBLID:  a.TargetChEMBLID,
			TargetName:      a.TargetPrefName,
			TargetGene:      matched,
			AssayType:       a.AssayType,
			BioactivityType: a.StandardType,
			Value:           a.StandardValue,
			Units:           a.StandardUnits,
		})
	}
	return domain.Ok(out)
}

type chemblMechanism struct {
	MechanismOfAction string `json:"mechanism_of_action"`
	TargetPrefName    string `json:"target_pref_name"`
	ActionType        string `json:"action_type"`
}

type chemblMechanismResponse struct {
	Mechanisms []chemblMechanism `json:"mechanisms"`
}

// FetchMechanismOfAction retrieves mechanism-of-action records for chemblID.
func FetchMechanismOfAction(ctx context.Context, c *client.Client, chemblID string) domain.Result[[]MechanismOfAction] {
	q := url.Values{}
	q.Set("molecule_chembl_id", chemblID)
	q.Set("limit", "20")

	result := c.Get(ctx, "chembl", "/mechanism.json", q, nil)
	if !result.IsOK() {
		return domain.Failed[[]MechanismOfAction](result.Status, result.Err)
	}
	var payload chemblMechanismResponse
	if err := json.Unmarshal(result.Value.Body, &payload); err != nil {
		return domain.Failed[[]MechanismOfAction](domain.StatusMalformed, domain.ContractViolationErr("chembl", err.Error()))
	}
	var out []MechanismOfAction
	for _, m := range payload.Mechanisms {
		out = append(out, MechanismOfAction{Mechanism: m.MechanismOfAction, TargetName: m.TargetPrefName, ActionType: m.ActionType})
	}
	return domain.Ok(out)
}
