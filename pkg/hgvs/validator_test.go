package hgvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHGVS_Genomic(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateHGVS("NC_000010.11:g.94781859G>A"))
	assert.Error(t, v.ValidateHGVS("NC_000010.11:g.bad"))
}

func TestValidateHGVS_Coding(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateHGVS("NM_000769.4:c.681G>A"))
}

func TestValidateHGVS_Protein(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateHGVS("NP_000760.1:p.Gly227Arg"))
}

func TestValidateHGVS_Empty(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.ValidateHGVS(""))
}

func TestValidateHGVS_Unrecognized(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.ValidateHGVS("garbage notation"))
}

func TestValidateGeneSymbol(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateGeneSymbol("CYP2C19"))
	assert.NoError(t, v.ValidateGeneSymbol(""))
	assert.Error(t, v.ValidateGeneSymbol("cyp2c19"))
}

func TestParseHGVSComponents_Genomic(t *testing.T) {
	v := NewValidator()
	components, err := v.ParseHGVSComponents("NC_000010.11:g.94781859G>A")
	assert.NoError(t, err)
	assert.Equal(t, "genomic", components.Type)
	assert.Equal(t, "G", components.RefAllele)
	assert.Equal(t, "A", components.AltAllele)
}
