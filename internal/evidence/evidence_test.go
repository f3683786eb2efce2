package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

func TestInterpretPharmGKBLevel(t *testing.T) {
	interp, ok := InterpretPharmGKBLevel("1a")
	assert.True(t, ok)
	assert.Equal(t, "High/replicated", interp.Description)
	assert.Equal(t, 5.0, interp.Score)
}

func TestInterpretCPICLevel_Unknown(t *testing.T) {
	_, ok := InterpretCPICLevel("Z")
	assert.False(t, ok)
}

func TestOverallConfidence_AllSourcesVeryHigh(t *testing.T) {
	stars := 4
	band, mean := OverallConfidence("1A", &stars, "A")
	assert.Equal(t, domain.ConfidenceVeryHigh, band)
	assert.Equal(t, 5.0, mean)
}

func TestOverallConfidence_NoEvidenceIsVeryLow(t *testing.T) {
	band, mean := OverallConfidence("", nil, "")
	assert.Equal(t, domain.ConfidenceVeryLow, band)
	assert.Equal(t, 0.0, mean)
}

func TestOverallConfidence_MixedLow(t *testing.T) {
	stars := 1
	band, mean := OverallConfidence("2B", &stars, "")
	assert.Equal(t, domain.ConfidenceLow, band)
	assert.Equal(t, 1.5, mean)
}
