package extract

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

func TestExtractPairs(t *testing.T) {
	pairs := slices.Collect(ExtractPairs("Total: 1500 itens = 3 taxa-2.5 abc"))
	require.Len(t, pairs, 3)
	assert.Equal(t, entity.LabelValuePair{Position: 0, Label: "Total", Value: "1500"}, pairs[0])
	assert.Equal(t, entity.LabelValuePair{Position: 1, Label: "itens", Value: "3"}, pairs[1])
	assert.Equal(t, entity.LabelValuePair{Position: 2, Label: "taxa", Value: "2.5"}, pairs[2])
}

func TestExtractPairs_AcrossWholeText(t *testing.T) {
	pairs := slices.Collect(ExtractPairs("Data de início: 01/01/2024"))
	require.Len(t, pairs, 1)
	assert.Equal(t, "início", pairs[0].Label)
	assert.Equal(t, "01", pairs[0].Value)
}

func TestExtractPairs_DecomposedAccents(t *testing.T) {
	pairs := slices.Collect(ExtractPairs("ini\u0301cio: 5"))
	require.Len(t, pairs, 1)
	assert.Equal(t, "ini\u0301cio", pairs[0].Label)
	assert.Equal(t, "5", pairs[0].Value)
}

func TestExtractPairs_None(t *testing.T) {
	assert.Empty(t, slices.Collect(ExtractPairs("")))
	assert.Empty(t, slices.Collect(ExtractPairs("apenas palavras, sem números")))
}
