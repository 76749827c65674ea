package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Data de Início: 03/04/2023", "data de inicio: 03/04/2023"},
		{"CONCLUSÃO EFETIVA", "conclusao efetiva"},
		{"Serviços\tPrestados\n01 02 03", "servicos\tprestados\n01 02 03"},
		{"àéîõü ÇÑ", "aeiou cn"},
		{"e\u0301 decomposed", "e decomposed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestFold_MatchesNormalize(t *testing.T) {
	for _, s := range []string{
		"Data de início: 01/01/2024 Conclusão Efetiva: 31/01/2024",
		"SERVIÇOS EXECUTADOS\n01 02 03 Manutenção HR 2,50",
		"plain ascii 123",
	} {
		assert.Equal(t, Normalize(s), Fold(s).Canonical)
	}
}

func TestFold_OriginalOffset(t *testing.T) {
	f := Fold("Serviços UN")
	require.Equal(t, "servicos un", f.Canonical)

	i := strings.Index(f.Canonical, "un")
	require.Equal(t, 9, i)
	assert.Equal(t, "UN", f.Original[f.OriginalOffset(i):])
	assert.Equal(t, len(f.Original), f.OriginalOffset(len(f.Canonical)))
	assert.Equal(t, 0, f.OriginalOffset(0))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpaces("  a \n b\t\tc "))
}
