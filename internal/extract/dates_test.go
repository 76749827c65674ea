package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

func dateStr(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func TestExtractInterval(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantStart string
		wantEnd   string
		wantTier  Tier
	}{
		{
			name:      "labeled pair",
			text:      "... Data de início: 01/01/2024 Conclusão Efetiva: 31/01/2024 ...",
			wantStart: "2024-01-01",
			wantEnd:   "2024-01-31",
			wantTier:  TierLabeled,
		},
		{
			name:      "accented label with colon",
			text:      "Data de Início: 03/04/2023",
			wantStart: "2023-04-03",
			wantTier:  TierLabeled,
		},
		{
			name:      "upper case label without accent or colon",
			text:      "DATA DE INICIO 03/04/2023",
			wantStart: "2023-04-03",
			wantTier:  TierLabeled,
		},
		{
			name:      "end label without conclusao",
			text:      "Data de início: 01/01/2024 Efetiva: 31/01/2024",
			wantStart: "2024-01-01",
			wantEnd:   "2024-01-31",
			wantTier:  TierLabeled,
		},
		{
			name:      "squeezed spacing",
			text:      "DATADE  INÍCIO:03/04/2023\nCONCLUSÃO   EFETIVA : 10/04/2023",
			wantStart: "2023-04-03",
			wantEnd:   "2023-04-10",
			wantTier:  TierLabeled,
		},
		{
			name:     "invalid start literal leaves start absent",
			text:     "Data de início: 32/13/2024 Conclusão Efetiva: 31/01/2024",
			wantEnd:  "2024-01-31",
			wantTier: TierLabeled,
		},
		{
			name:      "inverted interval is returned as found",
			text:      "Data de início: 31/01/2024 Conclusão Efetiva: 01/01/2024",
			wantStart: "2024-01-31",
			wantEnd:   "2024-01-01",
			wantTier:  TierLabeled,
		},
		{
			name:      "combined window",
			text:      "Data de início do serviço: 01/02/2024\nresponsável técnico fulano\nEfetiva em 28/02/2024",
			wantStart: "2024-02-01",
			wantEnd:   "2024-02-28",
			wantTier:  TierCombined,
		},
		{
			name:      "generic two dates",
			text:      "Emitido em 05/03/2024, válido até 05/04/2024. Revisado 06/04/2024",
			wantStart: "2024-03-05",
			wantEnd:   "2024-04-05",
			wantTier:  TierGeneric,
		},
		{
			name:      "generic skips malformed literal",
			text:      "31/02/2024 então 01/03/2024 e 02-03-2024",
			wantStart: "2024-03-01",
			wantEnd:   "2024-03-02",
			wantTier:  TierGeneric,
		},
		{
			name:      "generic single date",
			text:      "assinado em 10.10.2022",
			wantStart: "2022-10-10",
			wantTier:  TierGeneric,
		},
		{
			name:     "no dates",
			text:     "relatório sem datas 123 456",
			wantTier: TierNone,
		},
		{
			name:     "empty",
			text:     "",
			wantTier: TierNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractInterval(tt.text)
			assert.Equal(t, tt.wantStart, dateStr(got.Start))
			assert.Equal(t, tt.wantEnd, dateStr(got.End))
			assert.Equal(t, tt.wantTier, got.Tier)
		})
	}
}

func TestExtractInterval_CaseAndAccentInsensitive(t *testing.T) {
	a := ExtractInterval("Data de Início: 03/04/2023")
	b := ExtractInterval("DATA DE INICIO 03/04/2023")
	require.NotNil(t, a.Start)
	require.NotNil(t, b.Start)
	assert.Equal(t, *a.Start, *b.Start)
	assert.Equal(t, entity.MustDate("2023-04-03"), *a.Start)
}

func TestDateInterval_Helpers(t *testing.T) {
	var empty DateInterval
	assert.False(t, empty.Found())
	assert.False(t, empty.Complete())
	_, ok := empty.Interval()
	assert.False(t, ok)

	full := ExtractInterval("Data de início: 01/01/2024 Conclusão Efetiva: 31/01/2024")
	assert.True(t, full.Complete())
	iv, ok := full.Interval()
	require.True(t, ok)
	assert.Equal(t, entity.MustDate("2024-01-31"), iv.End)
	assert.Equal(t, "labeled", full.Tier.String())
}
