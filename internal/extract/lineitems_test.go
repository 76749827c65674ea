package extract

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attestation = `ATESTADO DE CAPACIDADE TÉCNICA
Data de início: 01/01/2024 Conclusão Efetiva: 31/01/2024
SERVIÇOS EXECUTADOS
01 02 03 Pintura de fachada M 1.234,56
04 05 06 Limpeza geral UN 10,00
linha sem padrão 123
07 08 09 Manutenção elétrica HR 2,50
Observações finais
10 11 12 Item fora da tabela UN 1,00
`

func TestExtractLineItems(t *testing.T) {
	items := slices.Collect(ExtractLineItems(attestation))
	require.Len(t, items, 4)

	assert.Equal(t, "01 02 03", items[0].Code)
	assert.Equal(t, "Pintura de fachada", items[0].Description)
	assert.Equal(t, "M", items[0].Unit)
	assert.Equal(t, "1234.56", items[0].Quantity.String())
	assert.Equal(t, "1.234,56", items[0].Quantity.Literal)

	assert.Equal(t, "Limpeza geral", items[1].Description)
	assert.Equal(t, "UN", items[1].Unit)
	assert.Equal(t, int64(1000), items[1].Quantity.Hundredths)

	assert.Equal(t, "Manutenção elétrica", items[2].Description, "original accents are kept")
	assert.Equal(t, "HR", items[2].Unit)

	// unbounded region runs past the end of the table
	assert.Equal(t, "Item fora da tabela", items[3].Description)

	for i, it := range items {
		assert.Equal(t, i, it.Position)
	}
}

func TestExtractLineItems_RegionEnd(t *testing.T) {
	items := slices.Collect(ExtractLineItems(attestation, WithRegionEnd("Observações")))
	require.Len(t, items, 3)
	assert.Equal(t, "07 08 09", items[2].Code)

	// a marker that never appears leaves the region unbounded
	items = slices.Collect(ExtractLineItems(attestation, WithRegionEnd("assinatura", "  ")))
	assert.Len(t, items, 4)
}

func TestExtractLineItems_NoHeader(t *testing.T) {
	items := slices.Collect(ExtractLineItems("01 02 03 Pintura de fachada M 1.234,56"))
	assert.Empty(t, items)
}

func TestExtractLineItems_HeaderWithoutRows(t *testing.T) {
	items := slices.Collect(ExtractLineItems("Serviço\nnenhuma linha aqui 12,00\n1 2 3 curto UN 1,00"))
	assert.Empty(t, items)
}

func TestExtractLineItems_SingularHeaderAndEarlyStop(t *testing.T) {
	text := "serviço\n11 22 33 Alfa UN 1,00\n44 55 66 Beta KG 2,00\n"
	var got []string
	for it := range ExtractLineItems(text) {
		got = append(got, it.Code)
		break
	}
	assert.Equal(t, []string{"11 22 33"}, got)
}

func TestExtractLineItems_QuantityWithoutThousands(t *testing.T) {
	items := slices.Collect(ExtractLineItems("SERVICOS\n01 01 01 Escavação M 12345,00"))
	require.Len(t, items, 1)
	assert.Equal(t, "12345.00", items[0].Quantity.String())
}

func TestExtractLineItems_SkipsOversizedQuantity(t *testing.T) {
	text := "SERVIÇOS\n01 02 03 Pintura de fachada M 99999999999999999,99\n04 05 06 Limpeza geral UN 10,00"
	items := slices.Collect(ExtractLineItems(text))
	require.Len(t, items, 1)
	assert.Equal(t, "04 05 06", items[0].Code)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, "10.00", items[0].Quantity.String())
}
