package output

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priced struct {
	Name  string          `json:"name" yaml:"name"`
	Price decimal.Decimal `json:"price" yaml:"price"`
}

type priceList []priced

func (l priceList) Headers() []string { return []string{"NAME", "PRICE"} }

func (l priceList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{p.Name, p.Price.StringFixed(2)})
	}
	return rows
}

var sample = priceList{{Name: "Lamp", Price: decimal.RequireFromString("59.5")}}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML, "table": FormatTable} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sample))
	assert.Equal(t, "NAME  PRICE\n----  -----\nLamp  59.50\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatTable, priceList{}))
	assert.Equal(t, "No data found\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample))
	assert.JSONEq(t, `[{"name":"Lamp","price":"59.5"}]`, buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sample))
	assert.Equal(t, "- name: Lamp\n  price: \"59.5\"\n", buf.String())
}

func TestTableFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, map[string]string{"route": "home"}))
	assert.Equal(t, "route: home\n", buf.String())
}
