package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		lines    []string
		expected rune
	}{
		{[]string{"a,b,c", "1,2,3"}, ','},
		{[]string{"a;b;c", "1,5;2;3"}, ';'},
		{[]string{"a\tb\tc", "1\t2\t3"}, '\t'},
		{[]string{`"Acme, Inc";ean`, `"Globex, Ltd";1`}, ';'},
		{[]string{"single"}, ','},
	}

	for _, test := range tests {
		if got, _ := detectDelimiter(test.lines); got != test.expected {
			t.Errorf("detectDelimiter(%q) = %q, expected %q", test.lines, got, test.expected)
		}
	}
}

func TestReadTable_CSV(t *testing.T) {
	content := "\xef\xbb\xbfVendor;Item EAN;Unit Cost\nAcme;5.00E+12;$4.50\n;;\nGlobex;123;1\n"

	table, err := ReadTable("suppliers.csv", strings.NewReader(content))

	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor", "Item EAN", "Unit Cost"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, map[string]string{"Vendor": "Acme", "Item EAN": "5.00E+12", "Unit Cost": "$4.50"}, table.Rows[0])
	assert.Equal(t, "Globex", table.Rows[1]["Vendor"])
}

func TestReadTable_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Fournisseur,Coût\nCafé Ltd,3\n")
	require.NoError(t, err)

	table, err := ReadTable("legacy.csv", strings.NewReader(encoded))

	require.NoError(t, err)
	assert.Equal(t, []string{"Fournisseur", "Coût"}, table.Headers)
	assert.Equal(t, "Café Ltd", table.Rows[0]["Fournisseur"])
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Vendor", "EAN", "Cost"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Acme", "5012345678900", "4.5"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := ReadTable("suppliers.XLSX", bytes.NewReader(buf.Bytes()))

	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor", "EAN", "Cost"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "5012345678900", table.Rows[0]["EAN"])
}

func TestNewTable_HeaderCleanup(t *testing.T) {
	table, err := NewTable([][]string{
		{"Cost", "", "Cost", `"EAN"`},
		{"1", "x", "2"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Cost", "Column 2", "Cost (2)", "EAN"}, table.Headers)
	assert.Equal(t, map[string]string{"Cost": "1", "Column 2": "x", "Cost (2)": "2", "EAN": ""}, table.Rows[0])

	_, err = NewTable(nil)
	assert.Error(t, err)
}

func TestParseCSV_EmptyFile(t *testing.T) {
	_, _, err := ParseCSVWithDetectedDelimiter(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("a.CSV"))
	assert.True(t, IsSupportedFile("a.xlsx"))
	assert.False(t, IsSupportedFile("a.pdf"))
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2}}, Chunk([]int{1, 2}, 0))
	assert.Nil(t, Chunk([]int{}, 3))
}
