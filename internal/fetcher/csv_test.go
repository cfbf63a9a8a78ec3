package fetcher

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "university,program\nМГУ,Физика\nВШЭ,Экономика\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"МГУ", "Физика"}, rows[1])
}

func TestReadCSV_Options(t *testing.T) {
	input := "# exported\n a ; b \n1;2;3\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
		Comment:   '#',
		TrimSpace: true,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, rows[1])
}

func TestReadCSV_MalformedQuote(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("a,\"b\nc"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a\nb\n"), CSVOptions{})
	for range rowCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"program", "university_id"}, [][]string{
		{"Физика, общая", "1"},
		{"Экономика", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "program,university_id\n\"Физика, общая\",1\nЭкономика,\n", buf.String())
}
