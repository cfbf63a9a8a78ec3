package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ratings-cli/internal/fetcher"
)

// DefaultSheetIndex is the programs sheet of the export workbooks; the
// first sheet lists universities.
const DefaultSheetIndex = 1

// SheetOptions selects the sheet of a workbook. CSV files ignore it.
type SheetOptions struct {
	SheetIndex int
	SheetName  string
}

// ReadSheet loads a .xlsx or .csv file and splits off its header row.
func ReadSheet(ctx context.Context, path string, opts SheetOptions) ([]string, [][]string, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = fetcher.ReadXLSX(path, fetcher.XLSXOptions{
			SheetIndex: opts.SheetIndex,
			SheetName:  opts.SheetName,
			TrimSpace:  true,
		})
	case ".csv":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		records, err = fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})
	default:
		return nil, nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	if len(records) == 0 {
		return nil, nil, eris.Errorf("ingest: %s is empty", path)
	}
	return records[0], records[1:], nil
}

var mappingHeader = []string{"line", "university_name", "program_name", "status", "strategy", "university_id", "matched_name"}

// WriteMapping writes one CSV line per resolved row.
func WriteMapping(w io.Writer, rows []Row) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		id := ""
		if r.UniversityID != 0 {
			id = strconv.FormatInt(r.UniversityID, 10)
		}
		out[i] = []string{
			strconv.Itoa(r.Line),
			r.UniversityName,
			r.ProgramName,
			string(r.Status),
			string(r.Strategy),
			id,
			r.MatchedName,
		}
	}
	return eris.Wrap(fetcher.WriteCSV(w, mappingHeader, out), "ingest: write mapping")
}
