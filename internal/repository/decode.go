package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"MarketTiming/internal/domain/models"
)

// DecodeTable parses a CSV or XLSX document into a raw table. The format is
// chosen from the file extension of name; sheet selects an XLSX worksheet and
// defaults to the first one.
func DecodeTable(r io.Reader, name, sheet string) (*models.RawTable, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = decodeXLSX(r, sheet)
	default:
		records, err = decodeCSV(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("decode %s: %w", name, errEmptyDocument)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &models.RawTable{Header: header, Rows: records[1:]}, nil
}

var errEmptyDocument = errors.New("empty document")

func decodeCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func decodeXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errEmptyDocument
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}
