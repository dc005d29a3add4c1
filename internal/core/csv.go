package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped from the start of uploads saved by Excel.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportRow is one CSV data row keyed by the original header strings.
// Number is 1-based and counts data rows only, in file order.
type ImportRow struct {
	Number int
	Values map[string]string
}

// ParsedCSV is a header row plus its non-blank data rows.
type ParsedCSV struct {
	Headers []string
	Rows    []ImportRow
}

// ParseCSV reads an uploaded file. The first record is the header; records
// whose cells are all blank are skipped; cells are trimmed. A row shorter
// than the header leaves the trailing columns absent and extra cells are
// ignored. Quotes are parsed strictly; a malformed file returns *CSVError
// and a file with no data rows returns ErrEmptyFile.
func ParseCSV(data []byte) (*ParsedCSV, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	parsed := &ParsedCSV{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &CSVError{Line: perr.Line, Err: perr.Err}
			}
			return nil, &CSVError{Err: err}
		}

		if parsed.Headers == nil {
			if isEmptyRow(record) {
				continue
			}
			parsed.Headers = trimCells(record)
			continue
		}
		if isEmptyRow(record) {
			continue
		}

		values := make(map[string]string, len(parsed.Headers))
		for i, h := range parsed.Headers {
			if h == "" || i >= len(record) {
				continue
			}
			values[h] = strings.TrimSpace(record[i])
		}
		parsed.Rows = append(parsed.Rows, ImportRow{
			Number: len(parsed.Rows) + 1,
			Values: values,
		})
	}

	if len(parsed.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return parsed, nil
}

func trimCells(record []string) []string {
	out := make([]string, len(record))
	for i, v := range record {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
