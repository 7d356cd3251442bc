package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
)

// ParseCSV はヘッダー付き CSV を取り込み行に変換します。
// 行番号はヘッダーを 1 行目とした元ファイルの行番号です。列数の不一致は該当行のパースエラーになります。
func ParseCSV(r io.Reader, opts Options) ([]importer.Line, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedFeed, err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if field, ok := CanonicalField(name); ok {
			columns[i] = field
		}
	}

	var lines []importer.Line
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%w: %w", ErrMalformedFeed, err)
			}
			lines = append(lines, importer.Line{Number: parseErr.StartLine, ParseError: parseErr.Err})
		} else {
			number, _ := reader.FieldPos(0)
			lines = append(lines, csvLine(number, columns, row))
		}

		if opts.exceeded(len(lines)) {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, opts.MaxRecords)
		}
	}

	return lines, nil
}

func csvLine(number int, columns []string, row []string) importer.Line {
	if len(row) != len(columns) {
		return importer.Line{
			Number:     number,
			ParseError: fmt.Errorf("wrong number of fields: expected %d, got %d", len(columns), len(row)),
		}
	}

	rec := make(employee.RawRecord, len(columns))
	for i, field := range columns {
		if field == "" {
			continue
		}
		rec[field] = row[i]
	}
	return importer.Line{Number: number, Record: rec}
}
