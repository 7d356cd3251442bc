package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
)

// JSONRecord は JSON フィードの 1 要素の形式です。スキーマ公開にも使います。
type JSONRecord struct {
	FirstName   string `json:"first_name" jsonschema:"required" jsonschema_description:"Given name, kept as supplied"`
	LastName    string `json:"last_name" jsonschema:"required" jsonschema_description:"Family name, kept as supplied"`
	Email       string `json:"email" jsonschema:"required" jsonschema_description:"Unique key, compared case-insensitively"`
	CompanyName string `json:"company_name" jsonschema:"required" jsonschema_description:"Exact company name used for statistics"`
	Role        string `json:"role" jsonschema:"required,enum=ENGINEER,enum=SENIOR_ENGINEER,enum=MANAGER,enum=DIRECTOR,enum=ANALYST,enum=DESIGNER,enum=INTERN"`
	Salary      *int   `json:"salary,omitempty" jsonschema:"minimum=0" jsonschema_description:"Defaults to the role base salary when omitted"`
	Status      string `json:"status,omitempty" jsonschema:"enum=ACTIVE,enum=INACTIVE,enum=TERMINATED" jsonschema_description:"Defaults to ACTIVE"`
}

// ParseJSON はオブジェクトの配列を取り込み行に変換します。
// 行番号は各要素の開始位置の元データ行番号です。オブジェクト以外の要素は該当行のパースエラーになります。
func ParseJSON(r io.Reader, opts Options) ([]importer.Line, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("feed: read json: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedFeed)
	}

	var lines []importer.Line
	for dec.More() {
		number := lineAt(data, dec.InputOffset())

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedFeed, number, err)
		}

		lines = append(lines, jsonLine(number, value))
		if opts.exceeded(len(lines)) {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, opts.MaxRecords)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	return lines, nil
}

// jsonLine はオブジェクト 1 件を取り込み行に変換します。キーは名前順に処理するため、結果は入力のキー順に依存しません。
// 同じ項目の別名が 2 つ以上あるオブジェクトは、その行のパースエラーにします。
func jsonLine(number int, value any) importer.Line {
	obj, ok := value.(map[string]any)
	if !ok {
		return importer.Line{Number: number, ParseError: errors.New("record is not a JSON object")}
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rec := make(employee.RawRecord, len(obj))
	sources := make(map[string]string, len(obj))
	for _, key := range keys {
		field, ok := CanonicalField(key)
		if !ok {
			continue
		}
		if prev, dup := sources[field]; dup {
			return importer.Line{Number: number, ParseError: fmt.Errorf("duplicate field %s: keys %q and %q", field, prev, key)}
		}
		sources[field] = key

		switch v := obj[key].(type) {
		case nil:
			continue
		case string:
			rec[field] = v
		case json.Number:
			rec[field] = v.String()
		case float64:
			rec[field] = formatFloat(v)
		case bool:
			rec[field] = strconv.FormatBool(v)
		default:
			return importer.Line{Number: number, ParseError: fmt.Errorf("unsupported value for field %s", field)}
		}
	}
	return importer.Line{Number: number, Record: rec}
}

// ParseValues は復号済みの要素列を取り込み行に変換します。行番号は要素の位置(1 始まり)です。
// gRPC の google.protobuf.ListValue のように、元データの行位置を持たない入力に使います。
func ParseValues(values []any, opts Options) ([]importer.Line, error) {
	if opts.exceeded(len(values)) {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, opts.MaxRecords)
	}

	lines := make([]importer.Line, 0, len(values))
	for i, value := range values {
		lines = append(lines, jsonLine(i+1, value))
	}
	return lines, nil
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// lineAt は offset 以降で最初の要素が始まる位置の行番号(1 始まり)を返します。
func lineAt(data []byte, offset int64) int {
	pos := int(offset)
	for pos < len(data) && isSeparator(data[pos]) {
		pos++
	}
	return bytes.Count(data[:pos], []byte("\n")) + 1
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', ',':
		return true
	default:
		return false
	}
}
