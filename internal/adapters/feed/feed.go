// Package feed は CSV / JSON の社員フィードを行番号付きの取り込み行に変換します。
package feed

import (
	"errors"
	"strings"
	"unicode"

	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
)

var (
	// ErrTooManyRecords はフィードの件数が上限を超えた場合に返却されます。
	ErrTooManyRecords = errors.New("feed: too many records")
	// ErrMissingHeader は CSV にヘッダー行がない場合に返却されます。
	ErrMissingHeader = errors.New("feed: missing header row")
	// ErrMalformedFeed はフィード全体が解釈できない場合に返却されます。
	ErrMalformedFeed = errors.New("feed: malformed input")
)

// Options はフィード解析の設定です。MaxRecords が 0 以下の場合は上限なしです。
type Options struct {
	MaxRecords int
}

func (o Options) exceeded(count int) bool {
	return o.MaxRecords > 0 && count > o.MaxRecords
}

var fieldAliases = map[string]string{
	"firstname":    employee.FieldFirstName,
	"givenname":    employee.FieldFirstName,
	"lastname":     employee.FieldLastName,
	"surname":      employee.FieldLastName,
	"familyname":   employee.FieldLastName,
	"email":        employee.FieldEmail,
	"emailaddress": employee.FieldEmail,
	"company":      employee.FieldCompanyName,
	"companyname":  employee.FieldCompanyName,
	"role":         employee.FieldRole,
	"salary":       employee.FieldSalary,
	"status":       employee.FieldStatus,
}

// CanonicalField は列名を正規のフィールド名に変換します。
// "firstName" / "First Name" / "first_name" はいずれも first_name になります。
func CanonicalField(name string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(name, "\ufeff") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	field, ok := fieldAliases[b.String()]
	return field, ok
}
