package employee

import (
	"strconv"
	"strings"
)

// 取り込みレコードのフィールド名です。
const (
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldEmail       = "email"
	FieldCompanyName = "company_name"
	FieldRole        = "role"
	FieldSalary      = "salary"
	FieldStatus      = "status"
)

var requiredFields = []string{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldCompanyName,
	FieldRole,
}

// RawRecord はフィード由来の未検証レコードです。キーはフィールド名です。
type RawRecord map[string]string

func (r RawRecord) value(field string) (string, bool) {
	v, ok := r[field]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Validate はレコードを検証し、未登録の Employee を組み立てます。
// 検証は必須項目、職種、メールアドレス、給与、在籍状態の順に行い、最初の失敗で打ち切ります。
// 文字列項目は入力のまま保持します。
func Validate(rec RawRecord) (*Employee, error) {
	for _, field := range requiredFields {
		if _, ok := rec.value(field); !ok {
			return nil, missingField(field)
		}
	}

	roleToken := rec[FieldRole]
	role, ok := ParseRole(roleToken)
	if !ok {
		return nil, invalidField(FieldRole, roleToken, "unknown role: %s")
	}

	email := rec[FieldEmail]
	if !isValidEmail(email) {
		return nil, invalidField(FieldEmail, email, "invalid email: %s")
	}

	salary := role.BaseSalary()
	if raw, ok := rec.value(FieldSalary); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || !validSalary(parsed) {
			return nil, invalidField(FieldSalary, raw, "invalid salary: %s")
		}
		salary = parsed
	}

	status := StatusActive
	if raw, ok := rec.value(FieldStatus); ok {
		parsed, ok := ParseStatus(raw)
		if !ok {
			return nil, invalidField(FieldStatus, raw, "unknown status: %s")
		}
		status = parsed
	}

	return &Employee{
		FirstName:   rec[FieldFirstName],
		LastName:    rec[FieldLastName],
		Email:       email,
		CompanyName: rec[FieldCompanyName],
		Role:        role,
		Salary:      salary,
		Status:      status,
	}, nil
}

// isValidEmail は @ がちょうど 1 つで空白を含まず、ローカル部とドメイン部が空でないことを確認します。
func isValidEmail(email string) bool {
	if strings.Count(email, "@") != 1 || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")
	return local != "" && domain != ""
}
