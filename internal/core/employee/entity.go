package employee

import (
	"math"
	"strings"
	"time"
)

// MaxSalary は給与の上限です。employees.salary 列 (INTEGER) の範囲に合わせています。
const MaxSalary = math.MaxInt32

func validSalary(salary int) bool {
	return salary >= 0 && salary <= MaxSalary
}

// Status は社員の在籍状態を表します。
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusTerminated Status = "TERMINATED"
)

// Role は社員の職種を表します。職種ごとに基本給が決まっています。
type Role string

const (
	RoleEngineer       Role = "ENGINEER"
	RoleSeniorEngineer Role = "SENIOR_ENGINEER"
	RoleManager        Role = "MANAGER"
	RoleDirector       Role = "DIRECTOR"
	RoleAnalyst        Role = "ANALYST"
	RoleDesigner       Role = "DESIGNER"
	RoleIntern         Role = "INTERN"
)

var baseSalaries = map[Role]int{
	RoleEngineer:       90000,
	RoleSeniorEngineer: 120000,
	RoleManager:        110000,
	RoleDirector:       150000,
	RoleAnalyst:        70000,
	RoleDesigner:       75000,
	RoleIntern:         30000,
}

// Roles は定義済みの職種を一覧で返します。
func Roles() []Role {
	return []Role{
		RoleEngineer,
		RoleSeniorEngineer,
		RoleManager,
		RoleDirector,
		RoleAnalyst,
		RoleDesigner,
		RoleIntern,
	}
}

// BaseSalary は職種の基本給を返します。未定義の職種は 0 です。
func (r Role) BaseSalary() int {
	return baseSalaries[r]
}

// ParseRole は入力トークンを職種に解決します。大文字小文字、ハイフン、空白の違いは吸収します。
func ParseRole(token string) (Role, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	role := Role(normalized)
	if _, ok := baseSalaries[role]; !ok {
		return "", false
	}
	return role, true
}

// ParseStatus は入力トークンを在籍状態に解決します。
func ParseStatus(token string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(token)))
	if !isValidStatus(status) {
		return "", false
	}
	return status, true
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive, StatusTerminated:
		return true
	default:
		return false
	}
}

// Employee は社員エンティティです。Email が一意キーになります。
type Employee struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	CompanyName string
	Role        Role
	Salary      int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName は「名 姓」形式の氏名を返します。
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func cloneEmployee(e *Employee) *Employee {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
