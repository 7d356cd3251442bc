// Package presenter は gRPC と HTTP の両方で使う応答ペイロードを組み立てます。
// 値は structpb.NewStruct と encoding/json の双方が受け付ける型だけで構成します。
package presenter

import (
	"strconv"
	"time"

	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"github.com/shopspring/decimal"
)

// Employee は社員を応答用のマップに変換します。
func Employee(e *employee.Employee) map[string]any {
	if e == nil {
		return nil
	}
	return map[string]any{
		"id":           e.ID,
		"first_name":   e.FirstName,
		"last_name":    e.LastName,
		"full_name":    e.FullName(),
		"email":        e.Email,
		"company_name": e.CompanyName,
		"role":         string(e.Role),
		"salary":       e.Salary,
		"status":       string(e.Status),
		"created_at":   e.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":   e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Employees は社員の一覧を変換します。
func Employees(list []*employee.Employee) []any {
	out := make([]any, 0, len(list))
	for _, e := range list {
		out = append(out, Employee(e))
	}
	return out
}

// Statistics は会社集計を変換します。average_salary は丸めずに返し、表示用に小数点以下 2 桁の文字列を添えます。
func Statistics(s company.Statistics) map[string]any {
	return map[string]any{
		"company_name":           s.CompanyName,
		"employee_count":         s.EmployeeCount,
		"average_salary":         s.AverageSalary,
		"average_salary_display": AverageSalaryDisplay(s.AverageSalary),
		"highest_salary":         s.HighestSalary,
		"top_earner_name":        s.TopEarnerName,
	}
}

// StatisticsList は会社集計の一覧を変換します。
func StatisticsList(list []company.Statistics) []any {
	out := make([]any, 0, len(list))
	for _, s := range list {
		out = append(out, Statistics(s))
	}
	return out
}

// AverageSalaryDisplay は平均給与を小数点以下 2 桁に丸めた文字列で返します。
func AverageSalaryDisplay(avg float64) string {
	return decimal.NewFromFloat(avg).StringFixed(2)
}

// ImportSummary は取り込み結果を変換します。errors は行番号をキーとしたマップ、failures は行番号順の配列です。
func ImportSummary(s importer.Summary) map[string]any {
	errs := make(map[string]any, len(s.Errors))
	failures := make([]any, 0, len(s.Errors))
	for _, line := range s.Lines() {
		message := s.Errors[line]
		errs[strconv.Itoa(line)] = message
		failures = append(failures, map[string]any{
			"line":    line,
			"message": message,
		})
	}

	return map[string]any{
		"success_count": s.SuccessCount,
		"error_count":   len(s.Errors),
		"errors":        errs,
		"failures":      failures,
	}
}
