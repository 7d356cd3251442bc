package company

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
)

// ErrInvalidCompanyName は会社名が空の場合に返却されます。
var ErrInvalidCompanyName = errors.New("company: invalid company name")

// Statistics は会社単位の集計値です。在籍中(ACTIVE)の社員のみを対象にします。
type Statistics struct {
	CompanyName   string
	EmployeeCount int
	AverageSalary float64
	HighestSalary int
	TopEarnerName string
}

// EmployeeSource は登録順の社員スナップショットを提供します。employee.Registry が実装します。
type EmployeeSource interface {
	All() []*employee.Employee
}

// Aggregator は社員スナップショットから会社別の集計を計算します。
type Aggregator struct {
	source EmployeeSource
}

// NewAggregator は Aggregator を生成します。
func NewAggregator(source EmployeeSource) *Aggregator {
	return &Aggregator{source: source}
}

// ComputeFor は会社名が完全一致し、在籍中の社員を 1 パスで集計します。
// 最高給与が同額の場合は先に登録された社員を TopEarnerName とします。
func (a *Aggregator) ComputeFor(companyName string) Statistics {
	return compute(companyName, a.source.All())
}

// ComputeAll は社員が 1 人以上いる会社ごとの集計を会社名順で返します。
func (a *Aggregator) ComputeAll() []Statistics {
	snapshot := a.source.All()

	seen := make(map[string]struct{})
	var names []string
	for _, emp := range snapshot {
		if _, ok := seen[emp.CompanyName]; ok {
			continue
		}
		seen[emp.CompanyName] = struct{}{}
		names = append(names, emp.CompanyName)
	}
	sort.Strings(names)

	result := make([]Statistics, 0, len(names))
	for _, name := range names {
		result = append(result, compute(name, snapshot))
	}
	return result
}

func compute(companyName string, employees []*employee.Employee) Statistics {
	stats := Statistics{CompanyName: companyName}

	var sum int64
	for _, emp := range employees {
		if emp.CompanyName != companyName || emp.Status != employee.StatusActive {
			continue
		}
		if stats.EmployeeCount == 0 || emp.Salary > stats.HighestSalary {
			stats.HighestSalary = emp.Salary
			stats.TopEarnerName = emp.FullName()
		}
		stats.EmployeeCount++
		sum += int64(emp.Salary)
	}

	if stats.EmployeeCount > 0 {
		stats.AverageSalary = float64(sum) / float64(stats.EmployeeCount)
	}
	return stats
}

// UseCase は会社集計ユースケースの公開インターフェースです。
type UseCase interface {
	GetStatistics(ctx context.Context, in GetStatisticsInput) (*Statistics, error)
	ListStatistics(ctx context.Context) ([]Statistics, error)
}

// GetStatisticsInput は会社集計取得時の入力です。
type GetStatisticsInput struct {
	CompanyName string
}

// Service は会社集計のユースケースです。
type Service struct {
	aggregator *Aggregator
}

// NewService は Service を生成します。
func NewService(source EmployeeSource) *Service {
	return &Service{aggregator: NewAggregator(source)}
}

// GetStatistics は指定した会社の集計を返します。社員がいない会社はゼロ値の集計になります。
func (s *Service) GetStatistics(_ context.Context, in GetStatisticsInput) (*Statistics, error) {
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, ErrInvalidCompanyName
	}
	stats := s.aggregator.ComputeFor(in.CompanyName)
	return &stats, nil
}

// ListStatistics は全社の集計を返します。
func (s *Service) ListStatistics(_ context.Context) ([]Statistics, error) {
	return s.aggregator.ComputeAll(), nil
}
