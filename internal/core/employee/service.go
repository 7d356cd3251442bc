package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は社員に関するユースケースをまとめます。
// Registry が正本で、Store への書き込みは Registry の変更に追随します。
type Service struct {
	registry *Registry
	store    Store
	clock    Clock
	tx       TransactionManager
	logger   *slog.Logger
	newID    func() string
}

// ServiceOption は Service の任意設定です。
type ServiceOption func(*Service)

// WithLogger はロールバック失敗などを記録するロガーを設定します。既定は slog.Default() です。
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
}

// NewService は Service を生成します。store, clock, tx は nil の場合に既定実装を使います。
func NewService(registry *Registry, store Store, clock Clock, tx TransactionManager, opts ...ServiceOption) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	if store == nil {
		store = noopStore{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	svc := &Service{registry: registry, store: store, clock: clock, tx: tx, logger: slog.Default(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Registry はサービスが保持する Registry を返します。
func (s *Service) Registry() *Registry {
	return s.registry
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	FirstName   string
	LastName    string
	Email       string
	CompanyName string
	Role        string
	Salary      *int
	Status      *Status
}

func (in CreateEmployeeInput) record() RawRecord {
	rec := RawRecord{
		FieldFirstName:   in.FirstName,
		FieldLastName:    in.LastName,
		FieldEmail:       in.Email,
		FieldCompanyName: in.CompanyName,
		FieldRole:        in.Role,
	}
	if in.Salary != nil {
		rec[FieldSalary] = strconv.Itoa(*in.Salary)
	}
	if in.Status != nil {
		rec[FieldStatus] = string(*in.Status)
	}
	return rec
}

// UpdateEmployeeInput は社員更新時の入力です。nil の項目は変更しません。
type UpdateEmployeeInput struct {
	Email       string
	FirstName   *string
	LastName    *string
	CompanyName *string
	Role        *string
	Salary      *int
	Status      *Status
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	Email string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	Email string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	CompanyName string
	PageSize    int
	PageToken   string
	Status      *Status
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// CreateEmployee は取り込みと同じ検証規則で社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	emp, err := Validate(in.record())
	if err != nil {
		return nil, err
	}
	return s.Register(ctx, emp)
}

// Register は検証済みの社員を Registry に登録し、Store に保存します。
// Store への保存に失敗した場合は Registry への登録を取り消します。
func (s *Service) Register(ctx context.Context, e *Employee) (*Employee, error) {
	if e == nil {
		return nil, ErrInvalidRecord
	}

	now := s.clock.Now()
	emp := cloneEmployee(e)
	if emp.ID == "" {
		emp.ID = s.newID()
	}
	emp.CreatedAt = now
	emp.UpdatedAt = now

	var entry *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		added, err := s.registry.add(emp)
		if err != nil {
			return err
		}
		entry = added

		if err := s.store.Save(txCtx, emp); err != nil {
			return fmt.Errorf("employee: save %s: %w", emp.Email, err)
		}
		return nil
	}); err != nil {
		if entry != nil && !s.registry.revert(entry, nil) {
			s.logger.Warn("registry rollback skipped: entry changed concurrently",
				"email", emp.Email, "operation", "register", "error", err)
		}
		return nil, err
	}

	return cloneEmployee(emp), nil
}

// UpdateEmployee は社員情報を更新します。職種だけを変更した場合、給与は据え置きます。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("email: %w", ErrInvalidEmail)
	}

	mutate, err := in.mutation()
	if err != nil {
		return nil, err
	}

	var (
		previous *Employee
		entry    *Employee
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.registry.update(in.Email, func(e *Employee) error {
			previous = cloneEmployee(e)
			if err := mutate(e); err != nil {
				return err
			}
			e.UpdatedAt = s.clock.Now()
			return nil
		})
		if err != nil {
			return err
		}
		entry = result

		if err := s.store.Save(txCtx, cloneEmployee(result)); err != nil {
			return fmt.Errorf("employee: save %s: %w", result.Email, err)
		}
		return nil
	}); err != nil {
		if entry != nil && !s.registry.revert(entry, previous) {
			s.logger.Warn("registry rollback skipped: entry changed concurrently",
				"email", in.Email, "operation", "update", "error", err)
		}
		return nil, err
	}

	return cloneEmployee(entry), nil
}

func (in UpdateEmployeeInput) mutation() (func(*Employee) error, error) {
	var firstName, lastName, companyName string
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, fmt.Errorf("first_name: %w", ErrInvalidName)
		}
		firstName = *in.FirstName
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, fmt.Errorf("last_name: %w", ErrInvalidName)
		}
		lastName = *in.LastName
	}
	if in.CompanyName != nil {
		if strings.TrimSpace(*in.CompanyName) == "" {
			return nil, ErrInvalidCompanyName
		}
		companyName = *in.CompanyName
	}

	var role Role
	if in.Role != nil {
		parsed, ok := ParseRole(*in.Role)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, *in.Role)
		}
		role = parsed
	}

	if in.Salary != nil && !validSalary(*in.Salary) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSalary, *in.Salary)
	}
	if in.Status != nil && !isValidStatus(*in.Status) {
		return nil, ErrInvalidStatus
	}

	return func(e *Employee) error {
		if in.FirstName != nil {
			e.FirstName = firstName
		}
		if in.LastName != nil {
			e.LastName = lastName
		}
		if in.CompanyName != nil {
			e.CompanyName = companyName
		}
		if in.Role != nil {
			e.Role = role
		}
		if in.Salary != nil {
			e.Salary = *in.Salary
		}
		if in.Status != nil {
			e.Status = *in.Status
		}
		return nil
	}, nil
}

// DeleteEmployee は社員を削除します。Store から削除できた後に Registry から取り除きます。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("email: %w", ErrInvalidEmail)
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.registry.FindByEmail(in.Email); err != nil {
			return err
		}
		return s.store.Delete(txCtx, in.Email)
	}); err != nil {
		return err
	}

	return s.registry.Remove(in.Email)
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(_ context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("email: %w", ErrInvalidEmail)
	}
	return s.registry.FindByEmail(in.Email)
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(_ context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	employees, nextToken, err := s.registry.List(ListEmployeesFilter{
		CompanyName: in.CompanyName,
		Status:      statusPtr,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// Hydrate は Store に保存済みの社員を Registry に読み込みます。起動時に一度だけ呼び出します。
func (s *Service) Hydrate(ctx context.Context) (int, error) {
	var loaded []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.store.LoadAll(txCtx)
		if err != nil {
			return err
		}
		loaded = result
		return nil
	}); err != nil {
		return 0, fmt.Errorf("employee: load snapshot: %w", err)
	}

	for _, emp := range loaded {
		if err := s.registry.Add(emp); err != nil {
			return 0, fmt.Errorf("employee: hydrate %s: %w", emp.Email, err)
		}
	}
	return len(loaded), nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
