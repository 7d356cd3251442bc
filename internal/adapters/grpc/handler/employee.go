package handler

import (
	"context"
	"strings"

	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/presenter"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Importer は取り込み行のバッチを処理します。importer.Pipeline が実装します。
type Importer interface {
	ImportBatch(ctx context.Context, lines []importer.Line) importer.Summary
}

// EmployeeGrpcHandler は EmployeeService の gRPC 実装です。
type EmployeeGrpcHandler struct {
	employees employee.UseCase
	stats     company.UseCase
	importer  Importer
	feedOpts  feed.Options
}

var _ EmployeeServiceServer = (*EmployeeGrpcHandler)(nil)

// NewEmployeeGrpcHandler は EmployeeGrpcHandler を生成します。
func NewEmployeeGrpcHandler(employees employee.UseCase, stats company.UseCase, imp Importer, opts feed.Options) *EmployeeGrpcHandler {
	return &EmployeeGrpcHandler{
		employees: employees,
		stats:     stats,
		importer:  imp,
		feedOpts:  opts,
	}
}

// CreateEmployee は社員を作成します。検証規則は一括取り込みと同じです。
func (h *EmployeeGrpcHandler) CreateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := employee.CreateEmployeeInput{}
	for name, dest := range map[string]*string{
		employee.FieldFirstName:   &in.FirstName,
		employee.FieldLastName:    &in.LastName,
		employee.FieldEmail:       &in.Email,
		employee.FieldCompanyName: &in.CompanyName,
		employee.FieldRole:        &in.Role,
	} {
		value, err := stringField(req, name)
		if err != nil {
			return nil, err
		}
		*dest = value
	}

	salary, err := optionalInt(req, employee.FieldSalary)
	if err != nil {
		return nil, err
	}
	in.Salary = salary

	statusValue, err := optionalString(req, employee.FieldStatus)
	if err != nil {
		return nil, err
	}
	if statusValue != nil {
		s := employee.Status(*statusValue)
		in.Status = &s
	}

	created, err := h.employees.CreateEmployee(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"employee": presenter.Employee(created)})
}

// GetEmployee は email で社員を取得します。
func (h *EmployeeGrpcHandler) GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	email, err := stringField(req, employee.FieldEmail)
	if err != nil {
		return nil, err
	}

	found, err := h.employees.GetEmployee(ctx, employee.GetEmployeeInput{Email: email})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"employee": presenter.Employee(found)})
}

// ListEmployees は社員の一覧を取得します。
func (h *EmployeeGrpcHandler) ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}

	companyName, err := stringField(req, employee.FieldCompanyName)
	if err != nil {
		return nil, err
	}
	pageToken, err := stringField(req, "page_token")
	if err != nil {
		return nil, err
	}
	pageSize, err := optionalInt(req, "page_size")
	if err != nil {
		return nil, err
	}

	in := employee.ListEmployeesInput{CompanyName: companyName, PageToken: pageToken}
	if pageSize != nil {
		in.PageSize = *pageSize
	}

	statusValue, err := optionalString(req, employee.FieldStatus)
	if err != nil {
		return nil, err
	}
	if statusValue != nil {
		parsed, ok := employee.ParseStatus(*statusValue)
		if !ok {
			return nil, toStatusError(employee.ErrInvalidStatus)
		}
		in.Status = &parsed
	}

	result, err := h.employees.ListEmployees(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{
		"employees":       presenter.Employees(result.Employees),
		"next_page_token": result.NextPageToken,
	})
}

// UpdateEmployee は社員情報を更新します。指定されなかった項目は変更しません。
func (h *EmployeeGrpcHandler) UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	email, err := stringField(req, employee.FieldEmail)
	if err != nil {
		return nil, err
	}

	in := employee.UpdateEmployeeInput{Email: email}
	for name, dest := range map[string]**string{
		employee.FieldFirstName:   &in.FirstName,
		employee.FieldLastName:    &in.LastName,
		employee.FieldCompanyName: &in.CompanyName,
		employee.FieldRole:        &in.Role,
	} {
		value, err := optionalString(req, name)
		if err != nil {
			return nil, err
		}
		*dest = value
	}

	salary, err := optionalInt(req, employee.FieldSalary)
	if err != nil {
		return nil, err
	}
	in.Salary = salary

	statusValue, err := optionalString(req, employee.FieldStatus)
	if err != nil {
		return nil, err
	}
	if statusValue != nil {
		parsed, ok := employee.ParseStatus(*statusValue)
		if !ok {
			return nil, toStatusError(employee.ErrInvalidStatus)
		}
		in.Status = &parsed
	}

	updated, err := h.employees.UpdateEmployee(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"employee": presenter.Employee(updated)})
}

// DeleteEmployee は社員を削除します。
func (h *EmployeeGrpcHandler) DeleteEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	email, err := stringField(req, employee.FieldEmail)
	if err != nil {
		return nil, err
	}

	if err := h.employees.DeleteEmployee(ctx, employee.DeleteEmployeeInput{Email: email}); err != nil {
		return nil, toStatusError(err)
	}

	return &structpb.Struct{}, nil
}

// ImportEmployees は社員を一括で取り込みます。
// records(オブジェクトの配列)か、content と format("csv" / "json")のいずれかを受け付けます。
func (h *EmployeeGrpcHandler) ImportEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	lines, err := h.importLines(req)
	if err != nil {
		return nil, err
	}

	summary := h.importer.ImportBatch(ctx, lines)
	return newStruct(presenter.ImportSummary(summary))
}

func (h *EmployeeGrpcHandler) importLines(req *structpb.Struct) ([]importer.Line, error) {
	if v, ok := fieldValue(req, "records"); ok {
		list := v.GetListValue()
		if list == nil {
			return nil, status.Error(codes.InvalidArgument, "records: must be a list")
		}
		lines, err := feed.ParseValues(list.AsSlice(), h.feedOpts)
		if err != nil {
			return nil, toStatusError(err)
		}
		return lines, nil
	}

	content, err := stringField(req, "content")
	if err != nil {
		return nil, err
	}
	format, err := stringField(req, "format")
	if err != nil {
		return nil, err
	}

	var lines []importer.Line
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		lines, err = feed.ParseCSV(strings.NewReader(content), h.feedOpts)
	case "json":
		lines, err = feed.ParseJSON(strings.NewReader(content), h.feedOpts)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "format: unsupported value %q", format)
	}
	if err != nil {
		return nil, toStatusError(err)
	}
	return lines, nil
}

// GetCompanyStatistics は会社の集計を返します。
func (h *EmployeeGrpcHandler) GetCompanyStatistics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	companyName, err := stringField(req, employee.FieldCompanyName)
	if err != nil {
		return nil, err
	}

	stats, err := h.stats.GetStatistics(ctx, company.GetStatisticsInput{CompanyName: companyName})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"statistics": presenter.Statistics(*stats)})
}

// ListCompanyStatistics は全社の集計を会社名順で返します。
func (h *EmployeeGrpcHandler) ListCompanyStatistics(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := h.stats.ListStatistics(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{"statistics": presenter.StatisticsList(list)})
}
