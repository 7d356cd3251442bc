package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubEmployeeUseCase struct {
	createInput employee.CreateEmployeeInput
	createOut   *employee.Employee
	createErr   error

	updateInput employee.UpdateEmployeeInput
	updateOut   *employee.Employee
	updateErr   error

	deleteInput employee.DeleteEmployeeInput
	deleteErr   error

	getInput employee.GetEmployeeInput
	getOut   *employee.Employee
	getErr   error

	listInput employee.ListEmployeesInput
	listOut   *employee.ListEmployeesResult
	listErr   error
}

func (s *stubEmployeeUseCase) CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
	s.createInput = in
	return s.createOut, s.createErr
}

func (s *stubEmployeeUseCase) GetEmployee(ctx context.Context, in employee.GetEmployeeInput) (*employee.Employee, error) {
	s.getInput = in
	return s.getOut, s.getErr
}

func (s *stubEmployeeUseCase) ListEmployees(ctx context.Context, in employee.ListEmployeesInput) (*employee.ListEmployeesResult, error) {
	s.listInput = in
	return s.listOut, s.listErr
}

func (s *stubEmployeeUseCase) UpdateEmployee(ctx context.Context, in employee.UpdateEmployeeInput) (*employee.Employee, error) {
	s.updateInput = in
	return s.updateOut, s.updateErr
}

func (s *stubEmployeeUseCase) DeleteEmployee(ctx context.Context, in employee.DeleteEmployeeInput) error {
	s.deleteInput = in
	return s.deleteErr
}

type stubStatisticsUseCase struct {
	getInput company.GetStatisticsInput
	getOut   *company.Statistics
	getErr   error
	listOut  []company.Statistics
}

func (s *stubStatisticsUseCase) GetStatistics(ctx context.Context, in company.GetStatisticsInput) (*company.Statistics, error) {
	s.getInput = in
	return s.getOut, s.getErr
}

func (s *stubStatisticsUseCase) ListStatistics(ctx context.Context) ([]company.Statistics, error) {
	return s.listOut, nil
}

type stubImporter struct {
	lines   []importer.Line
	summary importer.Summary
}

func (s *stubImporter) ImportBatch(ctx context.Context, lines []importer.Line) importer.Summary {
	s.lines = lines
	return s.summary
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("failed to build struct: %v", err)
	}
	return s
}

func sampleEmployee() *employee.Employee {
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return &employee.Employee{
		ID:          "emp-1",
		FirstName:   "Taro",
		LastName:    "Yamada",
		Email:       "taro@example.com",
		CompanyName: "Acme",
		Role:        employee.RoleEngineer,
		Salary:      90000,
		Status:      employee.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestEmployeeGrpcHandler_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{createOut: sampleEmployee()}
	handler := NewEmployeeGrpcHandler(stub, &stubStatisticsUseCase{}, &stubImporter{}, feed.Options{})

	resp, err := handler.CreateEmployee(context.Background(), mustStruct(t, map[string]any{
		"first_name":   "Taro",
		"last_name":    "Yamada",
		"email":        "taro@example.com",
		"company_name": "Acme",
		"role":         "engineer",
		"status":       "active",
	}))
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if stub.createInput.Role != "engineer" || stub.createInput.Email != "taro@example.com" {
		t.Errorf("unexpected input %+v", stub.createInput)
	}
	if stub.createInput.Salary != nil {
		t.Errorf("salary must be absent when not supplied, got %v", *stub.createInput.Salary)
	}
	if stub.createInput.Status == nil || *stub.createInput.Status != "active" {
		t.Errorf("expected raw status to be passed through, got %+v", stub.createInput.Status)
	}

	emp := resp.GetFields()["employee"].GetStructValue()
	if emp.GetFields()["id"].GetStringValue() != "emp-1" {
		t.Fatalf("expected response id 'emp-1', got %v", emp)
	}
	if emp.GetFields()["salary"].GetNumberValue() != 90000 {
		t.Fatalf("expected salary 90000, got %v", emp.GetFields()["salary"])
	}
}

func TestEmployeeGrpcHandler_CreateEmployee_InvalidFieldType(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	handler := NewEmployeeGrpcHandler(stub, &stubStatisticsUseCase{}, &stubImporter{}, feed.Options{})

	_, err := handler.CreateEmployee(context.Background(), mustStruct(t, map[string]any{
		"email":  "taro@example.com",
		"salary": 1.5,
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	_, err = handler.CreateEmployee(context.Background(), mustStruct(t, map[string]any{
		"email": true,
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestEmployeeGrpcHandler_CreateEmployee_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := map[error]codes.Code{
		employee.ErrDuplicateEmail:                codes.AlreadyExists,
		&employee.ValidationError{Message: "bad"}: codes.InvalidArgument,
		employee.ErrInvalidRole:                   codes.InvalidArgument,
		errors.New("storage unavailable"):         codes.Internal,
		employee.ErrEmployeeNotFound:              codes.NotFound,
		feed.ErrTooManyRecords:                    codes.ResourceExhausted,
		company.ErrInvalidCompanyName:             codes.InvalidArgument,
	}

	for in, want := range tests {
		stub := &stubEmployeeUseCase{createErr: in}
		handler := NewEmployeeGrpcHandler(stub, &stubStatisticsUseCase{}, &stubImporter{}, feed.Options{})
		_, err := handler.CreateEmployee(context.Background(), mustStruct(t, map[string]any{"email": "a@b"}))
		if status.Code(err) != want {
			t.Fatalf("error %v: expected %v, got %v", in, want, status.Code(err))
		}
	}
}

func TestEmployeeGrpcHandler_UpdateEmployee(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{updateOut: sampleEmployee()}
	handler := NewEmployeeGrpcHandler(stub, &stubStatisticsUseCase{}, &stubImporter{}, feed.Options{})

	_, err := handler.UpdateEmployee(context.Background(), mustStruct(t, map[string]any{
		"email":  "taro@example.com",
		"role":   "MANAGER",
		"status": "inactive",
		"salary": "120000",
	}))
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}

	in := stub.updateInput
	if in.Role == nil || *in.Role != "MANAGER" {
		t.Errorf("expected role to be set, got %+v", in.Role)
	}
	if in.FirstName != nil || in.CompanyName != nil {
		t.Errorf("absent fields must stay nil, got %+v", in)
	}
	if in.Status == nil || *in.Status != employee.StatusInactive {
		t.Errorf("expected parsed status, got %+v", in.Status)
	}
	if in.Salary == nil || *in.Salary != 120000 {
		t.Errorf("expected salary 120000, got %+v", in.Salary)
	}

	_, err = handler.UpdateEmployee(context.Background(), mustStruct(t, map[string]any{
		"email":  "taro@example.com",
		"status": "retired",
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for unknown status, got %v", err)
	}
}

func TestEmployeeGrpcHandler_DeleteAndGet(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{getErr: employee.ErrEmployeeNotFound}
	handler := NewEmployeeGrpcHandler(stub, &stubStatisticsUseCase{}, &stubImporter{}, feed.Options{})

	if _, err := handler.DeleteEmployee(context.Background(), mustStruct(t, map[string]any{"email": "taro@example.com"})); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}
	if stub.deleteInput.Email != "taro@example.com" {
		t.Fatalf("unexpected delete input %+v", stub.deleteInput)
	}

	_, err := handler.GetEmployee(context.Background(), mustStruct(t, map[string]any{"email": "ghost@example.com"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEmployeeGrpcHandler_ListEmployees(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{listOut: &employee.ListEmployeesResult{
		Employees:     []*employee.Employee{sampleEmployee()},
		NextPageToken: "1",
	}}
	handler := NewEmployeeGrpcHandler(stub, &stubStatisticsUseCase{}, &stubImporter{}, feed.Options{})

	resp, err := handler.ListEmployees(context.Background(), mustStruct(t, map[string]any{
		"company_name": "Acme",
		"page_size":    1,
		"status":       "ACTIVE",
	}))
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}

	if stub.listInput.PageSize != 1 || stub.listInput.CompanyName != "Acme" {
		t.Fatalf("unexpected list input %+v", stub.listInput)
	}
	if got := len(resp.GetFields()["employees"].GetListValue().GetValues()); got != 1 {
		t.Fatalf("expected 1 employee, got %d", got)
	}
	if resp.GetFields()["next_page_token"].GetStringValue() != "1" {
		t.Fatalf("unexpected next page token %v", resp.GetFields()["next_page_token"])
	}
}

func TestEmployeeGrpcHandler_ImportEmployees_Content(t *testing.T) {
	t.Parallel()

	imp := &stubImporter{summary: importer.Summary{
		SuccessCount: 1,
		Errors:       map[int]string{3: "unknown role: WIZARD"},
	}}
	handler := NewEmployeeGrpcHandler(&stubEmployeeUseCase{}, &stubStatisticsUseCase{}, imp, feed.Options{})

	content := "first_name,last_name,email,company_name,role\n" +
		"Taro,Yamada,taro@example.com,Acme,ENGINEER\n" +
		"Ken,Ito,ken@example.com,Acme,WIZARD\n"

	resp, err := handler.ImportEmployees(context.Background(), mustStruct(t, map[string]any{
		"format":  "csv",
		"content": content,
	}))
	if err != nil {
		t.Fatalf("ImportEmployees returned error: %v", err)
	}

	if len(imp.lines) != 2 || imp.lines[1].Number != 3 {
		t.Fatalf("unexpected lines passed to importer %+v", imp.lines)
	}
	if resp.GetFields()["success_count"].GetNumberValue() != 1 {
		t.Fatalf("unexpected success count %v", resp.GetFields()["success_count"])
	}
	errs := resp.GetFields()["errors"].GetStructValue().GetFields()
	if errs["3"].GetStringValue() != "unknown role: WIZARD" {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestEmployeeGrpcHandler_ImportEmployees_RecordsAndLimits(t *testing.T) {
	t.Parallel()

	imp := &stubImporter{}
	handler := NewEmployeeGrpcHandler(&stubEmployeeUseCase{}, &stubStatisticsUseCase{}, imp, feed.Options{MaxRecords: 1})

	_, err := handler.ImportEmployees(context.Background(), mustStruct(t, map[string]any{
		"records": []any{map[string]any{"email": "a@example.com"}},
	}))
	if err != nil {
		t.Fatalf("ImportEmployees returned error: %v", err)
	}
	if len(imp.lines) != 1 || imp.lines[0].Number != 1 {
		t.Fatalf("unexpected lines %+v", imp.lines)
	}

	_, err = handler.ImportEmployees(context.Background(), mustStruct(t, map[string]any{
		"records": []any{map[string]any{}, map[string]any{}},
	}))
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}

	_, err = handler.ImportEmployees(context.Background(), mustStruct(t, map[string]any{
		"format":  "xml",
		"content": "<employees/>",
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for unknown format, got %v", err)
	}
}

func TestEmployeeGrpcHandler_CompanyStatistics(t *testing.T) {
	t.Parallel()

	stats := &stubStatisticsUseCase{
		getOut: &company.Statistics{
			CompanyName:   "Acme",
			EmployeeCount: 2,
			AverageSalary: 60000,
			HighestSalary: 70000,
			TopEarnerName: "Hanako Sato",
		},
		listOut: []company.Statistics{{CompanyName: "Acme"}, {CompanyName: "Globex"}},
	}
	handler := NewEmployeeGrpcHandler(&stubEmployeeUseCase{}, stats, &stubImporter{}, feed.Options{})

	resp, err := handler.GetCompanyStatistics(context.Background(), mustStruct(t, map[string]any{"company_name": "Acme"}))
	if err != nil {
		t.Fatalf("GetCompanyStatistics returned error: %v", err)
	}
	got := resp.GetFields()["statistics"].GetStructValue().GetFields()
	if got["average_salary_display"].GetStringValue() != "60000.00" || got["top_earner_name"].GetStringValue() != "Hanako Sato" {
		t.Fatalf("unexpected statistics %v", got)
	}
	if stats.getInput.CompanyName != "Acme" {
		t.Fatalf("unexpected input %+v", stats.getInput)
	}

	list, err := handler.ListCompanyStatistics(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("ListCompanyStatistics returned error: %v", err)
	}
	if n := len(list.GetFields()["statistics"].GetListValue().GetValues()); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
}
