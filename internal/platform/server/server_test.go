package server

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startServer(t *testing.T, logs *bytes.Buffer) *handler.EmployeeServiceClient {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(logs, nil))
	svc := employee.NewService(nil, nil, nil, nil)
	pipeline := importer.NewPipeline(svc, logger)
	stats := company.NewService(svc.Registry())
	h := handler.NewEmployeeGrpcHandler(svc, stats, pipeline, feed.Options{MaxRecords: 100})

	lis := bufconn.Listen(1 << 20)
	srv := New("bufnet", h, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("server stopped with error: %v", err)
		}
	})

	return handler.NewEmployeeServiceClient(conn)
}

func TestServer_ImportAndStatisticsRoundTrip(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	client := startServer(t, &logs)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]any{
		"format": "csv",
		"content": "first_name,last_name,email,company_name,role,salary,status\n" +
			"Taro,Yamada,taro@example.com,Acme,ENGINEER,50000,ACTIVE\n" +
			"Hanako,Sato,hanako@example.com,Acme,MANAGER,70000,ACTIVE\n" +
			"Ken,Ito,ken@example.com,Acme,DIRECTOR,200000,TERMINATED\n" +
			"Dup,User,TARO@example.com,Acme,ENGINEER,,\n",
	})
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	summary, err := client.Call(ctx, handler.MethodImportEmployees, req)
	if err != nil {
		t.Fatalf("ImportEmployees returned error: %v", err)
	}
	if got := summary.GetFields()["success_count"].GetNumberValue(); got != 3 {
		t.Fatalf("expected 3 successes, got %v", got)
	}
	errs := summary.GetFields()["errors"].GetStructValue().GetFields()
	if errs["5"].GetStringValue() != "duplicate email: TARO@example.com" {
		t.Fatalf("unexpected errors %v", errs)
	}

	statsReq, _ := structpb.NewStruct(map[string]any{"company_name": "Acme"})
	resp, err := client.Call(ctx, handler.MethodGetCompanyStatistics, statsReq)
	if err != nil {
		t.Fatalf("GetCompanyStatistics returned error: %v", err)
	}
	stats := resp.GetFields()["statistics"].GetStructValue().GetFields()
	if stats["employee_count"].GetNumberValue() != 2 || stats["average_salary"].GetNumberValue() != 60000 {
		t.Fatalf("unexpected statistics %v", stats)
	}
	if stats["highest_salary"].GetNumberValue() != 70000 || stats["top_earner_name"].GetStringValue() != "Hanako Sato" {
		t.Fatalf("terminated employee must be excluded, got %v", stats)
	}

	if !strings.Contains(logs.String(), handler.FullMethod(handler.MethodImportEmployees)) {
		t.Fatalf("expected rpc to be logged, got %q", logs.String())
	}
}

func TestServer_StatusCodes(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	client := startServer(t, &logs)
	ctx := context.Background()

	getReq, _ := structpb.NewStruct(map[string]any{"email": "ghost@example.com"})
	if _, err := client.Call(ctx, handler.MethodGetEmployee, getReq); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	createReq, _ := structpb.NewStruct(map[string]any{
		"first_name":   "Taro",
		"last_name":    "Yamada",
		"email":        "not-an-email",
		"company_name": "Acme",
		"role":         "ENGINEER",
	})
	if _, err := client.Call(ctx, handler.MethodCreateEmployee, createReq); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
