package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// EmployeeServiceName は gRPC のサービス名です。
const EmployeeServiceName = "roster.v1.EmployeeService"

// メソッド名の一覧です。
const (
	MethodCreateEmployee        = "CreateEmployee"
	MethodGetEmployee           = "GetEmployee"
	MethodListEmployees         = "ListEmployees"
	MethodUpdateEmployee        = "UpdateEmployee"
	MethodDeleteEmployee        = "DeleteEmployee"
	MethodImportEmployees       = "ImportEmployees"
	MethodGetCompanyStatistics  = "GetCompanyStatistics"
	MethodListCompanyStatistics = "ListCompanyStatistics"
)

// EmployeeServiceServer は EmployeeService のサーバー側インターフェースです。
// リクエストとレスポンスは google.protobuf.Struct で表現します。
type EmployeeServiceServer interface {
	CreateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ImportEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetCompanyStatistics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListCompanyStatistics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// EmployeeServiceDesc は EmployeeService の grpc.ServiceDesc です。
var EmployeeServiceDesc = grpc.ServiceDesc{
	ServiceName: EmployeeServiceName,
	HandlerType: (*EmployeeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodCreateEmployee, EmployeeServiceServer.CreateEmployee),
		unaryMethod(MethodGetEmployee, EmployeeServiceServer.GetEmployee),
		unaryMethod(MethodListEmployees, EmployeeServiceServer.ListEmployees),
		unaryMethod(MethodUpdateEmployee, EmployeeServiceServer.UpdateEmployee),
		unaryMethod(MethodDeleteEmployee, EmployeeServiceServer.DeleteEmployee),
		unaryMethod(MethodImportEmployees, EmployeeServiceServer.ImportEmployees),
		unaryMethod(MethodGetCompanyStatistics, EmployeeServiceServer.GetCompanyStatistics),
		unaryMethod(MethodListCompanyStatistics, EmployeeServiceServer.ListCompanyStatistics),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roster/v1/employee.proto",
}

// RegisterEmployeeServiceServer は srv を gRPC サーバーに登録します。
func RegisterEmployeeServiceServer(s grpc.ServiceRegistrar, srv EmployeeServiceServer) {
	s.RegisterService(&EmployeeServiceDesc, srv)
}

type unaryCall func(EmployeeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EmployeeServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EmployeeServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod は "/roster.v1.EmployeeService/<method>" 形式のメソッド名を返します。
func FullMethod(method string) string {
	return "/" + EmployeeServiceName + "/" + method
}

// EmployeeServiceClient は EmployeeService を呼び出すクライアントです。
type EmployeeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewEmployeeServiceClient は EmployeeServiceClient を生成します。
func NewEmployeeServiceClient(cc grpc.ClientConnInterface) *EmployeeServiceClient {
	return &EmployeeServiceClient{cc: cc}
}

// Call は method を呼び出し、レスポンスを返します。req が nil の場合は空の Struct を送ります。
func (c *EmployeeServiceClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
