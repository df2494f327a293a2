// Package proto describes the signup.v1.SignupService wire contract. Every
// request and response is a google.protobuf.Struct; the field names below
// are the schema.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	SignupService_ServiceName = "signup.v1.SignupService"

	SignupService_Start_FullMethodName        = "/signup.v1.SignupService/Start"
	SignupService_Confirm_FullMethodName      = "/signup.v1.SignupService/Confirm"
	SignupService_Resend_FullMethodName       = "/signup.v1.SignupService/Resend"
	SignupService_Cancel_FullMethodName       = "/signup.v1.SignupService/Cancel"
	SignupService_Ping_FullMethodName         = "/signup.v1.SignupService/Ping"
	SignupService_ListAccounts_FullMethodName = "/signup.v1.SignupService/ListAccounts"
)

// Struct field names.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldName            = "name"
	FieldCode            = "code"
	FieldAttemptID       = "attempt_id"
	FieldTicket          = "ticket"
	FieldExpiresAt       = "expires_at"
	FieldAccountID       = "account_id"
	FieldStatus          = "status"
	FieldAccounts        = "accounts"
	FieldID              = "id"
	FieldCreatedAt       = "created_at"
)

type SignupServiceServer interface {
	Start(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Confirm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccounts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedSignupServiceServer can be embedded to keep servers
// compiling when methods are added.
type UnimplementedSignupServiceServer struct{}

func (UnimplementedSignupServiceServer) Start(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Start not implemented")
}
func (UnimplementedSignupServiceServer) Confirm(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Confirm not implemented")
}
func (UnimplementedSignupServiceServer) Resend(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Resend not implemented")
}
func (UnimplementedSignupServiceServer) Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Cancel not implemented")
}
func (UnimplementedSignupServiceServer) Ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedSignupServiceServer) ListAccounts(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAccounts not implemented")
}

func RegisterSignupServiceServer(s grpc.ServiceRegistrar, srv SignupServiceServer) {
	s.RegisterService(&SignupService_ServiceDesc, srv)
}

type unaryCall func(SignupServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SignupServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SignupServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var SignupService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SignupService_ServiceName,
	HandlerType: (*SignupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: unaryHandler(SignupService_Start_FullMethodName, SignupServiceServer.Start)},
		{MethodName: "Confirm", Handler: unaryHandler(SignupService_Confirm_FullMethodName, SignupServiceServer.Confirm)},
		{MethodName: "Resend", Handler: unaryHandler(SignupService_Resend_FullMethodName, SignupServiceServer.Resend)},
		{MethodName: "Cancel", Handler: unaryHandler(SignupService_Cancel_FullMethodName, SignupServiceServer.Cancel)},
		{MethodName: "Ping", Handler: unaryHandler(SignupService_Ping_FullMethodName, SignupServiceServer.Ping)},
		{MethodName: "ListAccounts", Handler: unaryHandler(SignupService_ListAccounts_FullMethodName, SignupServiceServer.ListAccounts)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "signup/v1/signup.proto",
}

type SignupServiceClient interface {
	Start(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Confirm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Resend(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Cancel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListAccounts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type signupServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSignupServiceClient(cc grpc.ClientConnInterface) SignupServiceClient {
	return &signupServiceClient{cc}
}

func (c *signupServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signupServiceClient) Start(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupService_Start_FullMethodName, in, opts...)
}

func (c *signupServiceClient) Confirm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupService_Confirm_FullMethodName, in, opts...)
}

func (c *signupServiceClient) Resend(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupService_Resend_FullMethodName, in, opts...)
}

func (c *signupServiceClient) Cancel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupService_Cancel_FullMethodName, in, opts...)
}

func (c *signupServiceClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupService_Ping_FullMethodName, in, opts...)
}

func (c *signupServiceClient) ListAccounts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SignupService_ListAccounts_FullMethodName, in, opts...)
}

// StringField returns the string value of key, or "" if absent.
func StringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}
