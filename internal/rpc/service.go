// Package rpc describes the gophdirectory gRPC service.
//
// There is no .proto file: the service descriptor is declared by hand and the
// payloads are protobuf well-known types (Empty, StringValue, Struct,
// ListValue). Typed DTOs in messages.go are converted to and from Struct via
// protojson, so both sides agree on the JSON field names declared there.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "gophdirectory.DirectoryService"

const (
	PingMethod                   = "/" + ServiceName + "/Ping"
	GetUserMethod                = "/" + ServiceName + "/GetUser"
	SearchByUsernameMethod       = "/" + ServiceName + "/SearchByUsername"
	SearchByPaymentAddressMethod = "/" + ServiceName + "/SearchByPaymentAddress"
	GetTimestampMethod           = "/" + ServiceName + "/GetTimestamp"
	ReportUserMethod             = "/" + ServiceName + "/ReportUser"
	PutUserMethod                = "/" + ServiceName + "/PutUser"
	GetAvatarUploadURLMethod     = "/" + ServiceName + "/GetAvatarUploadURL"
)

// DirectoryServer is implemented by the directory gRPC server.
type DirectoryServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetUser(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SearchByUsername(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	SearchByPaymentAddress(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetTimestamp(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ReportUser(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	PutUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAvatarUploadURL(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// UnimplementedDirectoryServer answers every call with codes.Unimplemented.
// Embed it to stay forward compatible when methods are added.
type UnimplementedDirectoryServer struct{}

func (UnimplementedDirectoryServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedDirectoryServer) GetUser(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
}
func (UnimplementedDirectoryServer) SearchByUsername(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchByUsername not implemented")
}
func (UnimplementedDirectoryServer) SearchByPaymentAddress(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchByPaymentAddress not implemented")
}
func (UnimplementedDirectoryServer) GetTimestamp(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTimestamp not implemented")
}
func (UnimplementedDirectoryServer) ReportUser(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ReportUser not implemented")
}
func (UnimplementedDirectoryServer) PutUser(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method PutUser not implemented")
}
func (UnimplementedDirectoryServer) GetAvatarUploadURL(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvatarUploadURL not implemented")
}

func newEmpty() *emptypb.Empty           { return new(emptypb.Empty) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newStruct() *structpb.Struct        { return new(structpb.Struct) }

// unary builds a MethodDesc that decodes Req, runs the optional interceptor
// and dispatches to call.
func unary[Req, Resp proto.Message](name string, newReq func() Req,
	call func(DirectoryServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {

	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DirectoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DirectoryServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is registered with grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", newEmpty, DirectoryServer.Ping),
		unary("GetUser", newString, DirectoryServer.GetUser),
		unary("SearchByUsername", newString, DirectoryServer.SearchByUsername),
		unary("SearchByPaymentAddress", newString, DirectoryServer.SearchByPaymentAddress),
		unary("GetTimestamp", newEmpty, DirectoryServer.GetTimestamp),
		unary("ReportUser", newStruct, DirectoryServer.ReportUser),
		unary("PutUser", newStruct, DirectoryServer.PutUser),
		unary("GetAvatarUploadURL", newString, DirectoryServer.GetAvatarUploadURL),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophdirectory/directory",
}

// RegisterDirectoryServer attaches srv to s.
func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}
