package eventsvc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "multitool.v1.EventService"

// Full method names, as seen by interceptors and grpc-gateway annotations.
const (
	LatestMethod = "/" + ServiceName + "/Latest"
	WatchMethod  = "/" + ServiceName + "/Watch"
	StatusMethod = "/" + ServiceName + "/Status"
	ShowMethod   = "/" + ServiceName + "/Show"
)

// Server is the server API for EventService. Requests and responses are
// protobuf well-known types, so no generated code is needed.
type Server interface {
	// Latest returns the most recent payload published on a topic.
	Latest(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// Watch streams every payload published on a topic.
	Watch(*wrapperspb.StringValue, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
	// Status returns a Report encoded as a Struct.
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Show asks the UI to reveal its main window.
	Show(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// Register registers srv on s.
func Register(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes EventService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Latest", Handler: latestHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Show", Handler: showHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "multitool/v1/events.proto",
}

func latestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Latest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LatestMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Latest(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: StatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func showHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Show(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ShowMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Show(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(Server).Watch(in, &grpc.GenericServerStream[wrapperspb.StringValue, wrapperspb.StringValue]{ServerStream: stream})
}

// Client is the client API for EventService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Latest returns the latest payload on topic. An empty topic means
// clipboard://text-changed.
func (c *Client) Latest(ctx context.Context, topic string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, LatestMethod, wrapperspb.String(topic), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Watch opens a stream of payloads published on topic.
func (c *Client) Watch(ctx context.Context, topic string, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, wrapperspb.StringValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(wrapperspb.String(topic)); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// RawStatus returns the status report as the Struct sent on the wire.
func (c *Client) RawStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StatusMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the daemon's status report.
func (c *Client) Status(ctx context.Context, opts ...grpc.CallOption) (*Report, error) {
	st, err := c.RawStatus(ctx, opts...)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(st.AsMap())
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &r, nil
}

// Show publishes window://show on the daemon.
func (c *Client) Show(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ShowMethod, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}
