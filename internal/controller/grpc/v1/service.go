package grpcv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName        = "audittrack.v1.AuditViewer"
	ListLogsMethod     = "/" + ServiceName + "/ListLogs"
	GetStatsMethod     = "/" + ServiceName + "/GetStats"
	listLogsMethodName = "ListLogs"
	getStatsMethodName = "GetStats"
)

type AuditViewerServer interface {
	ListLogs(ctx context.Context, req *ListLogsRequest) (*ListLogsResponse, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
}

func RegisterAuditViewerServer(s grpc.ServiceRegistrar, srv AuditViewerServer) {
	s.RegisterService(&auditViewerServiceDesc, srv)
}

var auditViewerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuditViewerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: listLogsMethodName, Handler: listLogsHandler},
		{MethodName: getStatsMethodName, Handler: getStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "audittrack/v1/viewer",
}

func listLogsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListLogsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuditViewerServer).ListLogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListLogsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuditViewerServer).ListLogs(ctx, req.(*ListLogsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuditViewerServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuditViewerServer).GetStats(ctx, req.(*GetStatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AuditViewerClient calls the service over a connection that uses the JSON codec.
type AuditViewerClient struct {
	cc grpc.ClientConnInterface
}

func NewAuditViewerClient(cc grpc.ClientConnInterface) *AuditViewerClient {
	return &AuditViewerClient{cc: cc}
}

func (c *AuditViewerClient) ListLogs(ctx context.Context, in *ListLogsRequest, opts ...grpc.CallOption) (*ListLogsResponse, error) {
	out := new(ListLogsResponse)
	if err := c.cc.Invoke(ctx, ListLogsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuditViewerClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	out := new(GetStatsResponse)
	if err := c.cc.Invoke(ctx, GetStatsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
