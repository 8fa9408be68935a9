package collector

import (
	"context"

	"google.golang.org/grpc"
)

// IngestServer is the server half of the collector wire contract.
// Implementations decide whether to accept a payload; returning a non-OK
// status tells the sender to retry elsewhere.
type IngestServer interface {
	Append(ctx context.Context, ev *Event) (Status, error)
	AppendBatch(ctx context.Context, evs []*Event) (Status, error)
}

// RegisterIngestServer registers srv with the gRPC server.
func RegisterIngestServer(s *grpc.Server, srv IngestServer) {
	s.RegisterService(&ingestServiceDesc, srv)
}

func appendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(appendRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		status, err := srv.(IngestServer).Append(ctx, in.Event)
		return &appendReply{Status: status}, err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAppend}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		status, err := srv.(IngestServer).Append(ctx, req.(*appendRequest).Event)
		return &appendReply{Status: status}, err
	}
	return interceptor(ctx, in, info, handler)
}

func appendBatchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(appendBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		status, err := srv.(IngestServer).AppendBatch(ctx, in.Events)
		return &appendReply{Status: status}, err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAppendBatch}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		status, err := srv.(IngestServer).AppendBatch(ctx, req.(*appendBatchRequest).Events)
		return &appendReply{Status: status}, err
	}
	return interceptor(ctx, in, info, handler)
}

var ingestServiceDesc = grpc.ServiceDesc{
	ServiceName: "collector.Ingest",
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Append", Handler: appendHandler},
		{MethodName: "AppendBatch", Handler: appendBatchHandler},
	},
	Streams: []grpc.StreamDesc{},
}
