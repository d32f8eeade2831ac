package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "carbon.assessment.v1.AssessmentService"

// AssessmentServiceServer: серверная сторона gRPC API для чтения.
type AssessmentServiceServer interface {
	ListAssessments(ctx context.Context, req *ListAssessmentsRequest) (*ListAssessmentsResponse, error)
	GetSummary(ctx context.Context, req *GetSummaryRequest) (*GetSummaryResponse, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
	CheckHealth(ctx context.Context, req *CheckHealthRequest) (*CheckHealthResponse, error)
}

// RegisterAssessmentServiceServer регистрирует сервис на gRPC сервере.
func RegisterAssessmentServiceServer(s grpc.ServiceRegistrar, srv AssessmentServiceServer) {
	s.RegisterService(&assessmentServiceDesc, srv)
}

var assessmentServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AssessmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListAssessments", Handler: unary(func(s AssessmentServiceServer, ctx context.Context, req *ListAssessmentsRequest) (any, error) {
			return s.ListAssessments(ctx, req)
		}, "ListAssessments")},
		{MethodName: "GetSummary", Handler: unary(func(s AssessmentServiceServer, ctx context.Context, req *GetSummaryRequest) (any, error) {
			return s.GetSummary(ctx, req)
		}, "GetSummary")},
		{MethodName: "GetStats", Handler: unary(func(s AssessmentServiceServer, ctx context.Context, req *GetStatsRequest) (any, error) {
			return s.GetStats(ctx, req)
		}, "GetStats")},
		{MethodName: "CheckHealth", Handler: unary(func(s AssessmentServiceServer, ctx context.Context, req *CheckHealthRequest) (any, error) {
			return s.CheckHealth(ctx, req)
		}, "CheckHealth")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "carbon/assessment/v1/assessment.proto",
}

// unary строит grpc.MethodHandler для метода с запросом типа Req.
func unary[Req any](call func(AssessmentServiceServer, context.Context, *Req) (any, error), method string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AssessmentServiceServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AssessmentServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// Client: клиент к тому же сервису, используется в тестах и утилитах.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListAssessments(ctx context.Context, req *ListAssessmentsRequest, opts ...grpc.CallOption) (*ListAssessmentsResponse, error) {
	out := new(ListAssessmentsResponse)
	if err := c.invoke(ctx, "ListAssessments", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSummary(ctx context.Context, req *GetSummaryRequest, opts ...grpc.CallOption) (*GetSummaryResponse, error) {
	out := new(GetSummaryResponse)
	if err := c.invoke(ctx, "GetSummary", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStats(ctx context.Context, req *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	out := new(GetStatsResponse)
	if err := c.invoke(ctx, "GetStats", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckHealth(ctx context.Context, req *CheckHealthRequest, opts ...grpc.CallOption) (*CheckHealthResponse, error) {
	out := new(CheckHealthResponse)
	if err := c.invoke(ctx, "CheckHealth", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodec{}.Name())}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, out, opts...)
}
