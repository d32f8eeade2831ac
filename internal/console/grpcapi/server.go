package grpcapi

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xela07ax/carbon-assessment/internal/domain"
	"github.com/xela07ax/carbon-assessment/internal/health"
)

// Reader: сервисный слой, которого достаточно для API чтения.
type Reader interface {
	List(ctx context.Context) ([]domain.Assessment, error)
	ListByCategory(ctx context.Context, category string) ([]domain.Assessment, error)
	Summary(ctx context.Context) ([]domain.CategorySummary, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Health(ctx context.Context) health.Report
}

type Server struct {
	svc Reader
}

func NewServer(svc Reader) *Server {
	return &Server{svc: svc}
}

// NewGRPCServer создает gRPC сервер с логированием и зарегистрированным сервисом.
func NewGRPCServer(svc Reader, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(logger.Named("grpc-api"))),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterAssessmentServiceServer(s, NewServer(svc))
	return s
}

func (s *Server) ListAssessments(ctx context.Context, req *ListAssessmentsRequest) (*ListAssessmentsResponse, error) {
	var (
		rows []domain.Assessment
		err  error
	)
	if req.Category != "" {
		rows, err = s.svc.ListByCategory(ctx, req.Category)
	} else {
		rows, err = s.svc.List(ctx)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListAssessmentsResponse{Assessments: rows}, nil
}

func (s *Server) GetSummary(ctx context.Context, _ *GetSummaryRequest) (*GetSummaryResponse, error) {
	summary, err := s.svc.Summary(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetSummaryResponse{Summary: summary}, nil
}

func (s *Server) GetStats(ctx context.Context, _ *GetStatsRequest) (*GetStatsResponse, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetStatsResponse{Stats: stats}, nil
}

// CheckHealth всегда отвечает OK на уровне gRPC: состояние базы - в теле ответа.
func (s *Server) CheckHealth(ctx context.Context, _ *CheckHealthRequest) (*CheckHealthResponse, error) {
	report := s.svc.Health(ctx)
	resp := &CheckHealthResponse{
		Status:    report.Status,
		Database:  "connected",
		Timestamp: report.Timestamp,
	}
	if !report.OK() {
		resp.Database = "disconnected"
		resp.Error = report.Reason
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, domain.ErrStore):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// UnaryLoggingInterceptor пишет одну строку на вызов.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("grpc call", fields...)
		}
		return resp, err
	}
}
