package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/runstore"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tspanneal.v1.AnnealService"

const createRunMethod = "/" + ServiceName + "/CreateRun"

// AnnealServiceServer is the gRPC service. Requests and responses are
// google.protobuf.Struct documents with the same shape as the JSON API.
type AnnealServiceServer interface {
	CreateRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAnnealServiceServer registers srv on s.
func RegisterAnnealServiceServer(s grpc.ServiceRegistrar, srv AnnealServiceServer) {
	s.RegisterService(&annealServiceDesc, srv)
}

type unaryMethod func(AnnealServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AnnealServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AnnealServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var annealServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnnealServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateRun", AnnealServiceServer.CreateRun),
		unaryHandler("StartRun", AnnealServiceServer.StartRun),
		unaryHandler("GetRun", AnnealServiceServer.GetRun),
		unaryHandler("ListRuns", AnnealServiceServer.ListRuns),
		unaryHandler("StopRun", AnnealServiceServer.StopRun),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tspanneal/v1/anneal.proto",
}

// AnnealClient calls AnnealService over a client connection.
type AnnealClient struct {
	cc grpc.ClientConnInterface
}

// NewAnnealClient wraps cc.
func NewAnnealClient(cc grpc.ClientConnInterface) *AnnealClient {
	return &AnnealClient{cc: cc}
}

func (c *AnnealClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AnnealClient) CreateRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateRun", in, opts...)
}

func (c *AnnealClient) StartRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "StartRun", in, opts...)
}

func (c *AnnealClient) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRun", in, opts...)
}

func (c *AnnealClient) ListRuns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListRuns", in, opts...)
}

func (c *AnnealClient) StopRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "StopRun", in, opts...)
}

// GRPCServer implements AnnealServiceServer on top of an Executor.
type GRPCServer struct {
	executor *runstore.Executor
	logger   *slog.Logger
}

// NewGRPCServer creates the service implementation.
func NewGRPCServer(executor *runstore.Executor, l *slog.Logger) *GRPCServer {
	if l == nil {
		l = logger.Discard()
	}
	return &GRPCServer{executor: executor, logger: l}
}

// NewGRPC builds a grpc.Server with the anneal and health services registered.
func NewGRPC(executor *runstore.Executor, l *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	srv := NewGRPCServer(executor, l)
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(srv.logInterceptor)}, opts...)

	gs := grpc.NewServer(opts...)
	RegisterAnnealServiceServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

func (s *GRPCServer) logInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	s.logger.Debug("grpc request", "method", info.FullMethod, "code", status.Code(err))
	return resp, err
}

func (s *GRPCServer) CreateRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input := models.RunInput{
		InstanceYAML:   stringField(req, "instance_yaml"),
		ConfigYAML:     stringField(req, "config_yaml"),
		CallbackURL:    stringField(req, "callback_url"),
		CallbackSecret: stringField(req, "callback_secret"),
	}
	if input.InstanceYAML == "" {
		return nil, status.Error(codes.InvalidArgument, "instance_yaml is required")
	}

	rec, err := s.executor.Submit(stringField(req, "run_id"), input)
	if err != nil {
		if errors.Is(err, runstore.ErrRunExists) || errors.Is(err, runstore.ErrStoreFull) {
			return nil, toStatus(err)
		}
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Info("run created", "run_id", rec.Run.ID)

	if boolField(req, "start") {
		if rec, err = s.executor.Start(rec.Run.ID); err != nil {
			return nil, toStatus(err)
		}
	}
	return toStruct(toResponse(rec))
}

func (s *GRPCServer) StartRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rec, err := s.executor.Start(stringField(req, "run_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("run started (executor)", "run_id", rec.Run.ID)
	return toStruct(toResponse(rec))
}

func (s *GRPCServer) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "run_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	rec, ok := s.executor.Store().Get(id)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	resp := toResponse(rec)
	if boolField(req, "include_trajectory") && rec.Result != nil {
		resp.Result = rec.Result
	}
	return toStruct(resp)
}

func (s *GRPCServer) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := 50
	if v, ok := req.GetFields()["limit"]; ok && v.GetNumberValue() > 0 {
		limit = int(v.GetNumberValue())
	}
	recs := s.executor.Store().List(limit)
	runs := make([]models.Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	return toStruct(map[string]any{"runs": runs})
}

func (s *GRPCServer) StopRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rec, err := s.executor.Stop(stringField(req, "run_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("run cancelled", "run_id", rec.Run.ID)
	return toStruct(toResponse(rec))
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, runstore.ErrRunIDMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, runstore.ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, runstore.ErrRunExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, runstore.ErrRunTerminal), errors.Is(err, runstore.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, runstore.ErrStoreFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts v through its JSON form so Struct fields match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}
