package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/runstore"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
)

// ShutdownTimeout bounds graceful shutdown of listeners and runs.
const ShutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	HTTPAddr string
	GRPCAddr string
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// CreateRate limits run creations per second across both front ends;
	// 0 disables the limit.
	CreateRate  float64
	CreateBurst int
}

// Server runs the HTTP and gRPC front ends of one executor.
type Server struct {
	opts     Options
	executor *runstore.Executor
	httpSrv  *http.Server
	grpcSrv  *grpc.Server
	health   *health.Server
}

// New wires both front ends; nothing listens until Serve.
func New(executor *runstore.Executor, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	limiter := NewCreateLimiter(opts.CreateRate, opts.CreateBurst)
	gs, hs := NewGRPC(executor, opts.Logger, grpc.ChainUnaryInterceptor(createLimitInterceptor(limiter)))
	return &Server{
		opts:     opts,
		executor: executor,
		httpSrv: &http.Server{
			Addr:              opts.HTTPAddr,
			Handler:           NewHTTPServer(executor, opts.Gatherer, opts.Logger, WithCreateLimiter(limiter)).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		grpcSrv: gs,
		health:  hs,
	}
}

// Serve listens on the configured addresses until ctx is done, then shuts
// down gracefully and cancels every running run.
func (s *Server) Serve(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.opts.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", s.opts.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", s.opts.GRPCAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("listen grpc %s: %w", s.opts.GRPCAddr, err)
	}
	return s.serve(ctx, httpLis, grpcLis)
}

func (s *Server) serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	log := s.opts.Logger
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("gRPC server listening", "addr", grpcLis.Addr().String())
		if err := s.grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", httpLis.Addr().String())
		if err := s.httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		s.grpcSrv.GracefulStop()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP shutdown error", "error", err)
		}
		if err := s.executor.Shutdown(shutdownCtx); err != nil {
			log.Error("run shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
