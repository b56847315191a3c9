package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// HTTPService serves an http.Handler until stopped.
type HTTPService struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewHTTPService wraps handler in an http.Server listening on addr.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		logger: logger,
	}
}

// Start listens and serves. It returns nil after Stop.
func (h *HTTPService) Start() error {
	lis, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.srv.Addr, err)
	}
	h.logger.Info("http server listening", zap.String("addr", lis.Addr().String()))
	if err := h.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting up to shutdownTimeout for open requests.
func (h *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.logger.Warn("http shutdown", zap.Error(err))
	}
}

// HealthService exposes the standard gRPC health protocol.
//
// Postcondition: The overall service reports SERVING from Start until Stop.
type HealthService struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewHealthService builds a gRPC server carrying only the health service.
// Calls are traced through otelgrpc.
func NewHealthService(addr string, logger *zap.Logger) *HealthService {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	return &HealthService{addr: addr, grpc: gs, health: hs, logger: logger}
}

// SetServing marks a named component as serving or not serving.
func (h *HealthService) SetServing(component string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(component, status)
}

// Start listens and serves gRPC health checks until Stop.
func (h *HealthService) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	return h.Serve(lis)
}

// Serve serves on an existing listener.
func (h *HealthService) Serve(lis net.Listener) error {
	h.logger.Info("grpc health listening", zap.String("addr", lis.Addr().String()))
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return h.grpc.Serve(lis)
}

// Stop marks every component not serving and stops the gRPC server gracefully.
func (h *HealthService) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
