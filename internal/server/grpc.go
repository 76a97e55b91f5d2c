// internal/server/grpc.go
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// StartGRPCServer serves the standard gRPC health service so that
// orchestrators can probe the process without going through HTTP auth.
func StartGRPCServer(addr string, hs *health.Server) (*grpc.Server, net.Listener, error) {
	server := grpc.NewServer(
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
		grpc.UnaryInterceptor(loggingInterceptor),
	)

	healthpb.RegisterHealthServer(server, hs)

	// Enable reflection for grpcurl testing
	reflection.Register(server)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on gRPC address %s: %w", addr, err)
	}

	go func() {
		if err := server.Serve(lis); err != nil {
			slog.Error("gRPC server failed", "error", err)
		}
	}()

	slog.Info("gRPC server started", "addr", lis.Addr().String())
	return server, lis, nil
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start)
	if err != nil {
		slog.Warn("gRPC request failed", "method", info.FullMethod, "duration", duration, "error", err)
	} else {
		slog.Debug("gRPC request completed", "method", info.FullMethod, "duration", duration)
	}

	return resp, err
}
