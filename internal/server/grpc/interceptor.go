package grpc

import (
	"context"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor records every unary call in the request metrics and
// logs failures.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	method := path.Base(info.FullMethod)

	resp, err := handler(ctx, req)

	code := status.Code(err)
	elapsed := time.Since(start)

	requestsTotal.WithLabelValues(method, code.String()).Inc()
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())

	if err != nil {
		s.logger.Warn(ctx, "request failed", "method", method, "code", code.String(), "error", status.Convert(err).Message(), "elapsed", elapsed)
	} else {
		s.logger.Debug(ctx, "request handled", "method", method, "elapsed", elapsed)
	}

	return resp, err
}
