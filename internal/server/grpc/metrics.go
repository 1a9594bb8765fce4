package grpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gophdirectory_grpc_requests",
	Help: "Handled gRPC requests by method and status code",
}, []string{"method", "code"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "gophdirectory_grpc_request_duration",
	Help:    "Time spent handling a gRPC request",
	Buckets: prometheus.ExponentialBucketsRange(0.0005, 5, 16),
}, []string{"method"})
