package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// source is one of: cache, network, offline_miss, not_found, error.
var recipientResolution = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gophdirectory_recipient_resolve",
	Help: "Recipient resolutions by lookup kind and where the answer came from",
}, []string{"lookup", "source"})

var recipientResolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "gophdirectory_recipient_resolve_duration",
	Help:    "Time to resolve a recipient",
	Buckets: prometheus.ExponentialBucketsRange(0.0001, 2, 20),
}, []string{"lookup", "source"})

var cacheClearFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gophdirectory_response_cache_clear_failures",
	Help: "Failed attempts to drop the remote client response cache",
})
