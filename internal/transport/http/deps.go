package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vid-verifier/internal/application/presentation"
)

// Deps holds everything the router needs beyond configuration.
type Deps struct {
	Presentations presentation.Service
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}
