package grpc

import (
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health check name of the REST API process.
const ServiceName = "yamdb.v1.API"

// setServing flips both the overall and the named service status.
func (s *GRPCServer) setServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// MarkUnavailable reports NOT_SERVING without stopping the server, so
// load balancers drain traffic before shutdown.
func (s *GRPCServer) MarkUnavailable() {
	s.setServing(false)
}
