package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// statusPingTimeout bounds the database check of /_status.
const statusPingTimeout = 2 * time.Second

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports that the process is serving requests",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)

	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/_status",
		Summary:     "Status",
		Description: "Reports application and database status",
		Tags:        []string{"Health"},
	}, s.handleStatus)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	OK bool `json:"ok" doc:"Always true while the server is up"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: HealthResponse{OK: true}}, nil
}

// StatusResponse contains component status in API responses.
type StatusResponse struct {
	App string `json:"app" doc:"Application status" example:"ok"`
	DB  string `json:"db" doc:"Database status: ok or ng" example:"ok"`
	Now string `json:"now" doc:"Server time (RFC 3339)"`
}

// StatusOutput wraps the status response for Huma.
type StatusOutput struct {
	Body StatusResponse
}

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	pingCtx, cancel := context.WithTimeout(ctx, statusPingTimeout)
	defer cancel()

	db := "ok"
	if err := s.notes.Ping(pingCtx); err != nil {
		s.logger.Warn("Database ping failed", "error", err)
		db = "ng"
	}

	return &StatusOutput{
		Body: StatusResponse{
			App: "ok",
			DB:  db,
			Now: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}, nil
}
