package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"stockgraph/src/services/composite"
	"stockgraph/src/services/migration"
	"stockgraph/src/services/relationships"

	"time"
)

// Server representa o servidor HTTP da API
type Server struct {
	logger              *slog.Logger
	server              *http.Server
	mux                 *http.ServeMux
	port                int
	relationshipService *relationships.RelationshipService
	compositeService    *composite.CompositeService
	migrationService    *migration.MigrationService
	healthChecks        map[string]func(ctx context.Context) error
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	port int,
	relationshipService *relationships.RelationshipService,
	compositeService *composite.CompositeService,
	migrationService *migration.MigrationService,
	healthChecks map[string]func(ctx context.Context) error,
) *Server {
	server := &Server{
		mux:                 http.NewServeMux(),
		port:                port,
		logger:              logger,
		relationshipService: relationshipService,
		compositeService:    compositeService,
		migrationService:    migrationService,
		healthChecks:        healthChecks,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Relacionamentos
	server.mux.HandleFunc("GET /v1/relationships", server.ListRelationships)
	server.mux.HandleFunc("GET /v1/relationships/stats", server.GetRelationshipStatistics)
	server.mux.HandleFunc("GET /v1/relationships/primary/{id}", server.GetRelationshipsByPrimary)
	server.mux.HandleFunc("GET /v1/relationships/secondary/{id}", server.GetRelationshipsBySecondary)
	server.mux.HandleFunc("GET /v1/relationships/{id}", server.GetRelationship)
	server.mux.HandleFunc("POST /v1/relationships", server.CreateRelationship)
	server.mux.HandleFunc("POST /v1/relationships/bulk", server.BulkCreateRelationships)
	server.mux.HandleFunc("POST /v1/relationships/replace", server.ReplaceRelationships)
	server.mux.HandleFunc("PATCH /v1/relationships/{id}", server.UpdateRelationship)
	server.mux.HandleFunc("DELETE /v1/relationships/{id}", server.DeleteRelationship)
	server.mux.HandleFunc("DELETE /v1/relationships", server.BulkDeleteRelationships)

	// Conversão assíncrona e status de job
	server.mux.HandleFunc("POST /v1/relationships/convert/{entityType}/{entityId}", server.ConvertEntity)
	server.mux.HandleFunc("POST /v1/relationships/convert-all", server.ConvertAllAsync)
	server.mux.HandleFunc("GET /v1/relationships/jobs/{jobId}", server.GetJobStatus)

	// Migração por fase
	server.mux.HandleFunc("POST /v1/migration/items/{id}", server.NormalizeItem)
	server.mux.HandleFunc("POST /v1/migration/items", server.NormalizeAllItems)
	server.mux.HandleFunc("POST /v1/migration/relationships/{id}", server.NormalizeRelationship)
	server.mux.HandleFunc("POST /v1/migration/relationships", server.NormalizeAllRelationships)
	server.mux.HandleFunc("POST /v1/migration/embedded/items/{id}", server.ConvertItemEmbedded)
	server.mux.HandleFunc("POST /v1/migration/embedded/purchases/{id}", server.ConvertPurchaseEmbedded)
	server.mux.HandleFunc("POST /v1/migration/embedded/sales/{id}", server.ConvertSaleEmbedded)
	server.mux.HandleFunc("POST /v1/migration/embedded", server.ConvertAllEmbedded)
	server.mux.HandleFunc("POST /v1/migration/all", server.RunCompleteMigration)
	server.mux.HandleFunc("POST /v1/migration/cleanup/{entityType}", server.CleanupEntityType)
	server.mux.HandleFunc("POST /v1/migration/cleanup/{entityType}/{entityId}", server.CleanupEntity)

	// Entidades com relacionamentos
	server.mux.HandleFunc("GET /v1/entities/{type}", server.ListEntities)
	server.mux.HandleFunc("GET /v1/entities/{type}/{id}", server.GetEntityWithRelationships)
	server.mux.HandleFunc("POST /v1/entities/{type}", server.CreateEntityWithRelationships)
	server.mux.HandleFunc("PATCH /v1/entities/{type}/{id}", server.UpdateEntityWithRelationships)
	server.mux.HandleFunc("DELETE /v1/entities/{type}/{id}", server.DeleteEntityWithRelationships)

	server.mux.HandleFunc("GET /healthz", server.Healthz)

	return server
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler expõe o mux para os testes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	for name, check := range s.healthChecks {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		s.respondErrorStatus(w, http.StatusServiceUnavailable, "health check failed", checks)
		return
	}
	s.respondSuccess(w, http.StatusOK, checks)
}
