package http

import (
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) NormalizeItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.migrationService.NormalizeItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "normalize item", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, item)
}

func (s *Server) NormalizeAllItems(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.NormalizeAllItems(r.Context())
	if err != nil {
		s.respondError(w, "normalize items", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "item normalization finished")
}

func (s *Server) NormalizeRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.migrationService.NormalizeRelationship(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "normalize relationship", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, rel)
}

func (s *Server) NormalizeAllRelationships(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.NormalizeAllRelationships(r.Context())
	if err != nil {
		s.respondError(w, "normalize relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "relationship normalization finished")
}

func (s *Server) ConvertItemEmbedded(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.ConvertItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "convert item embedded relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "item conversion finished")
}

func (s *Server) ConvertPurchaseEmbedded(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.ConvertPurchase(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "convert purchase embedded relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "purchase conversion finished")
}

func (s *Server) ConvertSaleEmbedded(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.ConvertSale(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "convert sale embedded relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "sale conversion finished")
}

func (s *Server) ConvertAllEmbedded(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.ConvertAll(r.Context())
	if err != nil {
		s.respondError(w, "convert embedded relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "embedded conversion finished")
}

func (s *Server) ConvertEntity(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.ConvertEntity(r.Context(), r.PathValue("entityType"), r.PathValue("entityId"))
	if err != nil {
		s.respondError(w, "convert entity embedded relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "entity conversion finished")
}

func (s *Server) RunCompleteMigration(w http.ResponseWriter, r *http.Request) {
	cleanup := r.URL.Query().Get("cleanup") == "true"

	report, err := s.migrationService.RunComplete(r.Context(), cleanup)
	if err != nil {
		s.respondError(w, "run complete migration", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "migration finished")
}

func (s *Server) CleanupEntityType(w http.ResponseWriter, r *http.Request) {
	report, err := s.migrationService.CleanupEntityType(r.Context(), r.PathValue("entityType"))
	if err != nil {
		s.respondError(w, "cleanup embedded fields", err)
		return
	}
	s.respondResults(w, http.StatusOK, report, "cleanup finished")
}

func (s *Server) CleanupEntity(w http.ResponseWriter, r *http.Request) {
	removed, err := s.migrationService.CleanupEntity(r.Context(), r.PathValue("entityType"), r.PathValue("entityId"))
	if err != nil {
		s.respondError(w, "cleanup embedded fields", err)
		return
	}
	s.respondResults(w, http.StatusOK, map[string]bool{"removed": removed}, "cleanup finished")
}

// ConvertAllAsync dispara a migração completa como job em background e
// devolve o jobId para consulta posterior.
func (s *Server) ConvertAllAsync(w http.ResponseWriter, r *http.Request) {
	cleanup := r.URL.Query().Get("cleanup") == "true"
	jobID := uuid.NewString()

	if err := s.migrationService.StartCompleteMigrationJob(r.Context(), jobID, cleanup); err != nil {
		s.respondError(w, "start migration job", err)
		return
	}
	s.respondMessage(w, http.StatusAccepted, map[string]string{"jobId": jobID}, "migration job started")
}

func (s *Server) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.migrationService.GetJobStatus(r.Context(), r.PathValue("jobId"))
	if err != nil {
		s.respondError(w, "get job status", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, status)
}
