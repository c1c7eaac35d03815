package http

import (
	"net/http"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

func filterFromQuery(r *http.Request) domain.RelationshipFilter {
	q := r.URL.Query()
	return domain.RelationshipFilter{
		PrimaryID:        q.Get("primaryId"),
		PrimaryType:      q.Get("primaryType"),
		SecondaryID:      q.Get("secondaryId"),
		SecondaryType:    q.Get("secondaryType"),
		RelationshipType: q.Get("relationshipType"),
	}
}

func (s *Server) ListRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := s.relationshipService.Query(r.Context(), filterFromQuery(r))
	if err != nil {
		s.respondError(w, "list relationships", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, rels)
}

func (s *Server) GetRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.relationshipService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "get relationship", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, rel)
}

func (s *Server) GetRelationshipStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.relationshipService.GetStatistics(r.Context())
	if err != nil {
		s.respondError(w, "get relationship statistics", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, stats)
}

// GetRelationshipsByPrimary lista por ponta primária; entityType é
// obrigatório na query, relationshipType opcional.
func (s *Server) GetRelationshipsByPrimary(w http.ResponseWriter, r *http.Request) {
	s.getRelationshipsBySide(w, r, true)
}

func (s *Server) GetRelationshipsBySecondary(w http.ResponseWriter, r *http.Request) {
	s.getRelationshipsBySide(w, r, false)
}

func (s *Server) getRelationshipsBySide(w http.ResponseWriter, r *http.Request, primary bool) {
	operation := "get relationships by secondary"
	if primary {
		operation = "get relationships by primary"
	}

	id := r.PathValue("id")
	rawType := r.URL.Query().Get("entityType")
	if rawType == "" {
		s.respondError(w, operation, domain.Validationf("entityType query parameter is required"))
		return
	}
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		s.respondError(w, operation, domain.Validationf("%v", err))
		return
	}

	relType := entities.RelationshipType(r.URL.Query().Get("relationshipType"))

	filter := domain.RelationshipFilter{RelationshipType: string(relType)}
	if primary {
		filter.PrimaryID = id
		filter.PrimaryType = string(entityType)
	} else {
		filter.SecondaryID = id
		filter.SecondaryType = string(entityType)
	}

	rels, err := s.relationshipService.Query(r.Context(), filter)
	if err != nil {
		s.respondError(w, operation, err)
		return
	}
	s.respondSuccess(w, http.StatusOK, rels)
}

func (s *Server) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRelationshipRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.respondError(w, "create relationship", err)
		return
	}

	rel, err := s.relationshipService.Create(r.Context(), req)
	if err != nil {
		s.respondError(w, "create relationship", err)
		return
	}
	s.respondSuccess(w, http.StatusCreated, rel)
}

func (s *Server) BulkCreateRelationships(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Relationships []domain.CreateRelationshipRequest `json:"relationships"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		s.respondError(w, "bulk create relationships", err)
		return
	}

	rels, err := s.relationshipService.BulkCreate(r.Context(), body.Relationships)
	if err != nil {
		s.respondError(w, "bulk create relationships", err)
		return
	}
	s.respondSuccess(w, http.StatusCreated, rels)
}

func (s *Server) ReplaceRelationships(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EntityID         string                             `json:"entityId"`
		EntityType       string                             `json:"entityType"`
		RelationshipType string                             `json:"relationshipType"`
		Relationships    []domain.CreateRelationshipRequest `json:"relationships"`
		Side             string                             `json:"side"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		s.respondError(w, "replace relationships", err)
		return
	}

	entityType, err := entities.ParseEntityType(body.EntityType)
	if err != nil {
		s.respondError(w, "replace relationships", domain.Validationf("%v", err))
		return
	}
	relType, err := entities.ParseRelationshipType(body.RelationshipType)
	if err != nil {
		s.respondError(w, "replace relationships", domain.Validationf("%v", err))
		return
	}

	side := domain.ReplaceSide(body.Side)
	if side == "" {
		side = domain.SidePrimary
	}

	result, err := s.relationshipService.Replace(r.Context(), body.EntityID, entityType, relType, body.Relationships, side)
	if err != nil {
		s.respondError(w, "replace relationships", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, result)
}

func (s *Server) UpdateRelationship(w http.ResponseWriter, r *http.Request) {
	var patch domain.RelationshipPatch
	if err := decodeBody(r, &patch, false); err != nil {
		s.respondError(w, "update relationship", err)
		return
	}

	rel, err := s.relationshipService.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.respondError(w, "update relationship", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, rel)
}

func (s *Server) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	if err := s.relationshipService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, "delete relationship", err)
		return
	}
	s.respondMessage(w, http.StatusOK, nil, "relationship deleted")
}

// BulkDeleteRelationships aceita o filtro no corpo ou na query string.
func (s *Server) BulkDeleteRelationships(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	if filter.IsEmpty() {
		if err := decodeBody(r, &filter, true); err != nil {
			s.respondError(w, "bulk delete relationships", err)
			return
		}
	}

	deleted, err := s.relationshipService.BulkDelete(r.Context(), filter)
	if err != nil {
		s.respondError(w, "bulk delete relationships", err)
		return
	}
	s.respondResults(w, http.StatusOK, map[string]int{"deleted": deleted}, "relationships deleted")
}
