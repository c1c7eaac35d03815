package http

import (
	"net/http"

	"stockgraph/src/domain/entities"
)

func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	// Query params viram filtro de containment sobre properties.
	filter := entities.Document{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}

	list, err := s.compositeService.ListEntities(r.Context(), r.PathValue("type"), filter)
	if err != nil {
		s.respondError(w, "list entities", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, list)
}

func (s *Server) GetEntityWithRelationships(w http.ResponseWriter, r *http.Request) {
	result, err := s.compositeService.GetEntityWithRelationships(r.Context(), r.PathValue("type"), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "get entity", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, result)
}

func (s *Server) CreateEntityWithRelationships(w http.ResponseWriter, r *http.Request) {
	var entityData entities.Document
	if err := decodeBody(r, &entityData, false); err != nil {
		s.respondError(w, "create entity", err)
		return
	}

	result, err := s.compositeService.CreateEntityWithRelationships(r.Context(), r.PathValue("type"), entityData)
	if err != nil {
		s.respondError(w, "create entity", err)
		return
	}
	s.respondSuccess(w, http.StatusCreated, result)
}

func (s *Server) UpdateEntityWithRelationships(w http.ResponseWriter, r *http.Request) {
	var patch entities.Document
	if err := decodeBody(r, &patch, false); err != nil {
		s.respondError(w, "update entity", err)
		return
	}

	result, err := s.compositeService.UpdateEntityWithRelationships(r.Context(), r.PathValue("type"), r.PathValue("id"), patch)
	if err != nil {
		s.respondError(w, "update entity", err)
		return
	}
	s.respondSuccess(w, http.StatusOK, result)
}

func (s *Server) DeleteEntityWithRelationships(w http.ResponseWriter, r *http.Request) {
	if err := s.compositeService.DeleteEntityWithRelationships(r.Context(), r.PathValue("type"), r.PathValue("id")); err != nil {
		s.respondError(w, "delete entity", err)
		return
	}
	s.respondMessage(w, http.StatusOK, nil, "entity and relationships deleted")
}
