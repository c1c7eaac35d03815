// Package composite implementa as operações entidade+relacionamentos: criar
// uma entidade já gerando os relacionamentos declarados no payload, atualizar
// relendo os dois lados e apagar em cascata. Tudo sob uma transação só.
package composite

import (
	"context"
	"log/slog"
	"time"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"
	"stockgraph/src/services/events"
	"stockgraph/src/services/relationships"
)

type CompositeService struct {
	logger        *slog.Logger
	factory       *repositories.Factory
	relationships *relationships.RelationshipService
	runner        repositories.TransactionRunner
	events        *events.Publisher
}

func NewCompositeService(
	logger *slog.Logger,
	factory *repositories.Factory,
	relationshipService *relationships.RelationshipService,
	publisher *events.Publisher,
) *CompositeService {
	return &CompositeService{
		logger:        logger,
		factory:       factory,
		relationships: relationshipService,
		runner:        factory.Runner(),
		events:        publisher,
	}
}

func (s *CompositeService) entityRepo(entityType entities.EntityType) (repositories.EntityRepository, error) {
	repo, err := s.factory.EntityRepository(entityType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	return repo, nil
}

// GetEntity devolve a entidade crua, sem relacionamentos.
func (s *CompositeService) GetEntity(ctx context.Context, rawType, id string) (*entities.Entity, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	repo, err := s.entityRepo(entityType)
	if err != nil {
		return nil, err
	}

	entity, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.NotFoundf("%s %s", entityType, id)
	}
	return entity, nil
}

// ListEntities devolve todas as entidades do tipo, opcionalmente filtradas
// por containment sobre properties.
func (s *CompositeService) ListEntities(ctx context.Context, rawType string, filter entities.Document) ([]*entities.Entity, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	repo, err := s.entityRepo(entityType)
	if err != nil {
		return nil, err
	}

	if len(filter) == 0 {
		return repo.FindAll(ctx)
	}
	return repo.FindByFilter(ctx, filter)
}

// GetEntityWithRelationships devolve a entidade e os dois lados das relações.
func (s *CompositeService) GetEntityWithRelationships(ctx context.Context, rawType, id string) (*domain.CompositeResult, error) {
	entity, err := s.GetEntity(ctx, rawType, id)
	if err != nil {
		return nil, err
	}

	rels, err := s.relationships.GetAllForEntity(ctx, entity.ID, entity.Type)
	if err != nil {
		return nil, err
	}

	return &domain.CompositeResult{Entity: entity, Relationships: *rels}, nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
