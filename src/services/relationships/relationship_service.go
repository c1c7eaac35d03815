package relationships

import (
	"context"
	"log/slog"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"
	"stockgraph/src/services/events"
)

// RelationshipService é o motor de relacionamentos: valida combinações,
// normaliza medições, roteia atributos e coordena as mutações sob transação.
type RelationshipService struct {
	logger           *slog.Logger
	relationshipRepo repositories.RelationshipRepository
	runner           repositories.TransactionRunner
	events           *events.Publisher
}

func NewRelationshipService(
	logger *slog.Logger,
	relationshipRepo repositories.RelationshipRepository,
	runner repositories.TransactionRunner,
	publisher *events.Publisher,
) *RelationshipService {
	return &RelationshipService{
		logger:           logger,
		relationshipRepo: relationshipRepo,
		runner:           runner,
		events:           publisher,
	}
}

// GetByID devolve o relacionamento ou ErrNotFound.
func (s *RelationshipService) GetByID(ctx context.Context, id string) (*entities.Relationship, error) {
	rel, err := s.relationshipRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, domain.NotFoundf("relationship %s", id)
	}
	return rel, nil
}

// Query lista relacionamentos pelo filtro.
func (s *RelationshipService) Query(ctx context.Context, filter domain.RelationshipFilter) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindByFilter(ctx, filter)
}

// GetAllForEntity devolve os dois lados das relações de uma entidade.
func (s *RelationshipService) GetAllForEntity(ctx context.Context, id string, entityType entities.EntityType) (*domain.EntityRelationships, error) {
	return s.relationshipRepo.FindAllForEntity(ctx, id, entityType)
}

// GetStatistics devolve contagens por tipo.
func (s *RelationshipService) GetStatistics(ctx context.Context) (*domain.RelationshipStatistics, error) {
	return s.relationshipRepo.GetStatistics(ctx)
}
