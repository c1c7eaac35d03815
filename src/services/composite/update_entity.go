package composite

import (
	"context"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

// UpdateEntityWithRelationships aplica o patch na entidade e relê os dois
// lados das relações. Não mexe nos relacionamentos: mudanças neles passam
// pelo Replace do motor.
func (s *CompositeService) UpdateEntityWithRelationships(ctx context.Context, rawType, id string, patch entities.Document) (*domain.CompositeResult, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	repo, err := s.entityRepo(entityType)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, domain.Validationf("update requires a non-empty patch")
	}

	var result *domain.CompositeResult
	err = s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		entity, err := repo.Update(txCtx, id, patch)
		if err != nil {
			return err
		}

		rels, err := s.relationships.GetAllForEntity(txCtx, entity.ID, entity.Type)
		if err != nil {
			return err
		}

		result = &domain.CompositeResult{Entity: entity, Relationships: *rels}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("entity.updated", result.Entity.ID, string(result.Entity.Type), result.Entity)
	return result, nil
}
