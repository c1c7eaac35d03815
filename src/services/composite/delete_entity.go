package composite

import (
	"context"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

// DeleteEntityWithRelationships apaga a entidade e, em cascata, as relações
// onde ela aparece de qualquer lado. Uma transação só.
func (s *CompositeService) DeleteEntityWithRelationships(ctx context.Context, rawType, id string) error {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return domain.Validationf("%v", err)
	}
	repo, err := s.entityRepo(entityType)
	if err != nil {
		return err
	}

	err = s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		entity, err := repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if entity == nil {
			return domain.NotFoundf("%s %s", entityType, id)
		}

		// Cascata por filtro: zero removidos é sucesso.
		relRepo := s.factory.RelationshipRepository()
		if _, err := relRepo.DeleteMany(txCtx, domain.RelationshipFilter{
			PrimaryID:   id,
			PrimaryType: string(entityType),
		}); err != nil {
			return err
		}
		if _, err := relRepo.DeleteMany(txCtx, domain.RelationshipFilter{
			SecondaryID:   id,
			SecondaryType: string(entityType),
		}); err != nil {
			return err
		}

		return repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.events.Publish("entity.deleted", id, string(entityType), nil)
	return nil
}
