package relationships

import (
	"context"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

// BulkCreate cria a lista inteira sob uma transação; qualquer falha desfaz
// tudo.
func (s *RelationshipService) BulkCreate(ctx context.Context, reqs []domain.CreateRelationshipRequest) ([]*entities.Relationship, error) {
	if len(reqs) == 0 {
		return nil, domain.Validationf("bulk create requires at least one relationship")
	}

	var created []*entities.Relationship
	err := s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		for _, req := range reqs {
			rel, err := s.Create(txCtx, req)
			if err != nil {
				return err
			}
			created = append(created, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Replace troca atomicamente o conjunto de relacionamentos de um tipo
// ancorado em um lado da entidade: apaga por filtro e cria a lista nova na
// mesma transação.
func (s *RelationshipService) Replace(
	ctx context.Context,
	entityID string,
	entityType entities.EntityType,
	relType entities.RelationshipType,
	newList []domain.CreateRelationshipRequest,
	side domain.ReplaceSide,
) (*domain.ReplaceResult, error) {
	if entityID == "" {
		return nil, domain.Validationf("entity id is required")
	}

	filter := domain.RelationshipFilter{RelationshipType: string(relType)}
	switch side {
	case domain.SidePrimary:
		filter.PrimaryID = entityID
		filter.PrimaryType = string(entityType)
	case domain.SideSecondary:
		filter.SecondaryID = entityID
		filter.SecondaryType = string(entityType)
	default:
		return nil, domain.Validationf("side must be %q or %q", domain.SidePrimary, domain.SideSecondary)
	}

	result := &domain.ReplaceResult{}
	err := s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		deleted, err := s.relationshipRepo.DeleteMany(txCtx, filter)
		if err != nil {
			return err
		}
		result.Deleted = deleted

		for _, req := range newList {
			if _, err := s.Create(txCtx, req); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
