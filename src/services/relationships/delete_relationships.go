package relationships

import (
	"context"

	"stockgraph/src/domain"
)

// Delete remove um relacionamento pelo id. Ausente é ErrNotFound: o caminho
// de cascata não passa por aqui, usa BulkDelete por filtro (idempotente por
// natureza).
func (s *RelationshipService) Delete(ctx context.Context, id string) error {
	err := s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.relationshipRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	if !s.runner.InTransaction(ctx) {
		s.events.Publish("relationship.deleted", id, "", nil)
	}
	return nil
}

// BulkDelete remove todos os relacionamentos do filtro sob uma transação e
// devolve a contagem. Zero removidos é sucesso.
func (s *RelationshipService) BulkDelete(ctx context.Context, filter domain.RelationshipFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, domain.Validationf("bulk delete requires at least one filter field")
	}

	var deleted int
	err := s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		count, err := s.relationshipRepo.DeleteMany(txCtx, filter)
		if err != nil {
			return err
		}
		deleted = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
