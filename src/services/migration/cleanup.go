package migration

import (
	"context"
	"fmt"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"
)

// Fase D: remoção crua dos campos embutidos legados, para que fiquem
// ausentes e não nulos. Entidade sem nenhum dos campos conta como skipped,
// então uma segunda passada processa tudo de novo sem remover nada.

var cleanupFields = map[entities.EntityType][]string{
	entities.EntityTypeItem: {
		"components", "derivedFrom", "derivedQuantity",
		"conversionRatio", "derivedItems", "usedInProducts",
	},
	entities.EntityTypePurchase: {"items"},
	entities.EntityTypeSale:     {"items"},
}

// CleanupEntity limpa os campos legados de uma entidade. Devolve se algo foi
// removido.
func (s *MigrationService) CleanupEntity(ctx context.Context, rawType, id string) (bool, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return false, domain.Validationf("%v", err)
	}
	fields, ok := cleanupFields[entityType]
	if !ok {
		return false, domain.Validationf("entity type %s has no embedded fields to clean", entityType)
	}

	repo, err := s.factory.EntityRepository(entityType)
	if err != nil {
		return false, domain.Validationf("%v", err)
	}

	entity, err := repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if entity == nil {
		return false, domain.NotFoundf("%s %s", entityType, id)
	}

	return s.cleanupOne(ctx, repo, entity, fields)
}

// CleanupEntityType limpa todas as entidades de um tipo.
func (s *MigrationService) CleanupEntityType(ctx context.Context, rawType string) (*CleanupReport, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	fields, ok := cleanupFields[entityType]
	if !ok {
		return nil, domain.Validationf("entity type %s has no embedded fields to clean", entityType)
	}

	repo, err := s.factory.EntityRepository(entityType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &CleanupReport{Errors: []string{}}
	for _, entity := range all {
		report.Processed++

		removed, err := s.cleanupOne(ctx, repo, entity, fields)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", entityType, entity.ID, err))
			continue
		}
		if !removed {
			report.Skipped++
			continue
		}
		report.Success++
	}

	return report, nil
}

// CleanupAll limpa itens, compras e vendas.
func (s *MigrationService) CleanupAll(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{Errors: []string{}}

	for _, entityType := range []entities.EntityType{
		entities.EntityTypeItem,
		entities.EntityTypePurchase,
		entities.EntityTypeSale,
	} {
		partial, err := s.CleanupEntityType(ctx, string(entityType))
		if err != nil {
			return nil, err
		}
		report.merge(partial)
	}

	return report, nil
}

func (s *MigrationService) cleanupOne(ctx context.Context, repo repositories.EntityRepository, entity *entities.Entity, fields []string) (bool, error) {
	var present []string
	for _, field := range fields {
		if _, ok := entity.Prop(field); ok {
			present = append(present, field)
		}
	}
	if len(present) == 0 {
		return false, nil
	}

	_, err := repo.UpdateRaw(ctx, entity.ID, repositories.RawUpdate{Unset: present})
	if err != nil {
		return false, err
	}
	return true, nil
}
