package migration

import (
	"context"
	"fmt"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/domain/measurements"
)

// Fase A: cada Item tem os blocos tracking, price e cost reescritos na forma
// canônica. price cai para selling e depois para tracking quando ausente;
// cost cai para tracking.

// NormalizeItem normaliza um único item. Ausente é ErrNotFound.
func (s *MigrationService) NormalizeItem(ctx context.Context, id string) (*entities.Entity, error) {
	repo, err := s.factory.EntityRepository(entities.EntityTypeItem)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}

	item, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFoundf("%s %s", entities.EntityTypeItem, id)
	}

	return repo.Update(ctx, id, itemNormalizationPatch(item))
}

// NormalizeAllItems roda a fase A sobre todos os itens. Falha individual não
// interrompe a varredura.
func (s *MigrationService) NormalizeAllItems(ctx context.Context) (*PhaseReport, error) {
	repo, err := s.factory.EntityRepository(entities.EntityTypeItem)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}

	items, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &PhaseReport{Errors: []string{}}
	for _, item := range items {
		report.Processed++
		if _, err := repo.Update(ctx, item.ID, itemNormalizationPatch(item)); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}
		report.Updated++
	}

	return report, nil
}

func itemNormalizationPatch(item *entities.Entity) entities.Document {
	tracking := item.DocProp("tracking")
	trackingDef := entities.MeasurementQuantity
	if m, ok := docMeasurement(tracking); ok {
		trackingDef = m
	}
	trackingBlock := measurements.Normalize(tracking, trackingDef)

	priceInput := firstDoc(item, "price", "selling", "tracking")
	priceBlock := measurements.Normalize(priceInput, trackingBlock.Measurement)

	costInput := firstDoc(item, "cost", "tracking")
	costBlock := measurements.Normalize(costInput, trackingBlock.Measurement)

	return entities.Document{
		"tracking": measurements.BlockToDocument(trackingBlock),
		"price":    measurements.BlockToDocument(priceBlock),
		"cost":     measurements.BlockToDocument(costBlock),
	}
}

// firstDoc devolve o primeiro sub-documento presente dentre as chaves.
func firstDoc(item *entities.Entity, keys ...string) entities.Document {
	for _, key := range keys {
		if doc := item.DocProp(key); doc != nil {
			return doc
		}
	}
	return nil
}
