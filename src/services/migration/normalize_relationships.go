package migration

import (
	"context"
	"encoding/json"
	"fmt"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/domain/measurements"
)

// Fase B: o bloco de medição de cada relacionamento é recomputado pela
// inferência da migração, com o default escolhido pela entidade referenciada:
// tracking.measurement para purchase_item e product_material,
// price.measurement para sale_item. purchase_asset não carrega medição e é
// pulado.

// NormalizeRelationship normaliza um único relacionamento.
func (s *MigrationService) NormalizeRelationship(ctx context.Context, id string) (*entities.Relationship, error) {
	relRepo := s.factory.RelationshipRepository()

	rel, err := relRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, domain.NotFoundf("relationship %s", id)
	}

	changed, err := s.renormalizeMeasurements(ctx, rel)
	if err != nil {
		return nil, err
	}
	if !changed {
		return rel, nil
	}

	return relRepo.Update(ctx, rel)
}

// NormalizeAllRelationships roda a fase B sobre todos os relacionamentos.
func (s *MigrationService) NormalizeAllRelationships(ctx context.Context) (*PhaseReport, error) {
	relRepo := s.factory.RelationshipRepository()

	rels, err := relRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &PhaseReport{Errors: []string{}}
	for _, rel := range rels {
		report.Processed++

		changed, err := s.renormalizeMeasurements(ctx, rel)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("relationship %s: %v", rel.ID, err))
			continue
		}
		if !changed {
			report.Skipped++
			continue
		}

		if _, err := relRepo.Update(ctx, rel); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("relationship %s: %v", rel.ID, err))
			continue
		}
		report.Updated++
	}

	return report, nil
}

// renormalizeMeasurements recomputa o bloco in-place e diz se houve mudança.
func (s *MigrationService) renormalizeMeasurements(ctx context.Context, rel *entities.Relationship) (bool, error) {
	var def entities.Measurement

	switch rel.RelationshipType {
	case entities.RelPurchaseItem, entities.RelProductMaterial:
		item, err := s.findEntity(ctx, entities.EntityTypeItem, rel.SecondaryID)
		if err != nil {
			return false, err
		}
		def = measurementFromItem(item, "tracking")
	case entities.RelSaleItem:
		item, err := s.findEntity(ctx, entities.EntityTypeItem, rel.SecondaryID)
		if err != nil {
			return false, err
		}
		def = measurementFromItem(item, "price")
		if def == "" {
			def = measurementFromItem(item, "tracking")
		}
	case entities.RelDerived:
		def = rel.Measurements.Measurement
	default:
		// purchase_asset não carrega medição.
		return false, nil
	}

	if def == "" {
		def = entities.MeasurementQuantity
	}

	block := measurements.CreateConfig(measurements.BlockToDocument(rel.Measurements), def)
	if sameBlock(rel.Measurements, block) {
		return false, nil
	}

	rel.Measurements = block
	return true, nil
}

// sameBlock compara pelo JSON canônico; os campos de eixo são ponteiros e a
// comparação direta olharia endereços.
func sameBlock(a, b entities.MeasurementBlock) bool {
	rawA, errA := json.Marshal(a)
	rawB, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(rawA) == string(rawB)
}

// findEntity busca uma entidade sem transformar miss em erro.
func (s *MigrationService) findEntity(ctx context.Context, entityType entities.EntityType, id string) (*entities.Entity, error) {
	repo, err := s.factory.EntityRepository(entityType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	return repo.FindByID(ctx, id)
}

// measurementFromItem lê o discriminador de um bloco do item (tracking ou
// price); devolve vazio quando o item ou o bloco não existem.
func measurementFromItem(item *entities.Entity, block string) entities.Measurement {
	if item == nil {
		return ""
	}
	if m, ok := docMeasurement(item.DocProp(block)); ok {
		return m
	}
	return ""
}
