package relationships

import (
	"context"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/domain/measurements"
)

// Create valida e persiste um relacionamento:
//  1. presença dos quatro ids/tipos;
//  2. combinação contra a tabela permitida;
//  3. normalização das medições;
//  4. roteamento dos atributos para o bloco do tipo;
//  5. existência das duas pontas;
//  6. persistência, onde colisão da quíntupla vira Conflict.
func (s *RelationshipService) Create(ctx context.Context, req domain.CreateRelationshipRequest) (*entities.Relationship, error) {
	rel, err := s.buildRelationship(req)
	if err != nil {
		return nil, err
	}

	var created *entities.Relationship
	err = s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.verifyEndpoints(txCtx, rel); err != nil {
			return err
		}

		persisted, err := s.relationshipRepo.Create(txCtx, rel)
		if err != nil {
			return err
		}
		created = persisted
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Só publica quando o commit foi deste frame; num frame aninhado o
	// desfecho ainda pertence ao chamador.
	if !s.runner.InTransaction(ctx) {
		s.events.Publish("relationship.created", created.ID, string(created.RelationshipType), created)
	}

	return created, nil
}

// buildRelationship cobre os passos de validação e normalização que não
// tocam o store.
func (s *RelationshipService) buildRelationship(req domain.CreateRelationshipRequest) (*entities.Relationship, error) {
	if req.PrimaryID == "" || req.PrimaryType == "" || req.SecondaryID == "" || req.SecondaryType == "" {
		return nil, domain.Validationf("primaryId, primaryType, secondaryId and secondaryType are required")
	}
	if req.RelationshipType == "" {
		return nil, domain.Validationf("relationshipType is required")
	}

	primaryType, err := entities.ParseEntityType(req.PrimaryType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	secondaryType, err := entities.ParseEntityType(req.SecondaryType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	relType, err := entities.ParseRelationshipType(req.RelationshipType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}

	if err := domain.ValidateCombination(relType, primaryType, secondaryType); err != nil {
		return nil, err
	}

	block := measurements.Normalize(req.Measurements, entities.MeasurementQuantity)
	if domain.RequiresMeasurement(relType) && !block.HasNonZeroValue() {
		return nil, domain.Validationf("relationship %q requires a non-zero measurement", relType)
	}

	rel := &entities.Relationship{
		PrimaryID:        req.PrimaryID,
		PrimaryType:      primaryType,
		SecondaryID:      req.SecondaryID,
		SecondaryType:    secondaryType,
		RelationshipType: relType,
		Measurements:     block,
		Metadata:         req.Metadata,
	}
	rel.SetAttributes(req.Attributes)

	return rel, nil
}

func (s *RelationshipService) verifyEndpoints(ctx context.Context, rel *entities.Relationship) error {
	exists, err := s.relationshipRepo.EntityExists(ctx, rel.PrimaryID, rel.PrimaryType)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFoundf("%s %s", rel.PrimaryType, rel.PrimaryID)
	}

	exists, err = s.relationshipRepo.EntityExists(ctx, rel.SecondaryID, rel.SecondaryType)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFoundf("%s %s", rel.SecondaryType, rel.SecondaryID)
	}

	return nil
}
