package relationships

import (
	"context"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/domain/measurements"
)

// Update aplica merge raso do patch sobre o registro. Mudança em qualquer
// campo da quíntupla revalida a combinação e as pontas afetadas.
func (s *RelationshipService) Update(ctx context.Context, id string, patch domain.RelationshipPatch) (*entities.Relationship, error) {
	var updated *entities.Relationship

	err := s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.relationshipRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.NotFoundf("relationship %s", id)
		}

		merged := *current
		tupleChanged, err := applyPatch(&merged, patch)
		if err != nil {
			return err
		}

		if tupleChanged {
			if err := domain.ValidateCombination(merged.RelationshipType, merged.PrimaryType, merged.SecondaryType); err != nil {
				return err
			}
			if err := s.verifyEndpoints(txCtx, &merged); err != nil {
				return err
			}
		}

		if domain.RequiresMeasurement(merged.RelationshipType) && !merged.Measurements.HasNonZeroValue() {
			return domain.Validationf("relationship %q requires a non-zero measurement", merged.RelationshipType)
		}

		persisted, err := s.relationshipRepo.Update(txCtx, &merged)
		if err != nil {
			return err
		}
		updated = persisted
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// applyPatch devolve se algum campo da quíntupla mudou.
func applyPatch(rel *entities.Relationship, patch domain.RelationshipPatch) (bool, error) {
	tupleChanged := false

	if patch.PrimaryID != nil && *patch.PrimaryID != rel.PrimaryID {
		rel.PrimaryID = *patch.PrimaryID
		tupleChanged = true
	}
	if patch.PrimaryType != nil {
		t, err := entities.ParseEntityType(*patch.PrimaryType)
		if err != nil {
			return false, domain.Validationf("%v", err)
		}
		if t != rel.PrimaryType {
			rel.PrimaryType = t
			tupleChanged = true
		}
	}
	if patch.SecondaryID != nil && *patch.SecondaryID != rel.SecondaryID {
		rel.SecondaryID = *patch.SecondaryID
		tupleChanged = true
	}
	if patch.SecondaryType != nil {
		t, err := entities.ParseEntityType(*patch.SecondaryType)
		if err != nil {
			return false, domain.Validationf("%v", err)
		}
		if t != rel.SecondaryType {
			rel.SecondaryType = t
			tupleChanged = true
		}
	}

	if patch.RelationshipType != nil {
		relType, err := entities.ParseRelationshipType(*patch.RelationshipType)
		if err != nil {
			return false, domain.Validationf("%v", err)
		}
		if relType != rel.RelationshipType {
			// O bloco de atributos segue o tipo: move para o novo slot.
			attrs := rel.Attributes()
			rel.SetAttributes(nil)
			rel.RelationshipType = relType
			rel.SetAttributes(attrs)
			tupleChanged = true
		}
	}

	if patch.Measurements != nil {
		rel.Measurements = measurements.Normalize(patch.Measurements, rel.Measurements.Measurement)
	}
	if patch.Attributes != nil {
		rel.SetAttributes(patch.Attributes)
	}
	if patch.Metadata != nil {
		rel.Metadata = patch.Metadata
	}

	return tupleChanged, nil
}
