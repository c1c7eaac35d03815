package test_seeder

import (
	"context"
	"encoding/json"

	"stockgraph/src/domain/entities"
)

// SelectEntitiesByType retrieves all entities of a given type
func (ts TestSeeder) SelectEntitiesByType(ctx context.Context, entityType entities.EntityType) ([]entities.Entity, error) {
	query := `SELECT id, type, properties, created_at, updated_at
			  FROM entities WHERE type = $1 ORDER BY created_at`

	rows, err := ts.pool.Query(ctx, query, string(entityType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entitiesList []entities.Entity
	for rows.Next() {
		var (
			entity    entities.Entity
			entType   string
			propsJSON []byte
		)
		if err := rows.Scan(&entity.ID, &entType, &propsJSON, &entity.CreatedAt, &entity.UpdatedAt); err != nil {
			return nil, err
		}
		entity.Type = entities.EntityType(entType)
		if len(propsJSON) > 0 {
			if err := json.Unmarshal(propsJSON, &entity.Properties); err != nil {
				return nil, err
			}
		}
		entitiesList = append(entitiesList, entity)
	}

	return entitiesList, rows.Err()
}

// SelectRelationshipsByEntityID retrieves all relationships where the entity
// appears on either side
func (ts TestSeeder) SelectRelationshipsByEntityID(ctx context.Context, entityID string) ([]entities.Relationship, error) {
	query := `SELECT id, primary_id, primary_type, secondary_id, secondary_type, relationship_type,
					 measurements, attributes, metadata, created_at, updated_at
			  FROM relationships
			  WHERE primary_id = $1 OR secondary_id = $1
			  ORDER BY created_at`

	rows, err := ts.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []entities.Relationship
	for rows.Next() {
		var (
			rel              entities.Relationship
			primaryType      string
			secondaryType    string
			relationshipType string
			measurementsJSON []byte
			attributesJSON   []byte
			metadataJSON     []byte
		)
		if err := rows.Scan(
			&rel.ID, &rel.PrimaryID, &primaryType,
			&rel.SecondaryID, &secondaryType, &relationshipType,
			&measurementsJSON, &attributesJSON, &metadataJSON,
			&rel.CreatedAt, &rel.UpdatedAt,
		); err != nil {
			return nil, err
		}

		rel.PrimaryType = entities.EntityType(primaryType)
		rel.SecondaryType = entities.EntityType(secondaryType)
		rel.RelationshipType = entities.RelationshipType(relationshipType)

		if len(measurementsJSON) > 0 {
			if err := json.Unmarshal(measurementsJSON, &rel.Measurements); err != nil {
				return nil, err
			}
		}
		if len(attributesJSON) > 0 {
			var attrs entities.Document
			if err := json.Unmarshal(attributesJSON, &attrs); err != nil {
				return nil, err
			}
			rel.SetAttributes(attrs)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rel.Metadata); err != nil {
				return nil, err
			}
		}

		rels = append(rels, rel)
	}

	return rels, rows.Err()
}
