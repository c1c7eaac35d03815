package test_seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"stockgraph/src/domain/entities"
)

// InsertEntity inserts an entity into the database for testing
func (ts TestSeeder) InsertEntity(ctx context.Context, entity *entities.Entity) {
	propsJSON, err := json.Marshal(entity.Properties)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertEntity marshal failed: %v", err))
	}

	query := `
		INSERT INTO entities (id, type, properties, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)`

	_, err = ts.pool.Exec(ctx, query,
		entity.ID,
		string(entity.Type),
		string(propsJSON),
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertEntity failed: %v", err))
	}
}

// InsertRelationship inserts a relationship record into the database for testing
func (ts TestSeeder) InsertRelationship(ctx context.Context, rel *entities.Relationship) {
	measurementsJSON, err := json.Marshal(rel.Measurements)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship marshal failed: %v", err))
	}
	attributesJSON, err := json.Marshal(rel.Attributes())
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship marshal failed: %v", err))
	}
	metadataJSON, err := json.Marshal(rel.Metadata)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship marshal failed: %v", err))
	}

	query := `
		INSERT INTO relationships
		(id, primary_id, primary_type, secondary_id, secondary_type, relationship_type,
		 measurements, attributes, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10, $11)`

	_, err = ts.pool.Exec(ctx, query,
		rel.ID,
		rel.PrimaryID,
		string(rel.PrimaryType),
		rel.SecondaryID,
		string(rel.SecondaryType),
		string(rel.RelationshipType),
		string(measurementsJSON),
		string(attributesJSON),
		string(metadataJSON),
		rel.CreatedAt,
		rel.UpdatedAt,
	)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship failed: %v", err))
	}
}
