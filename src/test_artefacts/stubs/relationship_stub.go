package stubs

import (
	"time"

	"stockgraph/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type RelationshipStub struct {
	rel entities.Relationship
}

func NewRelationshipStub() RelationshipStub {
	now := time.Now().UTC()

	rel := entities.Relationship{
		ID:               gofakeit.UUID(),
		PrimaryID:        gofakeit.UUID(),
		PrimaryType:      entities.EntityTypeItem,
		SecondaryID:      gofakeit.UUID(),
		SecondaryType:    entities.EntityTypeItem,
		RelationshipType: entities.RelProductMaterial,
		Measurements: entities.MeasurementBlock{
			Measurement: entities.MeasurementQuantity,
			Amount:      float64(gofakeit.Number(1, 20)),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return RelationshipStub{rel: rel}
}

func (rs RelationshipStub) WithPrimary(id string, entityType entities.EntityType) RelationshipStub {
	rs.rel.PrimaryID = id
	rs.rel.PrimaryType = entityType
	return rs
}

func (rs RelationshipStub) WithSecondary(id string, entityType entities.EntityType) RelationshipStub {
	rs.rel.SecondaryID = id
	rs.rel.SecondaryType = entityType
	return rs
}

func (rs RelationshipStub) WithType(relType entities.RelationshipType) RelationshipStub {
	rs.rel.RelationshipType = relType
	return rs
}

func (rs RelationshipStub) WithMeasurements(block entities.MeasurementBlock) RelationshipStub {
	rs.rel.Measurements = block
	return rs
}

func (rs RelationshipStub) WithAttributes(attrs entities.Document) RelationshipStub {
	rs.rel.SetAttributes(attrs)
	return rs
}

func (rs RelationshipStub) WithMetadata(metadata entities.Document) RelationshipStub {
	rs.rel.Metadata = metadata
	return rs
}

func (rs RelationshipStub) Get() entities.Relationship {
	return rs.rel
}
