package relationships

import (
	"context"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

// Construtores tipados: fixam os tipos da quíntupla e deixam o Create
// genérico cuidar de validação, normalização e persistência.

// CreateProductMaterial liga um produto (primário) ao material que o compõe
// (secundário).
func (s *RelationshipService) CreateProductMaterial(ctx context.Context, productID, materialID string, measurements, attributes entities.Document) (*entities.Relationship, error) {
	return s.Create(ctx, domain.CreateRelationshipRequest{
		PrimaryID:        productID,
		PrimaryType:      string(entities.EntityTypeItem),
		SecondaryID:      materialID,
		SecondaryType:    string(entities.EntityTypeItem),
		RelationshipType: string(entities.RelProductMaterial),
		Measurements:     measurements,
		Attributes:       attributes,
	})
}

// CreateDerivedItem liga um item derivado (primário) ao item de origem
// (secundário).
func (s *RelationshipService) CreateDerivedItem(ctx context.Context, derivedID, sourceID string, measurements, attributes entities.Document) (*entities.Relationship, error) {
	return s.Create(ctx, domain.CreateRelationshipRequest{
		PrimaryID:        derivedID,
		PrimaryType:      string(entities.EntityTypeItem),
		SecondaryID:      sourceID,
		SecondaryType:    string(entities.EntityTypeItem),
		RelationshipType: string(entities.RelDerived),
		Measurements:     measurements,
		Attributes:       attributes,
	})
}

// CreatePurchaseItem liga uma compra ao item comprado.
func (s *RelationshipService) CreatePurchaseItem(ctx context.Context, purchaseID, itemID string, measurements, attributes entities.Document) (*entities.Relationship, error) {
	return s.Create(ctx, domain.CreateRelationshipRequest{
		PrimaryID:        purchaseID,
		PrimaryType:      string(entities.EntityTypePurchase),
		SecondaryID:      itemID,
		SecondaryType:    string(entities.EntityTypeItem),
		RelationshipType: string(entities.RelPurchaseItem),
		Measurements:     measurements,
		Attributes:       attributes,
	})
}

// CreatePurchaseAsset liga uma compra ao ativo que ela originou. Única
// combinação que dispensa medição não-nula.
func (s *RelationshipService) CreatePurchaseAsset(ctx context.Context, purchaseID, assetID string, attributes entities.Document) (*entities.Relationship, error) {
	return s.Create(ctx, domain.CreateRelationshipRequest{
		PrimaryID:        purchaseID,
		PrimaryType:      string(entities.EntityTypePurchase),
		SecondaryID:      assetID,
		SecondaryType:    string(entities.EntityTypeAsset),
		RelationshipType: string(entities.RelPurchaseAsset),
		Attributes:       attributes,
	})
}

// CreateSaleItem liga uma venda ao item vendido.
func (s *RelationshipService) CreateSaleItem(ctx context.Context, saleID, itemID string, measurements, attributes entities.Document) (*entities.Relationship, error) {
	return s.Create(ctx, domain.CreateRelationshipRequest{
		PrimaryID:        saleID,
		PrimaryType:      string(entities.EntityTypeSale),
		SecondaryID:      itemID,
		SecondaryType:    string(entities.EntityTypeItem),
		RelationshipType: string(entities.RelSaleItem),
		Measurements:     measurements,
		Attributes:       attributes,
	})
}
