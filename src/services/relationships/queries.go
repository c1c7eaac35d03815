package relationships

import (
	"context"

	"stockgraph/src/domain/entities"
)

// Consultas de forma fixa sobre o grafo. Cada uma é só uma projeção do
// FindByPrimary/FindBySecondary com tipo amarrado.

// GetProductComponents devolve os materiais que compõem um produto.
func (s *RelationshipService) GetProductComponents(ctx context.Context, productID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindByPrimary(ctx, productID, entities.EntityTypeItem, entities.RelProductMaterial)
}

// GetProductsUsingMaterial devolve os produtos que usam um material.
func (s *RelationshipService) GetProductsUsingMaterial(ctx context.Context, materialID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindBySecondary(ctx, materialID, entities.EntityTypeItem, entities.RelProductMaterial)
}

// GetDerivedSource devolve a origem de um item derivado, ou nil quando o item
// não deriva de ninguém.
func (s *RelationshipService) GetDerivedSource(ctx context.Context, derivedID string) (*entities.Relationship, error) {
	rels, err := s.relationshipRepo.FindByPrimary(ctx, derivedID, entities.EntityTypeItem, entities.RelDerived)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return rels[0], nil
}

// GetDerivedItems devolve os itens derivados de uma origem.
func (s *RelationshipService) GetDerivedItems(ctx context.Context, sourceID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindBySecondary(ctx, sourceID, entities.EntityTypeItem, entities.RelDerived)
}

// GetPurchaseItems devolve os itens de uma compra.
func (s *RelationshipService) GetPurchaseItems(ctx context.Context, purchaseID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindByPrimary(ctx, purchaseID, entities.EntityTypePurchase, entities.RelPurchaseItem)
}

// GetPurchaseAssets devolve os ativos originados por uma compra.
func (s *RelationshipService) GetPurchaseAssets(ctx context.Context, purchaseID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindByPrimary(ctx, purchaseID, entities.EntityTypePurchase, entities.RelPurchaseAsset)
}

// GetItemPurchaseHistory devolve as compras que incluíram um item.
func (s *RelationshipService) GetItemPurchaseHistory(ctx context.Context, itemID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindBySecondary(ctx, itemID, entities.EntityTypeItem, entities.RelPurchaseItem)
}

// GetSaleItems devolve os itens de uma venda.
func (s *RelationshipService) GetSaleItems(ctx context.Context, saleID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindByPrimary(ctx, saleID, entities.EntityTypeSale, entities.RelSaleItem)
}

// GetItemSaleHistory devolve as vendas que incluíram um item.
func (s *RelationshipService) GetItemSaleHistory(ctx context.Context, itemID string) ([]*entities.Relationship, error) {
	return s.relationshipRepo.FindBySecondary(ctx, itemID, entities.EntityTypeItem, entities.RelSaleItem)
}
