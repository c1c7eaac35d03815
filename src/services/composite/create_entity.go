package composite

import (
	"context"
	"fmt"
	"strings"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

// CreateEntityWithRelationships persiste a entidade e, na mesma transação,
// gera os relacionamentos descritos pelos campos conhecidos do payload
// (items, components, derivedFrom, assets). Qualquer falha desfaz tudo.
func (s *CompositeService) CreateEntityWithRelationships(ctx context.Context, rawType string, entityData entities.Document) (*domain.CompositeResult, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}
	repo, err := s.entityRepo(entityType)
	if err != nil {
		return nil, err
	}

	var result *domain.CompositeResult
	err = s.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		entity, err := repo.Create(txCtx, entityData)
		if err != nil {
			return err
		}

		switch strings.ToLower(string(entityType)) {
		case "sale":
			err = s.createSaleRelationships(txCtx, entity)
		case "purchase":
			err = s.createPurchaseRelationships(txCtx, entity)
		case "item":
			err = s.createItemRelationships(txCtx, entity)
		}
		if err != nil {
			return err
		}

		rels, err := s.relationships.GetAllForEntity(txCtx, entity.ID, entity.Type)
		if err != nil {
			return err
		}

		result = &domain.CompositeResult{Entity: entity, Relationships: *rels}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("entity.created", result.Entity.ID, string(result.Entity.Type), result.Entity)
	return result, nil
}

// createSaleRelationships emite um sale_item por item vendido e baixa o
// estoque do item quando aplicável.
func (s *CompositeService) createSaleRelationships(ctx context.Context, sale *entities.Entity) error {
	saleDate := sale.StringProp("saleDate")

	for _, raw := range sale.SliceProp("items") {
		line := entities.AsDocument(raw)
		itemID, _ := line["itemId"].(string)
		if itemID == "" {
			continue
		}

		quantity := 1.0
		if q, ok := entities.AsFloat(line["quantity"]); ok {
			quantity = q
		}

		measurements := entities.Document{"quantity": quantity}
		if w, ok := line["weight"]; ok {
			measurements["weight"] = w
		}
		copyDimensions(line, measurements)

		attributes := entities.Document{
			"saleDate":       saleDate,
			"unitPrice":      line["unitPrice"],
			"totalPrice":     line["totalPrice"],
			"discountAmount": 0,
		}
		if d, ok := entities.AsFloat(line["discountAmount"]); ok {
			attributes["discountAmount"] = d
		}

		if _, err := s.relationships.CreateSaleItem(ctx, sale.ID, itemID, measurements, attributes); err != nil {
			return err
		}

		if err := s.decrementInventory(ctx, line, itemID, quantity); err != nil {
			return err
		}
	}

	return nil
}

// decrementInventory baixa inventoryQuantity do item vendido, com piso em
// zero. updateInventory === false na linha da venda, ou isInventoryItem ===
// false no item, pulam a baixa.
func (s *CompositeService) decrementInventory(ctx context.Context, line entities.Document, itemID string, quantity float64) error {
	if flag, ok := line["updateInventory"].(bool); ok && !flag {
		return nil
	}

	itemRepo, err := s.entityRepo(entities.EntityTypeItem)
	if err != nil {
		return err
	}
	item, err := itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.NotFoundf("%s %s", entities.EntityTypeItem, itemID)
	}

	if flag, ok := item.Prop("isInventoryItem"); ok {
		if b, isBool := flag.(bool); isBool && !b {
			return nil
		}
	}

	current, _ := item.FloatProp("inventoryQuantity")
	next := current - quantity
	if next < 0 {
		next = 0
	}

	_, err = itemRepo.Update(ctx, itemID, entities.Document{
		"inventoryQuantity": next,
		"updatedAt":         nowUTC(),
	})
	return err
}

// createPurchaseRelationships emite um purchase_item por item comprado e, na
// segunda passada, cria os ativos das linhas purchaseType=asset quando o
// recebimento já aconteceu.
func (s *CompositeService) createPurchaseRelationships(ctx context.Context, purchase *entities.Entity) error {
	purchaseDate := purchase.StringProp("purchaseDate")
	lines := purchase.SliceProp("items")

	for _, raw := range lines {
		line := entities.AsDocument(raw)
		itemID, _ := line["itemId"].(string)
		if itemID == "" {
			continue
		}

		quantity := 1.0
		if q, ok := entities.AsFloat(line["quantity"]); ok {
			quantity = q
		}

		measurements := entities.Document{"quantity": quantity}
		if w, ok := line["weight"]; ok {
			measurements["weight"] = w
		}
		copyDimensions(line, measurements)

		attributes := entities.Document{
			"purchaseDate": purchaseDate,
			"unitPrice":    line["unitPrice"],
			"totalPrice":   line["totalPrice"],
			"purchaseType": purchaseTypeOf(line),
		}
		if assetInfo := entities.AsDocument(line["assetInfo"]); assetInfo != nil {
			attributes["assetInfo"] = assetInfo
		}

		if _, err := s.relationships.CreatePurchaseItem(ctx, purchase.ID, itemID, measurements, attributes); err != nil {
			return err
		}
	}

	// Auto-criação de ativos só depois do recebimento.
	if purchase.StringProp("receivingStatus") == "received" {
		for _, raw := range lines {
			line := entities.AsDocument(raw)
			itemID, _ := line["itemId"].(string)
			if itemID == "" || purchaseTypeOf(line) != "asset" {
				continue
			}
			if err := s.createAssetFromPurchaseLine(ctx, purchase, line, itemID); err != nil {
				return err
			}
		}
	}

	// Ativos já existentes referenciados direto no payload.
	for _, raw := range purchase.SliceProp("assets") {
		ref := entities.AsDocument(raw)
		assetID, _ := ref["assetId"].(string)
		if assetID == "" {
			continue
		}

		attributes := entities.Document{"purchaseDate": purchaseDate}
		if p, ok := entities.AsFloat(ref["purchasePrice"]); ok {
			attributes["purchasePrice"] = p
		}

		if _, err := s.relationships.CreatePurchaseAsset(ctx, purchase.ID, assetID, attributes); err != nil {
			return err
		}
	}

	return nil
}

// createAssetFromPurchaseLine materializa o ativo de uma linha de compra e o
// relacionamento purchase_asset que aponta para ele.
func (s *CompositeService) createAssetFromPurchaseLine(ctx context.Context, purchase *entities.Entity, line entities.Document, itemID string) error {
	assetRepo, err := s.entityRepo(entities.EntityTypeAsset)
	if err != nil {
		return err
	}

	assetInfo := entities.AsDocument(line["assetInfo"])
	totalPrice := 0.0
	if p, ok := entities.AsFloat(line["totalPrice"]); ok {
		totalPrice = p
	}
	quantity := 1.0
	if q, ok := entities.AsFloat(line["quantity"]); ok {
		quantity = q
	}

	name, _ := assetInfo["name"].(string)
	if name == "" {
		name, _ = line["name"].(string)
	}
	category, _ := assetInfo["category"].(string)
	if category == "" {
		category = "Equipment"
	}

	assetDoc := entities.Document{
		"name":            name,
		"category":        category,
		"initialCost":     totalPrice,
		"currentValue":    totalPrice,
		"status":          "active",
		"isInventoryItem": false,
		"purchaseDate":    purchase.StringProp("purchaseDate"),
		"notes":           fmt.Sprintf("Auto-created from purchase %s", purchase.ID),
	}
	for k, v := range assetInfo {
		if k == "name" || k == "category" {
			continue
		}
		assetDoc[k] = v
	}

	asset, err := assetRepo.Create(ctx, assetDoc)
	if err != nil {
		return err
	}

	_, err = s.relationships.CreatePurchaseAsset(ctx, purchase.ID, asset.ID, entities.Document{
		"purchaseDate":  purchase.StringProp("purchaseDate"),
		"purchasePrice": totalPrice,
		"itemId":        itemID,
		"quantity":      quantity,
	})
	return err
}

// createItemRelationships emite product_material por componente e derived
// quando o item declara a origem.
func (s *CompositeService) createItemRelationships(ctx context.Context, item *entities.Entity) error {
	for _, raw := range item.SliceProp("components") {
		component := entities.AsDocument(raw)
		materialID, _ := component["materialId"].(string)
		if materialID == "" {
			continue
		}

		quantity := 1.0
		if q, ok := entities.AsFloat(component["quantity"]); ok {
			quantity = q
		}
		measurements := entities.Document{"quantity": quantity}
		if m, ok := component["measurement"].(string); ok {
			measurements["measurement"] = m
		}
		if u, ok := component["unit"].(string); ok {
			measurements["unit"] = u
		}

		if _, err := s.relationships.CreateProductMaterial(ctx, item.ID, materialID, measurements, nil); err != nil {
			return err
		}
	}

	derivedFrom := item.DocProp("derivedFrom")
	if derivedFrom != nil {
		sourceID, _ := derivedFrom["itemId"].(string)
		if sourceID != "" {
			quantity := 1.0
			if q, ok := entities.AsFloat(derivedFrom["quantity"]); ok {
				quantity = q
			}
			measurements := entities.Document{"quantity": quantity}
			if r, ok := entities.AsFloat(derivedFrom["conversionRatio"]); ok {
				measurements["conversionRatio"] = r
			}

			if _, err := s.relationships.CreateDerivedItem(ctx, item.ID, sourceID, measurements, nil); err != nil {
				return err
			}
		}
	}

	return nil
}

func purchaseTypeOf(line entities.Document) string {
	pt, _ := line["purchaseType"].(string)
	switch pt {
	case "asset", "inventory", "expense", "service", "untracked":
		return pt
	}
	return "inventory"
}

// copyDimensions achata o sub-documento dimensions nos eixos paralelos do
// bloco de medição.
func copyDimensions(line entities.Document, measurements entities.Document) {
	dimensions := entities.AsDocument(line["dimensions"])
	if dimensions == nil {
		return
	}
	for _, axis := range []string{"length", "area", "volume", "lengthUnit", "areaUnit", "volumeUnit"} {
		if v, ok := dimensions[axis]; ok {
			measurements[axis] = v
		}
	}
}
