package migration

import (
	"context"
	"errors"
	"fmt"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/domain/measurements"
)

// Fase C: os arrays legados embutidos (components, derivedFrom, derivedItems
// nos itens; items nas compras e vendas) viram registros de relacionamento.
// Duplicata conta como skipped nos dois caminhos (consulta prévia e corrida
// no índice único), então a fase é re-executável.

// ConvertEntity despacha a conversão pelo tipo.
func (s *MigrationService) ConvertEntity(ctx context.Context, rawType, id string) (*ConversionReport, error) {
	entityType, err := entities.ParseEntityType(rawType)
	if err != nil {
		return nil, domain.Validationf("%v", err)
	}

	switch entityType {
	case entities.EntityTypeItem:
		return s.ConvertItem(ctx, id)
	case entities.EntityTypePurchase:
		return s.ConvertPurchase(ctx, id)
	case entities.EntityTypeSale:
		return s.ConvertSale(ctx, id)
	}
	return nil, domain.Validationf("entity type %s has no embedded relationships", entityType)
}

// ConvertAll converte os embutidos de todos os itens, compras e vendas.
func (s *MigrationService) ConvertAll(ctx context.Context) (*ConvertAllReport, error) {
	report := &ConvertAllReport{}

	if err := s.convertAllOfType(ctx, entities.EntityTypeItem, &report.Items, s.convertItemEmbedded); err != nil {
		return nil, err
	}
	if err := s.convertAllOfType(ctx, entities.EntityTypePurchase, &report.Purchases, s.convertPurchaseEmbedded); err != nil {
		return nil, err
	}
	if err := s.convertAllOfType(ctx, entities.EntityTypeSale, &report.Sales, s.convertSaleEmbedded); err != nil {
		return nil, err
	}

	report.computeTotals()
	return report, nil
}

func (s *MigrationService) convertAllOfType(
	ctx context.Context,
	entityType entities.EntityType,
	into *ConversionReport,
	convert func(context.Context, *entities.Entity) *ConversionReport,
) error {
	repo, err := s.factory.EntityRepository(entityType)
	if err != nil {
		return domain.Validationf("%v", err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}

	into.Errors = []string{}
	for _, entity := range all {
		into.merge(convert(ctx, entity))
	}
	return nil
}

// ConvertItem converte os embutidos de um item: components vira
// product_material; derivedFrom vira derived (item como primário);
// derivedItems vira derived com a direção invertida (o filho é o primário).
func (s *MigrationService) ConvertItem(ctx context.Context, id string) (*ConversionReport, error) {
	item, err := s.requireEntity(ctx, entities.EntityTypeItem, id)
	if err != nil {
		return nil, err
	}
	return s.convertItemEmbedded(ctx, item), nil
}

func (s *MigrationService) convertItemEmbedded(ctx context.Context, item *entities.Entity) *ConversionReport {
	report := &ConversionReport{Errors: []string{}}

	trackingDef := measurementFromItem(item, "tracking")
	if trackingDef == "" {
		trackingDef = entities.MeasurementQuantity
	}

	for _, raw := range item.SliceProp("components") {
		report.ProcessedItems++

		materialID := normalizeRef(raw)
		if materialID == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("components: unreadable reference %v", raw))
			continue
		}

		component := entities.AsDocument(raw)
		if component == nil {
			component = entities.Document{}
		}
		block := measurements.CreateConfig(ensureAmount(component), trackingDef)

		s.createRelationshipSafely(ctx, domain.CreateRelationshipRequest{
			PrimaryID:        item.ID,
			PrimaryType:      string(entities.EntityTypeItem),
			SecondaryID:      materialID,
			SecondaryType:    string(entities.EntityTypeItem),
			RelationshipType: string(entities.RelProductMaterial),
			Measurements:     measurements.BlockToDocument(block),
			Metadata:         migrationMetadata(raw),
		}, "components", report)
	}

	if derivedFrom := item.DocProp("derivedFrom"); derivedFrom != nil {
		report.ProcessedItems++

		sourceID := normalizeRef(derivedFrom["itemId"])
		if sourceID == "" {
			sourceID = normalizeRef(derivedFrom)
		}
		if sourceID == "" {
			report.Errors = append(report.Errors, "derivedFrom: unreadable reference")
		} else {
			block := measurements.CreateConfig(ensureAmount(derivedFrom), trackingDef)

			s.createRelationshipSafely(ctx, domain.CreateRelationshipRequest{
				PrimaryID:        item.ID,
				PrimaryType:      string(entities.EntityTypeItem),
				SecondaryID:      sourceID,
				SecondaryType:    string(entities.EntityTypeItem),
				RelationshipType: string(entities.RelDerived),
				Measurements:     measurements.BlockToDocument(block),
				Metadata:         migrationMetadata(derivedFrom),
			}, "derivedFrom", report)
		}
	}

	for _, raw := range item.SliceProp("derivedItems") {
		report.ProcessedItems++

		childID := normalizeRef(raw)
		if childID == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("derivedItems: unreadable reference %v", raw))
			continue
		}

		child := entities.AsDocument(raw)
		if child == nil {
			child = entities.Document{}
		}
		block := measurements.CreateConfig(ensureAmount(child), trackingDef)

		// Direção invertida em relação a derivedFrom: o derivado é o primário.
		s.createRelationshipSafely(ctx, domain.CreateRelationshipRequest{
			PrimaryID:        childID,
			PrimaryType:      string(entities.EntityTypeItem),
			SecondaryID:      item.ID,
			SecondaryType:    string(entities.EntityTypeItem),
			RelationshipType: string(entities.RelDerived),
			Measurements:     measurements.BlockToDocument(block),
			Metadata:         migrationMetadata(raw),
		}, "derivedItems", report)
	}

	return report
}

// ConvertPurchase converte o array items de uma compra em purchase_item.
func (s *MigrationService) ConvertPurchase(ctx context.Context, id string) (*ConversionReport, error) {
	purchase, err := s.requireEntity(ctx, entities.EntityTypePurchase, id)
	if err != nil {
		return nil, err
	}
	return s.convertPurchaseEmbedded(ctx, purchase), nil
}

func (s *MigrationService) convertPurchaseEmbedded(ctx context.Context, purchase *entities.Entity) *ConversionReport {
	report := &ConversionReport{Errors: []string{}}

	for _, raw := range purchase.SliceProp("items") {
		report.ProcessedItems++

		line := entities.AsDocument(raw)
		itemID := normalizeRef(line["itemId"])
		if itemID == "" {
			itemID = normalizeRef(raw)
		}
		if itemID == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("items: unreadable reference %v", raw))
			continue
		}
		if line == nil {
			line = entities.Document{}
		}

		item, err := s.findEntity(ctx, entities.EntityTypeItem, itemID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("items: item %s: %v", itemID, err))
			continue
		}

		def := purchaseLineMeasurement(line, item)
		block := measurements.CreateConfig(ensureAmount(line), def)

		attributes := entities.Document{
			"purchaseType": "inventory",
		}
		if v, ok := firstFloat(line, "costPerUnit", "unitPrice"); ok {
			attributes["costPerUnit"] = v
		}
		if v, ok := firstFloat(line, "totalCost", "total"); ok {
			attributes["totalCost"] = v
		}
		if pb, ok := line["purchasedBy"].(string); ok && pb != "" {
			attributes["purchasedBy"] = pb
		}

		s.createRelationshipSafely(ctx, domain.CreateRelationshipRequest{
			PrimaryID:        purchase.ID,
			PrimaryType:      string(entities.EntityTypePurchase),
			SecondaryID:      itemID,
			SecondaryType:    string(entities.EntityTypeItem),
			RelationshipType: string(entities.RelPurchaseItem),
			Measurements:     measurements.BlockToDocument(block),
			Attributes:       attributes,
			Metadata:         migrationMetadata(raw),
		}, "items", report)
	}

	return report
}

// ConvertSale converte o array items de uma venda em sale_item.
func (s *MigrationService) ConvertSale(ctx context.Context, id string) (*ConversionReport, error) {
	sale, err := s.requireEntity(ctx, entities.EntityTypeSale, id)
	if err != nil {
		return nil, err
	}
	return s.convertSaleEmbedded(ctx, sale), nil
}

func (s *MigrationService) convertSaleEmbedded(ctx context.Context, sale *entities.Entity) *ConversionReport {
	report := &ConversionReport{Errors: []string{}}

	saleDate := sale.StringProp("saleDate")
	if saleDate == "" {
		saleDate = nowUTC()
	}

	for _, raw := range sale.SliceProp("items") {
		report.ProcessedItems++

		line := entities.AsDocument(raw)
		itemID := normalizeRef(line["itemId"])
		if itemID == "" {
			itemID = normalizeRef(raw)
		}
		if itemID == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("items: unreadable reference %v", raw))
			continue
		}
		if line == nil {
			line = entities.Document{}
		}

		item, err := s.findEntity(ctx, entities.EntityTypeItem, itemID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("items: item %s: %v", itemID, err))
			continue
		}

		def := saleLineMeasurement(line, item)
		block := measurements.CreateConfig(ensureAmount(line), def)

		attributes := entities.Document{
			"saleDate": saleDate,
		}
		if v, ok := firstFloat(line, "unitPrice"); ok {
			attributes["unitPrice"] = v
		}
		if v, ok := firstFloat(line, "totalPrice", "total"); ok {
			attributes["totalPrice"] = v
		}
		if v, ok := firstFloat(line, "discountAmount", "discount"); ok {
			attributes["discountAmount"] = v
		}
		if v, ok := firstFloat(line, "discountPercentage"); ok {
			attributes["discountPercentage"] = v
		}

		s.createRelationshipSafely(ctx, domain.CreateRelationshipRequest{
			PrimaryID:        sale.ID,
			PrimaryType:      string(entities.EntityTypeSale),
			SecondaryID:      itemID,
			SecondaryType:    string(entities.EntityTypeItem),
			RelationshipType: string(entities.RelSaleItem),
			Measurements:     measurements.BlockToDocument(block),
			Attributes:       attributes,
			Metadata:         migrationMetadata(raw),
		}, "items", report)
	}

	return report
}

// createRelationshipSafely cria tolerando duplicata: registro da mesma
// quíntupla já existente (consulta prévia) ou corrida no índice único contam
// como skipped; qualquer outro erro entra na lista com a tag de origem e a
// varredura continua.
func (s *MigrationService) createRelationshipSafely(ctx context.Context, req domain.CreateRelationshipRequest, source string, report *ConversionReport) {
	relRepo := s.factory.RelationshipRepository()

	primaryType, err := entities.ParseEntityType(req.PrimaryType)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", source, err))
		return
	}
	secondaryType, err := entities.ParseEntityType(req.SecondaryType)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", source, err))
		return
	}

	existing, err := relRepo.FindDirectRelationships(ctx, req.PrimaryID, primaryType, req.SecondaryID, secondaryType)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", source, err))
		return
	}
	for _, rel := range existing {
		if string(rel.RelationshipType) == req.RelationshipType {
			report.Skipped++
			return
		}
	}

	if _, err := s.relationships.Create(ctx, req); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			report.Skipped++
			return
		}
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", source, err))
		return
	}

	report.Created++
}

func (s *MigrationService) requireEntity(ctx context.Context, entityType entities.EntityType, id string) (*entities.Entity, error) {
	entity, err := s.findEntity(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.NotFoundf("%s %s", entityType, id)
	}
	return entity, nil
}

// purchaseLineMeasurement escolhe o default de medição de uma linha de
// compra: purchasedBy declarado, depois tracking do item, depois o primeiro
// eixo positivo da linha, senão quantity.
func purchaseLineMeasurement(line entities.Document, item *entities.Entity) entities.Measurement {
	if pb, ok := line["purchasedBy"].(string); ok && entities.IsValidMeasurement(pb) {
		return entities.Measurement(pb)
	}
	if m := measurementFromItem(item, "tracking"); m != "" {
		return m
	}
	if m, ok := measurements.InferPositiveAxis(line); ok {
		return m
	}
	return entities.MeasurementQuantity
}

// saleLineMeasurement: soldBy declarado, depois price e tracking do item,
// depois eixo positivo, senão quantity.
func saleLineMeasurement(line entities.Document, item *entities.Entity) entities.Measurement {
	if sb, ok := line["soldBy"].(string); ok && entities.IsValidMeasurement(sb) {
		return entities.Measurement(sb)
	}
	if m := measurementFromItem(item, "price"); m != "" {
		return m
	}
	if m := measurementFromItem(item, "tracking"); m != "" {
		return m
	}
	if m, ok := measurements.InferPositiveAxis(line); ok {
		return m
	}
	return entities.MeasurementQuantity
}

// firstFloat devolve o primeiro campo numérico presente dentre as chaves.
func firstFloat(doc entities.Document, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := entities.AsFloat(doc[key]); ok {
			return v, true
		}
	}
	return 0, false
}
