package entities

import (
	"fmt"
	"strings"
)

// EntityType identifies the kind of record a repository stores. Input is
// case-insensitive; the canonical form is Pascal-case.
type EntityType string

const (
	EntityTypeItem         EntityType = "Item"
	EntityTypePurchase     EntityType = "Purchase"
	EntityTypeSale         EntityType = "Sale"
	EntityTypeAsset        EntityType = "Asset"
	EntityTypeRelationship EntityType = "Relationship"
)

var entityTypes = map[string]EntityType{
	"item":         EntityTypeItem,
	"purchase":     EntityTypePurchase,
	"sale":         EntityTypeSale,
	"asset":        EntityTypeAsset,
	"relationship": EntityTypeRelationship,
}

// ParseEntityType normalizes free-form input into the canonical entity type.
func ParseEntityType(raw string) (EntityType, error) {
	if t, ok := entityTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown entity type %q", raw)
}

// RelationshipType is the closed set of supported association kinds.
type RelationshipType string

const (
	RelProductMaterial RelationshipType = "product_material"
	RelDerived         RelationshipType = "derived"
	RelPurchaseItem    RelationshipType = "purchase_item"
	RelPurchaseAsset   RelationshipType = "purchase_asset"
	RelSaleItem        RelationshipType = "sale_item"
)

var relationshipTypes = map[string]RelationshipType{
	string(RelProductMaterial): RelProductMaterial,
	string(RelDerived):         RelDerived,
	string(RelPurchaseItem):    RelPurchaseItem,
	string(RelPurchaseAsset):   RelPurchaseAsset,
	string(RelSaleItem):        RelSaleItem,
}

func ParseRelationshipType(raw string) (RelationshipType, error) {
	if t, ok := relationshipTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown relationship type %q", raw)
}

// Measurement is the discriminator of the canonical measurement block.
type Measurement string

const (
	MeasurementQuantity Measurement = "quantity"
	MeasurementWeight   Measurement = "weight"
	MeasurementLength   Measurement = "length"
	MeasurementArea     Measurement = "area"
	MeasurementVolume   Measurement = "volume"
)

// IsValidMeasurement reports whether raw names a known measurement axis.
func IsValidMeasurement(raw string) bool {
	switch Measurement(raw) {
	case MeasurementQuantity, MeasurementWeight, MeasurementLength, MeasurementArea, MeasurementVolume:
		return true
	}
	return false
}
