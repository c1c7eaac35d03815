package entities

import "time"

// Relationship é a associação de primeira classe entre duas entidades.
// A chave de unicidade é a quíntupla (primary_id, primary_type, secondary_id,
// secondary_type, relationship_type), garantida por índice único no banco.
type Relationship struct {
	ID               string           `json:"id"`
	PrimaryID        string           `json:"primaryId"`
	PrimaryType      EntityType       `json:"primaryType"`
	SecondaryID      string           `json:"secondaryId"`
	SecondaryType    EntityType       `json:"secondaryType"`
	RelationshipType RelationshipType `json:"relationshipType"`

	Measurements MeasurementBlock `json:"measurements"`

	// Exatamente um bloco de atributos é preenchido, conforme o tipo.
	PurchaseItemAttributes  Document `json:"purchaseItemAttributes,omitempty"`
	PurchaseAssetAttributes Document `json:"purchaseAssetAttributes,omitempty"`
	SaleItemAttributes      Document `json:"saleItemAttributes,omitempty"`

	// Proveniência livre (origem de migração, fingerprint do payload original).
	Metadata Document `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attributes returns the block that corresponds to the relationship type.
func (r *Relationship) Attributes() Document {
	switch r.RelationshipType {
	case RelPurchaseItem:
		return r.PurchaseItemAttributes
	case RelPurchaseAsset:
		return r.PurchaseAssetAttributes
	case RelSaleItem:
		return r.SaleItemAttributes
	}
	return nil
}

// SetAttributes routes attrs into the slot named by the relationship type.
// Kinds without an attribute block ignore attrs.
func (r *Relationship) SetAttributes(attrs Document) {
	switch r.RelationshipType {
	case RelPurchaseItem:
		r.PurchaseItemAttributes = attrs
	case RelPurchaseAsset:
		r.PurchaseAssetAttributes = attrs
	case RelSaleItem:
		r.SaleItemAttributes = attrs
	}
}

// UniquenessKey is the five-field tuple under which relationships are unique.
type UniquenessKey struct {
	PrimaryID        string
	PrimaryType      EntityType
	SecondaryID      string
	SecondaryType    EntityType
	RelationshipType RelationshipType
}

func (r *Relationship) Key() UniquenessKey {
	return UniquenessKey{
		PrimaryID:        r.PrimaryID,
		PrimaryType:      r.PrimaryType,
		SecondaryID:      r.SecondaryID,
		SecondaryType:    r.SecondaryType,
		RelationshipType: r.RelationshipType,
	}
}
