package domain

import (
	"errors"
	"fmt"

	"stockgraph/src/domain/entities"
)

// ############################################################
// ################## TAXONOMIA DE ERROS ######################
// ############################################################

// Raízes da taxonomia. Todo erro que sobe até a borda HTTP deve embrulhar uma
// delas; o que não embrulhar vira ErrInternal no handler.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
	ErrInternal    = errors.New("internal error")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Unavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// InTaxonomy reports whether err already wraps one of the taxonomy roots.
func InTaxonomy(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrInternal)
}

// ############################################################
// ################ COMBINAÇÕES PERMITIDAS ####################
// ############################################################

type typePair struct {
	primary   entities.EntityType
	secondary entities.EntityType
}

// Tabela estática: tipo de relacionamento -> par (primário, secundário).
var allowedCombinations = map[entities.RelationshipType]typePair{
	entities.RelProductMaterial: {entities.EntityTypeItem, entities.EntityTypeItem},
	entities.RelDerived:         {entities.EntityTypeItem, entities.EntityTypeItem},
	entities.RelPurchaseItem:    {entities.EntityTypePurchase, entities.EntityTypeItem},
	entities.RelPurchaseAsset:   {entities.EntityTypePurchase, entities.EntityTypeAsset},
	entities.RelSaleItem:        {entities.EntityTypeSale, entities.EntityTypeItem},
}

// ValidateCombination garante que o par de tipos é o esperado para o tipo de
// relacionamento.
func ValidateCombination(relType entities.RelationshipType, primary, secondary entities.EntityType) error {
	pair, ok := allowedCombinations[relType]
	if !ok {
		return Validationf("unknown relationship type %q", relType)
	}
	if pair.primary != primary || pair.secondary != secondary {
		return Validationf("relationship %q does not allow %s -> %s", relType, primary, secondary)
	}
	return nil
}

// RequiresMeasurement reports whether the kind demands at least one non-zero
// numeric value in the measurement block.
func RequiresMeasurement(relType entities.RelationshipType) bool {
	switch relType {
	case entities.RelPurchaseItem, entities.RelSaleItem, entities.RelProductMaterial, entities.RelDerived:
		return true
	}
	return false
}

// ############################################################
// ################ DTOs DO MOTOR DE RELAÇÕES #################
// ############################################################

// CreateRelationshipRequest carrega a entrada crua de um create. Measurements
// e attributes chegam soltos (formas heterogêneas) e são normalizados pelo
// motor.
type CreateRelationshipRequest struct {
	PrimaryID        string            `json:"primaryId"`
	PrimaryType      string            `json:"primaryType"`
	SecondaryID      string            `json:"secondaryId"`
	SecondaryType    string            `json:"secondaryType"`
	RelationshipType string            `json:"relationshipType"`
	Measurements     entities.Document `json:"measurements,omitempty"`
	Attributes       entities.Document `json:"attributes,omitempty"`
	Metadata         entities.Document `json:"metadata,omitempty"`
}

// RelationshipPatch is the shallow-merge payload of an update.
type RelationshipPatch struct {
	PrimaryID        *string           `json:"primaryId,omitempty"`
	PrimaryType      *string           `json:"primaryType,omitempty"`
	SecondaryID      *string           `json:"secondaryId,omitempty"`
	SecondaryType    *string           `json:"secondaryType,omitempty"`
	RelationshipType *string           `json:"relationshipType,omitempty"`
	Measurements     entities.Document `json:"measurements,omitempty"`
	Attributes       entities.Document `json:"attributes,omitempty"`
	Metadata         entities.Document `json:"metadata,omitempty"`
}

// RelationshipFilter seleciona relacionamentos para consulta ou remoção em
// massa. Campos vazios não filtram.
type RelationshipFilter struct {
	PrimaryID        string `json:"primaryId,omitempty"`
	PrimaryType      string `json:"primaryType,omitempty"`
	SecondaryID      string `json:"secondaryId,omitempty"`
	SecondaryType    string `json:"secondaryType,omitempty"`
	RelationshipType string `json:"relationshipType,omitempty"`
}

func (f RelationshipFilter) IsEmpty() bool {
	return f.PrimaryID == "" && f.PrimaryType == "" &&
		f.SecondaryID == "" && f.SecondaryType == "" && f.RelationshipType == ""
}

// ReplaceSide names which side of the tuple ReplaceRelationships anchors on.
type ReplaceSide string

const (
	SidePrimary   ReplaceSide = "primary"
	SideSecondary ReplaceSide = "secondary"
)

// ReplaceResult reports what an atomic replace did.
type ReplaceResult struct {
	Deleted int `json:"deleted"`
	Created int `json:"created"`
}

// EntityRelationships agrupa os dois lados das relações de uma entidade.
type EntityRelationships struct {
	AsPrimary   []*entities.Relationship `json:"asPrimary"`
	AsSecondary []*entities.Relationship `json:"asSecondary"`
}

// CompositeResult é o retorno das operações entidade+relacionamentos.
type CompositeResult struct {
	Entity        *entities.Entity    `json:"entity"`
	Relationships EntityRelationships `json:"relationships"`
}

// RelationshipStatistics holds per-kind counts.
type RelationshipStatistics struct {
	ByType map[entities.RelationshipType]int `json:"byType"`
	Total  int                               `json:"total"`
}
