package repositories

import (
	"context"
	"errors"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
)

// Erros "do store": os backends sinalizam com eles (ou com erros nativos do
// pgx) e o decorator de normalização traduz para a taxonomia do domínio.
var (
	ErrRowNotFound  = errors.New("row not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// TransactionRunner é o primitivo de execução com escopo transacional. O
// handle vive no contexto; chamadas aninhadas reutilizam o handle ativo e o
// commit fica com o frame mais externo.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	InTransaction(ctx context.Context) bool
}

// RawUpdate é o documento de operadores crus do UpdateRaw: Unset remove
// campos de nível superior (ficam ausentes, não nulos) e Set sobrescreve.
type RawUpdate struct {
	Set   entities.Document
	Unset []string
}

func (u RawUpdate) IsEmpty() bool {
	return len(u.Set) == 0 && len(u.Unset) == 0
}

// EntityRepository é a superfície uniforme de CRUD por tipo de entidade.
// FindByID devolve (nil, nil) quando não existe; mutações em registro ausente
// devolvem ErrRowNotFound.
type EntityRepository interface {
	EntityType() entities.EntityType

	FindByID(ctx context.Context, id string) (*entities.Entity, error)
	FindAll(ctx context.Context) ([]*entities.Entity, error)
	// FindByFilter usa containment JSONB sobre properties.
	FindByFilter(ctx context.Context, filter entities.Document) ([]*entities.Entity, error)

	Create(ctx context.Context, doc entities.Document) (*entities.Entity, error)
	Update(ctx context.Context, id string, patch entities.Document) (*entities.Entity, error)
	UpdateRaw(ctx context.Context, id string, raw RawUpdate) (*entities.Entity, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, filter entities.Document) (int, error)
}

// RelationshipRepository persiste os registros de relacionamento e mantém o
// registro de repositórios de entidade usado na validação de existência das
// pontas.
type RelationshipRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Relationship, error)
	FindAll(ctx context.Context) ([]*entities.Relationship, error)
	FindByFilter(ctx context.Context, filter domain.RelationshipFilter) ([]*entities.Relationship, error)

	Create(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error)
	Update(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, filter domain.RelationshipFilter) (int, error)

	// relType vazio busca todos os tipos.
	FindByPrimary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error)
	FindBySecondary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error)
	FindDirectRelationships(ctx context.Context, aID string, aType entities.EntityType, bID string, bType entities.EntityType) ([]*entities.Relationship, error)
	FindAllForEntity(ctx context.Context, id string, entityType entities.EntityType) (*domain.EntityRelationships, error)

	RegisterEntityRepository(entityType entities.EntityType, repo EntityRepository)
	EntityExists(ctx context.Context, id string, entityType entities.EntityType) (bool, error)

	GetStatistics(ctx context.Context) (*domain.RelationshipStatistics, error)
}
