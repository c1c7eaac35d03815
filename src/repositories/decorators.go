package repositories

import (
	"context"
	"errors"
	"fmt"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/infra/postgres"
)

// MapStoreError traduz erros nativos do store para a taxonomia do domínio.
// Erros já na taxonomia passam inalterados.
func MapStoreError(err error) error {
	if err == nil || domain.InTaxonomy(err) {
		return err
	}

	switch {
	case errors.Is(err, ErrDuplicateKey) || postgres.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case errors.Is(err, ErrRowNotFound) || postgres.IsNoRows(err):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case postgres.IsSchemaViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	case postgres.IsUnavailable(err):
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
}

// runReturning executa fn dentro do runner devolvendo o valor do corpo.
func runReturning[T any](ctx context.Context, runner TransactionRunner, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

// ############################################################
// ############ DECORATOR TRANSACIONAL (mutações) #############
// ############################################################

// transactionalEntityRepository embrulha cada método mutante em uma transação
// quando o chamador ainda não abriu uma; o runner reutiliza handle ativo.
type transactionalEntityRepository struct {
	inner  EntityRepository
	runner TransactionRunner
}

func NewTransactionalEntityRepository(inner EntityRepository, runner TransactionRunner) EntityRepository {
	return &transactionalEntityRepository{inner: inner, runner: runner}
}

func (d *transactionalEntityRepository) EntityType() entities.EntityType { return d.inner.EntityType() }

func (d *transactionalEntityRepository) FindByID(ctx context.Context, id string) (*entities.Entity, error) {
	return d.inner.FindByID(ctx, id)
}

func (d *transactionalEntityRepository) FindAll(ctx context.Context) ([]*entities.Entity, error) {
	return d.inner.FindAll(ctx)
}

func (d *transactionalEntityRepository) FindByFilter(ctx context.Context, filter entities.Document) ([]*entities.Entity, error) {
	return d.inner.FindByFilter(ctx, filter)
}

func (d *transactionalEntityRepository) Create(ctx context.Context, doc entities.Document) (*entities.Entity, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (*entities.Entity, error) {
		return d.inner.Create(txCtx, doc)
	})
}

func (d *transactionalEntityRepository) Update(ctx context.Context, id string, patch entities.Document) (*entities.Entity, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (*entities.Entity, error) {
		return d.inner.Update(txCtx, id, patch)
	})
}

func (d *transactionalEntityRepository) UpdateRaw(ctx context.Context, id string, raw RawUpdate) (*entities.Entity, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (*entities.Entity, error) {
		return d.inner.UpdateRaw(txCtx, id, raw)
	})
}

func (d *transactionalEntityRepository) Delete(ctx context.Context, id string) error {
	return d.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		return d.inner.Delete(txCtx, id)
	})
}

func (d *transactionalEntityRepository) DeleteMany(ctx context.Context, filter entities.Document) (int, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (int, error) {
		return d.inner.DeleteMany(txCtx, filter)
	})
}

type transactionalRelationshipRepository struct {
	inner  RelationshipRepository
	runner TransactionRunner
}

func NewTransactionalRelationshipRepository(inner RelationshipRepository, runner TransactionRunner) RelationshipRepository {
	return &transactionalRelationshipRepository{inner: inner, runner: runner}
}

func (d *transactionalRelationshipRepository) FindByID(ctx context.Context, id string) (*entities.Relationship, error) {
	return d.inner.FindByID(ctx, id)
}

func (d *transactionalRelationshipRepository) FindAll(ctx context.Context) ([]*entities.Relationship, error) {
	return d.inner.FindAll(ctx)
}

func (d *transactionalRelationshipRepository) FindByFilter(ctx context.Context, filter domain.RelationshipFilter) ([]*entities.Relationship, error) {
	return d.inner.FindByFilter(ctx, filter)
}

func (d *transactionalRelationshipRepository) Create(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (*entities.Relationship, error) {
		return d.inner.Create(txCtx, rel)
	})
}

func (d *transactionalRelationshipRepository) Update(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (*entities.Relationship, error) {
		return d.inner.Update(txCtx, rel)
	})
}

func (d *transactionalRelationshipRepository) Delete(ctx context.Context, id string) error {
	return d.runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		return d.inner.Delete(txCtx, id)
	})
}

func (d *transactionalRelationshipRepository) DeleteMany(ctx context.Context, filter domain.RelationshipFilter) (int, error) {
	return runReturning(ctx, d.runner, func(txCtx context.Context) (int, error) {
		return d.inner.DeleteMany(txCtx, filter)
	})
}

func (d *transactionalRelationshipRepository) FindByPrimary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	return d.inner.FindByPrimary(ctx, id, entityType, relType)
}

func (d *transactionalRelationshipRepository) FindBySecondary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	return d.inner.FindBySecondary(ctx, id, entityType, relType)
}

func (d *transactionalRelationshipRepository) FindDirectRelationships(ctx context.Context, aID string, aType entities.EntityType, bID string, bType entities.EntityType) ([]*entities.Relationship, error) {
	return d.inner.FindDirectRelationships(ctx, aID, aType, bID, bType)
}

func (d *transactionalRelationshipRepository) FindAllForEntity(ctx context.Context, id string, entityType entities.EntityType) (*domain.EntityRelationships, error) {
	return d.inner.FindAllForEntity(ctx, id, entityType)
}

func (d *transactionalRelationshipRepository) RegisterEntityRepository(entityType entities.EntityType, repo EntityRepository) {
	d.inner.RegisterEntityRepository(entityType, repo)
}

func (d *transactionalRelationshipRepository) EntityExists(ctx context.Context, id string, entityType entities.EntityType) (bool, error) {
	return d.inner.EntityExists(ctx, id, entityType)
}

func (d *transactionalRelationshipRepository) GetStatistics(ctx context.Context) (*domain.RelationshipStatistics, error) {
	return d.inner.GetStatistics(ctx)
}

// ############################################################
// ########### DECORATOR DE NORMALIZAÇÃO DE ERROS #############
// ############################################################

type errorMappingEntityRepository struct {
	inner EntityRepository
}

func NewErrorMappingEntityRepository(inner EntityRepository) EntityRepository {
	return &errorMappingEntityRepository{inner: inner}
}

func (d *errorMappingEntityRepository) EntityType() entities.EntityType { return d.inner.EntityType() }

func (d *errorMappingEntityRepository) FindByID(ctx context.Context, id string) (*entities.Entity, error) {
	entity, err := d.inner.FindByID(ctx, id)
	return entity, MapStoreError(err)
}

func (d *errorMappingEntityRepository) FindAll(ctx context.Context) ([]*entities.Entity, error) {
	result, err := d.inner.FindAll(ctx)
	return result, MapStoreError(err)
}

func (d *errorMappingEntityRepository) FindByFilter(ctx context.Context, filter entities.Document) ([]*entities.Entity, error) {
	result, err := d.inner.FindByFilter(ctx, filter)
	return result, MapStoreError(err)
}

func (d *errorMappingEntityRepository) Create(ctx context.Context, doc entities.Document) (*entities.Entity, error) {
	entity, err := d.inner.Create(ctx, doc)
	return entity, MapStoreError(err)
}

func (d *errorMappingEntityRepository) Update(ctx context.Context, id string, patch entities.Document) (*entities.Entity, error) {
	entity, err := d.inner.Update(ctx, id, patch)
	return entity, MapStoreError(err)
}

func (d *errorMappingEntityRepository) UpdateRaw(ctx context.Context, id string, raw RawUpdate) (*entities.Entity, error) {
	entity, err := d.inner.UpdateRaw(ctx, id, raw)
	return entity, MapStoreError(err)
}

func (d *errorMappingEntityRepository) Delete(ctx context.Context, id string) error {
	return MapStoreError(d.inner.Delete(ctx, id))
}

func (d *errorMappingEntityRepository) DeleteMany(ctx context.Context, filter entities.Document) (int, error) {
	count, err := d.inner.DeleteMany(ctx, filter)
	return count, MapStoreError(err)
}

type errorMappingRelationshipRepository struct {
	inner RelationshipRepository
}

func NewErrorMappingRelationshipRepository(inner RelationshipRepository) RelationshipRepository {
	return &errorMappingRelationshipRepository{inner: inner}
}

func (d *errorMappingRelationshipRepository) FindByID(ctx context.Context, id string) (*entities.Relationship, error) {
	rel, err := d.inner.FindByID(ctx, id)
	return rel, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) FindAll(ctx context.Context) ([]*entities.Relationship, error) {
	result, err := d.inner.FindAll(ctx)
	return result, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) FindByFilter(ctx context.Context, filter domain.RelationshipFilter) ([]*entities.Relationship, error) {
	result, err := d.inner.FindByFilter(ctx, filter)
	return result, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) Create(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	created, err := d.inner.Create(ctx, rel)
	return created, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) Update(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	updated, err := d.inner.Update(ctx, rel)
	return updated, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) Delete(ctx context.Context, id string) error {
	return MapStoreError(d.inner.Delete(ctx, id))
}

func (d *errorMappingRelationshipRepository) DeleteMany(ctx context.Context, filter domain.RelationshipFilter) (int, error) {
	count, err := d.inner.DeleteMany(ctx, filter)
	return count, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) FindByPrimary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	result, err := d.inner.FindByPrimary(ctx, id, entityType, relType)
	return result, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) FindBySecondary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	result, err := d.inner.FindBySecondary(ctx, id, entityType, relType)
	return result, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) FindDirectRelationships(ctx context.Context, aID string, aType entities.EntityType, bID string, bType entities.EntityType) ([]*entities.Relationship, error) {
	result, err := d.inner.FindDirectRelationships(ctx, aID, aType, bID, bType)
	return result, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) FindAllForEntity(ctx context.Context, id string, entityType entities.EntityType) (*domain.EntityRelationships, error) {
	result, err := d.inner.FindAllForEntity(ctx, id, entityType)
	return result, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) RegisterEntityRepository(entityType entities.EntityType, repo EntityRepository) {
	d.inner.RegisterEntityRepository(entityType, repo)
}

func (d *errorMappingRelationshipRepository) EntityExists(ctx context.Context, id string, entityType entities.EntityType) (bool, error) {
	exists, err := d.inner.EntityExists(ctx, id, entityType)
	return exists, MapStoreError(err)
}

func (d *errorMappingRelationshipRepository) GetStatistics(ctx context.Context) (*domain.RelationshipStatistics, error) {
	stats, err := d.inner.GetStatistics(ctx)
	return stats, MapStoreError(err)
}
