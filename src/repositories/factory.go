package repositories

import (
	"fmt"
	"sync"

	"stockgraph/src/domain/entities"
	"stockgraph/src/infra/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend constrói repositórios crus de um store concreto (postgres ou
// memória). A fábrica decora o que sai daqui.
type Backend interface {
	NewEntityRepository(entityType entities.EntityType) EntityRepository
	NewRelationshipRepository() RelationshipRepository
	Runner() TransactionRunner
}

// PostgresBackend é o backend de produção.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	runner *postgres.TxRunner
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool, runner: postgres.NewTxRunner(pool)}
}

func (b *PostgresBackend) NewEntityRepository(entityType entities.EntityType) EntityRepository {
	return NewPgEntityRepository(b.pool, entityType)
}

func (b *PostgresBackend) NewRelationshipRepository() RelationshipRepository {
	return NewPgRelationshipRepository(b.pool)
}

func (b *PostgresBackend) Runner() TransactionRunner {
	return b.runner
}

// Factory instancia cada repositório uma única vez, decora os métodos
// mutantes (transação + normalização de erros) e injeta as dependências
// cruzadas: todo repositório de entidade é registrado no repositório de
// relacionamentos para a validação de existência das pontas.
type Factory struct {
	backend Backend

	mu               sync.Mutex
	entityRepos      map[entities.EntityType]EntityRepository
	relationshipRepo RelationshipRepository
}

func NewFactory(backend Backend) *Factory {
	return &Factory{
		backend:     backend,
		entityRepos: make(map[entities.EntityType]EntityRepository),
	}
}

var entityRepoTypes = []entities.EntityType{
	entities.EntityTypeItem,
	entities.EntityTypePurchase,
	entities.EntityTypeSale,
	entities.EntityTypeAsset,
}

// EntityRepository devolve o repositório decorado do tipo, do cache quando já
// construído.
func (f *Factory) EntityRepository(entityType entities.EntityType) (EntityRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entityRepositoryLocked(entityType)
}

func (f *Factory) entityRepositoryLocked(entityType entities.EntityType) (EntityRepository, error) {
	supported := false
	for _, t := range entityRepoTypes {
		if t == entityType {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("no entity repository for type %s", entityType)
	}

	if repo, ok := f.entityRepos[entityType]; ok {
		return repo, nil
	}

	// Cadeia de decoração explícita: normalização de erros por fora da
	// transação, para que falhas de begin/commit também sejam traduzidas.
	inner := f.backend.NewEntityRepository(entityType)
	repo := NewErrorMappingEntityRepository(
		NewTransactionalEntityRepository(inner, f.backend.Runner()),
	)

	f.entityRepos[entityType] = repo
	return repo, nil
}

// RelationshipRepository devolve o repositório de relacionamentos decorado,
// com os quatro repositórios de entidade registrados.
func (f *Factory) RelationshipRepository() RelationshipRepository {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.relationshipRepo != nil {
		return f.relationshipRepo
	}

	inner := f.backend.NewRelationshipRepository()
	repo := NewErrorMappingRelationshipRepository(
		NewTransactionalRelationshipRepository(inner, f.backend.Runner()),
	)

	for _, t := range entityRepoTypes {
		entityRepo, err := f.entityRepositoryLocked(t)
		if err != nil {
			// entityRepoTypes só tem tipos suportados.
			continue
		}
		repo.RegisterEntityRepository(t, entityRepo)
	}

	f.relationshipRepo = repo
	return repo
}

func (f *Factory) Runner() TransactionRunner {
	return f.backend.Runner()
}

// ClearCache descarta as instâncias para reconfiguração; a próxima chamada
// reconstrói e religa tudo.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entityRepos = make(map[entities.EntityType]EntityRepository)
	f.relationshipRepo = nil
}
