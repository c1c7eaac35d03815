// Package memory implementa os contratos de repositório sobre mapas em
// processo. Serve aos testes de unidade do motor e da migração e cobre o
// fallback de store sem primitivo transacional: o runner daqui preserva o
// contrato de controle (snapshot/restauração) sem transação real.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/repositories"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	entityRows map[entities.EntityType]map[string]*entities.Entity
	relRows    map[string]*entities.Relationship
	relKeys    map[entities.UniquenessKey]string
}

func NewStore() *Store {
	return &Store{
		entityRows: make(map[entities.EntityType]map[string]*entities.Entity),
		relRows:    make(map[string]*entities.Relationship),
		relKeys:    make(map[entities.UniquenessKey]string),
	}
}

// Store implementa repositories.Backend para a fábrica.
func (s *Store) NewEntityRepository(entityType entities.EntityType) repositories.EntityRepository {
	return NewEntityRepo(s, entityType)
}

func (s *Store) NewRelationshipRepository() repositories.RelationshipRepository {
	return NewRelationshipRepo(s)
}

func (s *Store) Runner() repositories.TransactionRunner {
	return s
}

// ############################################################
// ################ TRANSACTION RUNNER (fallback) #############
// ############################################################

type txContextKey struct{}

// RunInTransaction emula o contrato: tira um snapshot raso das tabelas e o
// restaura quando fn falha. Entradas são tratadas como imutáveis (toda
// escrita clona), então cópia rasa basta.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.InTransaction(ctx) {
		return fn(ctx)
	}

	snapshot := s.snapshot()
	txCtx := context.WithValue(ctx, txContextKey{}, true)

	if err := fn(txCtx); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) InTransaction(ctx context.Context) bool {
	active, _ := ctx.Value(txContextKey{}).(bool)
	return active
}

type storeSnapshot struct {
	entityRows map[entities.EntityType]map[string]*entities.Entity
	relRows    map[string]*entities.Relationship
	relKeys    map[entities.UniquenessKey]string
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := storeSnapshot{
		entityRows: make(map[entities.EntityType]map[string]*entities.Entity, len(s.entityRows)),
		relRows:    make(map[string]*entities.Relationship, len(s.relRows)),
		relKeys:    make(map[entities.UniquenessKey]string, len(s.relKeys)),
	}
	for t, rows := range s.entityRows {
		cloned := make(map[string]*entities.Entity, len(rows))
		for id, row := range rows {
			cloned[id] = row
		}
		snap.entityRows[t] = cloned
	}
	for id, rel := range s.relRows {
		snap.relRows[id] = rel
	}
	for key, id := range s.relKeys {
		snap.relKeys[key] = id
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entityRows = snap.entityRows
	s.relRows = snap.relRows
	s.relKeys = snap.relKeys
}

func (s *Store) rowsFor(t entities.EntityType) map[string]*entities.Entity {
	rows, ok := s.entityRows[t]
	if !ok {
		rows = make(map[string]*entities.Entity)
		s.entityRows[t] = rows
	}
	return rows
}

// ############################################################
// ################### ENTITY REPOSITORY ######################
// ############################################################

type EntityRepo struct {
	store      *Store
	entityType entities.EntityType
}

func NewEntityRepo(store *Store, entityType entities.EntityType) *EntityRepo {
	return &EntityRepo{store: store, entityType: entityType}
}

func (r *EntityRepo) EntityType() entities.EntityType {
	return r.entityType
}

func (r *EntityRepo) FindByID(_ context.Context, id string) (*entities.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.rowsFor(r.entityType)[id]
	if !ok {
		return nil, nil
	}
	return cloneEntity(row), nil
}

func (r *EntityRepo) FindAll(_ context.Context) ([]*entities.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rows := r.store.rowsFor(r.entityType)
	result := make([]*entities.Entity, 0, len(rows))
	for _, row := range rows {
		result = append(result, cloneEntity(row))
	}
	return result, nil
}

func (r *EntityRepo) FindByFilter(_ context.Context, filter entities.Document) ([]*entities.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*entities.Entity
	for _, row := range r.store.rowsFor(r.entityType) {
		if containsDocument(row.Properties, filter) {
			result = append(result, cloneEntity(row))
		}
	}
	return result, nil
}

func (r *EntityRepo) Create(_ context.Context, doc entities.Document) (*entities.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := ""
	props := make(entities.Document, len(doc))
	for k, v := range doc {
		if k == "id" {
			if s, ok := v.(string); ok {
				id = s
			}
			continue
		}
		props[k] = v
	}
	if id == "" {
		id = uuid.NewString()
	}

	rows := r.store.rowsFor(r.entityType)
	if _, exists := rows[id]; exists {
		return nil, fmt.Errorf("%w: %s %s", repositories.ErrDuplicateKey, r.entityType, id)
	}

	now := time.Now().UTC()
	row := &entities.Entity{
		ID:         id,
		Type:       r.entityType,
		Properties: props,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rows[id] = row
	return cloneEntity(row), nil
}

func (r *EntityRepo) Update(_ context.Context, id string, patch entities.Document) (*entities.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rows := r.store.rowsFor(r.entityType)
	row, ok := rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", repositories.ErrRowNotFound, r.entityType, id)
	}

	updated := cloneEntity(row)
	for k, v := range patch {
		if k == "id" {
			continue
		}
		updated.Properties[k] = v
	}
	updated.UpdatedAt = time.Now().UTC()
	rows[id] = updated
	return cloneEntity(updated), nil
}

func (r *EntityRepo) UpdateRaw(_ context.Context, id string, raw repositories.RawUpdate) (*entities.Entity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rows := r.store.rowsFor(r.entityType)
	row, ok := rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", repositories.ErrRowNotFound, r.entityType, id)
	}

	updated := cloneEntity(row)
	for _, field := range raw.Unset {
		delete(updated.Properties, field)
	}
	for k, v := range raw.Set {
		updated.Properties[k] = v
	}
	updated.UpdatedAt = time.Now().UTC()
	rows[id] = updated
	return cloneEntity(updated), nil
}

func (r *EntityRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rows := r.store.rowsFor(r.entityType)
	if _, ok := rows[id]; !ok {
		return fmt.Errorf("%w: %s %s", repositories.ErrRowNotFound, r.entityType, id)
	}
	delete(rows, id)
	return nil
}

func (r *EntityRepo) DeleteMany(_ context.Context, filter entities.Document) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rows := r.store.rowsFor(r.entityType)
	deleted := 0
	for id, row := range rows {
		if containsDocument(row.Properties, filter) {
			delete(rows, id)
			deleted++
		}
	}
	return deleted, nil
}

// ############################################################
// ################ RELATIONSHIP REPOSITORY ###################
// ############################################################

type RelationshipRepo struct {
	store *Store

	mu       sync.RWMutex
	registry map[entities.EntityType]repositories.EntityRepository
}

func NewRelationshipRepo(store *Store) *RelationshipRepo {
	return &RelationshipRepo{
		store:    store,
		registry: make(map[entities.EntityType]repositories.EntityRepository),
	}
}

func (r *RelationshipRepo) FindByID(_ context.Context, id string) (*entities.Relationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rel, ok := r.store.relRows[id]
	if !ok {
		return nil, nil
	}
	return cloneRelationship(rel), nil
}

func (r *RelationshipRepo) FindAll(_ context.Context) ([]*entities.Relationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*entities.Relationship, 0, len(r.store.relRows))
	for _, rel := range r.store.relRows {
		result = append(result, cloneRelationship(rel))
	}
	return result, nil
}

func (r *RelationshipRepo) FindByFilter(_ context.Context, filter domain.RelationshipFilter) ([]*entities.Relationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*entities.Relationship
	for _, rel := range r.store.relRows {
		if matchesFilter(rel, filter) {
			result = append(result, cloneRelationship(rel))
		}
	}
	return result, nil
}

func (r *RelationshipRepo) Create(_ context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := cloneRelationship(rel)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	key := stored.Key()
	if _, exists := r.store.relKeys[key]; exists {
		return nil, fmt.Errorf("%w: relationship %s %s->%s", repositories.ErrDuplicateKey,
			stored.RelationshipType, stored.PrimaryID, stored.SecondaryID)
	}

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.store.relRows[stored.ID] = stored
	r.store.relKeys[key] = stored.ID
	return cloneRelationship(stored), nil
}

func (r *RelationshipRepo) Update(_ context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.relRows[rel.ID]
	if !ok {
		return nil, fmt.Errorf("%w: relationship %s", repositories.ErrRowNotFound, rel.ID)
	}

	newKey := rel.Key()
	if newKey != current.Key() {
		if conflictID, exists := r.store.relKeys[newKey]; exists && conflictID != rel.ID {
			return nil, fmt.Errorf("%w: relationship %s", repositories.ErrDuplicateKey, rel.ID)
		}
		delete(r.store.relKeys, current.Key())
		r.store.relKeys[newKey] = rel.ID
	}

	updated := cloneRelationship(rel)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.store.relRows[rel.ID] = updated
	return cloneRelationship(updated), nil
}

func (r *RelationshipRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rel, ok := r.store.relRows[id]
	if !ok {
		return fmt.Errorf("%w: relationship %s", repositories.ErrRowNotFound, id)
	}
	delete(r.store.relRows, id)
	delete(r.store.relKeys, rel.Key())
	return nil
}

func (r *RelationshipRepo) DeleteMany(_ context.Context, filter domain.RelationshipFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("delete many requires at least one filter field")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	deleted := 0
	for id, rel := range r.store.relRows {
		if matchesFilter(rel, filter) {
			delete(r.store.relRows, id)
			delete(r.store.relKeys, rel.Key())
			deleted++
		}
	}
	return deleted, nil
}

func (r *RelationshipRepo) FindByPrimary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	return r.FindByFilter(ctx, domain.RelationshipFilter{
		PrimaryID:        id,
		PrimaryType:      string(entityType),
		RelationshipType: string(relType),
	})
}

func (r *RelationshipRepo) FindBySecondary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	return r.FindByFilter(ctx, domain.RelationshipFilter{
		SecondaryID:      id,
		SecondaryType:    string(entityType),
		RelationshipType: string(relType),
	})
}

func (r *RelationshipRepo) FindDirectRelationships(ctx context.Context, aID string, aType entities.EntityType, bID string, bType entities.EntityType) ([]*entities.Relationship, error) {
	return r.FindByFilter(ctx, domain.RelationshipFilter{
		PrimaryID:     aID,
		PrimaryType:   string(aType),
		SecondaryID:   bID,
		SecondaryType: string(bType),
	})
}

func (r *RelationshipRepo) FindAllForEntity(ctx context.Context, id string, entityType entities.EntityType) (*domain.EntityRelationships, error) {
	asPrimary, err := r.FindByPrimary(ctx, id, entityType, "")
	if err != nil {
		return nil, err
	}
	asSecondary, err := r.FindBySecondary(ctx, id, entityType, "")
	if err != nil {
		return nil, err
	}
	return &domain.EntityRelationships{AsPrimary: asPrimary, AsSecondary: asSecondary}, nil
}

func (r *RelationshipRepo) RegisterEntityRepository(entityType entities.EntityType, repo repositories.EntityRepository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[entityType] = repo
}

func (r *RelationshipRepo) EntityExists(ctx context.Context, id string, entityType entities.EntityType) (bool, error) {
	r.mu.RLock()
	repo, ok := r.registry[entityType]
	r.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("no repository registered for entity type %s", entityType)
	}

	entity, err := repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

func (r *RelationshipRepo) GetStatistics(_ context.Context) (*domain.RelationshipStatistics, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stats := &domain.RelationshipStatistics{ByType: make(map[entities.RelationshipType]int)}
	for _, rel := range r.store.relRows {
		stats.ByType[rel.RelationshipType]++
		stats.Total++
	}
	return stats, nil
}

// ############################################################
// ######################## HELPERS ###########################
// ############################################################

func matchesFilter(rel *entities.Relationship, filter domain.RelationshipFilter) bool {
	if filter.PrimaryID != "" && rel.PrimaryID != filter.PrimaryID {
		return false
	}
	if filter.PrimaryType != "" && string(rel.PrimaryType) != filter.PrimaryType {
		return false
	}
	if filter.SecondaryID != "" && rel.SecondaryID != filter.SecondaryID {
		return false
	}
	if filter.SecondaryType != "" && string(rel.SecondaryType) != filter.SecondaryType {
		return false
	}
	if filter.RelationshipType != "" && string(rel.RelationshipType) != filter.RelationshipType {
		return false
	}
	return true
}

// containsDocument emula a semântica de containment (@>) do JSONB, incluindo
// as chaves com caminho pontuado que o backend pg expande em payloads
// aninhados.
func containsDocument(doc, filter entities.Document) bool {
	for key, want := range filter {
		got, ok := lookupPath(doc, key)
		if !ok {
			return false
		}
		if !containsValue(got, want) {
			return false
		}
	}
	return true
}

func lookupPath(doc entities.Document, path string) (any, bool) {
	keys := strings.Split(path, ".")

	var current any = doc
	for _, key := range keys {
		nested := entities.AsDocument(current)
		if nested == nil {
			return nil, false
		}
		v, ok := nested[key]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}

func containsValue(got, want any) bool {
	wantDoc := entities.AsDocument(want)
	if wantDoc != nil {
		gotDoc := entities.AsDocument(got)
		if gotDoc == nil {
			return false
		}
		return containsDocument(gotDoc, wantDoc)
	}

	// Números chegam como int no código Go e float64 via JSON.
	if wantNum, ok := entities.AsFloat(want); ok {
		gotNum, gotOK := entities.AsFloat(got)
		return gotOK && gotNum == wantNum
	}

	return got == want
}

func cloneEntity(e *entities.Entity) *entities.Entity {
	clone := *e
	clone.Properties = cloneDocument(e.Properties)
	return &clone
}

func cloneRelationship(rel *entities.Relationship) *entities.Relationship {
	clone := *rel
	clone.PurchaseItemAttributes = cloneDocument(rel.PurchaseItemAttributes)
	clone.PurchaseAssetAttributes = cloneDocument(rel.PurchaseAssetAttributes)
	clone.SaleItemAttributes = cloneDocument(rel.SaleItemAttributes)
	clone.Metadata = cloneDocument(rel.Metadata)
	return &clone
}

func cloneDocument(doc entities.Document) entities.Document {
	if doc == nil {
		return nil
	}
	clone := make(entities.Document, len(doc))
	for k, v := range doc {
		if nested := entities.AsDocument(v); nested != nil {
			clone[k] = cloneDocument(nested)
			continue
		}
		clone[k] = v
	}
	return clone
}
