package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"stockgraph/src/domain"
	"stockgraph/src/domain/entities"
	"stockgraph/src/infra/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRelationshipRepository persiste relacionamentos na tabela relationships.
// A quíntupla tem índice único; colisão vira ErrDuplicateKey para o decorator
// traduzir. O registro de repositórios de entidade serve à validação de
// existência das pontas sem criar dependência circular de construção.
type PgRelationshipRepository struct {
	pool *pgxpool.Pool

	mu       sync.RWMutex
	registry map[entities.EntityType]EntityRepository
}

func NewPgRelationshipRepository(pool *pgxpool.Pool) *PgRelationshipRepository {
	return &PgRelationshipRepository{
		pool:     pool,
		registry: make(map[entities.EntityType]EntityRepository),
	}
}

const relationshipColumns = `id, primary_id, primary_type, secondary_id, secondary_type,
	relationship_type, measurements, attributes, metadata, created_at, updated_at`

func (r *PgRelationshipRepository) FindByID(ctx context.Context, id string) (*entities.Relationship, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE id = $1`, id)

	rel, err := scanRelationship(row)
	if postgres.IsNoRows(err) {
		return nil, nil
	}
	return rel, err
}

func (r *PgRelationshipRepository) FindAll(ctx context.Context) ([]*entities.Relationship, error) {
	return r.queryRelationships(ctx,
		`SELECT `+relationshipColumns+` FROM relationships ORDER BY created_at`)
}

func (r *PgRelationshipRepository) FindByFilter(ctx context.Context, filter domain.RelationshipFilter) ([]*entities.Relationship, error) {
	where, args := buildRelationshipWhere(filter)
	query := `SELECT ` + relationshipColumns + ` FROM relationships` + where + ` ORDER BY created_at`
	return r.queryRelationships(ctx, query, args...)
}

func (r *PgRelationshipRepository) Create(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	stored := *rel
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	measurementsJSON, attributesJSON, metadataJSON, err := marshalRelationshipBlocks(&stored)
	if err != nil {
		return nil, err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO relationships
		 (id, primary_id, primary_type, secondary_id, secondary_type, relationship_type,
		  measurements, attributes, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10, $10)`,
		stored.ID, stored.PrimaryID, string(stored.PrimaryType),
		stored.SecondaryID, string(stored.SecondaryType), string(stored.RelationshipType),
		measurementsJSON, attributesJSON, metadataJSON, now,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: relationship %s %s->%s", ErrDuplicateKey,
				stored.RelationshipType, stored.PrimaryID, stored.SecondaryID)
		}
		return nil, err
	}

	return &stored, nil
}

func (r *PgRelationshipRepository) Update(ctx context.Context, rel *entities.Relationship) (*entities.Relationship, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	measurementsJSON, attributesJSON, metadataJSON, err := marshalRelationshipBlocks(rel)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx,
		`UPDATE relationships SET
		   primary_id = $2, primary_type = $3, secondary_id = $4, secondary_type = $5,
		   relationship_type = $6, measurements = $7::jsonb, attributes = $8::jsonb,
		   metadata = $9::jsonb, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+relationshipColumns,
		rel.ID, rel.PrimaryID, string(rel.PrimaryType), rel.SecondaryID,
		string(rel.SecondaryType), string(rel.RelationshipType),
		measurementsJSON, attributesJSON, metadataJSON,
	)

	updated, err := scanRelationship(row)
	if postgres.IsNoRows(err) {
		return nil, fmt.Errorf("%w: relationship %s", ErrRowNotFound, rel.ID)
	}
	if err != nil && postgres.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: relationship %s", ErrDuplicateKey, rel.ID)
	}
	return updated, err
}

func (r *PgRelationshipRepository) Delete(ctx context.Context, id string) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: relationship %s", ErrRowNotFound, id)
	}
	return nil
}

func (r *PgRelationshipRepository) DeleteMany(ctx context.Context, filter domain.RelationshipFilter) (int, error) {
	if filter.IsEmpty() {
		// Sem filtro seria um TRUNCATE disfarçado.
		return 0, fmt.Errorf("delete many requires at least one filter field")
	}

	q := postgres.QuerierFrom(ctx, r.pool)
	where, args := buildRelationshipWhere(filter)

	tag, err := q.Exec(ctx, `DELETE FROM relationships`+where, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgRelationshipRepository) FindByPrimary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	return r.FindByFilter(ctx, domain.RelationshipFilter{
		PrimaryID:        id,
		PrimaryType:      string(entityType),
		RelationshipType: string(relType),
	})
}

func (r *PgRelationshipRepository) FindBySecondary(ctx context.Context, id string, entityType entities.EntityType, relType entities.RelationshipType) ([]*entities.Relationship, error) {
	return r.FindByFilter(ctx, domain.RelationshipFilter{
		SecondaryID:      id,
		SecondaryType:    string(entityType),
		RelationshipType: string(relType),
	})
}

func (r *PgRelationshipRepository) FindDirectRelationships(ctx context.Context, aID string, aType entities.EntityType, bID string, bType entities.EntityType) ([]*entities.Relationship, error) {
	return r.queryRelationships(ctx,
		`SELECT `+relationshipColumns+` FROM relationships
		 WHERE primary_id = $1 AND primary_type = $2 AND secondary_id = $3 AND secondary_type = $4
		 ORDER BY created_at`,
		aID, string(aType), bID, string(bType),
	)
}

func (r *PgRelationshipRepository) FindAllForEntity(ctx context.Context, id string, entityType entities.EntityType) (*domain.EntityRelationships, error) {
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

func (r *PgRelationshipRepository) RegisterEntityRepository(entityType entities.EntityType, repo EntityRepository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[entityType] = repo
}

// EntityExists valida a ponta de um relacionamento no repositório registrado
// para o tipo.
func (r *PgRelationshipRepository) EntityExists(ctx context.Context, id string, entityType entities.EntityType) (bool, error) {
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

func (r *PgRelationshipRepository) GetStatistics(ctx context.Context) (*domain.RelationshipStatistics, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT relationship_type, COUNT(*) FROM relationships GROUP BY relationship_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationship statistics: %w", err)
	}
	defer rows.Close()

	stats := &domain.RelationshipStatistics{ByType: make(map[entities.RelationshipType]int)}
	for rows.Next() {
		var (
			relType string
			count   int
		)
		if err := rows.Scan(&relType, &count); err != nil {
			return nil, err
		}
		stats.ByType[entities.RelationshipType(relType)] = count
		stats.Total += count
	}

	return stats, rows.Err()
}

func (r *PgRelationshipRepository) queryRelationships(ctx context.Context, query string, args ...any) ([]*entities.Relationship, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var result []*entities.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

func buildRelationshipWhere(filter domain.RelationshipFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("primary_id", filter.PrimaryID)
	add("primary_type", filter.PrimaryType)
	add("secondary_id", filter.SecondaryID)
	add("secondary_type", filter.SecondaryType)
	add("relationship_type", filter.RelationshipType)

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func marshalRelationshipBlocks(rel *entities.Relationship) (string, string, string, error) {
	measurementsJSON, err := json.Marshal(rel.Measurements)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal measurements: %w", err)
	}

	attrs := rel.Attributes()
	if attrs == nil {
		attrs = entities.Document{}
	}
	attributesJSON, err := json.Marshal(attrs)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal attributes: %w", err)
	}

	metadata := rel.Metadata
	if metadata == nil {
		metadata = entities.Document{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return string(measurementsJSON), string(attributesJSON), string(metadataJSON), nil
}

func scanRelationship(row pgx.Row) (*entities.Relationship, error) {
	var (
		rel              entities.Relationship
		primaryType      string
		secondaryType    string
		relationshipType string
		measurementsJSON []byte
		attributesJSON   []byte
		metadataJSON     []byte
	)

	err := row.Scan(&rel.ID, &rel.PrimaryID, &primaryType, &rel.SecondaryID, &secondaryType,
		&relationshipType, &measurementsJSON, &attributesJSON, &metadataJSON,
		&rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rel.PrimaryType = entities.EntityType(primaryType)
	rel.SecondaryType = entities.EntityType(secondaryType)
	rel.RelationshipType = entities.RelationshipType(relationshipType)

	if len(measurementsJSON) > 0 {
		if err := json.Unmarshal(measurementsJSON, &rel.Measurements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal measurements of %s: %w", rel.ID, err)
		}
	}

	var attrs entities.Document
	if len(attributesJSON) > 0 {
		if err := json.Unmarshal(attributesJSON, &attrs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attributes of %s: %w", rel.ID, err)
		}
	}
	if len(attrs) > 0 {
		rel.SetAttributes(attrs)
	}

	if len(metadataJSON) > 0 {
		var metadata entities.Document
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of %s: %w", rel.ID, err)
		}
		if len(metadata) > 0 {
			rel.Metadata = metadata
		}
	}

	return &rel, nil
}
