package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stockgraph/src/domain/entities"
	"stockgraph/src/infra/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgEntityRepository guarda documentos de um tipo de entidade na tabela
// entities. O payload inteiro vive na coluna properties (JSONB); o id fica em
// coluna própria.
type PgEntityRepository struct {
	pool       *pgxpool.Pool
	entityType entities.EntityType
}

func NewPgEntityRepository(pool *pgxpool.Pool, entityType entities.EntityType) *PgEntityRepository {
	return &PgEntityRepository{pool: pool, entityType: entityType}
}

func (r *PgEntityRepository) EntityType() entities.EntityType {
	return r.entityType
}

const entityColumns = `id, type, properties, created_at, updated_at`

func (r *PgEntityRepository) FindByID(ctx context.Context, id string) (*entities.Entity, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = $1 AND type = $2`,
		id, string(r.entityType),
	)

	entity, err := scanEntity(row)
	if postgres.IsNoRows(err) {
		return nil, nil
	}
	return entity, err
}

func (r *PgEntityRepository) FindAll(ctx context.Context) ([]*entities.Entity, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE type = $1 ORDER BY created_at`,
		string(r.entityType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s entities: %w", r.entityType, err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

func (r *PgEntityRepository) FindByFilter(ctx context.Context, filter entities.Document) ([]*entities.Entity, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	// Containment (@>) aproveita o índice GIN em properties. Chaves com
	// caminho pontuado ("tracking.measurement") viram payloads aninhados.
	flat := make(entities.Document, len(filter))
	conditions := []string{"type = $1"}
	args := []any{string(r.entityType)}

	for key, value := range filter {
		if !strings.Contains(key, ".") {
			flat[key] = value
			continue
		}
		nested, err := postgres.BuildSearchJSON(key, value)
		if err != nil {
			return nil, fmt.Errorf("failed to build search payload for %s: %w", key, err)
		}
		args = append(args, nested)
		conditions = append(conditions, fmt.Sprintf("properties @> $%d::jsonb", len(args)))
	}

	if len(flat) > 0 {
		filterJSON, err := json.Marshal(flat)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", err)
		}
		args = append(args, string(filterJSON))
		conditions = append(conditions, fmt.Sprintf("properties @> $%d::jsonb", len(args)))
	}

	rows, err := q.Query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE `+strings.Join(conditions, " AND ")+` ORDER BY created_at`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s entities by filter: %w", r.entityType, err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

func (r *PgEntityRepository) Create(ctx context.Context, doc entities.Document) (*entities.Entity, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	id, props := splitID(doc)
	if id == "" {
		id = uuid.NewString()
	}

	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s document: %w", r.entityType, err)
	}

	now := time.Now().UTC()
	_, err = q.Exec(ctx,
		`INSERT INTO entities (id, type, properties, created_at, updated_at) VALUES ($1, $2, $3::jsonb, $4, $4)`,
		id, string(r.entityType), string(propsJSON), now,
	)
	if err != nil {
		return nil, err
	}

	return &entities.Entity{
		ID:         id,
		Type:       r.entityType,
		Properties: props,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Update faz merge raso do patch sobre properties.
func (r *PgEntityRepository) Update(ctx context.Context, id string, patch entities.Document) (*entities.Entity, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	_, patchProps := splitID(patch)
	patchJSON, err := json.Marshal(patchProps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s patch: %w", r.entityType, err)
	}

	row := q.QueryRow(ctx,
		`UPDATE entities
		 SET properties = COALESCE(properties, '{}'::jsonb) || $3::jsonb, updated_at = NOW()
		 WHERE id = $1 AND type = $2
		 RETURNING `+entityColumns,
		id, string(r.entityType), string(patchJSON),
	)

	entity, err := scanEntity(row)
	if postgres.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s %s", ErrRowNotFound, r.entityType, id)
	}
	return entity, err
}

// UpdateRaw aplica o documento de operadores crus: remove os campos de Unset
// (ficam ausentes, não nulos) e sobrescreve os de Set.
func (r *PgEntityRepository) UpdateRaw(ctx context.Context, id string, raw RawUpdate) (*entities.Entity, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	setJSON, err := json.Marshal(raw.Set)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw set: %w", err)
	}

	unset := raw.Unset
	if unset == nil {
		unset = []string{}
	}

	row := q.QueryRow(ctx,
		`UPDATE entities
		 SET properties = (COALESCE(properties, '{}'::jsonb) - $3::text[]) || $4::jsonb, updated_at = NOW()
		 WHERE id = $1 AND type = $2
		 RETURNING `+entityColumns,
		id, string(r.entityType), unset, string(setJSON),
	)

	entity, err := scanEntity(row)
	if postgres.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s %s", ErrRowNotFound, r.entityType, id)
	}
	return entity, err
}

func (r *PgEntityRepository) Delete(ctx context.Context, id string) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`DELETE FROM entities WHERE id = $1 AND type = $2`,
		id, string(r.entityType),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrRowNotFound, r.entityType, id)
	}
	return nil
}

func (r *PgEntityRepository) DeleteMany(ctx context.Context, filter entities.Document) (int, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}

	tag, err := q.Exec(ctx,
		`DELETE FROM entities WHERE type = $1 AND properties @> $2::jsonb`,
		string(r.entityType), string(filterJSON),
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// splitID separa o campo id do restante do documento, sem mutar o original.
func splitID(doc entities.Document) (string, entities.Document) {
	props := make(entities.Document, len(doc))
	id := ""
	for k, v := range doc {
		if k == "id" {
			if s, ok := v.(string); ok {
				id = s
			}
			continue
		}
		props[k] = v
	}
	return id, props
}

func scanEntity(row pgx.Row) (*entities.Entity, error) {
	var (
		entity    entities.Entity
		entType   string
		propsJSON []byte
	)

	if err := row.Scan(&entity.ID, &entType, &propsJSON, &entity.CreatedAt, &entity.UpdatedAt); err != nil {
		return nil, err
	}

	entity.Type = entities.EntityType(entType)
	if len(propsJSON) > 0 {
		if err := json.Unmarshal(propsJSON, &entity.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal properties of %s: %w", entity.ID, err)
		}
	}

	return &entity, nil
}

func collectEntities(rows pgx.Rows) ([]*entities.Entity, error) {
	var result []*entities.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}
