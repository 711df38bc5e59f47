package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/karnoweb/viewable/internal/model"
)

// EntityTable describes where rows of one viewable entity type live.
type EntityTable struct {
	// Table is the backing table name.
	Table string
	// IDColumn is the primary key column, compared as text against the
	// opaque entity ids carried on events and aggregates.
	IDColumn string
	// Columns are the attribute columns loaded into Entity.Attributes.
	Columns []string
}

// TableEntityResolver loads entity attributes from registered tables.
// Ranking and trending use it to hydrate results and to drop entries whose
// entity has been deleted since its views were recorded.
type TableEntityResolver struct {
	repo   *Repository
	tables map[string]EntityTable
}

// NewTableEntityResolver creates a resolver with no registered types.
func NewTableEntityResolver(repo *Repository) *TableEntityResolver {
	return &TableEntityResolver{repo: repo, tables: make(map[string]EntityTable)}
}

// Register maps an entity type to its backing table. Not safe to call
// concurrently with Resolve; do all registration during startup.
func (r *TableEntityResolver) Register(entityType string, table EntityTable) {
	r.tables[entityType] = table
}

// Resolve loads the named entities, keyed by id. IDs with no backing row
// are simply absent from the result. An unregistered type resolves every
// id to a bare Entity so rankings still render without attributes.
func (r *TableEntityResolver) Resolve(ctx context.Context, entityType string, ids []string) (map[string]model.Entity, error) {
	if len(ids) == 0 {
		return map[string]model.Entity{}, nil
	}

	table, ok := r.tables[entityType]
	if !ok {
		out := make(map[string]model.Entity, len(ids))
		for _, id := range ids {
			out[id] = model.Entity{Type: entityType, ID: id}
		}
		return out, nil
	}

	cols := table.IDColumn + "::text"
	if len(table.Columns) > 0 {
		cols += ", " + strings.Join(table.Columns, ", ")
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s::text = ANY($1)",
		cols, table.Table, table.IDColumn,
	)

	rows, err := r.repo.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve %s entities: %w", entityType, err)
	}
	defer rows.Close()

	out := make(map[string]model.Entity, len(ids))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s entity: %w", entityType, err)
		}

		id, _ := values[0].(string)
		entity := model.Entity{Type: entityType, ID: id}
		if len(values) > 1 {
			entity.Attributes = make(map[string]any, len(values)-1)
			for i, col := range table.Columns {
				entity.Attributes[col] = values[i+1]
			}
		}
		out[id] = entity
	}

	return out, rows.Err()
}
