package sqlexec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielvallecillo77/DBFlow/internal/domain"
)

// ModelWriter upserts domain models into a single table, keyed by the model
// key so re-saving an object replaces the prior row.
type ModelWriter struct {
	tableName string
}

func NewModelWriter(table string) *ModelWriter {
	return &ModelWriter{tableName: table}
}

func (w *ModelWriter) WriteItem(ctx context.Context, tx *sql.Tx, m *domain.Model) error {
	fields, err := json.Marshal(m.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	query := "INSERT INTO " + w.tableName +
		" (key, kind, fields, updated_at, revision) VALUES ($1,$2,$3,$4,$5)" +
		" ON CONFLICT (key) DO UPDATE SET" +
		" kind = EXCLUDED.kind, fields = EXCLUDED.fields," +
		" updated_at = EXCLUDED.updated_at, revision = EXCLUDED.revision"

	_, err = tx.ExecContext(ctx, query, m.Key, m.Kind, fields, m.UpdatedAt, m.Revision)
	return err
}

var _ ItemWriter[*domain.Model] = (*ModelWriter)(nil)
