package labels

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository persists shortcut bindings and agent settings. Marks are
// never stored here.
type Repository interface {
	ListBindings(ctx context.Context) ([]Binding, error)
	SaveBinding(ctx context.Context, b Binding) error
	DeleteBinding(ctx context.Context, combo Combo) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListBindings(ctx context.Context) ([]Binding, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT combo, label FROM label_bindings ORDER BY combo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		var b Binding
		var combo string
		if err := rows.Scan(&combo, &b.Label); err != nil {
			return nil, err
		}
		b.Combo = Combo(combo)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveBinding(ctx context.Context, b Binding) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO label_bindings (combo, label, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(combo) DO UPDATE SET label = excluded.label, updated_at = excluded.updated_at
	`, string(b.Combo), b.Label, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) DeleteBinding(ctx context.Context, combo Combo) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM label_bindings WHERE combo = ?`, string(combo))
	return err
}

// GetConfig returns "" with a nil error when the key is absent.
func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// LoadInto binds every persisted binding into reg. Rows that no longer
// parse or collide are skipped and returned as errors.
func LoadInto(ctx context.Context, repo Repository, reg *Registry) ([]Binding, error) {
	stored, err := repo.ListBindings(ctx)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, b := range stored {
		if _, err := reg.Bind(string(b.Combo), b.Label); err != nil {
			errs = append(errs, err)
		}
	}
	return stored, errors.Join(errs...)
}
