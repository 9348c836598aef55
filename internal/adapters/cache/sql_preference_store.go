package cache

import (
	"context"
	"database/sql"
	"dispatch-board-service/internal/platform/obs"
	"errors"
	"fmt"
)

// SQLPreferenceStore is a PostgreSQL backed preference store. Uses the table
// created by repositories.InitPostgresSchema.
type SQLPreferenceStore struct {
	DB *sql.DB
}

func NewSQLPreferenceStore(db *sql.DB) *SQLPreferenceStore {
	return &SQLPreferenceStore{DB: db}
}

func (s *SQLPreferenceStore) Get(ctx context.Context, scope, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "preferences.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("preference store: db is nil")
	}

	var value string
	err = s.DB.QueryRowContext(ctx, `
	SELECT value
	FROM preferences
	WHERE scope = $1 AND key = $2;
	`, scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s/%s: %w", scope, key, err)
	}
	return value, true, nil
}

func (s *SQLPreferenceStore) Set(ctx context.Context, scope, key, value string) (err error) {
	defer obs.Time(ctx, "preferences.Set")(&err)

	if s.DB == nil {
		return errors.New("preference store: db is nil")
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO preferences (scope, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (scope, key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;
	`, scope, key, value)
	if err != nil {
		return fmt.Errorf("set preference %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *SQLPreferenceStore) Remove(ctx context.Context, scope, key string) error {
	if s.DB == nil {
		return errors.New("preference store: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM preferences WHERE scope = $1 AND key = $2;`, scope, key); err != nil {
		return fmt.Errorf("remove preference %s/%s: %w", scope, key, err)
	}
	return nil
}
