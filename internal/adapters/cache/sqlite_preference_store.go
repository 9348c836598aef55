package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite backed preference store. Uses the preferences table created by
// repositories.InitSchema.
type SqlitePreferenceStore struct {
	DB *sql.DB
}

func NewSqlitePreferenceStore(db *sql.DB) *SqlitePreferenceStore {
	return &SqlitePreferenceStore{DB: db}
}

func (s *SqlitePreferenceStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("preference store: db is nil")
	}

	var value string
	err := s.DB.QueryRowContext(ctx, `
	SELECT value
	FROM preferences
	WHERE scope = ? AND key = ?;
	`, scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s/%s: %w", scope, key, err)
	}
	return value, true, nil
}

func (s *SqlitePreferenceStore) Set(ctx context.Context, scope, key, value string) error {
	if s.DB == nil {
		return errors.New("preference store: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO preferences (
		scope,
		key,
		value,
		updated_at
	)
	VALUES (?, ?, ?, ?);
	`, scope, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set preference %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *SqlitePreferenceStore) Remove(ctx context.Context, scope, key string) error {
	if s.DB == nil {
		return errors.New("preference store: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM preferences WHERE scope = ? AND key = ?;`, scope, key); err != nil {
		return fmt.Errorf("remove preference %s/%s: %w", scope, key, err)
	}
	return nil
}
