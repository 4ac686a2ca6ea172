package auth

import (
	"context"
	"database/sql"
	"errors"
)

type Account struct {
	ID           string
	PasswordHash string
	Role         string
	IsDisabled   bool
	CreatedAt    string
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	ListLocationIDs(ctx context.Context, accountID string) ([]int64, error)
	Create(ctx context.Context, a *Account, locationIDs []int64) error
	Delete(ctx context.Context, id string) (int64, error)
	UpdateID(ctx context.Context, oldID, newID string) (int64, error)
	ReplaceLocations(ctx context.Context, accountID string, locationIDs []int64) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `
SELECT id, password_hash, role, is_disabled, created_at
FROM auth_accounts
WHERE id = ?
LIMIT 1
`
	var a Account
	var isDisabledInt int
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID,
		&a.PasswordHash,
		&a.Role,
		&isDisabledInt,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if isDisabledInt != 0 {
		a.IsDisabled = true
	}
	return &a, nil
}

// ListLocationIDs: 拠点スコープ付きロール用のアクセス可能拠点一覧
func (s *Store) ListLocationIDs(ctx context.Context, accountID string) ([]int64, error) {
	const q = `
SELECT location_id FROM account_locations
WHERE account_id = ?
ORDER BY location_id
`
	rows, err := s.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Create(ctx context.Context, a *Account, locationIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
INSERT INTO auth_accounts (id, password_hash, role, is_disabled, created_at)
VALUES (?, ?, ?, 0, NOW(6))
`
	if _, err = tx.ExecContext(ctx, q, a.ID, a.PasswordHash, a.Role); err != nil {
		return err
	}
	for _, locID := range locationIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO account_locations (account_id, location_id) VALUES (?, ?)`,
			a.ID, locID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	// account_locations は FK ON DELETE CASCADE
	const q = `DELETE FROM auth_accounts WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) UpdateID(ctx context.Context, oldID, newID string) (int64, error) {
	const q = `UPDATE auth_accounts SET id = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, newID, oldID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ReplaceLocations(ctx context.Context, accountID string, locationIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM account_locations WHERE account_id = ?`, accountID); err != nil {
		return err
	}
	for _, locID := range locationIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO account_locations (account_id, location_id) VALUES (?, ?)`,
			accountID, locID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
