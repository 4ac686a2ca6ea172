package activity

import (
	"context"
	"database/sql"
	"fmt"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

func (s *Store) Insert(ctx context.Context, a *Activity) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (actor_id, module, action, detail) VALUES (?, ?, ?, ?)`,
		a.ActorID, a.Module, a.Action, a.Detail)
	if err != nil {
		return err
	}
	a.ActivityID, _ = res.LastInsertId()
	return nil
}

func (s *Store) List(ctx context.Context, f ActivityFilter, p Page) ([]Activity, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Module != "" {
		where += " AND module = ?"
		args = append(args, f.Module)
	}
	if f.ActorID != "" {
		where += " AND actor_id = ?"
		args = append(args, f.ActorID)
	}
	if f.From != nil {
		where += " AND created_at >= ?"
		args = append(args, *f.From)
	}
	if f.To != nil {
		where += " AND created_at < ?"
		args = append(args, *f.To)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT activity_id, actor_id, module, action, detail, created_at
FROM activities%s ORDER BY activity_id DESC LIMIT ? OFFSET ?`, where)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Activity, 0, p.Limit)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ActivityID, &a.ActorID, &a.Module, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
