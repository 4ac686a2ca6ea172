package locations

import (
	"context"
	"database/sql"
	"strings"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, l *Location) error {
	const q = `
INSERT INTO locations (name, type, address, status, created_at)
VALUES (?, ?, ?, 'active', NOW(6))`
	res, err := s.db.ExecContext(ctx, q, l.Name, l.Type, l.Address)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	l.LocationID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Location, error) {
	const q = `
SELECT location_id, name, type, address, status, created_at
FROM locations WHERE location_id = ?`
	var l Location
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&l.LocationID, &l.Name, &l.Type, &l.Address, &l.Status, &l.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("location not found")
		}
		return nil, err
	}
	return &l, nil
}

// ListFilter: 振替先候補リスト用。ExcludeID で振替元を除外する。
type ListFilter struct {
	ActiveOnly bool
	ExcludeID  int64
	NameQuery  string
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]Location, error) {
	sb := strings.Builder{}
	sb.WriteString(`
SELECT location_id, name, type, address, status, created_at
FROM locations
WHERE 1=1`)

	args := []any{}
	if f.ActiveOnly {
		sb.WriteString(` AND status = 'active'`)
	}
	if f.ExcludeID > 0 {
		sb.WriteString(` AND location_id <> ?`)
		args = append(args, f.ExcludeID)
	}
	if f.NameQuery != "" {
		// 照合順序が *_ci なので LIKE はそのまま大文字小文字を無視する
		sb.WriteString(` AND name LIKE ?`)
		args = append(args, "%"+f.NameQuery+"%")
	}
	sb.WriteString(` ORDER BY location_id`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.LocationID, &l.Name, &l.Type, &l.Address, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id int64, req UpdateLocationRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *req.Type)
	}
	if req.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *req.Address)
	}
	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *req.Status)
	}
	if len(sets) == 0 {
		return 0, ErrInvalid("no fields to update")
	}

	q := `UPDATE locations SET ` + strings.Join(sets, ", ") + ` WHERE location_id = ?`
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
