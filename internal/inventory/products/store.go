package products

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// 一覧・詳細で共通のSELECT句。total_stock は有効ロットのSUM。
const selectProduct = `
SELECT
p.product_id, p.product_ulid, p.name, p.category, p.unit,
p.default_location_id, COALESCE(l.name, '') AS default_location_name,
p.status, p.created_at,
COALESCE(st.total_qty, 0) AS total_stock
FROM products p
LEFT JOIN locations l ON l.location_id = p.default_location_id
LEFT JOIN (
SELECT product_id, SUM(quantity) AS total_qty
FROM lots WHERE status = 'active'
GROUP BY product_id
) st ON st.product_id = p.product_id
`

type productRow struct {
	Product
	DefaultLocationName string
	TotalStock          int
}

func scanProduct(sc interface{ Scan(...any) error }) (*productRow, error) {
	var r productRow
	err := sc.Scan(
		&r.ProductID, &r.ProductULID, &r.Name, &r.Category, &r.Unit,
		&r.DefaultLocationID, &r.DefaultLocationName,
		&r.Status, &r.CreatedAt, &r.TotalStock,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Insert(ctx context.Context, p *Product) error {
	const q = `
INSERT INTO products (product_ulid, name, category, unit, default_location_id, status, created_at)
VALUES (?, ?, ?, ?, ?, 'active', NOW(6))`
	res, err := s.db.ExecContext(ctx, q, p.ProductULID, p.Name, p.Category, p.Unit, p.DefaultLocationID)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	p.ProductID = id
	p.CreatedAt = time.Now().UTC()
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*productRow, error) {
	q := selectProduct + ` WHERE p.product_id = ?`
	row, err := scanProduct(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("product not found")
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*productRow, error) {
	q := selectProduct + ` WHERE p.product_ulid = ?`
	row, err := scanProduct(s.db.QueryRowContext(ctx, q, ulid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("product not found")
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) List(ctx context.Context, f ProductFilter, p Page) ([]productRow, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.NameQuery != "" {
		where.WriteString(` AND p.name LIKE ?`)
		args = append(args, "%"+f.NameQuery+"%")
	}
	if f.Category != "" {
		where.WriteString(` AND p.category = ?`)
		args = append(args, f.Category)
	}
	if f.ActiveOnly {
		where.WriteString(` AND p.status = 'active'`)
	}

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	q := selectProduct + where.String() + fmt.Sprintf(` ORDER BY p.product_id %s LIMIT ? OFFSET ?`, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []productRow
	for rows.Next() {
		r, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*) FROM products p` + where.String()
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Update(ctx context.Context, id int64, req UpdateProductRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *req.Category)
	}
	if req.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *req.Unit)
	}
	if req.DefaultLocationID != nil {
		sets = append(sets, "default_location_id = ?")
		args = append(args, *req.DefaultLocationID)
	}
	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *req.Status)
	}
	if len(sets) == 0 {
		return 0, ErrInvalid("no fields to update")
	}

	q := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE product_id = ?`
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
