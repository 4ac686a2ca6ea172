package customers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

const selectCustomer = `
SELECT customer_id, name, phone, address, status, outstanding_balance, notes, created_at
FROM customers`

func scanCustomer(row *sql.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.CustomerID, &c.Name, &c.Phone, &c.Address,
		&c.Status, &c.OutstandingBalance, &c.Notes, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("customer not found")
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(s.db.QueryRowContext(ctx, selectCustomer+` WHERE customer_id = ?`, id))
}

func (s *Store) Insert(ctx context.Context, c *Customer) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, phone, address, status, outstanding_balance, notes)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		c.Name, c.Phone, c.Address, StatusActive, c.Notes)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == 1062 {
			return ErrConflict("customer already exists")
		}
		return err
	}
	c.CustomerID, _ = res.LastInsertId()
	return nil
}

func (s *Store) Update(ctx context.Context, c *Customer) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, phone = ?, address = ?, notes = ? WHERE customer_id = ?`,
		c.Name, c.Phone, c.Address, c.Notes, c.CustomerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// 値が同一の更新でも 0 になりうるので存在確認だけする
		if _, err := s.GetByID(ctx, c.CustomerID); err != nil {
			return err
		}
	}
	return nil
}

// SetStatus: active <-> red_listed の遷移。理由は notes に追記される想定で
// サービス側が組み立てる。
func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET status = ? WHERE customer_id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AddOutstanding(ctx context.Context, id int64, delta int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE customers SET outstanding_balance = outstanding_balance + ? WHERE customer_id = ?`,
		delta, id)
	return err
}

func (s *Store) List(ctx context.Context, f CustomerFilter, p Page) ([]Customer, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.NameQuery != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+f.NameQuery+"%")
	}
	if f.RedListedOnly {
		where += " AND status = ?"
		args = append(args, StatusRedListed)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if p.Order == "desc" {
		order = "DESC"
	}
	q := fmt.Sprintf(selectCustomer+where+` ORDER BY name %s LIMIT ? OFFSET ?`, order)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Customer, 0, p.Limit)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Phone, &c.Address,
			&c.Status, &c.OutstandingBalance, &c.Notes, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
