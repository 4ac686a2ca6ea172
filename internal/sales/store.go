package sales

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TSUMUGI-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

// ExecCreateSale: 売上の全Txフロー。
//  1. 顧客の状態チェック（要注意先には販売しない）
//  2. ロットをロックして残量チェック
//  3. ロットを減算（0になったら depleted）
//  4. sales 行を INSERT
//
// m.LotID / m.CustomerID / m.Quantity / m.SoldBy / m.SaleULID / m.SoldAt /
// m.Notes は呼び出し側で設定済みの想定。UnitPrice が 0 ならロットの売価を使う。
func (s *Store) ExecCreateSale(ctx context.Context, m *Sale) error {
	return db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		// 1. 顧客チェック
		var custStatus string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM customers WHERE customer_id = ?`, m.CustomerID).Scan(&custStatus)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound("customer not found")
			}
			return err
		}
		if custStatus == "red_listed" {
			return ErrConflict("customer is red-listed, sale refused")
		}

		// 2. ロットをロック
		var (
			productID    int64
			lotQty       int
			lotStatus    string
			sellingPrice int64
		)
		err = tx.QueryRowContext(ctx,
			`SELECT product_id, quantity, status, selling_price FROM lots WHERE lot_id = ? FOR UPDATE`,
			m.LotID).Scan(&productID, &lotQty, &lotStatus, &sellingPrice)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound("lot not found")
			}
			return err
		}
		if lotStatus != "active" {
			return ErrConflict("lot is not active")
		}
		if lotQty < m.Quantity {
			return ErrConflict("insufficient stock")
		}

		m.ProductID = productID
		if m.UnitPrice == 0 {
			m.UnitPrice = sellingPrice
		}
		m.Total = m.UnitPrice * int64(m.Quantity)

		// 3. ロット減算。status の判定を先に行う
		// （MySQL は代入を左から右に評価するため、quantity を先に更新すると
		// IF が更新後の値を見てしまう）。
		res, err := tx.ExecContext(ctx,
			`UPDATE lots SET status = IF(quantity - ? = 0, 'depleted', status), quantity = quantity - ? WHERE lot_id = ?`,
			m.Quantity, m.Quantity, m.LotID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to update lot quantity")
		}

		// 4. sales 行
		id, err := db.InsertReturningID(ctx, tx, `
INSERT INTO sales
(sale_ulid, product_id, lot_id, customer_id, quantity, unit_price, total, sold_by, sold_at, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.SaleULID, m.ProductID, m.LotID, m.CustomerID,
			m.Quantity, m.UnitPrice, m.Total, m.SoldBy, m.SoldAt,
			nullStrOrNil(m.Notes),
		)
		if err != nil {
			return err
		}
		m.SaleID = id
		return nil
	})
}

// ---- Queries ----

const selectSale = `
SELECT
s.sale_id, s.sale_ulid, s.product_id, COALESCE(p.name,'') AS product_name,
s.lot_id, s.customer_id, COALESCE(c.name,'') AS customer_name,
s.quantity, s.unit_price, s.total, s.sold_by, s.sold_at, s.notes
FROM sales s
LEFT JOIN products p ON p.product_id = s.product_id
LEFT JOIN customers c ON c.customer_id = s.customer_id
`

type saleRow struct {
	Sale
	ProductName  string
	CustomerName string
}

func scanSale(sc interface{ Scan(...any) error }) (*saleRow, error) {
	var r saleRow
	err := sc.Scan(
		&r.SaleID, &r.SaleULID, &r.ProductID, &r.ProductName,
		&r.LotID, &r.CustomerID, &r.CustomerName,
		&r.Quantity, &r.UnitPrice, &r.Total, &r.SoldBy, &r.SoldAt, &r.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*saleRow, error) {
	q := selectSale + ` WHERE s.sale_id = ?`
	row, err := scanSale(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("sale not found")
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) List(ctx context.Context, f SaleFilter, p Page) ([]saleRow, int64, error) {
	where := strings.Builder{}
	where.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.CustomerID > 0 {
		where.WriteString(` AND s.customer_id = ?`)
		args = append(args, f.CustomerID)
	}
	if f.ProductID > 0 {
		where.WriteString(` AND s.product_id = ?`)
		args = append(args, f.ProductID)
	}
	if f.From != nil {
		where.WriteString(` AND s.sold_at >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		where.WriteString(` AND s.sold_at < ?`)
		args = append(args, *f.To)
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

	q := selectSale + where.String() + fmt.Sprintf(` ORDER BY s.sold_at %s LIMIT ? OFFSET ?`, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []saleRow
	for rows.Next() {
		r, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*) FROM sales s` + where.String()
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}
