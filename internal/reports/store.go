package reports

import (
	"context"
	"database/sql"
	"time"

	"TSUMUGI-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

// StockRow は拠点×商品ごとの在庫集計1行
type StockRow struct {
	ProductID     int64
	ProductName   string
	LocationID    int64
	LocationName  string
	Quantity      int
	PurchaseValue int64 // 仕入価格ベースの評価額（円）
}

type transferExportRow struct {
	TransferID       int64
	TransferULID     string
	ProductName      string
	FromLocationName string
	ToLocationName   string
	Quantity         int
	TransferredBy    string
	TransferredAt    time.Time
	Notes            sql.NullString
}

// StockSummary: active なロットのみ集計する。depleted/expired は在庫とみなさない。
func (s *Store) StockSummary(ctx context.Context, locationID int64) ([]StockRow, error) {
	q := `
SELECT p.product_id, p.name, loc.location_id, loc.name,
       COALESCE(SUM(l.quantity), 0),
       COALESCE(SUM(l.quantity * l.purchase_price), 0)
FROM lots l
JOIN products p  ON p.product_id = l.product_id
JOIN locations loc ON loc.location_id = l.location_id
WHERE l.status = 'active'`
	args := []any{}
	if locationID > 0 {
		q += ` AND l.location_id = ?`
		args = append(args, locationID)
	}
	q += `
GROUP BY p.product_id, p.name, loc.location_id, loc.name
ORDER BY loc.name ASC, p.name ASC`

	// 集計は読み取り専用Txで一貫したスナップショットを取る
	var out []StockRow
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r StockRow
			if err := rows.Scan(&r.ProductID, &r.ProductName, &r.LocationID, &r.LocationName,
				&r.Quantity, &r.PurchaseValue); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) TransfersForExport(ctx context.Context, from, to *time.Time) ([]transferExportRow, error) {
	q := `
SELECT t.transfer_id, t.transfer_ulid, p.name, lf.name, lt.name,
       t.quantity, t.transferred_by, t.transferred_at, t.notes
FROM transfers t
JOIN products p   ON p.product_id = t.product_id
JOIN locations lf ON lf.location_id = t.from_location_id
JOIN locations lt ON lt.location_id = t.to_location_id
WHERE 1=1`
	args := []any{}
	if from != nil {
		q += ` AND t.transferred_at >= ?`
		args = append(args, *from)
	}
	if to != nil {
		q += ` AND t.transferred_at < ?`
		args = append(args, *to)
	}
	q += ` ORDER BY t.transferred_at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transferExportRow
	for rows.Next() {
		var r transferExportRow
		if err := rows.Scan(&r.TransferID, &r.TransferULID, &r.ProductName,
			&r.FromLocationName, &r.ToLocationName,
			&r.Quantity, &r.TransferredBy, &r.TransferredAt, &r.Notes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
