package lots

import (
	"context"
	"database/sql"
	"strings"

	"TSUMUGI-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

const selectLot = `
SELECT
lt.lot_id, lt.lot_ulid, lt.product_id, lt.lot_number, lt.quantity,
lt.purchase_price, lt.selling_price, lt.location_id, COALESCE(l.name, '') AS location_name,
lt.received_date, lt.expiry_date, lt.status, lt.notes
FROM lots lt
LEFT JOIN locations l ON l.location_id = lt.location_id
`

type lotRow struct {
	Lot
	LocationName string
}

func scanLot(sc interface{ Scan(...any) error }) (*lotRow, error) {
	var r lotRow
	err := sc.Scan(
		&r.LotID, &r.LotULID, &r.ProductID, &r.LotNumber, &r.Quantity,
		&r.PurchasePrice, &r.SellingPrice, &r.LocationID, &r.LocationName,
		&r.ReceivedDate, &r.ExpiryDate, &r.Status, &r.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertReceived: 入荷登録。
// ロット番号は商品ごとの連番なので、採番と INSERT を同一Txで行う。
func (s *Store) InsertReceived(ctx context.Context, m *Lot) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		// 採番の競合を避けるため商品内の最大ロット番号をロックして取得
		const numQ = `
SELECT COALESCE(MAX(lot_number), 0) FROM lots WHERE product_id = ? FOR UPDATE`
		var maxNo int
		if err := tx.QueryRowContext(ctx, numQ, m.ProductID).Scan(&maxNo); err != nil {
			return err
		}
		m.LotNumber = maxNo + 1

		const q = `
INSERT INTO lots
(lot_ulid, product_id, lot_number, quantity, purchase_price, selling_price,
 location_id, received_date, expiry_date, status, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', ?)`
		id, err := db.InsertReturningID(ctx, tx, q,
			m.LotULID, m.ProductID, m.LotNumber, m.Quantity,
			m.PurchasePrice, m.SellingPrice, m.LocationID,
			m.ReceivedDate, m.ExpiryDate, m.Notes,
		)
		if err != nil {
			return err
		}
		m.LotID = id
		return nil
	})
}

func (s *Store) GetByID(ctx context.Context, id int64) (*lotRow, error) {
	q := selectLot + ` WHERE lt.lot_id = ?`
	row, err := scanLot(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("lot not found")
		}
		return nil, err
	}
	return row, nil
}

// ListActive: 振替のロット選択ステップ用。
// 有効ステータスかつ残量ありのロットを、操作者のアクセス可能拠点で絞り込み、
// ロット番号昇順で返す。accessibleLocationIDs が nil なら拠点制限なし。
func (s *Store) ListActive(ctx context.Context, productID int64, accessibleLocationIDs []int64) ([]lotRow, error) {
	sb := strings.Builder{}
	sb.WriteString(selectLot)
	sb.WriteString(` WHERE lt.product_id = ? AND lt.status = 'active' AND lt.quantity > 0`)
	args := []any{productID}

	if accessibleLocationIDs != nil {
		if len(accessibleLocationIDs) == 0 {
			return nil, nil
		}
		sb.WriteString(` AND lt.location_id IN (?` + strings.Repeat(",?", len(accessibleLocationIDs)-1) + `)`)
		for _, id := range accessibleLocationIDs {
			args = append(args, id)
		}
	}
	sb.WriteString(` ORDER BY lt.lot_number ASC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lotRow
	for rows.Next() {
		r, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context, f LotFilter) ([]lotRow, error) {
	sb := strings.Builder{}
	sb.WriteString(selectLot)
	sb.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.ProductID > 0 {
		sb.WriteString(` AND lt.product_id = ?`)
		args = append(args, f.ProductID)
	}
	if f.LocationID > 0 {
		sb.WriteString(` AND lt.location_id = ?`)
		args = append(args, f.LocationID)
	}
	if f.Status != "" {
		sb.WriteString(` AND lt.status = ?`)
		args = append(args, f.Status)
	}
	sb.WriteString(` ORDER BY lt.product_id, lt.lot_number ASC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lotRow
	for rows.Next() {
		r, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id int64, req UpdateLotRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if req.SellingPrice != nil {
		sets = append(sets, "selling_price = ?")
		args = append(args, *req.SellingPrice)
	}
	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *req.Status)
	}
	if req.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *req.Notes)
	}
	if len(sets) == 0 {
		return 0, ErrInvalid("no fields to update")
	}
	q := `UPDATE lots SET ` + strings.Join(sets, ", ") + ` WHERE lot_id = ?`
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
