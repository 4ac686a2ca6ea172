package transfers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TSUMUGI-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

// 振替元ロットのロック取得用
type lockedLot struct {
	LotID         int64
	ProductID     int64
	LotNumber     int
	Quantity      int
	Status        string
	LocationID    int64
	PurchasePrice int64
	SellingPrice  int64
	ExpiryDate    sql.NullTime
}

func lockLotRow(ctx context.Context, tx db.DBTX, lotID int64) (*lockedLot, error) {
	const q = `
SELECT lot_id, product_id, lot_number, quantity, status, location_id,
       purchase_price, selling_price, expiry_date
FROM lots WHERE lot_id = ? FOR UPDATE`
	var l lockedLot
	err := tx.QueryRowContext(ctx, q, lotID).Scan(
		&l.LotID, &l.ProductID, &l.LotNumber, &l.Quantity, &l.Status, &l.LocationID,
		&l.PurchasePrice, &l.SellingPrice, &l.ExpiryDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("lot not found")
		}
		return nil, err
	}
	return &l, nil
}

// GetLotForTransfer: 権限チェック・バリデーション用の軽い読み取り（ロックなし）
func (s *Store) GetLotForTransfer(ctx context.Context, lotID int64) (*lockedLot, error) {
	const q = `
SELECT lot_id, product_id, lot_number, quantity, status, location_id,
       purchase_price, selling_price, expiry_date
FROM lots WHERE lot_id = ?`
	var l lockedLot
	err := s.db.QueryRowContext(ctx, q, lotID).Scan(
		&l.LotID, &l.ProductID, &l.LotNumber, &l.Quantity, &l.Status, &l.LocationID,
		&l.PurchasePrice, &l.SellingPrice, &l.ExpiryDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("lot not found")
		}
		return nil, err
	}
	return &l, nil
}

// TotalActiveStock: 商品の有効ロット残量の合計
func (s *Store) TotalActiveStock(ctx context.Context, productID int64) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity),0) FROM lots WHERE product_id = ? AND status = 'active'`
	var total int
	if err := s.db.QueryRowContext(ctx, q, productID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ExecCreateTransfer: 振替の全Txフロー。
//  1. 振替元ロットをロック
//  2. 残量・ステータスの再チェック（二重送信・競合はここで弾かれる）
//  3. 振替元ロットを減算（0になったら depleted）
//  4. 振替先に新しいロットを採番して作成（単価・使用期限は引き継ぐ）
//  5. transfers 行を INSERT
//
// m.LotID / m.Quantity / m.ToLocationID / m.TransferredBy / m.TransferULID /
// m.TransferredAt / m.Notes は呼び出し側で設定済みの想定。
func (s *Store) ExecCreateTransfer(ctx context.Context, m *Transfer, newLotULID string) error {
	return db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		// 1. ロック
		src, err := lockLotRow(ctx, tx, m.LotID)
		if err != nil {
			return err
		}
		if src.ProductID != m.ProductID {
			return ErrInvalid("lot does not belong to product")
		}
		if src.Status != "active" {
			return ErrConflict("lot is not active")
		}
		if src.LocationID == m.ToLocationID {
			return ErrValidation("to_location_id", "source and destination are the same location")
		}

		// 2. 残量チェック
		if src.Quantity < m.Quantity {
			return ErrConflict("insufficient lot quantity")
		}

		m.FromLocationID = src.LocationID

		// 3. 振替元を減算。
		// MySQLのUPDATEは代入を左から右に評価し、後続の代入は更新後の値を見るので、
		// status の判定を先に（更新前の quantity で）行う。
		res, err := tx.ExecContext(ctx,
			`UPDATE lots SET status = IF(quantity - ? = 0, 'depleted', status), quantity = quantity - ? WHERE lot_id = ?`,
			m.Quantity, m.Quantity, m.LotID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to update source lot quantity")
		}

		// 4. 振替先ロットの採番と作成
		var maxNo int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(lot_number), 0) FROM lots WHERE product_id = ? FOR UPDATE`,
			m.ProductID).Scan(&maxNo); err != nil {
			return err
		}
		newLotNotes := fmt.Sprintf("transferred from lot #%d", src.LotNumber)
		newLotID, err := db.InsertReturningID(ctx, tx, `
INSERT INTO lots
(lot_ulid, product_id, lot_number, quantity, purchase_price, selling_price,
 location_id, received_date, expiry_date, status, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', ?)`,
			newLotULID, m.ProductID, maxNo+1, m.Quantity,
			src.PurchasePrice, src.SellingPrice, m.ToLocationID,
			m.TransferredAt, src.ExpiryDate, newLotNotes,
		)
		if err != nil {
			return err
		}
		m.NewLotID = newLotID

		// 5. transfers 行
		transferID, err := db.InsertReturningID(ctx, tx, `
INSERT INTO transfers
(transfer_ulid, product_id, lot_id, new_lot_id, from_location_id, to_location_id,
 quantity, transferred_by, transferred_at, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.TransferULID, m.ProductID, m.LotID, m.NewLotID,
			m.FromLocationID, m.ToLocationID, m.Quantity,
			m.TransferredBy, m.TransferredAt, nullStrOrNil(m.Notes),
		)
		if err != nil {
			return err
		}
		m.TransferID = transferID
		return nil
	})
}

// ---- Queries ----

const selectTransfer = `
SELECT
t.transfer_id, t.transfer_ulid, t.product_id, COALESCE(p.name,'') AS product_name,
t.lot_id, t.new_lot_id,
t.from_location_id, COALESCE(fl.name,'') AS from_location_name,
t.to_location_id, COALESCE(tl.name,'') AS to_location_name,
t.quantity, t.transferred_by, t.transferred_at, t.notes
FROM transfers t
LEFT JOIN products p ON p.product_id = t.product_id
LEFT JOIN locations fl ON fl.location_id = t.from_location_id
LEFT JOIN locations tl ON tl.location_id = t.to_location_id
`

type transferRow struct {
	Transfer
	ProductName      string
	FromLocationName string
	ToLocationName   string
}

func scanTransfer(sc interface{ Scan(...any) error }) (*transferRow, error) {
	var r transferRow
	err := sc.Scan(
		&r.TransferID, &r.TransferULID, &r.ProductID, &r.ProductName,
		&r.LotID, &r.NewLotID,
		&r.FromLocationID, &r.FromLocationName,
		&r.ToLocationID, &r.ToLocationName,
		&r.Quantity, &r.TransferredBy, &r.TransferredAt, &r.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*transferRow, error) {
	q := selectTransfer + ` WHERE t.transfer_id = ?`
	row, err := scanTransfer(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("transfer not found")
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*transferRow, error) {
	q := selectTransfer + ` WHERE t.transfer_ulid = ?`
	row, err := scanTransfer(s.db.QueryRowContext(ctx, q, ulid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("transfer not found")
		}
		return nil, err
	}
	return row, nil
}

func buildTransferWhere(f TransferFilter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.ProductID > 0 {
		sb.WriteString(` AND t.product_id = ?`)
		args = append(args, f.ProductID)
	}
	if f.LocationID > 0 {
		sb.WriteString(` AND (t.from_location_id = ? OR t.to_location_id = ?)`)
		args = append(args, f.LocationID, f.LocationID)
	}
	if f.From != nil {
		sb.WriteString(` AND t.transferred_at >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		sb.WriteString(` AND t.transferred_at < ?`)
		args = append(args, *f.To)
	}
	return sb.String(), args
}

func (s *Store) List(ctx context.Context, f TransferFilter, p Page) ([]transferRow, int64, error) {
	where, args := buildTransferWhere(f)

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

	q := selectTransfer + where + fmt.Sprintf(` ORDER BY t.transferred_at %s LIMIT ? OFFSET ?`, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []transferRow
	for rows.Next() {
		r, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	cq := `SELECT COUNT(*) FROM transfers t` + where
	if err := s.db.QueryRowContext(ctx, cq, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAllForExport: CSVエクスポート用（ページングなし・日付範囲のみ）
func (s *Store) ListAllForExport(ctx context.Context, f TransferFilter) ([]transferRow, error) {
	where, args := buildTransferWhere(f)
	q := selectTransfer + where + ` ORDER BY t.transferred_at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transferRow
	for rows.Next() {
		r, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}
