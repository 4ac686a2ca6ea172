package transfers

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// 振替元ロットの減算文。MySQLは代入を左から右に評価するため、
// status の IF は quantity の更新より前（更新前の値が見える位置）になければならない。
const decrementSourceLotSQL = `UPDATE lots SET status = IF(quantity - ? = 0, 'depleted', status), quantity = quantity - ? WHERE lot_id = ?`

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn), mock
}

func lotCols() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"lot_id", "product_id", "lot_number", "quantity", "status", "location_id",
		"purchase_price", "selling_price", "expiry_date",
	})
}

func assertCode(t *testing.T, err error, want Code) {
	t.Helper()
	var api *APIError
	if !errors.As(err, &api) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if api.Code != want {
		t.Fatalf("expected code %s, got %s (%s)", want, api.Code, api.Message)
	}
}

func TestExecCreateTransfer(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	newTransfer := func(qty int) *Transfer {
		return &Transfer{
			TransferULID:  "01JX8TRANSFER0000000000000",
			ProductID:     7,
			LotID:         3,
			ToLocationID:  2,
			Quantity:      qty,
			TransferredBy: "staff-01",
			TransferredAt: now,
		}
	}

	t.Run("ロック→減算→新ロット採番→transfers行の順で確定する", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newTransfer(20)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM lots WHERE lot_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(lotCols().AddRow(3, 7, 5, 40, "active", 1, 1200, 1800, nil))
		mock.ExpectExec("^"+regexp.QuoteMeta(decrementSourceLotSQL)+"$").
			WithArgs(20, 20, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(lot_number), 0) FROM lots WHERE product_id = ? FOR UPDATE`)).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"max_no"}).AddRow(5))
		mock.ExpectExec("INSERT INTO lots").
			WithArgs("01JX8NEWLOT00000000000000X", int64(7), 6, 20,
				int64(1200), int64(1800), int64(2), now, nil, "transferred from lot #5").
			WillReturnResult(sqlmock.NewResult(77, 1))
		mock.ExpectExec("INSERT INTO transfers").
			WithArgs(m.TransferULID, int64(7), int64(3), int64(77), int64(1), int64(2),
				20, "staff-01", now, nil).
			WillReturnResult(sqlmock.NewResult(501, 1))
		mock.ExpectCommit()

		if err := s.ExecCreateTransfer(context.Background(), m, "01JX8NEWLOT00000000000000X"); err != nil {
			t.Fatalf("ExecCreateTransfer: %v", err)
		}
		if m.FromLocationID != 1 {
			t.Errorf("FromLocationID = %d, want 1", m.FromLocationID)
		}
		if m.NewLotID != 77 {
			t.Errorf("NewLotID = %d, want 77", m.NewLotID)
		}
		if m.TransferID != 501 {
			t.Errorf("TransferID = %d, want 501", m.TransferID)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("全量振替でも同じ減算文を使う", func(t *testing.T) {
		// 残量40・振替40。depleted 判定は文中の IF が担うので、
		// 実行される文が status 先行の形であることだけを固定する。
		s, mock := newMockStore(t)
		m := newTransfer(40)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM lots WHERE lot_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(lotCols().AddRow(3, 7, 5, 40, "active", 1, 1200, 1800, nil))
		mock.ExpectExec("^"+regexp.QuoteMeta(decrementSourceLotSQL)+"$").
			WithArgs(40, 40, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(lot_number\), 0\)`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"max_no"}).AddRow(5))
		mock.ExpectExec("INSERT INTO lots").
			WillReturnResult(sqlmock.NewResult(78, 1))
		mock.ExpectExec("INSERT INTO transfers").
			WillReturnResult(sqlmock.NewResult(502, 1))
		mock.ExpectCommit()

		if err := s.ExecCreateTransfer(context.Background(), m, "01JX8NEWLOT00000000000000Y"); err != nil {
			t.Fatalf("ExecCreateTransfer: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("残量不足はCONFLICTでロールバック", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newTransfer(20)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM lots WHERE lot_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(lotCols().AddRow(3, 7, 5, 10, "active", 1, 1200, 1800, nil))
		mock.ExpectRollback()

		err := s.ExecCreateTransfer(context.Background(), m, "01JX8NEWLOT00000000000000Z")
		assertCode(t, err, CodeConflict)
		// 減算もINSERTも走っていないこと
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("同一拠点への振替はロック後に弾く", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newTransfer(20)
		m.ToLocationID = 1 // 振替元と同じ

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM lots WHERE lot_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(lotCols().AddRow(3, 7, 5, 40, "active", 1, 1200, 1800, nil))
		mock.ExpectRollback()

		err := s.ExecCreateTransfer(context.Background(), m, "01JX8NEWLOT00000000000001A")
		assertCode(t, err, CodeInvalidArgument)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("depletedロットはCONFLICT", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newTransfer(20)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM lots WHERE lot_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(lotCols().AddRow(3, 7, 5, 0, "depleted", 1, 1200, 1800, nil))
		mock.ExpectRollback()

		err := s.ExecCreateTransfer(context.Background(), m, "01JX8NEWLOT00000000000001B")
		assertCode(t, err, CodeConflict)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("存在しないロットはNOT_FOUND", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newTransfer(20)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM lots WHERE lot_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := s.ExecCreateTransfer(context.Background(), m, "01JX8NEWLOT00000000000001C")
		assertCode(t, err, CodeNotFound)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
