package sales

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// ロット減算文。MySQLは代入を左から右に評価するため、
// status の IF を quantity の更新より先に置く（更新前の残量で判定する）。
const decrementLotSQL = `UPDATE lots SET status = IF(quantity - ? = 0, 'depleted', status), quantity = quantity - ? WHERE lot_id = ?`

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn), mock
}

func assertSaleCode(t *testing.T, err error, want Code) {
	t.Helper()
	var api *APIError
	if !errors.As(err, &api) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if api.Code != want {
		t.Fatalf("expected code %s, got %s (%s)", want, api.Code, api.Message)
	}
}

func TestExecCreateSale(t *testing.T) {
	now := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)

	newSale := func(qty int) *Sale {
		return &Sale{
			SaleULID:   "01JX8SALE0000000000000000X",
			LotID:      3,
			CustomerID: 9,
			Quantity:   qty,
			SoldBy:     "staff-01",
			SoldAt:     now,
		}
	}

	t.Run("顧客チェック→ロック→減算→sales行の順で確定する", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newSale(20)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM customers WHERE customer_id = ?`)).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_id, quantity, status, selling_price FROM lots WHERE lot_id = ? FOR UPDATE`)).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "status", "selling_price"}).
				AddRow(7, 20, "active", 1800))
		mock.ExpectExec("^"+regexp.QuoteMeta(decrementLotSQL)+"$").
			WithArgs(20, 20, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO sales").
			WithArgs(m.SaleULID, int64(7), int64(3), int64(9),
				20, int64(1800), int64(36000), "staff-01", now, nil).
			WillReturnResult(sqlmock.NewResult(901, 1))
		mock.ExpectCommit()

		if err := s.ExecCreateSale(context.Background(), m); err != nil {
			t.Fatalf("ExecCreateSale: %v", err)
		}
		if m.SaleID != 901 {
			t.Errorf("SaleID = %d, want 901", m.SaleID)
		}
		// 単価未指定ならロットの売価を使う
		if m.UnitPrice != 1800 || m.Total != 36000 {
			t.Errorf("UnitPrice/Total = %d/%d, want 1800/36000", m.UnitPrice, m.Total)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("要注意先にはCONFLICTで販売を拒否する", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newSale(20)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM customers WHERE customer_id = ?`)).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("red_listed"))
		mock.ExpectRollback()

		err := s.ExecCreateSale(context.Background(), m)
		assertSaleCode(t, err, CodeConflict)
		// ロットにも sales にも触れていないこと
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("残量不足はCONFLICTでロールバック", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newSale(20)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM customers WHERE customer_id = ?`)).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_id, quantity, status, selling_price FROM lots WHERE lot_id = ? FOR UPDATE`)).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "status", "selling_price"}).
				AddRow(7, 10, "active", 1800))
		mock.ExpectRollback()

		err := s.ExecCreateSale(context.Background(), m)
		assertSaleCode(t, err, CodeConflict)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("指定単価があればそれを使う", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newSale(5)
		m.UnitPrice = 2000

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM customers WHERE customer_id = ?`)).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_id, quantity, status, selling_price FROM lots WHERE lot_id = ? FOR UPDATE`)).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "status", "selling_price"}).
				AddRow(7, 20, "active", 1800))
		mock.ExpectExec("^"+regexp.QuoteMeta(decrementLotSQL)+"$").
			WithArgs(5, 5, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO sales").
			WithArgs(m.SaleULID, int64(7), int64(3), int64(9),
				5, int64(2000), int64(10000), "staff-01", now, nil).
			WillReturnResult(sqlmock.NewResult(902, 1))
		mock.ExpectCommit()

		if err := s.ExecCreateSale(context.Background(), m); err != nil {
			t.Fatalf("ExecCreateSale: %v", err)
		}
		if m.Total != 10000 {
			t.Errorf("Total = %d, want 10000", m.Total)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("存在しない顧客はNOT_FOUND", func(t *testing.T) {
		s, mock := newMockStore(t)
		m := newSale(20)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM customers WHERE customer_id = ?`)).
			WithArgs(int64(9)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := s.ExecCreateSale(context.Background(), m)
		assertSaleCode(t, err, CodeNotFound)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
