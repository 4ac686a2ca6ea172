package reports

import (
	"context"
	"database/sql"
	"strconv"
	"time"
)

type Service struct {
	store *Store
}

func NewService(sqlDB *sql.DB) *Service {
	return &Service{store: NewStore(sqlDB)}
}

type StockReportItem struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	LocationID    int64  `json:"location_id"`
	LocationName  string `json:"location_name"`
	Quantity      int    `json:"quantity"`
	PurchaseValue int64  `json:"purchase_value"`
}

type StockReportResponse struct {
	GeneratedAt        time.Time         `json:"generated_at"`
	TotalQuantity      int               `json:"total_quantity"`
	TotalPurchaseValue int64             `json:"total_purchase_value"`
	Items              []StockReportItem `json:"items"`
}

func (s *Service) StockReport(ctx context.Context, locationID int64) (*StockReportResponse, error) {
	rows, err := s.store.StockSummary(ctx, locationID)
	if err != nil {
		return nil, err
	}
	out := StockReportResponse{
		GeneratedAt: time.Now().UTC(),
		Items:       make([]StockReportItem, 0, len(rows)),
	}
	for _, r := range rows {
		out.TotalQuantity += r.Quantity
		out.TotalPurchaseValue += r.PurchaseValue
		out.Items = append(out.Items, StockReportItem{
			ProductID:     r.ProductID,
			ProductName:   r.ProductName,
			LocationID:    r.LocationID,
			LocationName:  r.LocationName,
			Quantity:      r.Quantity,
			PurchaseValue: r.PurchaseValue,
		})
	}
	return &out, nil
}

var transferCSVHeader = []string{"振替ID", "商品名", "振替元", "振替先", "数量", "担当者", "振替日時", "備考"}

// TransfersCSV は振替履歴を CP932 CSV にして返す
func (s *Service) TransfersCSV(ctx context.Context, from, to *time.Time) ([]byte, error) {
	rows, err := s.store.TransfersForExport(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, transferCSVHeader)
	for _, r := range rows {
		notes := ""
		if r.Notes.Valid {
			notes = r.Notes.String
		}
		records = append(records, []string{
			strconv.FormatInt(r.TransferID, 10),
			r.ProductName,
			r.FromLocationName,
			r.ToLocationName,
			strconv.Itoa(r.Quantity),
			r.TransferredBy,
			r.TransferredAt.Format("2006-01-02 15:04:05"),
			notes,
		})
	}
	return encodeCSVcp932(records)
}
