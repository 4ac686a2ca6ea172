package lots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	ulid "github.com/oklog/ulid/v2"

	"TSUMUGI-backend/internal/platform/auth"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeInternal         Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrPermissionDenied(msg string) *APIError {
	return &APIError{Code: CodePermissionDenied, Message: msg}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		case CodePermissionDenied:
			return 403
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

// Receive: 入荷登録。新しいロットを起こす。
// 入荷先拠点に対する書き込み権限が要る。
func (s *Service) Receive(ctx context.Context, actor auth.Actor, req ReceiveLotRequest) (*LotResponse, error) {
	if !actor.HasPermission("lots", "receive", req.LocationID) {
		return nil, ErrPermissionDenied("この拠点に入荷登録する権限がありません")
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalid("quantity must be > 0")
	}
	if req.PurchasePrice < 0 || req.SellingPrice < 0 {
		return nil, ErrInvalid("price must be >= 0")
	}

	received := time.Now().UTC().Truncate(24 * time.Hour)
	if req.ReceivedDate != nil && *req.ReceivedDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ReceivedDate)
		if err != nil {
			return nil, ErrInvalid("invalid received_date format, expected YYYY-MM-DD")
		}
		received = parsed
	}

	m := &Lot{
		LotULID:       ulid.Make().String(),
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		LocationID:    req.LocationID,
		ReceivedDate:  received,
		Status:        StatusActive,
	}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return nil, ErrInvalid("invalid expiry_date format, expected YYYY-MM-DD")
		}
		m.ExpiryDate = sql.NullTime{Time: parsed, Valid: true}
	}
	if req.Notes != nil && *req.Notes != "" {
		m.Notes = sql.NullString{String: *req.Notes, Valid: true}
	}

	if err := s.store.InsertReceived(ctx, m); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1452 {
			return nil, ErrInvalid("invalid product_id or location_id")
		}
		return nil, err
	}

	return s.Get(ctx, m.LotID)
}

func (s *Service) Get(ctx context.Context, id int64) (*LotResponse, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := buildResponse(row)
	return &resp, nil
}

// ListActive: 振替ワークフローのロット選択肢。
// accessibleLocationIDs が nil の場合は拠点制限なし（グローバルロール）。
func (s *Service) ListActive(ctx context.Context, productID int64, accessibleLocationIDs []int64) ([]LotResponse, error) {
	if productID <= 0 {
		return nil, ErrInvalid("product_id is required")
	}
	items, err := s.store.ListActive(ctx, productID, accessibleLocationIDs)
	if err != nil {
		return nil, err
	}
	out := make([]LotResponse, 0, len(items))
	for i := range items {
		out = append(out, buildResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, f LotFilter) ([]LotResponse, error) {
	items, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]LotResponse, 0, len(items))
	for i := range items {
		out = append(out, buildResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id int64, req UpdateLotRequest) (*LotResponse, error) {
	if !actor.HasPermission("lots", "update", 0) {
		return nil, ErrPermissionDenied("ロットを更新する権限がありません")
	}
	if req.Status != nil {
		switch *req.Status {
		case StatusActive, StatusDepleted, StatusExpired:
		default:
			return nil, ErrInvalid("invalid status")
		}
	}
	n, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := s.store.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// ---------- helpers ----------

func buildResponse(r *lotRow) LotResponse {
	resp := LotResponse{
		LotID:         r.LotID,
		LotULID:       r.LotULID,
		ProductID:     r.ProductID,
		LotNumber:     r.LotNumber,
		Quantity:      r.Quantity,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
		LocationID:    r.LocationID,
		LocationName:  r.LocationName,
		ReceivedDate:  r.ReceivedDate,
		Status:        r.Status,
	}
	if r.ExpiryDate.Valid {
		val := r.ExpiryDate.Time
		resp.ExpiryDate = &val
	}
	if r.Notes.Valid {
		val := r.Notes.String
		resp.Notes = &val
	}
	return resp
}
