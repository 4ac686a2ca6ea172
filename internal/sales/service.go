package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

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
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }
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

// ActivityRecorder: 売上成立時に操作ログを残す
type ActivityRecorder interface {
	Record(ctx context.Context, actorID, module, action, detail string)
}

// ===== Service =====

type Service struct {
	db       *sql.DB
	store    *Store
	recorder ActivityRecorder
}

func NewService(db *sql.DB, recorder ActivityRecorder) *Service {
	return &Service{db: db, store: NewStore(db), recorder: recorder}
}

// CreateSale: 売上登録。ロット残量の減算と同一Txで行う。
func (s *Service) CreateSale(ctx context.Context, actor auth.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	if !actor.HasPermission("sales", "create", 0) {
		return nil, ErrPermissionDenied("売上を登録する権限がありません")
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalid("quantity must be > 0")
	}
	if req.LotID <= 0 {
		return nil, ErrInvalid("lot_id is required")
	}
	if req.CustomerID <= 0 {
		return nil, ErrInvalid("customer_id is required")
	}
	if req.UnitPrice != nil && *req.UnitPrice < 0 {
		return nil, ErrInvalid("unit_price must be >= 0")
	}

	m := &Sale{
		SaleULID:   ulid.Make().String(),
		LotID:      req.LotID,
		CustomerID: req.CustomerID,
		Quantity:   req.Quantity,
		SoldBy:     actor.ID,
		SoldAt:     time.Now().UTC(),
	}
	if req.UnitPrice != nil {
		m.UnitPrice = *req.UnitPrice
	}
	if req.Notes != nil && *req.Notes != "" {
		m.Notes = sql.NullString{String: *req.Notes, Valid: true}
	}

	if err := s.store.ExecCreateSale(ctx, m); err != nil {
		return nil, err
	}

	row, err := s.store.GetByID(ctx, m.SaleID)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, actor.ID, "sales", "create",
			fmt.Sprintf("%s: %d -> %s", row.ProductName, row.Quantity, row.CustomerName))
	}

	resp := buildSaleResponse(row)
	return &resp, nil
}

func (s *Service) GetByKey(ctx context.Context, key string) (*SaleResponse, error) {
	if key == "" {
		return nil, ErrInvalid("id is required")
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalid("invalid sale_id")
	}
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := buildSaleResponse(row)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f SaleFilter, p Page) (*SaleListResponse, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := SaleListResponse{Items: make([]SaleResponse, 0, len(items)), Total: total}
	for i := range items {
		out.Items = append(out.Items, buildSaleResponse(&items[i]))
	}
	return &out, nil
}

// ヘルパー関数
func buildSaleResponse(r *saleRow) SaleResponse {
	resp := SaleResponse{
		SaleID:       r.SaleID,
		SaleULID:     r.SaleULID,
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		LotID:        r.LotID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Total:        r.Total,
		SoldBy:       r.SoldBy,
		SoldAt:       r.SoldAt,
	}
	if r.Notes.Valid {
		val := r.Notes.String
		resp.Notes = &val
	}
	return resp
}
