package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	ulid "github.com/oklog/ulid/v2"
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

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalid("name is required")
	}
	if req.DefaultLocationID <= 0 {
		return nil, ErrInvalid("default_location_id is required")
	}

	p := &Product{
		ProductULID:       ulid.Make().String(),
		Name:              req.Name,
		Category:          req.Category,
		Unit:              req.Unit,
		DefaultLocationID: req.DefaultLocationID,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			switch me.Number {
			case 1062: // duplicate key
				return nil, ErrConflict("product already exists")
			case 1452: // foreign key constraint fails
				return nil, ErrInvalid("invalid default_location_id")
			}
		}
		return nil, err
	}
	return s.Get(ctx, p.ProductID)
}

func (s *Service) Get(ctx context.Context, id int64) (*ProductResponse, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := buildResponse(row)
	return &resp, nil
}

// GetByKey: 数値ならID、それ以外は product_ulid とみなす
func (s *Service) GetByKey(ctx context.Context, key string) (*ProductResponse, error) {
	if key == "" {
		return nil, ErrInvalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return s.Get(ctx, id)
	}
	row, err := s.store.GetByULID(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := buildResponse(row)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, f ProductFilter, p Page) (*ProductListResponse, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := ProductListResponse{Items: make([]ProductResponse, 0, len(items)), Total: total}
	for i := range items {
		out.Items = append(out.Items, buildResponse(&items[i]))
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (*ProductResponse, error) {
	if req.Status != nil && *req.Status != StatusActive && *req.Status != StatusInactive {
		return nil, ErrInvalid("status must be active or inactive")
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

func buildResponse(r *productRow) ProductResponse {
	return ProductResponse{
		ProductID:           r.ProductID,
		ProductULID:         r.ProductULID,
		Name:                r.Name,
		Category:            r.Category,
		Unit:                r.Unit,
		DefaultLocationID:   r.DefaultLocationID,
		DefaultLocationName: r.DefaultLocationName,
		Status:              r.Status,
		TotalStock:          r.TotalStock,
		CreatedAt:           r.CreatedAt,
	}
}
