package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ===== Error model (他featureと同型) =====
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

func (s *Service) Create(ctx context.Context, req CreateLocationRequest) (*LocationResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalid("name is required")
	}
	if req.Type != TypeWarehouse && req.Type != TypeShowroom {
		return nil, ErrInvalid("type must be warehouse or showroom")
	}

	l := &Location{Name: req.Name, Type: req.Type, Address: req.Address, Status: StatusActive}
	if err := s.store.Insert(ctx, l); err != nil {
		return nil, err
	}
	out, err := s.store.GetByID(ctx, l.LocationID)
	if err != nil {
		return nil, err
	}
	resp := toDTO(out)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*LocationResponse, error) {
	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toDTO(l)
	return &resp, nil
}

// ListActive: 振替先候補。振替元(excludeID)を除外し、名前の部分一致で絞り込む。
func (s *Service) ListActive(ctx context.Context, excludeID int64, nameQuery string) ([]LocationResponse, error) {
	items, err := s.store.List(ctx, ListFilter{
		ActiveOnly: true,
		ExcludeID:  excludeID,
		NameQuery:  strings.TrimSpace(nameQuery),
	})
	if err != nil {
		return nil, err
	}
	out := make([]LocationResponse, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, nameQuery string) ([]LocationResponse, error) {
	items, err := s.store.List(ctx, ListFilter{NameQuery: strings.TrimSpace(nameQuery)})
	if err != nil {
		return nil, err
	}
	out := make([]LocationResponse, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateLocationRequest) (*LocationResponse, error) {
	if req.Type != nil && *req.Type != TypeWarehouse && *req.Type != TypeShowroom {
		return nil, ErrInvalid("type must be warehouse or showroom")
	}
	if req.Status != nil && *req.Status != StatusActive && *req.Status != StatusInactive {
		return nil, ErrInvalid("status must be active or inactive")
	}

	n, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// 変更なし更新もあり得るので存在確認で出し分ける
		if _, err := s.store.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}
