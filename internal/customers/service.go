package customers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"TSUMUGI-backend/internal/platform/auth"
)

// ActivityRecorder: 要注意先の指定・解除を操作ログに残す
type ActivityRecorder interface {
	Record(ctx context.Context, actorID, module, action, detail string)
}

type Service struct {
	store    *Store
	recorder ActivityRecorder
}

func NewService(sqlDB *sql.DB, recorder ActivityRecorder) *Service {
	return &Service{store: NewStore(sqlDB), recorder: recorder}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateCustomerRequest) (*CustomerResponse, error) {
	if !actor.HasPermission("customers", "create", 0) {
		return nil, ErrPermissionDenied("顧客を登録する権限がありません")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalid("name is required")
	}

	c := &Customer{Name: name, Status: StatusActive}
	if req.Phone != "" {
		c.Phone = sql.NullString{String: req.Phone, Valid: true}
	}
	if req.Address != "" {
		c.Address = sql.NullString{String: req.Address, Valid: true}
	}
	if req.Notes != "" {
		c.Notes = sql.NullString{String: req.Notes, Valid: true}
	}

	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return s.getResponse(ctx, c.CustomerID)
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, key string, req UpdateCustomerRequest) (*CustomerResponse, error) {
	if !actor.HasPermission("customers", "update", 0) {
		return nil, ErrPermissionDenied("顧客情報を更新する権限がありません")
	}
	id, err := parseCustomerID(key)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalid("name must not be blank")
		}
		c.Name = name
	}
	if req.Phone != nil {
		c.Phone = sql.NullString{String: *req.Phone, Valid: *req.Phone != ""}
	}
	if req.Address != nil {
		c.Address = sql.NullString{String: *req.Address, Valid: *req.Address != ""}
	}
	if req.Notes != nil {
		c.Notes = sql.NullString{String: *req.Notes, Valid: *req.Notes != ""}
	}

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.getResponse(ctx, id)
}

func (s *Service) GetByKey(ctx context.Context, key string) (*CustomerResponse, error) {
	id, err := parseCustomerID(key)
	if err != nil {
		return nil, err
	}
	return s.getResponse(ctx, id)
}

func (s *Service) List(ctx context.Context, f CustomerFilter, p Page) (*ListCustomersResponse, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := ListCustomersResponse{Total: total, Customers: make([]CustomerResponse, 0, len(items))}
	for i := range items {
		out.Customers = append(out.Customers, buildCustomerResponse(&items[i]))
	}
	return &out, nil
}

// RedList は顧客を要注意先にする。以降この顧客への売上登録は拒否される。
func (s *Service) RedList(ctx context.Context, actor auth.Actor, key string, req RedListRequest) (*CustomerResponse, error) {
	if !actor.HasPermission("customers", "red_list", 0) {
		return nil, ErrPermissionDenied("要注意先を指定する権限がありません")
	}
	id, err := parseCustomerID(key)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrInvalid("reason is required")
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusRedListed {
		return nil, ErrConflict("customer is already red-listed")
	}
	if err := s.store.SetStatus(ctx, id, StatusRedListed); err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, actor.ID, "customers", "red_list",
			fmt.Sprintf("%s: %s", c.Name, req.Reason))
	}
	return s.getResponse(ctx, id)
}

// UnRedList は要注意先の指定を解除する
func (s *Service) UnRedList(ctx context.Context, actor auth.Actor, key string) (*CustomerResponse, error) {
	if !actor.HasPermission("customers", "un_red_list", 0) {
		return nil, ErrPermissionDenied("要注意先の指定を解除する権限がありません")
	}
	id, err := parseCustomerID(key)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusRedListed {
		return nil, ErrConflict("customer is not red-listed")
	}
	if err := s.store.SetStatus(ctx, id, StatusActive); err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, actor.ID, "customers", "un_red_list", c.Name)
	}
	return s.getResponse(ctx, id)
}

func (s *Service) getResponse(ctx context.Context, id int64) (*CustomerResponse, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := buildCustomerResponse(c)
	return &resp, nil
}

func parseCustomerID(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalid("invalid customer_id")
	}
	return id, nil
}

func buildCustomerResponse(c *Customer) CustomerResponse {
	resp := CustomerResponse{
		CustomerID:         c.CustomerID,
		Name:               c.Name,
		Status:             c.Status,
		OutstandingBalance: c.OutstandingBalance,
		CreatedAt:          c.CreatedAt,
	}
	if c.Phone.Valid {
		v := c.Phone.String
		resp.Phone = &v
	}
	if c.Address.Valid {
		v := c.Address.String
		resp.Address = &v
	}
	if c.Notes.Valid {
		v := c.Notes.String
		resp.Notes = &v
	}
	return resp
}
