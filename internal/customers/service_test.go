package customers

import (
	"context"
	"testing"

	"TSUMUGI-backend/internal/platform/auth"
)

func TestCustomerWritePermissions(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()
	staff := auth.Actor{ID: "staff01", Role: auth.RoleStaff, LocationIDs: []int64{1}}

	assertDenied := func(t *testing.T, err error) {
		t.Helper()
		api, ok := err.(*APIError)
		if !ok || api.Code != CodePermissionDenied {
			t.Fatalf("got %v, want PERMISSION_DENIED", err)
		}
	}

	t.Run("staff cannot create", func(t *testing.T) {
		_, err := svc.Create(ctx, staff, CreateCustomerRequest{Name: "織田商店"})
		assertDenied(t, err)
	})
	t.Run("staff cannot update", func(t *testing.T) {
		name := "織田商店"
		_, err := svc.Update(ctx, staff, "1", UpdateCustomerRequest{Name: &name})
		assertDenied(t, err)
	})
	t.Run("staff cannot red-list", func(t *testing.T) {
		_, err := svc.RedList(ctx, staff, "1", RedListRequest{Reason: "長期未払い"})
		assertDenied(t, err)
	})
	t.Run("staff cannot un-red-list", func(t *testing.T) {
		_, err := svc.UnRedList(ctx, staff, "1")
		assertDenied(t, err)
	})
}

func TestRedListValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()
	admin := auth.Actor{ID: "admin01", Role: auth.RoleAdmin, LocationIDs: []int64{1}}

	// 理由は必須
	_, err := svc.RedList(ctx, admin, "1", RedListRequest{Reason: "   "})
	api, ok := err.(*APIError)
	if !ok || api.Code != CodeInvalidArgument {
		t.Fatalf("got %v, want INVALID_ARGUMENT", err)
	}

	// customer_id の形式チェックはDBより先
	_, err = svc.RedList(ctx, admin, "abc", RedListRequest{Reason: "長期未払い"})
	api, ok = err.(*APIError)
	if !ok || api.Code != CodeInvalidArgument {
		t.Fatalf("got %v, want INVALID_ARGUMENT", err)
	}
}
