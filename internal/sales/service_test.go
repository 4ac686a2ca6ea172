package sales

import (
	"context"
	"testing"

	"TSUMUGI-backend/internal/platform/auth"
)

// staff は閲覧のみ。売上登録はストアに触る前に拒否される。
func TestCreateSalePermission(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	staff := auth.Actor{ID: "staff01", Role: auth.RoleStaff, LocationIDs: []int64{1}}
	_, err := svc.CreateSale(ctx, staff, CreateSaleRequest{LotID: 1, CustomerID: 1, Quantity: 5})
	if err == nil {
		t.Fatal("expected permission error for staff")
	}
	api, ok := err.(*APIError)
	if !ok || api.Code != CodePermissionDenied {
		t.Fatalf("got %v, want PERMISSION_DENIED", err)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()
	admin := auth.Actor{ID: "admin01", Role: auth.RoleAdmin, LocationIDs: []int64{1}}

	cases := []struct {
		name string
		req  CreateSaleRequest
	}{
		{"zero quantity", CreateSaleRequest{LotID: 1, CustomerID: 1, Quantity: 0}},
		{"negative quantity", CreateSaleRequest{LotID: 1, CustomerID: 1, Quantity: -3}},
		{"missing lot", CreateSaleRequest{CustomerID: 1, Quantity: 5}},
		{"missing customer", CreateSaleRequest{LotID: 1, Quantity: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSale(ctx, admin, tc.req)
			api, ok := err.(*APIError)
			if !ok || api.Code != CodeInvalidArgument {
				t.Fatalf("got %v, want INVALID_ARGUMENT", err)
			}
		})
	}

	neg := int64(-100)
	_, err := svc.CreateSale(ctx, admin, CreateSaleRequest{LotID: 1, CustomerID: 1, Quantity: 5, UnitPrice: &neg})
	api, ok := err.(*APIError)
	if !ok || api.Code != CodeInvalidArgument {
		t.Fatalf("negative unit price: got %v, want INVALID_ARGUMENT", err)
	}
}
