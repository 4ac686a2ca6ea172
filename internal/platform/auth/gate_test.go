package auth

import "testing"

func TestActorHasPermission(t *testing.T) {
	superAdmin := Actor{ID: "u1", Role: RoleSuperAdmin}
	admin := Actor{ID: "u2", Role: RoleAdmin, LocationIDs: []int64{1, 2}}
	staff := Actor{ID: "u3", Role: RoleStaff, LocationIDs: []int64{1}}

	t.Run("super_admin passes everything without location check", func(t *testing.T) {
		if !superAdmin.HasPermission("transfers", "create", 99) {
			t.Fatal("super_admin should pass for any location")
		}
		if !superAdmin.CanTransferFrom(3) {
			t.Fatal("super_admin should transfer from any location")
		}
	})

	t.Run("admin limited to accessible locations", func(t *testing.T) {
		if !admin.CanTransferFrom(1) {
			t.Fatal("admin should transfer from accessible location 1")
		}
		if admin.CanTransferFrom(3) {
			t.Fatal("admin must not transfer from location 3")
		}
		// scope 0 = 拠点スコープなし
		if !admin.HasPermission("inventory", "write", 0) {
			t.Fatal("admin should pass unscoped checks")
		}
	})

	t.Run("staff read only", func(t *testing.T) {
		if !staff.HasPermission("inventory", "read", 1) {
			t.Fatal("staff should read own location")
		}
		if staff.HasPermission("inventory", "read", 2) {
			t.Fatal("staff must not read other locations")
		}
		if staff.HasPermission("transfers", "create", 1) {
			t.Fatal("staff must not create transfers")
		}
	})

	t.Run("unknown role denied", func(t *testing.T) {
		if (Actor{Role: "guest"}).HasPermission("inventory", "read", 0) {
			t.Fatal("unknown role must be denied")
		}
	})
}

func TestRoleIsLocationScoped(t *testing.T) {
	if RoleIsLocationScoped(RoleSuperAdmin) {
		t.Fatal("super_admin is globally scoped")
	}
	if !RoleIsLocationScoped(RoleAdmin) || !RoleIsLocationScoped(RoleStaff) {
		t.Fatal("admin and staff are location scoped")
	}
}
