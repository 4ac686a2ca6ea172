package auth

// ロール定義
// super_admin: 全拠点グローバル（拠点チェックなし）
// admin:       拠点スコープ付き管理者（account_locations の拠点のみ）
// staff:       閲覧のみ（同じく拠点スコープ付き）
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
)

// RoleIsLocationScoped: 拠点チェックの対象か
func RoleIsLocationScoped(role string) bool {
	return role != RoleSuperAdmin
}

// Actor はJWTクレームから復元した操作者
type Actor struct {
	ID          string
	Role        string
	LocationIDs []int64
}

// HasPermission は副作用なしの単純な権限判定。
// scopeLocationID が 0 のときは拠点スコープなしの判定になる。
func (a Actor) HasPermission(module, action string, scopeLocationID int64) bool {
	switch a.Role {
	case RoleSuperAdmin:
		// グローバルロールは拠点チェック自体をスキップ
		return true
	case RoleAdmin:
		return a.inScope(scopeLocationID)
	case RoleStaff:
		if action != "read" {
			return false
		}
		return a.inScope(scopeLocationID)
	default:
		return false
	}
}

// CanTransferFrom: 振替元拠点に対する在庫移動権限
func (a Actor) CanTransferFrom(locationID int64) bool {
	return a.HasPermission("transfers", "create", locationID)
}

func (a Actor) inScope(scopeLocationID int64) bool {
	if scopeLocationID == 0 {
		return true
	}
	for _, id := range a.LocationIDs {
		if id == scopeLocationID {
			return true
		}
	}
	return false
}
