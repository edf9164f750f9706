package service

// Action 业务动作，权限按动作授予
type Action string

const (
	ActionView            Action = "view"
	ActionCreate          Action = "create"
	ActionEdit            Action = "edit"
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionOrder           Action = "order"
	ActionCancel          Action = "cancel"
	ActionReceive         Action = "receive"
	ActionPay             Action = "pay"
	ActionArchive         Action = "archive"
	ActionRestore         Action = "restore"
	ActionDelete          Action = "delete"
	ActionPurge           Action = "purge" // 永久删除，仅最高权限
	ActionExport          Action = "export"
	ActionAdjustInventory Action = "adjust_inventory"
)

// 角色
const (
	RoleAdmin    = "wms_admin"
	RoleManager  = "wms_manager"
	RoleOperator = "wms_operator"
	RoleViewer   = "wms_viewer"
)

// roleActions 角色能力表。admin不在表内，放行一切。
var roleActions = map[string]map[Action]bool{
	RoleManager: {
		ActionView: true, ActionCreate: true, ActionEdit: true,
		ActionSubmit: true, ActionApprove: true, ActionOrder: true,
		ActionCancel: true, ActionReceive: true, ActionPay: true,
		ActionArchive: true, ActionRestore: true, ActionDelete: true,
		ActionExport: true, ActionAdjustInventory: true,
	},
	RoleOperator: {
		ActionView: true, ActionCreate: true, ActionEdit: true,
		ActionSubmit: true, ActionReceive: true,
		ActionArchive: true, ActionRestore: true,
		ActionExport: true,
	},
	RoleViewer: {
		ActionView: true, ActionExport: true,
	},
}

// Actor 操作人（来自JWT claims）
type Actor struct {
	UserID string
	Roles  []string
}

// Can 能力检查：任一角色具备该动作即放行
func Can(roles []string, action Action) bool {
	for _, role := range roles {
		if role == RoleAdmin {
			return true
		}
		if actions, ok := roleActions[role]; ok && actions[action] {
			return true
		}
	}
	return false
}

// requirePermission 统一的权限前置检查
func requirePermission(actor Actor, action Action) error {
	if !Can(actor.Roles, action) {
		return ErrForbidden
	}
	return nil
}
