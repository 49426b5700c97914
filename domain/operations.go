package domain

// Operation names a protected action checked by the authorization gate
type Operation string

const (
	OpRefreshToken   Operation = "auth.refresh"
	OpLogout         Operation = "auth.logout"
	OpChangePassword Operation = "auth.change_password"
	OpGetProfile     Operation = "auth.profile.get"
	OpUpdateProfile  Operation = "auth.profile.update"
	OpRevokeAll      Operation = "auth.revoke_all"

	OpListUsers          Operation = "admin.users.list"
	OpRevokeAllForAnyone Operation = "admin.users.revoke_all"
	OpListPolicies       Operation = "admin.policies.list"
)

// Role tiers
var (
	CustomerOrAdmin = []Role{RoleCustomer, RoleAdmin}
	AdminOnly       = []Role{RoleAdmin}
)

// OperationRoles is the single source of truth for who may perform what.
// Operations missing from the table are denied.
var OperationRoles = map[Operation][]Role{
	OpRefreshToken:   CustomerOrAdmin,
	OpLogout:         CustomerOrAdmin,
	OpChangePassword: CustomerOrAdmin,
	OpGetProfile:     CustomerOrAdmin,
	OpUpdateProfile:  CustomerOrAdmin,
	OpRevokeAll:      CustomerOrAdmin,

	OpListUsers:          AdminOnly,
	OpRevokeAllForAnyone: AdminOnly,
	OpListPolicies:       AdminOnly,
}
