package auth

import "storefront/internal/domain"

type Permission string

const (
	PermPlaceOrder  Permission = "orders:place"
	PermUseCart     Permission = "cart:use"
	PermReadOrders  Permission = "orders:read_all"
	PermUpdateOrder Permission = "orders:update"
	PermCatalog     Permission = "catalog:write"
	PermDeleteItem  Permission = "catalog:delete"
	PermStock       Permission = "stock:write"
	PermUsers       Permission = "users:admin"
)

// Policy maps roles to the permissions they hold. It is the only place role
// names are compared.
type Policy map[domain.Role]map[Permission]bool

func DefaultPolicy() Policy {
	return Policy{
		domain.RoleCustomer: set(PermPlaceOrder, PermUseCart),
		domain.RoleVendor:   set(PermCatalog, PermStock),
		domain.RoleAdmin: set(PermReadOrders, PermUpdateOrder, PermCatalog, PermDeleteItem,
			PermStock, PermUsers),
	}
}

// Allows reports whether role holds every permission in perms.
func (p Policy) Allows(role domain.Role, perms ...Permission) bool {
	granted := p[role]
	for _, perm := range perms {
		if !granted[perm] {
			return false
		}
	}
	return true
}

func set(perms ...Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}
