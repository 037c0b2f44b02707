package domain

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return r, true
	}
	return "", false
}

type User struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Hash      string `db:"password_hash" json:"-"`
	Role      Role   `db:"role" json:"role"`
	Active    bool   `db:"is_active" json:"isActive"`
	CreatedAt string `db:"created_at" json:"createdAt"`
	UpdatedAt string `db:"updated_at" json:"updatedAt"`
}

// Identity is the authenticated caller as resolved for the current request.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// UserPatch carries a partial profile update; nil fields are left as they are.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Role      *Role
	Active    *bool
}
