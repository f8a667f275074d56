package domain

// RoleAdmin grants access to every account.
const RoleAdmin = "admin"

// Caller is a verified identity. Issuance happens outside this module.
type Caller struct {
	ID       string   `json:"account_id"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles"`
}

func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c Caller) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}
