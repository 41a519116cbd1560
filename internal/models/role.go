package models

// PermissionRef is a permission as listed by the identity service
type PermissionRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RoleDefinition is a role and the permissions it grants
type RoleDefinition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Permissions []PermissionRef `json:"permissions"`
}

// RoleList is one page of the identity service's role listing
type RoleList struct {
	Items []RoleDefinition `json:"items"`
	Total int              `json:"total"`
}
