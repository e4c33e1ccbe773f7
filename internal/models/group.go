package models

// Group is an application group. Its ID is the directory objectGUID of the
// matching Active Directory group.
type Group struct {
	ID                      string                   `json:"id" db:"Id"`
	Name                    string                   `json:"name" db:"Name"`
	IsAdmin                 bool                     `json:"is_admin" db:"IsAdmin"`
	SystemPermissions       []Permission             `json:"system_permissions,omitempty" db:"-"`
	ComponentTagPermissions []ComponentTagPermission `json:"component_tag_permissions,omitempty" db:"-"`
}

// PermissionType is a named capability. Item types are scoped to a tag,
// the rest apply system-wide.
type PermissionType struct {
	ID         string `json:"id" db:"Id"`
	Name       string `json:"name" db:"Name"`
	Code       string `json:"code" db:"Code"`
	IsItemType bool   `json:"is_item_type" db:"IsItemType"`
	SystemName string `json:"system_name" db:"SystemName"`
}

// Permission is one grant or denial of a PermissionType. ID is empty on
// merged permissions, which no longer correspond to a single row.
type Permission struct {
	ID             string         `json:"id,omitempty"`
	PermissionType PermissionType `json:"permission_type"`
	HasPermission  bool           `json:"has_permission"`
}

// ComponentTagPermission pairs a tag with the permissions held on it.
type ComponentTagPermission struct {
	Tag         Tag          `json:"tag"`
	Permissions []Permission `json:"permissions"`
}
