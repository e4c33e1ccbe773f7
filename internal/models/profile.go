package models

import "sort"

// AuthorizationProfile is the effective permission set of a user. It is
// embedded in the session token.
type AuthorizationProfile struct {
	UserID                  string                   `json:"user_id"`
	Groups                  []string                 `json:"groups"`
	IsAdmin                 bool                     `json:"is_admin"`
	SystemPermissions       []Permission             `json:"system_permissions"`
	ComponentTagPermissions []ComponentTagPermission `json:"component_tag_permissions"`
}

// GroupGrant is what a single group contributes to a profile.
type GroupGrant struct {
	GroupID                 string
	AllPermissions          bool
	SystemPermissions       []Permission
	ComponentTagPermissions []ComponentTagPermission
}

// HasSystemPermission reports whether the profile grants the system
// permission with the given code. Admin profiles hold every permission.
func (p AuthorizationProfile) HasSystemPermission(code string) bool {
	if p.IsAdmin {
		return true
	}
	for _, perm := range p.SystemPermissions {
		if perm.PermissionType.Code == code {
			return perm.HasPermission
		}
	}
	return false
}

// HasTagPermission reports whether the profile grants code on the tag.
func (p AuthorizationProfile) HasTagPermission(tagID, code string) bool {
	if p.IsAdmin {
		return true
	}
	for _, ctp := range p.ComponentTagPermissions {
		if ctp.Tag.ID != tagID {
			continue
		}
		for _, perm := range ctp.Permissions {
			if perm.PermissionType.Code == code {
				return perm.HasPermission
			}
		}
	}
	return false
}

type tagAccumulator struct {
	tag   Tag
	perms map[string]Permission
}

// MergeGrants folds group contributions into one profile. Permissions of the
// same type are combined with a logical OR, so the result does not depend on
// the order of grants. A grant with AllPermissions makes the profile admin and
// sets every permission of catalog, and every permission already present, to true.
func MergeGrants(grants []GroupGrant, catalog []PermissionType) AuthorizationProfile {
	system := map[string]Permission{}
	tags := map[string]*tagAccumulator{}
	groupSet := map[string]struct{}{}
	admin := false

	orInto := func(dst map[string]Permission, perm Permission) {
		perm.ID = ""
		if existing, ok := dst[perm.PermissionType.ID]; ok {
			existing.HasPermission = existing.HasPermission || perm.HasPermission
			dst[perm.PermissionType.ID] = existing
			return
		}
		dst[perm.PermissionType.ID] = perm
	}

	for _, g := range grants {
		if g.GroupID != "" {
			groupSet[g.GroupID] = struct{}{}
		}
		if g.AllPermissions {
			admin = true
			continue
		}
		for _, perm := range g.SystemPermissions {
			orInto(system, perm)
		}
		for _, ctp := range g.ComponentTagPermissions {
			acc, ok := tags[ctp.Tag.ID]
			if !ok {
				acc = &tagAccumulator{tag: ctp.Tag, perms: map[string]Permission{}}
				tags[ctp.Tag.ID] = acc
			}
			for _, perm := range ctp.Permissions {
				orInto(acc.perms, perm)
			}
		}
	}

	if admin {
		for _, pt := range catalog {
			if pt.IsItemType {
				for _, acc := range tags {
					acc.perms[pt.ID] = Permission{PermissionType: pt, HasPermission: true}
				}
				continue
			}
			system[pt.ID] = Permission{PermissionType: pt, HasPermission: true}
		}
		for id, perm := range system {
			perm.HasPermission = true
			system[id] = perm
		}
		for _, acc := range tags {
			for id, perm := range acc.perms {
				perm.HasPermission = true
				acc.perms[id] = perm
			}
		}
	}

	profile := AuthorizationProfile{
		Groups:                  make([]string, 0, len(groupSet)),
		IsAdmin:                 admin,
		SystemPermissions:       sortedPermissions(system),
		ComponentTagPermissions: make([]ComponentTagPermission, 0, len(tags)),
	}
	for id := range groupSet {
		profile.Groups = append(profile.Groups, id)
	}
	sort.Strings(profile.Groups)

	for _, acc := range tags {
		profile.ComponentTagPermissions = append(profile.ComponentTagPermissions, ComponentTagPermission{
			Tag:         acc.tag,
			Permissions: sortedPermissions(acc.perms),
		})
	}
	sort.Slice(profile.ComponentTagPermissions, func(i, j int) bool {
		return profile.ComponentTagPermissions[i].Tag.ID < profile.ComponentTagPermissions[j].Tag.ID
	})

	return profile
}

func sortedPermissions(m map[string]Permission) []Permission {
	out := make([]Permission, 0, len(m))
	for _, perm := range m {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].PermissionType, out[j].PermissionType
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ID < b.ID
	})
	return out
}
