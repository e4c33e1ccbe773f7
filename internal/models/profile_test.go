package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	ptView   = PermissionType{ID: "pt-view", Name: "View", Code: "VIEW_COMPONENTS"}
	ptEdit   = PermissionType{ID: "pt-edit", Name: "Edit", Code: "EDIT_COMPONENTS"}
	ptRead   = PermissionType{ID: "pt-read", Name: "Read", Code: "READ", IsItemType: true}
	ptWrite  = PermissionType{ID: "pt-write", Name: "Write", Code: "WRITE", IsItemType: true}
	catalog  = []PermissionType{ptView, ptEdit, ptRead, ptWrite}
	tagAlpha = Tag{ID: "tag-a", Name: "Alpha", Type: "Component"}
	tagBeta  = Tag{ID: "tag-b", Name: "Beta", Type: "Component"}
)

func grant(pt PermissionType, has bool) Permission {
	return Permission{ID: pt.ID + "-row", PermissionType: pt, HasPermission: has}
}

func TestMergeGrants(t *testing.T) {
	t.Run("system permissions merge with OR", func(t *testing.T) {
		a := GroupGrant{GroupID: "g-a", SystemPermissions: []Permission{grant(ptView, true), grant(ptEdit, false)}}
		b := GroupGrant{GroupID: "g-b"}

		p := MergeGrants([]GroupGrant{a, b}, catalog)
		assert.True(t, p.HasSystemPermission("VIEW_COMPONENTS"))
		assert.False(t, p.HasSystemPermission("EDIT_COMPONENTS"))
		assert.False(t, p.IsAdmin)
		assert.Equal(t, []string{"g-a", "g-b"}, p.Groups)
	})

	t.Run("a denial never overrides a grant", func(t *testing.T) {
		a := GroupGrant{GroupID: "g-a", SystemPermissions: []Permission{grant(ptEdit, true)}}
		b := GroupGrant{GroupID: "g-b", SystemPermissions: []Permission{grant(ptEdit, false)}}

		assert.True(t, MergeGrants([]GroupGrant{a, b}, catalog).HasSystemPermission("EDIT_COMPONENTS"))
		assert.True(t, MergeGrants([]GroupGrant{b, a}, catalog).HasSystemPermission("EDIT_COMPONENTS"))
	})

	t.Run("tag permissions merge per tag and type", func(t *testing.T) {
		a := GroupGrant{GroupID: "g-a", ComponentTagPermissions: []ComponentTagPermission{
			{Tag: tagAlpha, Permissions: []Permission{grant(ptRead, true)}},
		}}
		b := GroupGrant{GroupID: "g-b", ComponentTagPermissions: []ComponentTagPermission{
			{Tag: tagAlpha, Permissions: []Permission{grant(ptRead, false), grant(ptWrite, true)}},
			{Tag: tagBeta, Permissions: []Permission{grant(ptRead, false)}},
		}}

		p := MergeGrants([]GroupGrant{a, b}, catalog)
		assert.Len(t, p.ComponentTagPermissions, 2)
		assert.True(t, p.HasTagPermission("tag-a", "READ"))
		assert.True(t, p.HasTagPermission("tag-a", "WRITE"))
		assert.False(t, p.HasTagPermission("tag-b", "READ"))
		assert.False(t, p.HasTagPermission("tag-c", "READ"))
	})

	t.Run("merge is order independent", func(t *testing.T) {
		grants := []GroupGrant{
			{GroupID: "g-1", SystemPermissions: []Permission{grant(ptView, true)}},
			{GroupID: "g-2", SystemPermissions: []Permission{grant(ptEdit, false), grant(ptView, false)}},
			{GroupID: "g-3", ComponentTagPermissions: []ComponentTagPermission{
				{Tag: tagBeta, Permissions: []Permission{grant(ptWrite, true)}},
				{Tag: tagAlpha, Permissions: []Permission{grant(ptRead, true)}},
			}},
		}
		reversed := []GroupGrant{grants[2], grants[1], grants[0]}

		assert.Equal(t, MergeGrants(grants, catalog), MergeGrants(reversed, catalog))
	})

	t.Run("merge is associative", func(t *testing.T) {
		a := GroupGrant{GroupID: "g-a", SystemPermissions: []Permission{grant(ptView, true)}}
		b := GroupGrant{GroupID: "g-b", SystemPermissions: []Permission{grant(ptEdit, true)}}
		c := GroupGrant{GroupID: "g-c", SystemPermissions: []Permission{grant(ptEdit, false)}}

		ab := MergeGrants([]GroupGrant{a, b}, catalog)
		left := MergeGrants([]GroupGrant{
			{GroupID: "g-a"}, {GroupID: "g-b", SystemPermissions: ab.SystemPermissions}, c,
		}, catalog)
		all := MergeGrants([]GroupGrant{a, b, c}, catalog)
		assert.Equal(t, all.SystemPermissions, left.SystemPermissions)
	})

	t.Run("admin grant sets every permission", func(t *testing.T) {
		admin := GroupGrant{GroupID: "g-admin", AllPermissions: true}
		limited := GroupGrant{GroupID: "g-b", ComponentTagPermissions: []ComponentTagPermission{
			{Tag: tagAlpha, Permissions: []Permission{grant(ptRead, false)}},
		}}

		p := MergeGrants([]GroupGrant{limited, admin}, catalog)
		assert.True(t, p.IsAdmin)
		assert.Len(t, p.SystemPermissions, 2)
		for _, perm := range p.SystemPermissions {
			assert.True(t, perm.HasPermission, perm.PermissionType.Code)
		}
		assert.Len(t, p.ComponentTagPermissions[0].Permissions, 2)
		for _, perm := range p.ComponentTagPermissions[0].Permissions {
			assert.True(t, perm.HasPermission, perm.PermissionType.Code)
		}
		assert.True(t, p.HasSystemPermission("ANYTHING"))
	})

	t.Run("no grants gives an empty profile", func(t *testing.T) {
		p := MergeGrants(nil, catalog)
		assert.False(t, p.IsAdmin)
		assert.Empty(t, p.Groups)
		assert.NotNil(t, p.SystemPermissions)
		assert.Empty(t, p.SystemPermissions)
		assert.Empty(t, p.ComponentTagPermissions)
	})

	t.Run("merged permissions drop row ids and are sorted by code", func(t *testing.T) {
		p := MergeGrants([]GroupGrant{{GroupID: "g", SystemPermissions: []Permission{grant(ptView, true), grant(ptEdit, true)}}}, catalog)
		assert.Equal(t, "EDIT_COMPONENTS", p.SystemPermissions[0].PermissionType.Code)
		assert.Equal(t, "VIEW_COMPONENTS", p.SystemPermissions[1].PermissionType.Code)
		assert.Empty(t, p.SystemPermissions[0].ID)
	})
}
