package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/models"
)

// PermissionRepository handles database operations for permissions
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// ListTypes returns the permission types of the calling system.
func (r *PermissionRepository) ListTypes(ctx context.Context, systemName string) ([]models.PermissionType, error) {
	types := []models.PermissionType{}
	err := selectAll(ctx, r.db, &types, `
		SELECT Id, Name, Code, IsItemType, SystemName
		FROM PermissionType
		WHERE SystemName = ?
		ORDER BY Code`, systemName)
	if err != nil {
		return nil, classify("PermissionRepository.ListTypes", "permission types", err)
	}
	return types, nil
}

type permissionRow struct {
	ID            string `db:"Id"`
	HasPermission bool   `db:"HasPermission"`
	TypeID        string `db:"TypeId"`
	TypeName      string `db:"TypeName"`
	TypeCode      string `db:"TypeCode"`
	IsItemType    bool   `db:"IsItemType"`
	SystemName    string `db:"SystemName"`
	TagID         string `db:"TagId"`
	TagName       string `db:"TagName"`
	TagType       string `db:"TagType"`
}

func (p permissionRow) permission() models.Permission {
	return models.Permission{
		ID: p.ID,
		PermissionType: models.PermissionType{
			ID:         p.TypeID,
			Name:       p.TypeName,
			Code:       p.TypeCode,
			IsItemType: p.IsItemType,
			SystemName: p.SystemName,
		},
		HasPermission: p.HasPermission,
	}
}

// SystemPermissions returns the group's system-wide permissions.
func (r *PermissionRepository) SystemPermissions(ctx context.Context, groupID, systemName string) ([]models.Permission, error) {
	var rows []permissionRow
	err := selectAll(ctx, r.db, &rows, `
		SELECT sp.Id, sp.HasPermission,
			pt.Id AS TypeId, pt.Name AS TypeName, pt.Code AS TypeCode, pt.IsItemType, pt.SystemName,
			'' AS TagId, '' AS TagName, '' AS TagType
		FROM SystemPermission sp
		JOIN PermissionType pt ON pt.Id = sp.PermissionTypeId
		WHERE sp.GroupId = ? AND pt.SystemName = ?
		ORDER BY pt.Code`, groupID, systemName)
	if err != nil {
		return nil, classify("PermissionRepository.SystemPermissions", "system permissions", err)
	}

	perms := make([]models.Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, row.permission())
	}
	return perms, nil
}

// ComponentTagPermissions returns the group's permissions grouped by tag.
func (r *PermissionRepository) ComponentTagPermissions(ctx context.Context, groupID, systemName string) ([]models.ComponentTagPermission, error) {
	var rows []permissionRow
	err := selectAll(ctx, r.db, &rows, `
		SELECT tp.Id, tp.HasPermission,
			pt.Id AS TypeId, pt.Name AS TypeName, pt.Code AS TypeCode, pt.IsItemType, pt.SystemName,
			t.Id AS TagId, t.Name AS TagName, tt.Name AS TagType
		FROM TagPermission tp
		JOIN PermissionType pt ON pt.Id = tp.PermissionTypeId
		JOIN Tag t ON t.Id = tp.TagId
		JOIN TagType tt ON tt.Id = t.TagTypeId
		WHERE tp.GroupId = ? AND pt.SystemName = ?
		ORDER BY t.Id, pt.Code`, groupID, systemName)
	if err != nil {
		return nil, classify("PermissionRepository.ComponentTagPermissions", "tag permissions", err)
	}

	var result []models.ComponentTagPermission
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.TagID]
		if !ok {
			i = len(result)
			index[row.TagID] = i
			result = append(result, models.ComponentTagPermission{
				Tag: models.Tag{ID: row.TagID, Name: row.TagName, Type: row.TagType},
			})
		}
		result[i].Permissions = append(result[i].Permissions, row.permission())
	}
	return result, nil
}
