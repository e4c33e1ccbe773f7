package auth

import (
	"context"
	"sync"
	"time"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

// fakeDirectory models users and nested groups keyed by DN.
type fakeDirectory struct {
	users    map[string]*models.DirectoryUser
	memberOf map[string][]models.GroupRef
	failOn   string
	calls    int
}

func (d *fakeDirectory) FindUser(ctx context.Context, username string) (*models.DirectoryUser, error) {
	if u, ok := d.users[username]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("fakeDirectory.FindUser", "user not found in directory")
}

func (d *fakeDirectory) MemberOf(ctx context.Context, dn string) ([]models.GroupRef, error) {
	d.calls++
	if dn == d.failOn {
		return nil, apperrors.Directory("fakeDirectory.MemberOf", context.DeadlineExceeded)
	}
	return d.memberOf[dn], nil
}

func group(id string) models.GroupRef {
	return models.GroupRef{ID: id, DN: "CN=" + id, Name: id}
}

type fakeGroupStore struct {
	groups map[string]models.Group
}

func (s *fakeGroupStore) GetByID(ctx context.Context, id string) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, apperrors.NotFound("fakeGroupStore.GetByID", "group not found")
	}
	return &g, nil
}

type fakePermissionStore struct {
	mu      sync.Mutex
	catalog []models.PermissionType
	system  map[string][]models.Permission
	tags    map[string][]models.ComponentTagPermission
	failFor string
	queried []string
}

func (s *fakePermissionStore) ListTypes(ctx context.Context, systemName string) ([]models.PermissionType, error) {
	return s.catalog, nil
}

func (s *fakePermissionStore) SystemPermissions(ctx context.Context, groupID, systemName string) ([]models.Permission, error) {
	s.mu.Lock()
	s.queried = append(s.queried, groupID)
	s.mu.Unlock()
	if groupID == s.failFor {
		return nil, apperrors.Storage("fakePermissionStore.SystemPermissions", context.DeadlineExceeded)
	}
	return s.system[groupID], nil
}

func (s *fakePermissionStore) ComponentTagPermissions(ctx context.Context, groupID, systemName string) ([]models.ComponentTagPermission, error) {
	return s.tags[groupID], nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memoryRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[tokenID] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

var (
	editType = models.PermissionType{ID: "pt-edit", Name: "Edit Components", Code: "EDIT_COMPONENTS", SystemName: "CoMIT"}
	mailType = models.PermissionType{ID: "pt-mail", Name: "Send Email", Code: "SEND_EMAIL", SystemName: "CoMIT"}
	viewType = models.PermissionType{ID: "pt-view", Name: "View", Code: "VIEW", IsItemType: true, SystemName: "CoMIT"}
)

func perm(pt models.PermissionType, has bool) models.Permission {
	return models.Permission{ID: pt.ID + "-row", PermissionType: pt, HasPermission: has}
}
