package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/testutil"
)

func TestPermissionRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewPermissionRepository(f.DB)

	f.Group("g-1", "Operators", false)
	f.PermissionType(models.PermissionType{ID: "pt-edit", Name: "Edit Components", Code: "EDIT_COMPONENTS", SystemName: testutil.SystemName})
	f.PermissionType(models.PermissionType{ID: "pt-view", Name: "View", Code: "VIEW", IsItemType: true, SystemName: testutil.SystemName})
	f.PermissionType(models.PermissionType{ID: "pt-other", Name: "Other", Code: "OTHER", SystemName: "Elsewhere"})
	f.Tag("t-1", "Billing")
	f.Tag("t-2", "Claims")
	f.SystemPermission("g-1", "pt-edit", true)
	f.SystemPermission("g-1", "pt-other", true)
	f.TagPermission("g-1", "t-1", "pt-view", true)
	f.TagPermission("g-1", "t-2", "pt-view", false)

	t.Run("ListTypes filters by system", func(t *testing.T) {
		types, err := repo.ListTypes(ctx, testutil.SystemName)
		require.NoError(t, err)
		require.Len(t, types, 2)
		assert.Equal(t, "EDIT_COMPONENTS", types[0].Code)
		assert.True(t, types[1].IsItemType)
	})

	t.Run("SystemPermissions", func(t *testing.T) {
		perms, err := repo.SystemPermissions(ctx, "g-1", testutil.SystemName)
		require.NoError(t, err)
		require.Len(t, perms, 1)
		assert.Equal(t, "EDIT_COMPONENTS", perms[0].PermissionType.Code)
		assert.True(t, perms[0].HasPermission)
	})

	t.Run("ComponentTagPermissions groups by tag", func(t *testing.T) {
		grouped, err := repo.ComponentTagPermissions(ctx, "g-1", testutil.SystemName)
		require.NoError(t, err)
		require.Len(t, grouped, 2)
		assert.Equal(t, "Billing", grouped[0].Tag.Name)
		assert.Equal(t, database.ComponentTagType, grouped[0].Tag.Type)
		assert.True(t, grouped[0].Permissions[0].HasPermission)
		assert.False(t, grouped[1].Permissions[0].HasPermission)
	})

	t.Run("unknown group has no permissions", func(t *testing.T) {
		perms, err := repo.SystemPermissions(ctx, "g-missing", testutil.SystemName)
		require.NoError(t, err)
		assert.Empty(t, perms)
	})
}


func TestGroupRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewGroupRepository(f.DB)
	f.Group("g-2", "Zeta", false)
	f.Group("g-1", "Admins", true)

	g, err := repo.GetByID(ctx, "g-1")
	require.NoError(t, err)
	assert.True(t, g.IsAdmin)

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Admins", groups[0].Name)

	_, err = repo.GetByID(ctx, "g-3")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestTagRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewTagRepository(f.DB)
	f.Component("comp-1", "Billing Feed")
	f.Tag("t-1", "Lab")

	typeID, err := repo.TagTypeID(ctx, nil, database.ComponentTagType)
	require.NoError(t, err)
	assert.Equal(t, f.TagTypeID, typeID)

	_, err = repo.TagTypeID(ctx, nil, "Nope")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	t.Run("Upsert renames existing and inserts new", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, nil, models.Tag{ID: "t-1", Name: "Laboratory"}, typeID))
		require.NoError(t, repo.Upsert(ctx, nil, models.Tag{ID: "t-2", Name: "100% uptime"}, typeID))

		assert.Equal(t, 2, f.Count("SELECT COUNT(*) FROM Tag"))
		assert.Equal(t, 1, f.Count("SELECT COUNT(*) FROM Tag WHERE Name = 'Laboratory'"))
	})

	t.Run("Link and unlink", func(t *testing.T) {
		require.NoError(t, repo.Link(ctx, nil, "t-1", "comp-1"))
		require.NoError(t, repo.Link(ctx, nil, "t-2", "comp-1"))

		n, err := repo.CountLinks(ctx, "t-1", "comp-1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		tags, err := repo.ListForComponent(ctx, nil, "comp-1")
		require.NoError(t, err)
		assert.Len(t, tags, 2)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Len(t, all[0].Components, 1)
		assert.Equal(t, "Billing Feed", all[0].Components[0].Name)

		require.NoError(t, repo.UnlinkComponent(ctx, nil, "comp-1"))
		tags, err = repo.ListForComponent(ctx, nil, "comp-1")
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("Search matches wildcards literally", func(t *testing.T) {
		tags, err := repo.Search(ctx, "100%")
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "t-2", tags[0].ID)

		tags, err = repo.Search(ctx, "%")
		require.NoError(t, err)
		require.Len(t, tags, 1)

		tags, err = repo.Search(ctx, "_ab")
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestCategoryRepositorySearch(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewCategoryRepository(f.DB)
	f.Category("c-1", "100% Critical")
	f.Category("c-2", "1000 Batch")
	f.Category("c-3", "[Legacy]")

	cats, err := repo.Search(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "c-1", cats[0].ID)

	cats, err = repo.Search(ctx, "[")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "c-3", cats[0].ID)

	cats, err = repo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}

func TestComponentRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewComponentRepository(f.DB)
	f.Category("c-1", "Interfaces")
	f.Component("comp-1", "Billing Feed")

	c, err := repo.GetByID(ctx, nil, "comp-1")
	require.NoError(t, err)
	assert.Nil(t, c.Category)
	assert.Nil(t, c.ModifiedDate)

	category := "c-1"
	c.CategoryID = &category
	c.AlertEmail = "ops@example.com"
	c.AutoStart = true
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateSettings(ctx, nil, *c, modified))

	c, err = repo.GetByID(ctx, nil, "comp-1")
	require.NoError(t, err)
	require.NotNil(t, c.Category)
	assert.Equal(t, "Interfaces", c.Category.Name)
	assert.Equal(t, "ops@example.com", c.AlertEmail)
	assert.True(t, c.AutoStart)
	require.NotNil(t, c.ModifiedDate)
	assert.True(t, modified.Equal(*c.ModifiedDate))

	err = repo.UpdateSettings(ctx, nil, models.Component{ID: "comp-x"}, modified)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = repo.GetByID(ctx, nil, "comp-x")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestComponentHelpRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewComponentHelpRepository(f.DB)
	f.Component("comp-1", "Billing Feed")

	h, err := repo.GetForComponent(ctx, nil, "comp-1")
	require.NoError(t, err)
	assert.False(t, h.Exists())
	assert.Equal(t, "comp-1", h.ComponentID)

	h.ID = "h-1"
	h.ContactName = "Dana"
	h.HelpSchedule = models.Schedule{
		"timezone": "America/Chicago",
		"windows":  []interface{}{map[string]interface{}{"start": "08:00", "end": "17:00"}},
	}
	updated, err := repo.Update(ctx, nil, h)
	require.NoError(t, err)
	assert.False(t, updated)
	require.NoError(t, repo.Insert(ctx, nil, h))

	got, err := repo.GetForComponent(ctx, nil, "comp-1")
	require.NoError(t, err)
	assert.True(t, got.Exists())
	assert.Equal(t, "Dana", got.ContactName)
	assert.Equal(t, h.HelpSchedule, got.HelpSchedule)

	got.ContactName = "Lee"
	updated, err = repo.Update(ctx, nil, got)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 1, f.Count("SELECT COUNT(*) FROM ComponentHelp WHERE ContactName = 'Lee'"))

	t.Run("update stays within the owning component", func(t *testing.T) {
		f.Component("comp-2", "Orders Feed")
		foreign := got
		foreign.ComponentID = "comp-2"
		foreign.ContactName = "Moved"

		updated, err := repo.Update(ctx, nil, foreign)
		require.NoError(t, err)
		assert.False(t, updated)
		assert.Equal(t, 1, f.Count("SELECT COUNT(*) FROM ComponentHelp WHERE Id = 'h-1' AND ComponentId = 'comp-1' AND ContactName = 'Lee'"))
	})

	t.Run("IDTaken", func(t *testing.T) {
		taken, err := repo.IDTaken(ctx, nil, "h-1")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.IDTaken(ctx, nil, "h-2")
		require.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestAlertRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewAlertRepository(f.DB)
	f.Component("comp-1", "Billing Feed")

	schedule := models.Schedule{"enabled": true}
	require.NoError(t, repo.Insert(ctx, nil, models.Alert{ID: "a-2", ComponentID: "comp-1", Type: models.AlertTypeQueueDepth, MessageThreshold: 50, Notify: true}))
	require.NoError(t, repo.Insert(ctx, nil, models.Alert{ID: "a-1", ComponentID: "comp-1", Type: models.AlertTypeConnection, AlertSchedule: schedule}))

	alerts, err := repo.ListForComponent(ctx, nil, "comp-1")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, models.AlertTypeConnection, alerts[0].Type)
	assert.Equal(t, schedule, alerts[0].AlertSchedule)
	assert.Nil(t, alerts[1].AlertSchedule)
	assert.Equal(t, 50, alerts[1].MessageThreshold)

	require.NoError(t, repo.DeleteForComponent(ctx, nil, "comp-1"))
	alerts, err = repo.ListForComponent(ctx, nil, "comp-1")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSavedQueryRepository(t *testing.T) {
	ctx := context.Background()
	f := testutil.NewFixture(t)
	repo := NewSavedQueryRepository(f.DB)

	body := models.QueryBody{"core": "messages", "q": "status:failed"}
	q := models.SavedQuery{ID: "q-1", UserID: "u-1", Name: "Failures", Body: body, CreatedDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, repo.Create(ctx, q))

	queries, err := repo.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, body, queries[0].Body)

	err = repo.Delete(ctx, "q-1", "u-2")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	require.NoError(t, repo.Delete(ctx, "q-1", "u-1"))
	queries, err = repo.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, queries)
}
