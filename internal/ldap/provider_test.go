package ldap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

type fakeConn struct {
	binds    []string
	bindErr  map[string]error
	search   func(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	closing  bool
	closed   bool
	requests []*ldap.SearchRequest
}

func (f *fakeConn) Bind(username, password string) error {
	f.binds = append(f.binds, username)
	return f.bindErr[username]
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.requests = append(f.requests, req)
	return f.search(req)
}

func (f *fakeConn) IsClosing() bool { return f.closing }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func guidBytes(t *testing.T, s string) string {
	t.Helper()
	raw, err := ParseGUID(s)
	require.NoError(t, err)
	return string(raw)
}

func testConfig() config.LDAPConfig {
	return config.LDAPConfig{
		Host:         "dc01.example.com",
		Port:         389,
		BindDN:       "CN=svc,DC=example,DC=com",
		BindPassword: "secret",
		BaseDN:       "DC=example,DC=com",
		UserFilter:   "(&(objectClass=user)(sAMAccountName={username}))",
		GroupFilter:  "(objectClass=group)",
	}
}

func newTestDirectory(conns ...*fakeConn) (*Directory, *int) {
	dials := 0
	d := NewDirectory(testConfig(), func(ctx context.Context, cfg config.LDAPConfig) (Conn, error) {
		if dials >= len(conns) {
			return nil, errors.New("dial refused")
		}
		c := conns[dials]
		dials++
		return c, nil
	})
	return d, &dials
}

func TestFormatGUID(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}

	id, err := FormatGUID(raw)
	require.NoError(t, err)
	assert.Equal(t, "04030201-0605-0807-090a-0b0c0d0e0f10", id)

	back, err := ParseGUID(id)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, err = FormatGUID(raw[:15])
	assert.Error(t, err)
}

func TestDirectoryFindUser(t *testing.T) {
	userGUID := "6f9619ff-8b86-d011-b42d-00c04fc964ff"

	t.Run("found", func(t *testing.T) {
		conn := &fakeConn{search: func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
			return &ldap.SearchResult{Entries: []*ldap.Entry{
				ldap.NewEntry("CN=Jane Doe,OU=Users,DC=example,DC=com", map[string][]string{
					"objectGUID":     {guidBytes(t, userGUID)},
					"sAMAccountName": {"jdoe"},
					"mail":           {"jdoe@example.com"},
				}),
			}}, nil
		}}
		d, dials := newTestDirectory(conn)

		user, err := d.FindUser(context.Background(), "jdoe")
		require.NoError(t, err)
		assert.Equal(t, userGUID, user.ID)
		assert.Equal(t, "jdoe", user.DisplayName)
		assert.Equal(t, "(&(objectClass=user)(sAMAccountName=jdoe))", conn.requests[0].Filter)
		assert.Equal(t, []string{"CN=svc,DC=example,DC=com"}, conn.binds)

		_, err = d.FindUser(context.Background(), "jdoe")
		require.NoError(t, err)
		assert.Equal(t, 1, *dials, "service connection is reused")
	})

	t.Run("filter input is escaped", func(t *testing.T) {
		conn := &fakeConn{search: func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
			return &ldap.SearchResult{}, nil
		}}
		d, _ := newTestDirectory(conn)

		_, err := d.FindUser(context.Background(), "*)(cn=*")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
		assert.NotContains(t, conn.requests[0].Filter, "(cn=*")
	})

	t.Run("search failure is a directory error", func(t *testing.T) {
		conn := &fakeConn{search: func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
			return nil, ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))
		}}
		d, _ := newTestDirectory(conn)

		_, err := d.FindUser(context.Background(), "jdoe")
		assert.Equal(t, apperrors.KindDirectory, apperrors.KindOf(err))
		assert.True(t, conn.closed, "broken connection is dropped")
	})

	t.Run("dial failure is a directory error", func(t *testing.T) {
		d, _ := newTestDirectory()
		_, err := d.FindUser(context.Background(), "jdoe")
		assert.Equal(t, apperrors.KindDirectory, apperrors.KindOf(err))
	})
}

func TestDirectoryMemberOf(t *testing.T) {
	groupGUID := "0d7c4e38-4f4a-4c4f-9e61-2b1f6f0b7a10"
	conn := &fakeConn{search: func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
		if !strings.Contains(req.Filter, "(member=CN=Jane\\28Ops\\29,DC=example,DC=com)") {
			return &ldap.SearchResult{}, nil
		}
		return &ldap.SearchResult{Entries: []*ldap.Entry{
			ldap.NewEntry("CN=Ops,DC=example,DC=com", map[string][]string{
				"objectGUID": {guidBytes(t, groupGUID)},
				"cn":         {"Ops"},
			}),
		}}, nil
	}}
	d, _ := newTestDirectory(conn)

	groups, err := d.MemberOf(context.Background(), "CN=Jane(Ops),DC=example,DC=com")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, groupGUID, groups[0].ID)
	assert.Equal(t, "CN=Ops,DC=example,DC=com", groups[0].DN)
	assert.Equal(t, "Ops", groups[0].Name)
	assert.True(t, strings.HasPrefix(conn.requests[0].Filter, "(&(objectClass=group)"))
	assert.Equal(t, []string{"objectGUID", "cn", "distinguishedName"}, conn.requests[0].Attributes)
}

func TestDirectoryAuthenticate(t *testing.T) {
	userDN := "CN=Jane Doe,DC=example,DC=com"
	lookup := func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
		return &ldap.SearchResult{Entries: []*ldap.Entry{
			ldap.NewEntry(userDN, map[string][]string{
				"objectGUID":     {guidBytes(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff")},
				"sAMAccountName": {"jdoe"},
			}),
		}}, nil
	}

	t.Run("valid password", func(t *testing.T) {
		service := &fakeConn{search: lookup}
		userConn := &fakeConn{}
		d, _ := newTestDirectory(service, userConn)

		user, err := d.Authenticate(context.Background(), "jdoe", "pw")
		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
		assert.Equal(t, []string{userDN}, userConn.binds)
		assert.True(t, userConn.closed)
		assert.False(t, service.closed)
	})

	t.Run("invalid password", func(t *testing.T) {
		service := &fakeConn{search: lookup}
		userConn := &fakeConn{bindErr: map[string]error{
			userDN: ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials")),
		}}
		d, _ := newTestDirectory(service, userConn)

		_, err := d.Authenticate(context.Background(), "jdoe", "wrong")
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	})

	t.Run("empty password never binds", func(t *testing.T) {
		d, dials := newTestDirectory()
		_, err := d.Authenticate(context.Background(), "jdoe", "")
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		assert.Zero(t, *dials)
	})
}
