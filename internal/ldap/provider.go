// Package ldap resolves users and group memberships against Active Directory.
package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
	"github.com/comit-io/galaxyapi/internal/models"
)

// Conn is the subset of an LDAP connection the directory uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	IsClosing() bool
	Close() error
}

// DialFunc opens an unbound connection to the directory server.
type DialFunc func(ctx context.Context, cfg config.LDAPConfig) (Conn, error)

var (
	userAttributes  = []string{"objectGUID", "sAMAccountName", "displayName", "mail"}
	groupAttributes = []string{"objectGUID", "cn", "distinguishedName"}
)

// Directory looks up users and groups over a shared service-account
// connection. go-ldap connections are safe for concurrent requests, so one
// bound connection serves every caller until it breaks.
type Directory struct {
	cfg  config.LDAPConfig
	dial DialFunc

	mu   sync.Mutex
	conn Conn
}

// NewDirectory creates a directory client. A nil dial uses DialURL.
func NewDirectory(cfg config.LDAPConfig, dial DialFunc) *Directory {
	if dial == nil {
		dial = Dial
	}
	return &Directory{cfg: cfg, dial: dial}
}

type urlConn struct {
	*ldap.Conn
}

func (c urlConn) Close() error {
	c.Conn.Close()
	return nil
}

// Dial connects with ldap:// or ldaps:// and upgrades with StartTLS when asked.
func Dial(ctx context.Context, cfg config.LDAPConfig) (Conn, error) {
	scheme := "ldap"
	if cfg.UseSSL {
		scheme = "ldaps"
	}
	address := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	tlsConfig := &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec // operator opt-in
	}

	conn, err := ldap.DialURL(address, ldap.DialWithDialer(dialer), ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	if cfg.Timeout > 0 {
		conn.SetTimeout(cfg.Timeout)
	}

	if cfg.UseTLS && !cfg.UseSSL {
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return urlConn{conn}, nil
}

// service returns the bound service connection, dialing when there is none
// or the previous one is closing.
func (d *Directory) service(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil && !d.conn.IsClosing() {
		return d.conn, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := d.dial(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	if d.cfg.BindDN != "" {
		if err := conn.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}
	d.conn = conn
	return conn, nil
}

// drop discards conn when it is still the shared connection.
func (d *Directory) drop(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == conn {
		_ = d.conn.Close()
		d.conn = nil
	}
}

func (d *Directory) search(ctx context.Context, op, filter string, sizeLimit int, attrs []string) ([]*ldap.Entry, error) {
	conn, err := d.service(ctx)
	if err != nil {
		return nil, apperrors.Directory(op, err)
	}

	req := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		sizeLimit,
		int(d.cfg.Timeout/time.Second),
		false,
		filter,
		attrs,
		nil,
	)
	result, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) || conn.IsClosing() {
			d.drop(conn)
		}
		return nil, apperrors.Directory(op, fmt.Errorf("search failed: %w", err))
	}
	return result.Entries, nil
}

// FindUser looks up a user by account name. A missing user is NotFound.
func (d *Directory) FindUser(ctx context.Context, username string) (*models.DirectoryUser, error) {
	const op = "Directory.FindUser"

	filter := strings.ReplaceAll(d.cfg.UserFilter, "{username}", ldap.EscapeFilter(username))
	entries, err := d.search(ctx, op, filter, 1, userAttributes)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.NotFound(op, "user not found in directory")
	}

	entry := entries[0]
	id, err := FormatGUID(entry.GetRawAttributeValue("objectGUID"))
	if err != nil {
		return nil, apperrors.Directory(op, fmt.Errorf("user %s: %w", entry.DN, err))
	}
	user := &models.DirectoryUser{
		ID:          id,
		DN:          entry.DN,
		Username:    entry.GetAttributeValue("sAMAccountName"),
		DisplayName: entry.GetAttributeValue("displayName"),
		Email:       entry.GetAttributeValue("mail"),
	}
	if user.Username == "" {
		user.Username = username
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	return user, nil
}

// MemberOf returns the groups that list dn as a direct member.
func (d *Directory) MemberOf(ctx context.Context, dn string) ([]models.GroupRef, error) {
	const op = "Directory.MemberOf"

	filter := fmt.Sprintf("(&%s(member=%s))", d.cfg.GroupFilter, ldap.EscapeFilter(dn))
	entries, err := d.search(ctx, op, filter, 0, groupAttributes)
	if err != nil {
		return nil, err
	}

	groups := make([]models.GroupRef, 0, len(entries))
	for _, entry := range entries {
		id, err := FormatGUID(entry.GetRawAttributeValue("objectGUID"))
		if err != nil {
			return nil, apperrors.Directory(op, fmt.Errorf("group %s: %w", entry.DN, err))
		}
		groupDN := entry.GetAttributeValue("distinguishedName")
		if groupDN == "" {
			groupDN = entry.DN
		}
		groups = append(groups, models.GroupRef{ID: id, DN: groupDN, Name: entry.GetAttributeValue("cn")})
	}
	return groups, nil
}

// Authenticate verifies the password by binding as the user on a dedicated
// connection, leaving the service connection bound as the service account.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*models.DirectoryUser, error) {
	const op = "Directory.Authenticate"

	if password == "" {
		return nil, apperrors.Unauthorized(op, "invalid credentials")
	}
	user, err := d.FindUser(ctx, username)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.Unauthorized(op, "invalid credentials")
		}
		return nil, err
	}

	conn, err := d.dial(ctx, d.cfg)
	if err != nil {
		return nil, apperrors.Directory(op, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Bind(user.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, apperrors.Unauthorized(op, "invalid credentials")
		}
		return nil, apperrors.Directory(op, err)
	}
	return user, nil
}

// Ping runs a base-object search to confirm the directory answers.
func (d *Directory) Ping(ctx context.Context) error {
	conn, err := d.service(ctx)
	if err != nil {
		return apperrors.Directory("Directory.Ping", err)
	}
	req := ldap.NewSearchRequest(d.cfg.BaseDN, ldap.ScopeBaseObject, ldap.NeverDerefAliases,
		1, 5, false, "(objectClass=*)", []string{"1.1"}, nil)
	if _, err := conn.Search(req); err != nil {
		d.drop(conn)
		return apperrors.Directory("Directory.Ping", fmt.Errorf("test search failed: %w", err))
	}
	return nil
}

// Close releases the service connection.
func (d *Directory) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
}
