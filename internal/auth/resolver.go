package auth

import (
	"context"
	"sort"

	"github.com/comit-io/galaxyapi/internal/models"
)

// Directory is the directory service the resolver walks.
type Directory interface {
	FindUser(ctx context.Context, username string) (*models.DirectoryUser, error)
	MemberOf(ctx context.Context, dn string) ([]models.GroupRef, error)
}

// MembershipResolver expands a user's groups through nested memberships.
type MembershipResolver struct {
	dir Directory
}

func NewMembershipResolver(dir Directory) *MembershipResolver {
	return &MembershipResolver{dir: dir}
}

// ResolveGroups returns the sorted ids of every group the user belongs to,
// directly or through other groups. Cycles are cut by tracking visited
// groups. Any directory error aborts the walk with no partial result.
func (r *MembershipResolver) ResolveGroups(ctx context.Context, username string) ([]string, error) {
	user, err := r.dir.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return r.expand(ctx, user.DN)
}

func (r *MembershipResolver) expand(ctx context.Context, dn string) ([]string, error) {
	visited := map[string]struct{}{}
	worklist := []string{dn}

	for len(worklist) > 0 {
		next := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		groups, err := r.dir.MemberOf(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			if _, seen := visited[g.ID]; seen {
				continue
			}
			visited[g.ID] = struct{}{}
			worklist = append(worklist, g.DN)
		}
	}

	ids := make([]string, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
