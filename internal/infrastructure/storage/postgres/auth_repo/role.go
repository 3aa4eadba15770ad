package auth_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/id"
	"bistro/internal/domain/auth"
	"bistro/internal/infrastructure/storage/postgres"
	"bistro/internal/infrastructure/storage/postgres/catalog_repo"
)

// NewRoleRepo creates the roles repository. A role assigned to a user cannot be deleted.
func NewRoleRepo(txManager *postgres.TxManager) auth.RoleRepository {
	return catalog_repo.NewBaseRefRepo(txManager, catalog_repo.RefRepoConfig[*auth.Role]{
		TableName:  "roles",
		EntityName: "role",
		NewFn:      func() *auth.Role { return &auth.Role{} },
		UniqueKey:  func(r *auth.Role) squirrel.Sqlizer { return catalog_repo.NameEquals(r.Name) },
		InUse: func(ctx context.Context, q postgres.Querier, roleID id.ID) (string, error) {
			var username string
			err := q.QueryRow(ctx, `
				SELECT COALESCE((SELECT username FROM users WHERE role_id = $1 ORDER BY username LIMIT 1), '')
			`, roleID).Scan(&username)
			if err != nil || username == "" {
				return "", err
			}
			return "role is assigned to user " + username, nil
		},
	})
}
