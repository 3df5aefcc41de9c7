//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/database"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/testhelpers"
)

// repoTestContext holds shared dependencies for repository integration tests.
type repoTestContext struct {
	t     *testing.T
	appDB *testhelpers.AppDB
	tx    database.Transactor
}

func setupRepoTest(t *testing.T) *repoTestContext {
	appDB := testhelpers.GetAppDB(t)
	return &repoTestContext{
		t:     t,
		appDB: appDB,
		tx:    database.NewTxManager(appDB.DB),
	}
}

// ctx returns a context holding a scoped connection released at test end.
func (tc *repoTestContext) ctx() context.Context {
	return tc.appDB.Scope(tc.t)
}

// createUser inserts a user with a unique username and removes it afterwards.
func (tc *repoTestContext) createUser(name string) *models.User {
	tc.t.Helper()

	id := uuid.New()
	user := &models.User{
		ID:       id,
		Name:     name,
		Username: name + "-" + id.String()[:8],
	}
	if err := NewUserRepository().Upsert(tc.ctx(), user); err != nil {
		tc.t.Fatalf("failed to create test user: %v", err)
	}

	tc.t.Cleanup(func() {
		ctx := context.Background()
		_, _ = tc.appDB.DB.Pool.Exec(ctx, `DELETE FROM activities WHERE user_id = $1`, id)
		_, _ = tc.appDB.DB.Pool.Exec(ctx, `DELETE FROM checkouts WHERE user_id = $1`, id)
		_, _ = tc.appDB.DB.Pool.Exec(ctx, `DELETE FROM projects WHERE owner_id = $1`, id)
		_, _ = tc.appDB.DB.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	})

	return user
}

// createProject inserts a project owned by owner.
func (tc *repoTestContext) createProject(owner *models.User) *models.Project {
	tc.t.Helper()

	p := &models.Project{Name: "Project of " + owner.Name, OwnerID: owner.ID}
	if err := NewProjectRepository().Create(tc.ctx(), p); err != nil {
		tc.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}
