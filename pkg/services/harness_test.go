package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/models"
)

type testEnv struct {
	store     *memStore
	activity  ActivityService
	friends   FriendService
	favorites FavoriteService
	projects  ProjectService
	files     FileService
	checkouts CheckoutService
	users     UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	logger := zap.NewNop()
	tx := fakeTx{}

	projects := fakeProjects{store}
	members := fakeMembers{store}
	checkouts := fakeCheckouts{store}
	users := fakeUsers{store}

	env := &testEnv{store: store}
	env.activity = NewActivityService(fakeActivities{store}, logger)
	env.friends = NewFriendService(fakeFriends{store}, users, logger)
	env.favorites = NewFavoriteService(fakeFavorites{store}, nil, logger)
	env.users = NewUserService(users, logger)
	env.projects = NewProjectService(tx, projects, members, checkouts, users, env.friends, env.favorites, env.activity, logger)
	env.files = NewFileService(tx, projects, members, checkouts, fakeFiles{store}, env.activity, logger)
	env.checkouts = NewCheckoutService(tx, projects, members, checkouts, env.activity, 0, logger)
	return env
}

// newUser stores a user and returns the matching actor.
func (e *testEnv) newUser(t *testing.T, username string) models.Actor {
	t.Helper()
	u := &models.User{ID: uuid.New(), Name: "User " + username, Username: username}
	require.NoError(t, fakeUsers{e.store}.Upsert(context.Background(), u))
	return models.Actor{UserID: u.ID, UserName: u.Name, Username: u.Username}
}

func (e *testEnv) newProject(t *testing.T, owner models.Actor) *models.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), owner, "Project of "+owner.Username, "")
	require.NoError(t, err)
	return p
}

// addMember befriends owner and member and adds member to the project.
func (e *testEnv) addMember(t *testing.T, owner, member models.Actor, projectID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	_, err := e.friends.AddFriend(ctx, owner, member.Username)
	require.NoError(t, err)
	_, err = e.projects.AddMember(ctx, owner, projectID, member.UserID)
	require.NoError(t, err)
}

func admin(a models.Actor) models.Actor {
	a.IsAdmin = true
	return a
}
