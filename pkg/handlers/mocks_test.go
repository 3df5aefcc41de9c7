package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/auth"
	"github.com/projectvault/projectvault/pkg/filetree"
	"github.com/projectvault/projectvault/pkg/models"
	"github.com/projectvault/projectvault/pkg/services"
)

// asActor stands in for the auth, scope and provisioning chain.
func asActor(actor models.Actor) RouteMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		}
	}
}

func noActor(next http.HandlerFunc) http.HandlerFunc { return next }

// mockProjectService is a configurable mock for project handler tests.
type mockProjectService struct {
	project *models.Project
	summary *models.ProjectSummary
	list    []*models.ProjectSummary
	member  *models.Member
	count   int64
	err     error

	gotActor       models.Actor
	gotProjectID   uuid.UUID
	gotUserID      uuid.UUID
	gotName        string
	favoriteCalled bool
}

var _ services.ProjectService = (*mockProjectService)(nil)

func (m *mockProjectService) Create(ctx context.Context, actor models.Actor, name, description string) (*models.Project, error) {
	m.gotActor, m.gotName = actor, name
	if m.err != nil {
		return nil, m.err
	}
	return &models.Project{ID: uuid.New(), Name: name, Description: description, OwnerID: actor.UserID}, nil
}

func (m *mockProjectService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ProjectSummary, error) {
	m.gotActor, m.gotProjectID = actor, id
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockProjectService) ListForUser(ctx context.Context, actor models.Actor) ([]*models.ProjectSummary, error) {
	m.gotActor = actor
	return m.list, m.err
}

func (m *mockProjectService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	m.gotActor, m.gotProjectID = actor, id
	return m.err
}

func (m *mockProjectService) AddMember(ctx context.Context, actor models.Actor, projectID, candidateID uuid.UUID) (*models.Member, error) {
	m.gotActor, m.gotProjectID, m.gotUserID = actor, projectID, candidateID
	if m.err != nil {
		return nil, m.err
	}
	return m.member, nil
}

func (m *mockProjectService) RemoveMember(ctx context.Context, actor models.Actor, projectID, memberID uuid.UUID) error {
	m.gotActor, m.gotProjectID, m.gotUserID = actor, projectID, memberID
	return m.err
}

func (m *mockProjectService) TransferOwnership(ctx context.Context, actor models.Actor, projectID, newOwnerID uuid.UUID) (*models.Project, error) {
	m.gotActor, m.gotProjectID, m.gotUserID = actor, projectID, newOwnerID
	if m.err != nil {
		return nil, m.err
	}
	return &models.Project{ID: projectID, OwnerID: newOwnerID}, nil
}

func (m *mockProjectService) Favorite(ctx context.Context, actor models.Actor, id uuid.UUID) (int64, error) {
	m.gotActor, m.gotProjectID, m.favoriteCalled = actor, id, true
	return m.count, m.err
}

func (m *mockProjectService) Unfavorite(ctx context.Context, actor models.Actor, id uuid.UUID) (int64, error) {
	m.gotActor, m.gotProjectID = actor, id
	return m.count, m.err
}

// mockFileService is a configurable mock for file handler tests.
type mockFileService struct {
	record  *models.FileRecord
	records []*models.FileRecord
	tree    *filetree.Node
	err     error

	gotReq     *services.AddFileRequest
	gotName    string
	gotPath    string
	gotType    string
	gotContent string
}

var _ services.FileService = (*mockFileService)(nil)

func (m *mockFileService) Add(ctx context.Context, actor models.Actor, projectID uuid.UUID, req *services.AddFileRequest) (*models.FileRecord, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockFileService) GetContent(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path string) (*models.FileRecord, error) {
	m.gotName, m.gotPath = name, path
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockFileService) UpdateContent(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path, content string) (*models.FileRecord, error) {
	m.gotName, m.gotPath, m.gotContent = name, path, content
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockFileService) Delete(ctx context.Context, actor models.Actor, projectID uuid.UUID, name, path, recordType string) error {
	m.gotName, m.gotPath, m.gotType = name, path, recordType
	return m.err
}

func (m *mockFileService) List(ctx context.Context, actor models.Actor, projectID uuid.UUID, path string) ([]*models.FileRecord, error) {
	m.gotPath = path
	return m.records, m.err
}

func (m *mockFileService) Tree(ctx context.Context, actor models.Actor, projectID uuid.UUID) (*filetree.Node, error) {
	return m.tree, m.err
}

func (m *mockFileService) Breadcrumbs(ctx context.Context, actor models.Actor, projectID uuid.UUID, path string) ([]filetree.Crumb, error) {
	m.gotPath = path
	if m.err != nil {
		return nil, m.err
	}
	return filetree.Breadcrumbs(path), nil
}

// mockCheckoutService is a configurable mock for checkout handler tests.
type mockCheckoutService struct {
	checkout *models.Checkout
	status   *models.CheckoutStatus
	history  []*models.Checkout
	err      error

	gotExpectedReturn *time.Time
	gotNotes          string
	gotUserID         uuid.UUID
}

var _ services.CheckoutService = (*mockCheckoutService)(nil)

func (m *mockCheckoutService) Checkout(ctx context.Context, actor models.Actor, projectID uuid.UUID, expectedReturn *time.Time, notes string) (*models.Checkout, error) {
	m.gotExpectedReturn, m.gotNotes = expectedReturn, notes
	if m.err != nil {
		return nil, m.err
	}
	return m.checkout, nil
}

func (m *mockCheckoutService) Checkin(ctx context.Context, actor models.Actor, projectID uuid.UUID, notes string) (*models.Checkout, error) {
	m.gotNotes = notes
	if m.err != nil {
		return nil, m.err
	}
	return m.checkout, nil
}

func (m *mockCheckoutService) Status(ctx context.Context, projectID uuid.UUID) (*models.CheckoutStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

func (m *mockCheckoutService) HistoryForUser(ctx context.Context, userID uuid.UUID) ([]*models.Checkout, error) {
	m.gotUserID = userID
	return m.history, m.err
}

func (m *mockCheckoutService) HistoryForProject(ctx context.Context, actor models.Actor, projectID uuid.UUID) ([]*models.Checkout, error) {
	return m.history, m.err
}

// mockFriendService is a configurable mock for friend handler tests.
type mockFriendService struct {
	friends []*models.Friend
	err     error

	gotUsername string
	gotFriendID uuid.UUID
}

var _ services.FriendService = (*mockFriendService)(nil)

func (m *mockFriendService) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return false, m.err
}

func (m *mockFriendService) AddFriend(ctx context.Context, actor models.Actor, username string) (*models.Friend, error) {
	m.gotUsername = username
	if m.err != nil {
		return nil, m.err
	}
	return &models.Friend{UserID: uuid.New(), Username: username}, nil
}

func (m *mockFriendService) RemoveFriend(ctx context.Context, actor models.Actor, friendID uuid.UUID) error {
	m.gotFriendID = friendID
	return m.err
}

func (m *mockFriendService) List(ctx context.Context, userID uuid.UUID) ([]*models.Friend, error) {
	return m.friends, m.err
}

// mockActivityService is a configurable mock for activity handler tests.
type mockActivityService struct {
	activities []*models.Activity
	err        error
	gotLimit   int
}

var _ services.ActivityService = (*mockActivityService)(nil)

func (m *mockActivityService) Record(ctx context.Context, activity *models.Activity) {}

func (m *mockActivityService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error) {
	m.gotLimit = limit
	return m.activities, m.err
}

// mockUserService is a configurable mock for provisioning tests.
type mockUserService struct {
	user     *models.User
	err      error
	gotEmail string
	calls    int
}

var _ services.UserService = (*mockUserService)(nil)

func (m *mockUserService) EnsureUser(ctx context.Context, actor models.Actor, email string) (*models.User, error) {
	m.calls++
	m.gotEmail = email
	if m.err != nil {
		return nil, m.err
	}
	if m.user != nil {
		return m.user, nil
	}
	return &models.User{ID: actor.UserID, Name: actor.UserName, Username: actor.Username, Email: email}, nil
}

// mockPinger reports a fixed ping result.
type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }
