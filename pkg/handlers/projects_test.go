package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/models"
)

func newProjectsMux(svc *mockProjectService) *http.ServeMux {
	mux := http.NewServeMux()
	NewProjectsHandler(svc, zap.NewNop()).RegisterRoutes(mux, asActor(testActor))
	return mux
}

func TestProjectsHandler_Create(t *testing.T) {
	svc := &mockProjectService{}
	rec := serve(t, newProjectsMux(svc), http.MethodPost, "/api/projects", CreateProjectRequest{Name: "Vault"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var project models.Project
	decodeData(t, rec, &project)
	assert.Equal(t, "Vault", project.Name)
	assert.Equal(t, testActor.UserID, project.OwnerID)
	assert.Equal(t, testActor, svc.gotActor)
}

func TestProjectsHandler_Create_InvalidBody(t *testing.T) {
	mux := newProjectsMux(&mockProjectService{})
	rec := serve(t, mux, http.MethodPost, "/api/projects", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec))
}

func TestProjectsHandler_Create_ValidationError(t *testing.T) {
	svc := &mockProjectService{err: apperrors.ErrInvalidArgument}
	rec := serve(t, newProjectsMux(svc), http.MethodPost, "/api/projects", CreateProjectRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, rec))
}

func TestProjectsHandler_GetAndList(t *testing.T) {
	pid := uuid.New()
	summary := &models.ProjectSummary{
		Project:        models.Project{ID: pid, Name: "Vault"},
		Members:        []*models.Member{},
		FavoritesCount: 3,
		Checkout:       &models.CheckoutStatus{},
	}
	svc := &mockProjectService{summary: summary, list: []*models.ProjectSummary{summary}}
	mux := newProjectsMux(svc)

	rec := serve(t, mux, http.MethodGet, "/api/projects/"+pid.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.ProjectSummary
	decodeData(t, rec, &got)
	assert.Equal(t, pid, got.ID)
	assert.Equal(t, int64(3), got.FavoritesCount)
	assert.Equal(t, pid, svc.gotProjectID)

	rec = serve(t, mux, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.ProjectSummary
	decodeData(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestProjectsHandler_Get_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"bad id", "/api/projects/xyz", nil, http.StatusBadRequest},
		{"not found", "/api/projects/" + uuid.NewString(), apperrors.ErrNotFound, http.StatusNotFound},
		{"forbidden", "/api/projects/" + uuid.NewString(), apperrors.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newProjectsMux(&mockProjectService{err: tt.err}), http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestProjectsHandler_Delete(t *testing.T) {
	pid := uuid.New()
	svc := &mockProjectService{}
	rec := serve(t, newProjectsMux(svc), http.MethodDelete, "/api/projects/"+pid.String(), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, pid, svc.gotProjectID)
}

func TestProjectsHandler_AddMember(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	svc := &mockProjectService{member: &models.Member{UserID: uid, Name: "Bob", Username: "bob"}}
	rec := serve(t, newProjectsMux(svc), http.MethodPost, "/api/projects/"+pid.String()+"/members", UserRefRequest{UserID: uid})

	require.Equal(t, http.StatusCreated, rec.Code)
	var member models.Member
	decodeData(t, rec, &member)
	assert.Equal(t, uid, member.UserID)
	assert.Equal(t, uid, svc.gotUserID)
}

func TestProjectsHandler_AddMember_Errors(t *testing.T) {
	pid := uuid.New()

	rec := serve(t, newProjectsMux(&mockProjectService{}), http.MethodPost, "/api/projects/"+pid.String()+"/members", UserRefRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc := &mockProjectService{err: apperrors.ErrNotAFriend}
	rec = serve(t, newProjectsMux(svc), http.MethodPost, "/api/projects/"+pid.String()+"/members", UserRefRequest{UserID: uuid.New()})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_a_friend", decodeError(t, rec))
}

func TestProjectsHandler_RemoveMember(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	svc := &mockProjectService{}
	rec := serve(t, newProjectsMux(svc), http.MethodDelete, "/api/projects/"+pid.String()+"/members/"+uid.String(), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uid, svc.gotUserID)
}

func TestProjectsHandler_TransferOwnership(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	svc := &mockProjectService{}
	rec := serve(t, newProjectsMux(svc), http.MethodPost, "/api/projects/"+pid.String()+"/owner", UserRefRequest{UserID: uid})

	require.Equal(t, http.StatusOK, rec.Code)
	var project models.Project
	decodeData(t, rec, &project)
	assert.Equal(t, uid, project.OwnerID)

	svc.err = apperrors.ErrInvalidArgument
	rec = serve(t, newProjectsMux(svc), http.MethodPost, "/api/projects/"+pid.String()+"/owner", UserRefRequest{UserID: uid})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectsHandler_Favorite(t *testing.T) {
	pid := uuid.New()
	svc := &mockProjectService{count: 4}
	mux := newProjectsMux(svc)

	rec := serve(t, mux, http.MethodPut, "/api/projects/"+pid.String()+"/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp FavoriteResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, int64(4), resp.FavoritesCount)
	assert.True(t, svc.favoriteCalled)

	svc.favoriteCalled = false
	rec = serve(t, mux, http.MethodDelete, "/api/projects/"+pid.String()+"/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.favoriteCalled)
}

func TestProjectsHandler_Unauthenticated(t *testing.T) {
	mux := http.NewServeMux()
	NewProjectsHandler(&mockProjectService{}, zap.NewNop()).RegisterRoutes(mux, noActor)

	rec := serve(t, mux, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
