package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/services"
)

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserRefRequest names another user by ID.
type UserRefRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// FavoriteResponse carries the favorites count after a (un)favorite.
type FavoriteResponse struct {
	ProjectID      uuid.UUID `json:"project_id"`
	FavoritesCount int64     `json:"favorites_count"`
}

// ProjectsHandler handles project, membership and ownership requests.
type ProjectsHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, protected RouteMiddleware) {
	mux.HandleFunc("POST /api/projects", protected(h.Create))
	mux.HandleFunc("GET /api/projects", protected(h.List))
	mux.HandleFunc("GET /api/projects/{pid}", protected(h.Get))
	mux.HandleFunc("DELETE /api/projects/{pid}", protected(h.Delete))
	mux.HandleFunc("POST /api/projects/{pid}/members", protected(h.AddMember))
	mux.HandleFunc("DELETE /api/projects/{pid}/members/{uid}", protected(h.RemoveMember))
	mux.HandleFunc("POST /api/projects/{pid}/owner", protected(h.TransferOwnership))
	mux.HandleFunc("PUT /api/projects/{pid}/favorite", protected(h.Favorite))
	mux.HandleFunc("DELETE /api/projects/{pid}/favorite", protected(h.Unfavorite))
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if !decodeBody(w, r, &req, false, h.logger) {
		return
	}

	project, err := h.projectService.Create(r.Context(), actor, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err, "Create project", h.logger)
		return
	}

	writeData(w, http.StatusCreated, project, h.logger)
}

// List handles GET /api/projects
// Returns the projects the caller owns or is a member of.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	projects, err := h.projectService.ListForUser(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err, "List projects", h.logger)
		return
	}

	writeData(w, http.StatusOK, projects, h.logger)
}

// Get handles GET /api/projects/{pid}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.projectService.Get(r.Context(), actor, projectID)
	if err != nil {
		writeServiceError(w, err, "Get project", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, summary, h.logger)
}

// Delete handles DELETE /api/projects/{pid}
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), actor, projectID); err != nil {
		writeServiceError(w, err, "Delete project", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /api/projects/{pid}/members
func (h *ProjectsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req UserRefRequest
	if !decodeBody(w, r, &req, false, h.logger) {
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required", h.logger)
		return
	}

	member, err := h.projectService.AddMember(r.Context(), actor, projectID, req.UserID)
	if err != nil {
		writeServiceError(w, err, "Add member", h.logger,
			zap.String("project_id", projectID.String()),
			zap.String("candidate_id", req.UserID.String()))
		return
	}

	writeData(w, http.StatusCreated, member, h.logger)
}

// RemoveMember handles DELETE /api/projects/{pid}/members/{uid}
func (h *ProjectsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}
	memberID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), actor, projectID, memberID); err != nil {
		writeServiceError(w, err, "Remove member", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TransferOwnership handles POST /api/projects/{pid}/owner
func (h *ProjectsHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req UserRefRequest
	if !decodeBody(w, r, &req, false, h.logger) {
		return
	}

	project, err := h.projectService.TransferOwnership(r.Context(), actor, projectID, req.UserID)
	if err != nil {
		writeServiceError(w, err, "Transfer ownership", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, project, h.logger)
}

// Favorite handles PUT /api/projects/{pid}/favorite
func (h *ProjectsHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, true)
}

// Unfavorite handles DELETE /api/projects/{pid}/favorite
func (h *ProjectsHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, false)
}

func (h *ProjectsHandler) toggleFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var (
		count int64
		err   error
	)
	if favorite {
		count, err = h.projectService.Favorite(r.Context(), actor, projectID)
	} else {
		count, err = h.projectService.Unfavorite(r.Context(), actor, projectID)
	}
	if err != nil {
		writeServiceError(w, err, "Update favorite", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, FavoriteResponse{ProjectID: projectID, FavoritesCount: count}, h.logger)
}
