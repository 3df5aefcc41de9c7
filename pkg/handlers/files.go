package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/services"
)

// UpdateContentRequest is the body of PUT /api/projects/{pid}/files/content.
type UpdateContentRequest struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FilesHandler exposes the virtual file tree of a project.
type FilesHandler struct {
	fileService services.FileService
	logger      *zap.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(fileService services.FileService, logger *zap.Logger) *FilesHandler {
	return &FilesHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// RegisterRoutes registers the files handler's routes on the given mux.
func (h *FilesHandler) RegisterRoutes(mux *http.ServeMux, protected RouteMiddleware) {
	mux.HandleFunc("GET /api/projects/{pid}/files", protected(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/files", protected(h.Add))
	mux.HandleFunc("DELETE /api/projects/{pid}/files", protected(h.Delete))
	mux.HandleFunc("GET /api/projects/{pid}/files/content", protected(h.GetContent))
	mux.HandleFunc("PUT /api/projects/{pid}/files/content", protected(h.UpdateContent))
	mux.HandleFunc("GET /api/projects/{pid}/tree", protected(h.Tree))
	mux.HandleFunc("GET /api/projects/{pid}/breadcrumbs", protected(h.Breadcrumbs))
}

// List handles GET /api/projects/{pid}/files?path=
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	records, err := h.fileService.List(r.Context(), actor, projectID, r.URL.Query().Get("path"))
	if err != nil {
		writeServiceError(w, err, "List files", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, records, h.logger)
}

// Add handles POST /api/projects/{pid}/files
func (h *FilesHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.AddFileRequest
	if !decodeBody(w, r, &req, false, h.logger) {
		return
	}

	record, err := h.fileService.Add(r.Context(), actor, projectID, &req)
	if err != nil {
		writeServiceError(w, err, "Add file", h.logger,
			zap.String("project_id", projectID.String()),
			zap.String("name", req.Name),
			zap.String("path", req.Path))
		return
	}

	writeData(w, http.StatusCreated, record, h.logger)
}

// GetContent handles GET /api/projects/{pid}/files/content?name=&path=
func (h *FilesHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	record, err := h.fileService.GetContent(r.Context(), actor, projectID, q.Get("name"), q.Get("path"))
	if err != nil {
		writeServiceError(w, err, "Get file content", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, record, h.logger)
}

// UpdateContent handles PUT /api/projects/{pid}/files/content
func (h *FilesHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateContentRequest
	if !decodeBody(w, r, &req, false, h.logger) {
		return
	}

	record, err := h.fileService.UpdateContent(r.Context(), actor, projectID, req.Name, req.Path, req.Content)
	if err != nil {
		writeServiceError(w, err, "Update file content", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, record, h.logger)
}

// Delete handles DELETE /api/projects/{pid}/files?name=&path=&type=
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	if err := h.fileService.Delete(r.Context(), actor, projectID, q.Get("name"), q.Get("path"), q.Get("type")); err != nil {
		writeServiceError(w, err, "Delete file", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Tree handles GET /api/projects/{pid}/tree
func (h *FilesHandler) Tree(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	tree, err := h.fileService.Tree(r.Context(), actor, projectID)
	if err != nil {
		writeServiceError(w, err, "Build tree", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, tree, h.logger)
}

// Breadcrumbs handles GET /api/projects/{pid}/breadcrumbs?path=
func (h *FilesHandler) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	crumbs, err := h.fileService.Breadcrumbs(r.Context(), actor, projectID, r.URL.Query().Get("path"))
	if err != nil {
		writeServiceError(w, err, "Breadcrumbs", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, crumbs, h.logger)
}
