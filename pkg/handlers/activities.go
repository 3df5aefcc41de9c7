package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/services"
)

// ActivitiesHandler serves the caller's activity feed.
type ActivitiesHandler struct {
	activityService services.ActivityService
	logger          *zap.Logger
}

// NewActivitiesHandler creates a new activities handler.
func NewActivitiesHandler(activityService services.ActivityService, logger *zap.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// RegisterRoutes registers the activities handler's routes on the given mux.
func (h *ActivitiesHandler) RegisterRoutes(mux *http.ServeMux, protected RouteMiddleware) {
	mux.HandleFunc("GET /api/me/activities", protected(h.List))
}

// List handles GET /api/me/activities?limit=
func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 0, h.logger)
	if !ok {
		return
	}

	activities, err := h.activityService.ListForUser(r.Context(), actor.UserID, limit)
	if err != nil {
		writeServiceError(w, err, "List activities", h.logger)
		return
	}

	writeData(w, http.StatusOK, activities, h.logger)
}
