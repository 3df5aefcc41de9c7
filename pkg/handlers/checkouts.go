package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/services"
)

// CheckoutRequest is the body of POST /api/projects/{pid}/checkout.
// All fields are optional.
type CheckoutRequest struct {
	ExpectedReturn *time.Time `json:"expected_return,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// CheckinRequest is the body of POST /api/projects/{pid}/checkin.
type CheckinRequest struct {
	Notes string `json:"notes,omitempty"`
}

// CheckoutsHandler handles project lock requests.
type CheckoutsHandler struct {
	checkoutService services.CheckoutService
	logger          *zap.Logger
}

// NewCheckoutsHandler creates a new checkouts handler.
func NewCheckoutsHandler(checkoutService services.CheckoutService, logger *zap.Logger) *CheckoutsHandler {
	return &CheckoutsHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers the checkouts handler's routes on the given mux.
func (h *CheckoutsHandler) RegisterRoutes(mux *http.ServeMux, protected RouteMiddleware) {
	mux.HandleFunc("POST /api/projects/{pid}/checkout", protected(h.Checkout))
	mux.HandleFunc("POST /api/projects/{pid}/checkin", protected(h.Checkin))
	mux.HandleFunc("GET /api/projects/{pid}/checkout", protected(h.Status))
	mux.HandleFunc("GET /api/projects/{pid}/checkouts", protected(h.ProjectHistory))
	mux.HandleFunc("GET /api/me/checkouts", protected(h.MyHistory))
}

// Checkout handles POST /api/projects/{pid}/checkout
func (h *CheckoutsHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !decodeBody(w, r, &req, true, h.logger) {
		return
	}

	checkout, err := h.checkoutService.Checkout(r.Context(), actor, projectID, req.ExpectedReturn, req.Notes)
	if err != nil {
		writeServiceError(w, err, "Checkout", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusCreated, checkout, h.logger)
}

// Checkin handles POST /api/projects/{pid}/checkin
func (h *CheckoutsHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req CheckinRequest
	if !decodeBody(w, r, &req, true, h.logger) {
		return
	}

	checkout, err := h.checkoutService.Checkin(r.Context(), actor, projectID, req.Notes)
	if err != nil {
		writeServiceError(w, err, "Checkin", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, checkout, h.logger)
}

// Status handles GET /api/projects/{pid}/checkout
func (h *CheckoutsHandler) Status(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	status, err := h.checkoutService.Status(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "Checkout status", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, status, h.logger)
}

// ProjectHistory handles GET /api/projects/{pid}/checkouts
func (h *CheckoutsHandler) ProjectHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.checkoutService.HistoryForProject(r.Context(), actor, projectID)
	if err != nil {
		writeServiceError(w, err, "Project checkout history", h.logger, zap.String("project_id", projectID.String()))
		return
	}

	writeData(w, http.StatusOK, history, h.logger)
}

// MyHistory handles GET /api/me/checkouts
func (h *CheckoutsHandler) MyHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.checkoutService.HistoryForUser(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, err, "Checkout history", h.logger)
		return
	}

	writeData(w, http.StatusOK, history, h.logger)
}
