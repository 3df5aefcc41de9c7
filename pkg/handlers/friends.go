package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/services"
)

// AddFriendRequest is the body of POST /api/friends.
type AddFriendRequest struct {
	Username string `json:"username"`
}

// FriendsHandler manages the caller's friend list.
type FriendsHandler struct {
	friendService services.FriendService
	logger        *zap.Logger
}

// NewFriendsHandler creates a new friends handler.
func NewFriendsHandler(friendService services.FriendService, logger *zap.Logger) *FriendsHandler {
	return &FriendsHandler{
		friendService: friendService,
		logger:        logger,
	}
}

// RegisterRoutes registers the friends handler's routes on the given mux.
func (h *FriendsHandler) RegisterRoutes(mux *http.ServeMux, protected RouteMiddleware) {
	mux.HandleFunc("GET /api/friends", protected(h.List))
	mux.HandleFunc("POST /api/friends", protected(h.Add))
	mux.HandleFunc("DELETE /api/friends/{uid}", protected(h.Remove))
}

// List handles GET /api/friends
func (h *FriendsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	friends, err := h.friendService.List(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, err, "List friends", h.logger)
		return
	}

	writeData(w, http.StatusOK, friends, h.logger)
}

// Add handles POST /api/friends
func (h *FriendsHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req AddFriendRequest
	if !decodeBody(w, r, &req, false, h.logger) {
		return
	}

	friend, err := h.friendService.AddFriend(r.Context(), actor, req.Username)
	if err != nil {
		writeServiceError(w, err, "Add friend", h.logger, zap.String("username", req.Username))
		return
	}

	writeData(w, http.StatusCreated, friend, h.logger)
}

// Remove handles DELETE /api/friends/{uid}
func (h *FriendsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	friendID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), actor, friendID); err != nil {
		writeServiceError(w, err, "Remove friend", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
