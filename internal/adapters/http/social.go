package http

import (
	"net/http"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/go-chi/chi/v5"
)

type followRequest struct {
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
}

func (h *Handler) handleFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.Follow(r.Context(), req.FollowerID, req.FollowedID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mirrored(w, http.StatusCreated, out)
}

func (h *Handler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.Unfollow(r.Context(), req.FollowerID, req.FollowedID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: req})
}

func (h *Handler) handleFollowers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	edges, info, err := h.service.Followers(r.Context(), chi.URLParam(r, "user"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	paged(w, edges, info)
}

func (h *Handler) handleFollowing(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	edges, info, err := h.service.Following(r.Context(), chi.URLParam(r, "user"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	paged(w, edges, info)
}

func (h *Handler) handleFollowStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := h.service.FollowStatus(r.Context(), q.Get("follower_id"), q.Get("followed_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: status})
}

func (h *Handler) handleMutualFollows(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.MutualFollows(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: ids})
}

func (h *Handler) handleSuggestedUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ids, err := h.service.SuggestUsers(r.Context(), chi.URLParam(r, "user"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: ids})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req application.SendMessageInput
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.SendMessage(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mirrored(w, http.StatusCreated, out)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req actorRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	msg, err := h.service.MarkMessageRead(r.Context(), id, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: msg})
}

func (h *Handler) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req actorRequest
	if err := decodeBody(r, &req, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.DeleteMessage(r.Context(), id, firstNonEmpty(r, req.UserID, "user_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"id": id, "deleted": true}})
}

func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.service.Conversations(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: convs})
}

func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	messages, info, err := h.service.Thread(r.Context(), chi.URLParam(r, "user"), chi.URLParam(r, "partner"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	paged(w, messages, info)
}

func (h *Handler) handleSocialStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.SocialStats(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: stats})
}
