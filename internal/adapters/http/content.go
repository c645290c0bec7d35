package http

import (
	"net/http"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

type actorRequest struct {
	AuthorID string `json:"author_id"`
	UserID   string `json:"user_id"`
}

type updateCommentRequest struct {
	AuthorID string `json:"author_id"`
	Body     string `json:"content"`
}

func (h *Handler) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var req application.CreateContentInput
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.service.CreateContent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mirrored(w, http.StatusCreated, out)
}

func (h *Handler) handleListContents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.ContentFilter{
		AuthorID: q.Get("author_id"),
		Keyword:  q.Get("search"),
		Type:     domain.ContentType(q.Get("type")),
	}
	items, info, err := h.service.ListContents(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	paged(w, items, info)
}

func (h *Handler) handleGetContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: c})
}

func (h *Handler) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req application.UpdateContentInput
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.service.UpdateContent(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: c})
}

func (h *Handler) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteContent(r.Context(), id, firstNonEmpty(r, req.AuthorID, "author_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"id": id, "deleted": true}})
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req application.CreateCommentInput
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ContentID = id
	c, err := h.service.CreateComment(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: c})
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	threads, info, err := h.service.ListComments(r.Context(), id, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	paged(w, threads, info)
}

func (h *Handler) handleListReplies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	replies, info, err := h.service.ListReplies(r.Context(), id, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	paged(w, replies, info)
}

func (h *Handler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateCommentRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.service.UpdateComment(r.Context(), id, req.AuthorID, req.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: c})
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteComment(r.Context(), id, firstNonEmpty(r, req.AuthorID, "author_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"id": id, "deleted": true}})
}

func (h *Handler) handleLikeContent(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, domain.TargetContent)
}

func (h *Handler) handleLikeComment(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, domain.TargetComment)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, target domain.TargetType) {
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
	out, err := h.service.ToggleLike(r.Context(), req.UserID, target, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mirrored(w, http.StatusOK, out)
}

func (h *Handler) handleLikeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	liked, err := h.service.LikeStatus(r.Context(), r.URL.Query().Get("user_id"), domain.TargetContent, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]bool{"is_liked": liked}})
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req application.ShareInput
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ContentID = id
	share, err := h.service.Share(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: share})
}

func (h *Handler) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, meta, err := h.service.Trending(r.Context(), limit, r.URL.Query().Get("range"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Meta: meta})
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, info, meta, err := h.service.Feed(r.Context(), r.URL.Query().Get("user_id"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Pagination: &info, Meta: meta})
}

func (h *Handler) handleContentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ContentStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: stats})
}
