package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *application.SocialService
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// envelope is the shape of every API response.
type envelope struct {
	Success    bool                  `json:"success"`
	Data       any                   `json:"data,omitempty"`
	Error      string                `json:"error,omitempty"`
	Pagination *domain.PageInfo      `json:"pagination,omitempty"`
	Meta       any                   `json:"meta,omitempty"`
	Mirror     *domain.MirrorOutcome `json:"mirror,omitempty"`
}

func NewRouter(service *application.SocialService, logger *zap.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{service: service, logger: logger.Named("http"), metrics: m}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/contents", h.handleCreateContent)
		api.Get("/contents", h.handleListContents)
		api.Get("/contents/{id}", h.handleGetContent)
		api.Patch("/contents/{id}", h.handleUpdateContent)
		api.Delete("/contents/{id}", h.handleDeleteContent)
		api.Post("/contents/{id}/comments", h.handleCreateComment)
		api.Get("/contents/{id}/comments", h.handleListComments)
		api.Post("/contents/{id}/like", h.handleLikeContent)
		api.Get("/contents/{id}/like-status", h.handleLikeStatus)
		api.Post("/contents/{id}/share", h.handleShare)

		api.Get("/comments/{id}/replies", h.handleListReplies)
		api.Patch("/comments/{id}", h.handleUpdateComment)
		api.Delete("/comments/{id}", h.handleDeleteComment)
		api.Post("/comments/{id}/like", h.handleLikeComment)

		api.Get("/trending", h.handleTrending)
		api.Get("/feed", h.handleFeed)
		api.Get("/stats", h.handleContentStats)

		api.Route("/social", func(s chi.Router) {
			s.Post("/follow", h.handleFollow)
			s.Post("/unfollow", h.handleUnfollow)
			s.Get("/followers/{user}", h.handleFollowers)
			s.Get("/following/{user}", h.handleFollowing)
			s.Get("/follow-status", h.handleFollowStatus)
			s.Get("/mutual-follows", h.handleMutualFollows)
			s.Get("/suggested-users/{user}", h.handleSuggestedUsers)
			s.Post("/messages", h.handleSendMessage)
			s.Post("/messages/{id}/read", h.handleMarkRead)
			s.Delete("/messages/{id}", h.handleDeleteMessage)
			s.Get("/conversations/{user}", h.handleConversations)
			s.Get("/conversations/{user}/{partner}/messages", h.handleThread)
			s.Get("/social-stats/{user}", h.handleSocialStats)
		})

		api.Get("/mirror/records", h.handleMirrorRecords)
		api.Post("/mirror/records/{id}/ack", h.handleMirrorAck)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Error: "method not allowed"})
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.Request(r.Method, status)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"status": "ok"}})
}

func (h *Handler) handleMirrorRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := domain.MirrorStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	records, err := h.service.MirrorRecords(r.Context(), status, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: records})
}

type mirrorAckRequest struct {
	TxRef string `json:"tx_ref"`
}

func (h *Handler) handleMirrorAck(w http.ResponseWriter, r *http.Request) {
	var req mirrorAckRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	changed, err := h.service.AcknowledgeMirror(r.Context(), chi.URLParam(r, "id"), req.TxRef)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]bool{"acknowledged": changed}})
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported without its cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrMirrorUnavailable):
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "internal error"})
		return
	}
	writeJSON(w, status, envelope{Error: err.Error()})
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return uint(parsed), nil
}

// queryInt returns 0 when the parameter is absent so the service default
// applies.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return v, nil
}

func pageParams(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// decodeBody reads a JSON request body. With optional set, an empty body
// leaves dst untouched.
func decodeBody(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Invalid("body", "invalid JSON payload")
	}
	return nil
}

// firstNonEmpty picks the body value, falling back to the query string.
func firstNonEmpty(r *http.Request, fromBody, queryKey string) string {
	if strings.TrimSpace(fromBody) != "" {
		return fromBody
	}
	return r.URL.Query().Get(queryKey)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func mirrored[T any](w http.ResponseWriter, status int, out application.Mirrored[T]) {
	writeJSON(w, status, envelope{Success: true, Data: out.Value, Mirror: out.Mirror})
}

func paged(w http.ResponseWriter, data any, info domain.PageInfo) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &info})
}
