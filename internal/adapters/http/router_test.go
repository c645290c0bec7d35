package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sqliteadapter "github.com/AlphaSNetwork/AlphaSNetwork/internal/adapters/db/sqlite"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/metrics"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/mirror"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/testutil"
)

type response struct {
	Success    bool                  `json:"success"`
	Data       json.RawMessage       `json:"data"`
	Error      string                `json:"error"`
	Pagination *domain.PageInfo      `json:"pagination"`
	Meta       map[string]any        `json:"meta"`
	Mirror     *domain.MirrorOutcome `json:"mirror"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestStack(t)
	return h
}

func newTestStack(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := sqliteadapter.Open(filepath.Join(t.TempDir(), "router_test.db"))
	require.NoError(t, err)
	require.NoError(t, sqliteadapter.RunMigrations(ctx, db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := sqliteadapter.NewSocialRepository(db)
	clock := testutil.FixedClock()
	m := metrics.New()
	mr := mirror.New(mirror.NewLocalLedger(clock), repo, clock, zap.NewNop(), m, mirror.Options{})
	t.Cleanup(mr.Close)

	svc := application.NewSocialService(repo, mr, clock, zap.NewNop(), application.Options{AckWait: 2 * time.Second, Metrics: m})
	return NewRouter(svc, zap.NewNop(), m), sqlDB
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func decodeData[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v))
	return v
}

func createPost(t *testing.T, h http.Handler, author, payload string) domain.Content {
	t.Helper()
	code, res := do(t, h, http.MethodPost, "/api/contents", map[string]any{
		"author_id":    author,
		"content_type": "text",
		"title":        "hello",
		"payload":      payload,
		"tags":         []string{"go"},
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	return decodeData[domain.Content](t, res)
}

func TestContentLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t)
	c := createPost(t, h, "alice", "first post")
	assert.NotEmpty(t, c.ContentHash)

	code, res := do(t, h, http.MethodGet, "/api/contents/"+itoa(c.ID), nil)
	require.Equal(t, http.StatusOK, code)
	got := decodeData[domain.Content](t, res)
	assert.Equal(t, int64(1), got.Counters.Views)

	code, res = do(t, h, http.MethodGet, "/api/contents?author_id=alice&limit=1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.Pagination)
	assert.Equal(t, domain.PageInfo{Limit: 1, Offset: 0, HasMore: true}, *res.Pagination)

	code, res = do(t, h, http.MethodDelete, "/api/contents/"+itoa(c.ID), map[string]string{"author_id": "mallory"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, res.Success)

	code, _ = do(t, h, http.MethodDelete, "/api/contents/"+itoa(c.ID)+"?author_id=alice", nil)
	assert.Equal(t, http.StatusOK, code)

	code, res = do(t, h, http.MethodGet, "/api/contents/"+itoa(c.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, res.Error, "not found")
}

func TestLikeToggleReportsMirror(t *testing.T) {
	h := newTestRouter(t)
	c := createPost(t, h, "alice", "likeable")
	path := "/api/contents/" + itoa(c.ID) + "/like"

	code, res := do(t, h, http.MethodPost, path, map[string]string{"user_id": "bob"})
	require.Equal(t, http.StatusOK, code, res.Error)
	state := decodeData[application.LikeState](t, res)
	assert.Equal(t, application.LikeState{Liked: true, Likes: 1}, state)
	require.NotNil(t, res.Mirror)
	assert.Equal(t, domain.MirrorAcknowledged, res.Mirror.Status)

	code, res = do(t, h, http.MethodGet, "/api/contents/"+itoa(c.ID)+"/like-status?user_id=bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"is_liked":true}`, string(res.Data))

	code, res = do(t, h, http.MethodPost, path, map[string]string{"user_id": "bob"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, application.LikeState{Liked: false, Likes: 0}, decodeData[application.LikeState](t, res))
	assert.Nil(t, res.Mirror)

	code, res = do(t, h, http.MethodPost, "/api/contents/999/like", map[string]string{"user_id": "bob"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, res.Success)
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing payload", http.MethodPost, "/api/contents", map[string]string{"author_id": "a", "content_type": "text"}, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/social/follow", nil, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/contents/abc", nil, http.StatusBadRequest},
		{"negative offset", http.MethodGet, "/api/contents?offset=-1", nil, http.StatusBadRequest},
		{"bad range", http.MethodGet, "/api/trending?range=1y", nil, http.StatusBadRequest},
		{"feed without user", http.MethodGet, "/api/feed", nil, http.StatusBadRequest},
		{"self follow", http.MethodPost, "/api/social/follow", map[string]string{"follower_id": "a", "followed_id": "a"}, http.StatusConflict},
		{"self message", http.MethodPost, "/api/social/messages", map[string]string{"sender_id": "a", "recipient_id": "a", "content": "hi"}, http.StatusConflict},
		{"unknown route", http.MethodGet, "/api/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code, res.Error)
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestStorageFailureHidesCause(t *testing.T) {
	h, sqlDB := newTestStack(t)
	require.NoError(t, sqlDB.Close())

	code, res := do(t, h, http.MethodGet, "/api/contents/1", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, res.Success)
	assert.Equal(t, "internal error", res.Error)
}

func TestTrendingAndFeedMeta(t *testing.T) {
	h := newTestRouter(t)
	createPost(t, h, "alice", "one")

	code, res := do(t, h, http.MethodGet, "/api/trending?range=7d", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "like_count_desc", res.Meta["algorithm"])
	assert.Equal(t, "7d", res.Meta["time_range"])

	code, res = do(t, h, http.MethodGet, "/api/feed?user_id=bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "latest_public", res.Meta["algorithm"])
	assert.Equal(t, false, res.Meta["personalized"])
	assert.Len(t, decodeData[[]domain.Content](t, res), 1)
}

func TestFollowAndMessagingOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	code, res := do(t, h, http.MethodPost, "/api/social/follow", map[string]string{"follower_id": "a", "followed_id": "b"})
	require.Equal(t, http.StatusCreated, code, res.Error)
	require.NotNil(t, res.Mirror)

	code, _ = do(t, h, http.MethodPost, "/api/social/follow", map[string]string{"follower_id": "a", "followed_id": "b"})
	assert.Equal(t, http.StatusConflict, code)

	code, res = do(t, h, http.MethodPost, "/api/social/follow", map[string]string{"follower_id": "b", "followed_id": "a"})
	require.Equal(t, http.StatusCreated, code, res.Error)

	code, res = do(t, h, http.MethodGet, "/api/social/follow-status?follower_id=a&followed_id=b", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, application.FollowStatus{Following: true, FollowedBy: true}, decodeData[application.FollowStatus](t, res))

	code, res = do(t, h, http.MethodGet, "/api/social/mutual-follows?user_id=a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"b"}, decodeData[[]string](t, res))

	code, res = do(t, h, http.MethodPost, "/api/social/messages", map[string]string{"sender_id": "a", "recipient_id": "b", "content": "hi"})
	require.Equal(t, http.StatusCreated, code, res.Error)
	msg := decodeData[domain.Message](t, res)
	require.NotNil(t, msg.ContentHash)

	code, res = do(t, h, http.MethodGet, "/api/social/conversations/b", nil)
	require.Equal(t, http.StatusOK, code)
	convs := decodeData[[]domain.Conversation](t, res)
	require.Len(t, convs, 1)
	assert.Equal(t, "a", convs[0].PartnerID)
	assert.Equal(t, 1, convs[0].UnreadCount)

	code, _ = do(t, h, http.MethodPost, "/api/social/messages/"+itoa(msg.ID)+"/read", map[string]string{"user_id": "a"})
	assert.Equal(t, http.StatusNotFound, code, "only the recipient can mark a message read")

	code, res = do(t, h, http.MethodPost, "/api/social/messages/"+itoa(msg.ID)+"/read", map[string]string{"user_id": "b"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeData[domain.Message](t, res).Read)

	code, res = do(t, h, http.MethodGet, "/api/social/conversations/a/b/messages", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]domain.Message](t, res), 1)
	assert.Equal(t, 50, res.Pagination.Limit)

	code, _ = do(t, h, http.MethodDelete, "/api/social/messages/"+itoa(msg.ID), map[string]string{"user_id": "a"})
	assert.Equal(t, http.StatusOK, code)

	code, res = do(t, h, http.MethodGet, "/api/social/social-stats/a", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decodeData[domain.SocialStats](t, res)
	assert.Equal(t, int64(1), stats.Followers)
	assert.Equal(t, int64(0), stats.SentMessages)

	code, _ = do(t, h, http.MethodPost, "/api/social/unfollow", map[string]string{"follower_id": "a", "followed_id": "b"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodPost, "/api/social/unfollow", map[string]string{"follower_id": "a", "followed_id": "b"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMirrorRecordsAndMetrics(t *testing.T) {
	h := newTestRouter(t)
	createPost(t, h, "alice", "mirrored")

	code, res := do(t, h, http.MethodGet, "/api/mirror/records?status=acknowledged", nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	records := decodeData[[]domain.MirrorRecord](t, res)
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindContent, records[0].EntityKind)

	code, res = do(t, h, http.MethodPost, "/api/mirror/records/"+records[0].LocalEventID+"/ack", map[string]string{"tx_ref": "0xabc"})
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.JSONEq(t, `{"acknowledged":false}`, string(res.Data))

	code, _ = do(t, h, http.MethodGet, "/api/mirror/records?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "social_http_requests_total"), "request counter exposed")
	assert.True(t, strings.Contains(body, "social_mirror_outcomes_total"), "mirror counter exposed")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
