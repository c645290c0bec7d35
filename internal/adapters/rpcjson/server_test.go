package rpcjson

import (
	"context"
	"database/sql"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sqliteadapter "github.com/AlphaSNetwork/AlphaSNetwork/internal/adapters/db/sqlite"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/mirror"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/testutil"
)

type rpcClient struct {
	t    *testing.T
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	next int
}

type rawResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     int             `json:"id"`
}

func startTestServer(t *testing.T) *rpcClient {
	t.Helper()
	c, _ := startTestStack(t)
	return c
}

func startTestStack(t *testing.T) (*rpcClient, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()
	db, err := sqliteadapter.Open(filepath.Join(dir, "rpc_test.db"))
	require.NoError(t, err)
	require.NoError(t, sqliteadapter.RunMigrations(ctx, db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := sqliteadapter.NewSocialRepository(db)
	clock := testutil.FixedClock()
	mr := mirror.New(mirror.NewLocalLedger(clock), repo, clock, zap.NewNop(), nil, mirror.Options{})
	t.Cleanup(mr.Close)
	svc := application.NewSocialService(repo, mr, clock, zap.NewNop(), application.Options{AckWait: 2 * time.Second})

	sock := filepath.Join(dir, "rpc.sock")
	srv, err := Start(sock, svc, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &rpcClient{t: t, conn: conn, enc: json.NewEncoder(conn), dec: json.NewDecoder(conn)}, sqlDB
}

func (c *rpcClient) call(method string, params any) rawResponse {
	c.t.Helper()
	c.next++
	require.NoError(c.t, c.enc.Encode(map[string]any{"jsonrpc": "2.0", "method": method, "params": params, "id": c.next}))
	var resp rawResponse
	require.NoError(c.t, c.dec.Decode(&resp))
	require.Equal(c.t, c.next, resp.ID)
	return resp
}

func TestSocketIsPrivate(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "nested", "rpc.sock")
	srv, err := Start(sock, nil, nil)
	require.NoError(t, err)

	info, err := os.Stat(sock)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, srv.Close())
	_, err = os.Stat(sock)
	assert.True(t, os.IsNotExist(err))

	_, err = Start("  ", nil, nil)
	assert.Error(t, err)
}

func TestContentAndLikeOverRPC(t *testing.T) {
	c := startTestServer(t)

	resp := c.call("content.create", map[string]any{"author_id": "alice", "content_type": "text", "payload": "hi"})
	require.Nil(t, resp.Error)
	var created struct {
		Value  domain.Content        `json:"value"`
		Mirror *domain.MirrorOutcome `json:"mirror"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &created))
	require.NotNil(t, created.Mirror)
	assert.Equal(t, domain.MirrorAcknowledged, created.Mirror.Status)

	resp = c.call("content.like", map[string]any{"id": created.Value.ID, "user_id": "bob"})
	require.Nil(t, resp.Error)
	var liked struct {
		Value application.LikeState `json:"value"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &liked))
	assert.Equal(t, application.LikeState{Liked: true, Likes: 1}, liked.Value)

	resp = c.call("content.list", map[string]any{"author_id": "alice", "limit": 5})
	require.Nil(t, resp.Error)
	var page struct {
		Items      []domain.Content `json:"items"`
		Pagination domain.PageInfo  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].Counters.Likes)
	assert.Equal(t, domain.PageInfo{Limit: 5}, page.Pagination)

	resp = c.call("content.stats", nil)
	require.Nil(t, resp.Error)
	var stats domain.ContentStats
	require.NoError(t, json.Unmarshal(resp.Result, &stats))
	assert.Equal(t, int64(1), stats.TotalContents)
	assert.Equal(t, int64(1), stats.TotalLikes)
}

func TestRPCErrorCodes(t *testing.T) {
	c := startTestServer(t)

	resp := c.call("social.follow", map[string]any{"follower_id": "a", "followed_id": "a"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeApp, resp.Error.Code)
	assert.Equal(t, "conflict", resp.Error.Data)

	resp = c.call("content.get", map[string]any{"id": 42})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Data)

	resp = c.call("content.create", map[string]any{"author_id": "alice"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation", resp.Error.Data)

	resp = c.call("content.get", "not an object")
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = c.call("content.explode", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestStorageFailureIsInternalError(t *testing.T) {
	c, sqlDB := startTestStack(t)
	require.NoError(t, sqlDB.Close())

	resp := c.call("content.get", map[string]any{"id": 1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInternal, resp.Error.Code)
	assert.Equal(t, "internal error", resp.Error.Message)
	assert.Empty(t, resp.Error.Data)
}

func TestMessagingOverRPC(t *testing.T) {
	c := startTestServer(t)

	resp := c.call("social.messages.send", map[string]any{"sender_id": "a", "recipient_id": "b", "content": "hello"})
	require.Nil(t, resp.Error)

	resp = c.call("social.conversations", map[string]any{"user_id": "b"})
	require.Nil(t, resp.Error)
	var convs []domain.Conversation
	require.NoError(t, json.Unmarshal(resp.Result, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "a", convs[0].PartnerID)
	assert.Equal(t, "hello", convs[0].LastMessage.Body)

	resp = c.call("social.thread", map[string]any{"user_id": "a", "partner_id": "b"})
	require.Nil(t, resp.Error)
	var thread struct {
		Items      []domain.Message `json:"items"`
		Pagination domain.PageInfo  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &thread))
	assert.Len(t, thread.Items, 1)
	assert.Equal(t, 50, thread.Pagination.Limit)

	resp = c.call("mirror.records", map[string]any{"status": "acknowledged"})
	require.Nil(t, resp.Error)
	var records []domain.MirrorRecord
	require.NoError(t, json.Unmarshal(resp.Result, &records))
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindMessage, records[0].EntityKind)
}

func TestDispatchRejectsMalformedRequests(t *testing.T) {
	s := newServer(nil, nil)
	resp := s.dispatch(context.Background(), request{JSONRPC: "1.0", Method: "content.get", ID: 1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidRequest, resp.Error.Code)
}
