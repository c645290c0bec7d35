package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/metrics"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore keeps mirror records in memory with the same transition rules as
// the sqlite store.
type memStore struct {
	mu      sync.Mutex
	records map[string]domain.MirrorRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.MirrorRecord)}
}

func (s *memStore) CreateMirrorRecord(_ context.Context, value domain.MirrorRecord) (domain.MirrorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value.Status = domain.MirrorPending
	value.UpdatedAt = value.CreatedAt
	s.records[value.LocalEventID] = value
	return value, nil
}

func (s *memStore) RecordMirrorAttempt(_ context.Context, eventID string, at time.Time, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[eventID]
	if !ok || rec.Status != domain.MirrorPending {
		return nil
	}
	rec.Attempts++
	rec.LastAttemptAt = &at
	rec.LastError = lastErr
	s.records[eventID] = rec
	return nil
}

func (s *memStore) AcknowledgeMirror(_ context.Context, eventID, txRef string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[eventID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if rec.Status == domain.MirrorAcknowledged {
		return false, nil
	}
	rec.Status = domain.MirrorAcknowledged
	rec.TxRef = &txRef
	rec.LastError = ""
	rec.UpdatedAt = at
	s.records[eventID] = rec
	return true, nil
}

func (s *memStore) FailMirror(_ context.Context, eventID, reason string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[eventID]
	if !ok || rec.Status != domain.MirrorPending {
		return false, nil
	}
	rec.Status = domain.MirrorFailed
	rec.LastError = reason
	rec.UpdatedAt = at
	s.records[eventID] = rec
	return true, nil
}

func (s *memStore) GetMirrorRecord(_ context.Context, eventID string) (domain.MirrorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[eventID]
	if !ok {
		return domain.MirrorRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) ListMirrorRecords(_ context.Context, status domain.MirrorStatus, limit int) ([]domain.MirrorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MirrorRecord, 0)
	for _, rec := range s.records {
		if status == "" || rec.Status == status {
			out = append(out, rec)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestMirror(t *testing.T, ledger domain.Ledger, store domain.MirrorStore, opts Options) *Mirror {
	t.Helper()
	m := New(ledger, store, testutil.FixedClock(), zap.NewNop(), metrics.New(), opts)
	t.Cleanup(m.Close)
	return m
}

func await(t *testing.T, ch <-chan domain.MirrorResult) domain.MirrorResult {
	t.Helper()
	select {
	case res, ok := <-ch:
		require.True(t, ok, "result channel closed without a result")
		_, open := <-ch
		require.False(t, open, "result channel should close after one result")
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for mirror result")
	}
	return domain.MirrorResult{}
}

func TestSubmitAcknowledgesOnSuccess(t *testing.T) {
	store := newMemStore()
	ledger := NewLocalLedger(nil)
	m := newTestMirror(t, ledger, store, Options{})

	ch, err := m.Submit(context.Background(), domain.MirrorEvent{Kind: domain.KindContent, EntityID: 7, Digest: "abc"})
	require.NoError(t, err)

	res := await(t, ch)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.TxRef)

	rec, err := store.GetMirrorRecord(context.Background(), res.EventID)
	require.NoError(t, err)
	assert.Equal(t, domain.MirrorAcknowledged, rec.Status)
	assert.Equal(t, res.TxRef, *rec.TxRef)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, "abc", rec.Digest)
	accepted, last := ledger.Accepted()
	assert.Equal(t, uint64(1), accepted)
	assert.Equal(t, "abc", last)
}

func TestSubmitRetriesUntilSuccess(t *testing.T) {
	store := newMemStore()
	ledger := NewLocalLedger(nil)
	ledger.FailNext(2)
	m := newTestMirror(t, ledger, store, Options{MaxAttempts: 3, RetryDelay: time.Millisecond})

	ch, err := m.Submit(context.Background(), domain.MirrorEvent{Kind: domain.KindFollow, EntityID: 1, Digest: "d"})
	require.NoError(t, err)

	res := await(t, ch)
	require.True(t, res.Success)
	rec, _ := store.GetMirrorRecord(context.Background(), res.EventID)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, domain.MirrorAcknowledged, rec.Status)
}

func TestSubmitFailsAfterBoundedAttempts(t *testing.T) {
	store := newMemStore()
	ledger := NewLocalLedger(nil)
	ledger.FailNext(10)
	m := newTestMirror(t, ledger, store, Options{MaxAttempts: 3, RetryDelay: time.Millisecond})

	ch, err := m.Submit(context.Background(), domain.MirrorEvent{Kind: domain.KindMessage, EntityID: 2, Digest: "d"})
	require.NoError(t, err)

	res := await(t, ch)
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrLedgerRejected)

	rec, _ := store.GetMirrorRecord(context.Background(), res.EventID)
	assert.Equal(t, domain.MirrorFailed, rec.Status)
	assert.Equal(t, 3, rec.Attempts)
	assert.Contains(t, rec.LastError, "ledger rejected")
}

func TestSubmitOutlivesCallerContext(t *testing.T) {
	store := newMemStore()
	ledger := NewLocalLedger(nil)
	ledger.SetDelay(20 * time.Millisecond)
	m := newTestMirror(t, ledger, store, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.Submit(ctx, domain.MirrorEvent{Kind: domain.KindReaction, EntityID: 3, Digest: "d"})
	require.NoError(t, err)
	cancel()

	res := await(t, ch)
	assert.True(t, res.Success)
}

func TestCloseSettlesInFlightSubmissions(t *testing.T) {
	store := newMemStore()
	ledger := NewLocalLedger(nil)
	ledger.SetDelay(time.Minute)
	m := New(ledger, store, nil, zap.NewNop(), nil, Options{})

	ch, err := m.Submit(context.Background(), domain.MirrorEvent{Kind: domain.KindContent, EntityID: 4, Digest: "d"})
	require.NoError(t, err)

	m.Close()

	res := await(t, ch)
	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrMirrorUnavailable)
	rec, _ := store.GetMirrorRecord(context.Background(), res.EventID)
	assert.Equal(t, domain.MirrorFailed, rec.Status)

	_, err = m.Submit(context.Background(), domain.MirrorEvent{Kind: domain.KindContent, EntityID: 5})
	assert.ErrorIs(t, err, domain.ErrMirrorUnavailable)
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	store := newMemStore()
	ledger := NewLocalLedger(nil)
	ledger.FailNext(1)
	m := newTestMirror(t, ledger, store, Options{MaxAttempts: 1})

	ch, err := m.Submit(context.Background(), domain.MirrorEvent{Kind: domain.KindContent, EntityID: 9, Digest: "d"})
	require.NoError(t, err)
	res := await(t, ch)
	require.False(t, res.Success)

	applied, err := m.Acknowledge(context.Background(), res.EventID, "tx-late")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = m.Acknowledge(context.Background(), res.EventID, "tx-other")
	require.NoError(t, err)
	assert.False(t, applied)

	rec, _ := store.GetMirrorRecord(context.Background(), res.EventID)
	assert.Equal(t, "tx-late", *rec.TxRef)

	_, err = m.Acknowledge(context.Background(), "missing", "tx")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Acknowledge(context.Background(), res.EventID, "")
	assert.True(t, domain.IsValidation(err))
}

func TestRecordsRejectsUnknownStatus(t *testing.T) {
	m := newTestMirror(t, NewLocalLedger(nil), newMemStore(), Options{})
	_, err := m.Records(context.Background(), "bogus", 10)
	assert.True(t, domain.IsValidation(err))
}

func TestRPCLedgerSubmitsEvent(t *testing.T) {
	var got rpcRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"jsonrpc":"2.0","result":{"tx_hash":"0xfeed"},"id":1}`)
	}))
	defer srv.Close()

	ledger, err := NewRPCLedger(srv.URL, time.Second)
	require.NoError(t, err)
	defer ledger.client.CloseIdleConnections()

	txRef, err := ledger.SubmitEvent(context.Background(), domain.KindContent, []byte(`{"id":1}`), "digest")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txRef)
	assert.Equal(t, submitMethod, got.Method)
	assert.Equal(t, "2.0", got.JSONRPC)
}

func TestRPCLedgerSurfacesRPCErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"jsonrpc":"2.0","error":{"code":-32000,"message":"pool full"},"id":1}`)
	}))
	defer srv.Close()

	ledger, err := NewRPCLedger(srv.URL, time.Second)
	require.NoError(t, err)
	defer ledger.client.CloseIdleConnections()

	_, err = ledger.SubmitEvent(context.Background(), domain.KindFollow, nil, "digest")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLedgerRejected))
	assert.Contains(t, err.Error(), "pool full")

	_, err = NewRPCLedger(" ", 0)
	assert.Error(t, err)
}
