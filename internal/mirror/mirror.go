// Package mirror forwards accepted local mutations to the external ledger.
//
// Mirroring is best-effort and never gates the local write. Each submission
// runs on a goroutine owned by the Mirror rather than by the request that
// triggered it, so request cancellation cannot strand a pending record.
package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const storeTimeout = 5 * time.Second

type Options struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
	RatePerSecond  float64
	Burst          int
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 5 * time.Second
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 50
	}
	if o.Burst <= 0 {
		o.Burst = 10
	}
	return o
}

type Mirror struct {
	ledger  domain.Ledger
	store   domain.MirrorStore
	clock   domain.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func New(ledger domain.Ledger, store domain.MirrorStore, clock domain.Clock, logger *zap.Logger, m *metrics.Metrics, opts Options) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Mirror{
		ledger:  ledger,
		store:   store,
		clock:   clock,
		logger:  logger.Named("mirror"),
		metrics: m,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit records a pending mirror event and hands it to the ledger in the
// background. The returned channel yields exactly one result and is then
// closed. The caller may stop listening at any time.
func (m *Mirror) Submit(ctx context.Context, ev domain.MirrorEvent) (<-chan domain.MirrorResult, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrMirrorUnavailable
	}
	m.wg.Add(1)
	m.mu.Unlock()

	rec, err := m.store.CreateMirrorRecord(ctx, domain.MirrorRecord{
		LocalEventID: uuid.NewString(),
		EntityKind:   ev.Kind,
		EntityID:     ev.EntityID,
		Digest:       ev.Digest,
		Status:       domain.MirrorPending,
		CreatedAt:    m.clock.Now(),
	})
	if err != nil {
		m.wg.Done()
		return nil, fmt.Errorf("create mirror record: %w", err)
	}

	out := make(chan domain.MirrorResult, 1)
	go m.run(rec.LocalEventID, ev, out)
	return out, nil
}

func (m *Mirror) run(eventID string, ev domain.MirrorEvent, out chan<- domain.MirrorResult) {
	defer m.wg.Done()
	defer close(out)

	log := m.logger.With(zap.String("event_id", eventID), zap.String("kind", string(ev.Kind)), zap.Uint("entity_id", ev.EntityID))

	var lastErr error
	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		if err := m.limiter.Wait(m.ctx); err != nil {
			lastErr = err
			break
		}

		txRef, err := m.submitOnce(ev)
		m.metrics.MirrorAttempt(err == nil)
		m.recordAttempt(eventID, err, log)
		if err == nil {
			if _, ackErr := m.acknowledge(eventID, ev.Kind, txRef); ackErr != nil {
				log.Error("persist acknowledgement", zap.Error(ackErr))
			}
			log.Debug("mirrored", zap.String("tx_ref", txRef), zap.Int("attempt", attempt))
			out <- domain.MirrorResult{EventID: eventID, Success: true, TxRef: txRef}
			return
		}

		lastErr = err
		log.Warn("ledger submission failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == m.opts.MaxAttempts || !m.sleep(m.opts.RetryDelay) {
			break
		}
	}

	if m.ctx.Err() != nil {
		lastErr = fmt.Errorf("%w: shut down before acknowledgement: %v", domain.ErrMirrorUnavailable, lastErr)
	}
	m.fail(eventID, ev.Kind, lastErr, log)
	out <- domain.MirrorResult{EventID: eventID, Err: lastErr}
}

func (m *Mirror) submitOnce(ev domain.MirrorEvent) (string, error) {
	ctx, cancel := context.WithTimeout(m.ctx, m.opts.AttemptTimeout)
	defer cancel()
	return m.ledger.SubmitEvent(ctx, ev.Kind, ev.Payload, ev.Digest)
}

// sleep waits for d unless the mirror is shutting down.
func (m *Mirror) sleep(d time.Duration) bool {
	if d <= 0 {
		return m.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-m.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (m *Mirror) recordAttempt(eventID string, err error, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if storeErr := m.store.RecordMirrorAttempt(ctx, eventID, m.clock.Now(), msg); storeErr != nil {
		log.Error("record mirror attempt", zap.Error(storeErr))
	}
}

func (m *Mirror) fail(eventID string, kind domain.EntityKind, cause error, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	applied, err := m.store.FailMirror(ctx, eventID, reason, m.clock.Now())
	if err != nil {
		log.Error("persist mirror failure", zap.Error(err))
		return
	}
	if applied {
		m.metrics.MirrorOutcome(string(kind), string(domain.MirrorFailed))
	}
}

func (m *Mirror) acknowledge(eventID string, kind domain.EntityKind, txRef string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	applied, err := m.store.AcknowledgeMirror(ctx, eventID, txRef, m.clock.Now())
	if err != nil {
		return false, err
	}
	if applied {
		m.metrics.MirrorOutcome(string(kind), string(domain.MirrorAcknowledged))
	}
	return applied, nil
}

// Acknowledge applies an acknowledgement that arrives out of band, for
// example a ledger callback. Repeated acknowledgements change nothing and
// report false.
func (m *Mirror) Acknowledge(ctx context.Context, eventID, txRef string) (bool, error) {
	if eventID == "" {
		return false, domain.Required("event_id")
	}
	if txRef == "" {
		return false, domain.Required("tx_ref")
	}
	rec, err := m.store.GetMirrorRecord(ctx, eventID)
	if err != nil {
		return false, err
	}
	applied, err := m.store.AcknowledgeMirror(ctx, eventID, txRef, m.clock.Now())
	if err != nil {
		return false, err
	}
	if applied {
		m.metrics.MirrorOutcome(string(rec.EntityKind), string(domain.MirrorAcknowledged))
		m.logger.Info("out-of-band acknowledgement", zap.String("event_id", eventID), zap.String("tx_ref", txRef))
	}
	return applied, nil
}

func (m *Mirror) Records(ctx context.Context, status domain.MirrorStatus, limit int) ([]domain.MirrorRecord, error) {
	if status != "" && status != domain.MirrorPending && status != domain.MirrorAcknowledged && status != domain.MirrorFailed {
		return nil, domain.Invalid("status", "must be pending, acknowledged or failed")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return m.store.ListMirrorRecords(ctx, status, limit)
}

// Close stops accepting submissions, cancels in-flight ones and waits until
// every submission has settled its record.
func (m *Mirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}
