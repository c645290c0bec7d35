package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

var ErrLedgerRejected = errors.New("ledger rejected event")

// LocalLedger stands in for a node when none is configured. It accepts every
// event and returns a synthetic transaction reference derived from the event
// digest, the submission sequence and the current time.
type LocalLedger struct {
	clock domain.Clock

	mu       sync.Mutex
	seq      uint64
	failNext int
	delay    time.Duration
	last     string
}

func NewLocalLedger(clock domain.Clock) *LocalLedger {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &LocalLedger{clock: clock}
}

// FailNext makes the next n submissions fail.
func (l *LocalLedger) FailNext(n int) {
	l.mu.Lock()
	l.failNext = n
	l.mu.Unlock()
}

// SetDelay makes every submission block for d or until its context ends.
func (l *LocalLedger) SetDelay(d time.Duration) {
	l.mu.Lock()
	l.delay = d
	l.mu.Unlock()
}

func (l *LocalLedger) SubmitEvent(ctx context.Context, kind domain.EntityKind, payload []byte, digest string) (string, error) {
	l.mu.Lock()
	delay := l.delay
	l.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failNext > 0 {
		l.failNext--
		return "", ErrLedgerRejected
	}
	l.seq++

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(digest))
	h.Write([]byte{0})
	h.Write(payload)
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatUint(l.seq, 10)))
	h.Write([]byte(l.clock.Now().UTC().Format(time.RFC3339Nano)))
	txRef := hex.EncodeToString(h.Sum(nil))
	l.last = digest
	return txRef, nil
}

// Accepted reports how many events have been accepted and the digest of the
// most recent one.
func (l *LocalLedger) Accepted() (uint64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq, l.last
}
