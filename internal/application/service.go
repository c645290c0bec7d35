package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultPageLimit       = 20
	defaultThreadLimit     = 50
	maxPageLimit           = 100
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 50
	repliesPerComment      = 10
	maxTitleLength         = 200
)

// Mirror is the slice of the ledger mirror the service depends on.
type Mirror interface {
	Submit(ctx context.Context, ev domain.MirrorEvent) (<-chan domain.MirrorResult, error)
	Acknowledge(ctx context.Context, eventID, txRef string) (bool, error)
	Records(ctx context.Context, status domain.MirrorStatus, limit int) ([]domain.MirrorRecord, error)
}

type Options struct {
	// AckWait bounds how long a mutating call waits for its mirror result
	// before answering with the mirror still pending.
	AckWait time.Duration
	Metrics *metrics.Metrics
}

type SocialService struct {
	repo    domain.SocialRepository
	mirror  Mirror
	clock   domain.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
	ackWait time.Duration
}

// Mirrored pairs the result of a mutation with the state of its ledger
// mirror. Mirror is nil while the mirror is still pending or disabled.
type Mirrored[T any] struct {
	Value  T
	Mirror *domain.MirrorOutcome
}

func NewSocialService(repo domain.SocialRepository, mirror Mirror, clock domain.Clock, logger *zap.Logger, opts Options) *SocialService {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialService{
		repo:    repo,
		mirror:  mirror,
		clock:   clock,
		logger:  logger.Named("service"),
		metrics: opts.Metrics,
		ackWait: opts.AckWait,
	}
}

func normalizePage(limit, offset, fallback int) (domain.Page, error) {
	if offset < 0 {
		return domain.Page{}, domain.Invalid("offset", "must not be negative")
	}
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return domain.Page{Limit: limit, Offset: offset}, nil
}

// submitMirror hands an accepted mutation to the mirror and waits up to
// ackWait for the outcome. Mirror trouble is reported, never returned.
func (s *SocialService) submitMirror(ctx context.Context, kind domain.EntityKind, entityID uint, digest string, value any) *domain.MirrorOutcome {
	if s.mirror == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("encode mirror payload", zap.String("kind", string(kind)), zap.Error(err))
		payload = nil
	}

	ch, err := s.mirror.Submit(ctx, domain.MirrorEvent{Kind: kind, EntityID: entityID, Digest: digest, Payload: payload})
	if err != nil {
		s.logger.Warn("mirror submit rejected", zap.String("kind", string(kind)), zap.Uint("entity_id", entityID), zap.Error(err))
		return &domain.MirrorOutcome{Status: domain.MirrorFailed, Error: domain.ErrMirrorUnavailable.Error()}
	}
	if s.ackWait <= 0 {
		return nil
	}

	timer := time.NewTimer(s.ackWait)
	defer timer.Stop()
	select {
	case res, ok := <-ch:
		if !ok {
			return nil
		}
		if res.Success {
			return &domain.MirrorOutcome{EventID: res.EventID, Status: domain.MirrorAcknowledged, TxRef: res.TxRef}
		}
		msg := domain.ErrMirrorUnavailable.Error()
		if res.Err != nil {
			msg = res.Err.Error()
		}
		return &domain.MirrorOutcome{EventID: res.EventID, Status: domain.MirrorFailed, Error: msg}
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (s *SocialService) MirrorRecords(ctx context.Context, status domain.MirrorStatus, limit int) ([]domain.MirrorRecord, error) {
	if s.mirror == nil {
		return nil, domain.ErrMirrorUnavailable
	}
	return s.mirror.Records(ctx, status, limit)
}

// AcknowledgeMirror records an acknowledgement delivered out of band.
func (s *SocialService) AcknowledgeMirror(ctx context.Context, eventID, txRef string) (bool, error) {
	if s.mirror == nil {
		return false, domain.ErrMirrorUnavailable
	}
	return s.mirror.Acknowledge(ctx, eventID, txRef)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
