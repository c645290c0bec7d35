package sqlite

import (
	"context"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"gorm.io/gorm"
)

func (r *SocialRepository) CreateMirrorRecord(ctx context.Context, value domain.MirrorRecord) (domain.MirrorRecord, error) {
	m := MirrorRecordModel{
		LocalEventID: value.LocalEventID,
		EntityKind:   string(value.EntityKind),
		EntityID:     value.EntityID,
		Digest:       value.Digest,
		Status:       string(domain.MirrorPending),
		CreatedAt:    value.CreatedAt,
		UpdatedAt:    value.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.MirrorRecord{}, err
	}
	return toMirrorRecord(m), nil
}

func (r *SocialRepository) RecordMirrorAttempt(ctx context.Context, eventID string, at time.Time, lastErr string) error {
	return r.db.WithContext(ctx).Model(&MirrorRecordModel{}).
		Where("local_event_id = ? AND status = ?", eventID, string(domain.MirrorPending)).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + ?", 1),
			"last_attempt_at": at,
			"last_error":      lastErr,
			"updated_at":      at,
		}).Error
}

// AcknowledgeMirror marks the record acknowledged and stamps the transaction
// reference onto the mirrored entity. A late acknowledgement may still
// promote a failed record. Acknowledging twice is a no-op and reports false.
func (r *SocialRepository) AcknowledgeMirror(ctx context.Context, eventID, txRef string, at time.Time) (bool, error) {
	var applied bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m MirrorRecordModel
		if err := tx.Where("local_event_id = ?", eventID).First(&m).Error; err != nil {
			return notFound(err, "mirror record")
		}
		res := tx.Model(&MirrorRecordModel{}).
			Where("local_event_id = ? AND status <> ?", eventID, string(domain.MirrorAcknowledged)).
			Updates(map[string]any{
				"status":     string(domain.MirrorAcknowledged),
				"tx_ref":     txRef,
				"last_error": "",
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		switch domain.EntityKind(m.EntityKind) {
		case domain.KindContent:
			return tx.Model(&ContentModel{}).
				Where("id = ? AND ledger_tx_ref IS NULL", m.EntityID).
				UpdateColumn("ledger_tx_ref", txRef).Error
		case domain.KindMessage:
			return tx.Model(&MessageModel{}).
				Where("id = ? AND ledger_tx_ref IS NULL", m.EntityID).
				UpdateColumns(map[string]any{"ledger_tx_ref": txRef, "content_hash": m.Digest}).Error
		}
		return nil
	})
	return applied, err
}

// FailMirror only moves pending records, so it never overrides an ack.
func (r *SocialRepository) FailMirror(ctx context.Context, eventID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&MirrorRecordModel{}).
		Where("local_event_id = ? AND status = ?", eventID, string(domain.MirrorPending)).
		Updates(map[string]any{
			"status":     string(domain.MirrorFailed),
			"last_error": reason,
			"updated_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *SocialRepository) GetMirrorRecord(ctx context.Context, eventID string) (domain.MirrorRecord, error) {
	var m MirrorRecordModel
	if err := r.db.WithContext(ctx).Where("local_event_id = ?", eventID).First(&m).Error; err != nil {
		return domain.MirrorRecord{}, notFound(err, "mirror record")
	}
	return toMirrorRecord(m), nil
}

func (r *SocialRepository) ListMirrorRecords(ctx context.Context, status domain.MirrorStatus, limit int) ([]domain.MirrorRecord, error) {
	q := r.db.WithContext(ctx).Model(&MirrorRecordModel{})
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	rows := make([]MirrorRecordModel, 0)
	if err := q.Order("created_at DESC").Order("local_event_id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.MirrorRecord, 0, len(rows))
	for _, m := range rows {
		result = append(result, toMirrorRecord(m))
	}
	return result, nil
}

func toMirrorRecord(m MirrorRecordModel) domain.MirrorRecord {
	return domain.MirrorRecord{
		LocalEventID:  m.LocalEventID,
		EntityKind:    domain.EntityKind(m.EntityKind),
		EntityID:      m.EntityID,
		Digest:        m.Digest,
		Status:        domain.MirrorStatus(m.Status),
		TxRef:         m.TxRef,
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		LastAttemptAt: m.LastAttemptAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
