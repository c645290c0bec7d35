package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"gorm.io/gorm"
)

func (r *SocialRepository) CreateFollowEdge(ctx context.Context, value domain.FollowEdge) (domain.FollowEdge, error) {
	if value.FollowerID == value.FollowedID {
		return domain.FollowEdge{}, domain.ErrSelfFollow
	}
	m := FollowEdgeModel{FollowerID: value.FollowerID, FollowedID: value.FollowedID, CreatedAt: value.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.FollowEdge{}, domain.ErrDuplicateEdge
		}
		return domain.FollowEdge{}, err
	}
	return toFollowEdge(m), nil
}

func (r *SocialRepository) DeleteFollowEdge(ctx context.Context, followerID, followedID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&FollowEdgeModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: not following this user", domain.ErrNotFound)
	}
	return nil
}

func (r *SocialRepository) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&FollowEdgeModel{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&n).Error
	return n > 0, err
}

func (r *SocialRepository) ListFollowers(ctx context.Context, userID string, page domain.Page) ([]domain.FollowEdge, error) {
	return r.listEdges(ctx, "followed_id = ?", userID, page)
}

func (r *SocialRepository) ListFollowing(ctx context.Context, userID string, page domain.Page) ([]domain.FollowEdge, error) {
	return r.listEdges(ctx, "follower_id = ?", userID, page)
}

func (r *SocialRepository) listEdges(ctx context.Context, where, userID string, page domain.Page) ([]domain.FollowEdge, error) {
	rows := make([]FollowEdgeModel, 0)
	err := r.db.WithContext(ctx).Where(where, userID).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toFollowEdges(rows), nil
}

func (r *SocialRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&FollowEdgeModel{}).
		Where("follower_id = ?", userID).Order("id ASC").
		Pluck("followed_id", &ids).Error
	return ids, err
}

func (r *SocialRepository) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&FollowEdgeModel{}).
		Where("followed_id = ?", userID).Order("id ASC").
		Pluck("follower_id", &ids).Error
	return ids, err
}

// EdgesFrom returns every edge whose follower is in followerIDs, oldest first.
func (r *SocialRepository) EdgesFrom(ctx context.Context, followerIDs []string) ([]domain.FollowEdge, error) {
	if len(followerIDs) == 0 {
		return []domain.FollowEdge{}, nil
	}
	rows := make([]FollowEdgeModel, 0)
	if err := r.db.WithContext(ctx).Where("follower_id IN ?", followerIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toFollowEdges(rows), nil
}

func (r *SocialRepository) CreateMessage(ctx context.Context, value domain.Message) (domain.Message, error) {
	if value.SenderID == value.RecipientID {
		return domain.Message{}, domain.ErrSelfMessage
	}
	m := MessageModel{
		SenderID:    value.SenderID,
		RecipientID: value.RecipientID,
		Body:        value.Body,
		MessageType: string(value.Kind),
		ContentHash: value.ContentHash,
		CreatedAt:   value.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Message{}, err
	}
	return toMessage(m), nil
}

// MarkMessageRead is idempotent: a second call keeps the first read time.
func (r *SocialRepository) MarkMessageRead(ctx context.Context, id uint, recipientID string, at time.Time) (domain.Message, error) {
	var out MessageModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND recipient_id = ? AND deleted_by_recipient = ?", id, recipientID, false).First(&out).Error
		if err != nil {
			return notFound(err, "message")
		}
		if out.IsRead {
			return nil
		}
		err = tx.Model(&MessageModel{}).
			Where("id = ? AND is_read = ?", id, false).
			Updates(map[string]any{"is_read": true, "read_at": at}).Error
		if err != nil {
			return err
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(out), nil
}

func (r *SocialRepository) DeleteMessageForParticipant(ctx context.Context, id uint, participantID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m MessageModel
		if err := tx.First(&m, id).Error; err != nil {
			return notFound(err, "message")
		}

		var column string
		switch participantID {
		case m.SenderID:
			if m.DeletedBySender {
				return fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
			}
			column = "deleted_by_sender"
		case m.RecipientID:
			if m.DeletedByRecipient {
				return fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
			}
			column = "deleted_by_recipient"
		default:
			return fmt.Errorf("%w: not a participant of this message", domain.ErrUnauthorized)
		}
		return tx.Model(&MessageModel{}).Where("id = ?", id).UpdateColumn(column, true).Error
	})
}

// ListParticipantMessages returns the messages participant can still see,
// newest first.
func (r *SocialRepository) ListParticipantMessages(ctx context.Context, participantID string) ([]domain.Message, error) {
	rows := make([]MessageModel, 0)
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND deleted_by_sender = ?) OR (recipient_id = ? AND deleted_by_recipient = ?)",
			participantID, false, participantID, false).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMessages(rows), nil
}

// ListThread pages backwards from the newest message between the two users
// and returns the page in chronological order.
func (r *SocialRepository) ListThread(ctx context.Context, userID, partnerID string, page domain.Page) ([]domain.Message, error) {
	rows := make([]MessageModel, 0)
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ? AND deleted_by_sender = ?) OR (sender_id = ? AND recipient_id = ? AND deleted_by_recipient = ?)",
			userID, partnerID, false, partnerID, userID, false).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return toMessages(rows), nil
}

func (r *SocialRepository) SocialStats(ctx context.Context, userID string) (domain.SocialStats, error) {
	var stats domain.SocialStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&FollowEdgeModel{}).Where("followed_id = ?", userID).Count(&stats.Followers).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&FollowEdgeModel{}).Where("follower_id = ?", userID).Count(&stats.Following).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&MessageModel{}).Where("sender_id = ? AND deleted_by_sender = ?", userID, false).Count(&stats.SentMessages).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&MessageModel{}).Where("recipient_id = ? AND deleted_by_recipient = ?", userID, false).Count(&stats.ReceivedMessages).Error; err != nil {
		return stats, err
	}
	err := db.Model(&MessageModel{}).
		Where("recipient_id = ? AND deleted_by_recipient = ? AND is_read = ?", userID, false, false).
		Count(&stats.UnreadMessages).Error
	return stats, err
}

func toFollowEdge(m FollowEdgeModel) domain.FollowEdge {
	return domain.FollowEdge{ID: m.ID, FollowerID: m.FollowerID, FollowedID: m.FollowedID, CreatedAt: m.CreatedAt}
}

func toFollowEdges(rows []FollowEdgeModel) []domain.FollowEdge {
	result := make([]domain.FollowEdge, 0, len(rows))
	for _, m := range rows {
		result = append(result, toFollowEdge(m))
	}
	return result
}

func toMessage(m MessageModel) domain.Message {
	return domain.Message{
		ID:                 m.ID,
		SenderID:           m.SenderID,
		RecipientID:        m.RecipientID,
		Body:               m.Body,
		Kind:               domain.MessageKind(m.MessageType),
		ContentHash:        m.ContentHash,
		LedgerTxRef:        m.LedgerTxRef,
		Read:               m.IsRead,
		ReadAt:             m.ReadAt,
		DeletedBySender:    m.DeletedBySender,
		DeletedByRecipient: m.DeletedByRecipient,
		CreatedAt:          m.CreatedAt,
	}
}

func toMessages(rows []MessageModel) []domain.Message {
	result := make([]domain.Message, 0, len(rows))
	for _, m := range rows {
		result = append(result, toMessage(m))
	}
	return result
}
