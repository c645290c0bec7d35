package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// toggleAttempts bounds how often a reaction toggle is replayed after losing
// a race on the unique reaction key.
const toggleAttempts = 3

type SocialRepository struct {
	db *gorm.DB
}

var _ domain.SocialRepository = (*SocialRepository)(nil)

func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        withPragmas(path),
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One writer keeps counter updates and toggles serialized.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

func (r *SocialRepository) CreateContent(ctx context.Context, value domain.Content) (domain.Content, error) {
	m := ContentModel{
		ContentHash: value.ContentHash,
		AuthorID:    value.AuthorID,
		ContentType: string(value.Type),
		Title:       value.Title,
		Description: value.Description,
		Payload:     value.Payload,
		Tags:        nonNilTags(value.Tags),
		Visibility:  string(value.Visibility),
		CreatedAt:   value.CreatedAt,
		UpdatedAt:   value.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Content{}, fmt.Errorf("%w: content hash already exists", domain.ErrConflict)
		}
		return domain.Content{}, err
	}
	return toContent(m), nil
}

func (r *SocialRepository) GetContent(ctx context.Context, id uint) (domain.Content, error) {
	var m ContentModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&m).Error; err != nil {
		return domain.Content{}, notFound(err, "content")
	}
	return toContent(m), nil
}

func (r *SocialRepository) ListContents(ctx context.Context, filter domain.ContentFilter, page domain.Page) ([]domain.Content, error) {
	q := r.db.WithContext(ctx).Model(&ContentModel{}).
		Where("is_deleted = ? AND visibility = ?", false, string(domain.VisibilityPublic))
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Type != "" {
		q = q.Where("content_type = ?", string(filter.Type))
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	rows := make([]ContentModel, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toContents(rows), nil
}

func (r *SocialRepository) ListTrending(ctx context.Context, limit int) ([]domain.Content, error) {
	rows := make([]ContentModel, 0)
	err := r.db.WithContext(ctx).
		Where("is_deleted = ? AND visibility = ?", false, string(domain.VisibilityPublic)).
		Order("like_count DESC").Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toContents(rows), nil
}

func (r *SocialRepository) UpdateContent(ctx context.Context, id uint, actorID string, patch domain.ContentPatch, at time.Time) (domain.Content, error) {
	var out ContentModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := liveContent(tx, id)
		if err != nil {
			return err
		}
		if m.AuthorID != actorID {
			return fmt.Errorf("%w: only the author can edit this content", domain.ErrUnauthorized)
		}

		updates := map[string]any{"updated_at": at}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Tags != nil {
			// Map updates bypass the json serializer on the model field.
			raw, err := json.Marshal(patch.Tags)
			if err != nil {
				return err
			}
			updates["tags"] = string(raw)
		}
		if patch.Visibility != nil {
			updates["visibility"] = string(*patch.Visibility)
		}
		if err := tx.Model(&ContentModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return domain.Content{}, err
	}
	return toContent(out), nil
}

func (r *SocialRepository) SoftDeleteContent(ctx context.Context, id uint, actorID string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := liveContent(tx, id)
		if err != nil {
			return err
		}
		if m.AuthorID != actorID {
			return fmt.Errorf("%w: only the author can delete this content", domain.ErrUnauthorized)
		}
		res := tx.Model(&ContentModel{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Updates(map[string]any{"is_deleted": true, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: content %d", domain.ErrNotFound, id)
		}
		return nil
	})
}

func (r *SocialRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&ContentModel{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: content %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *SocialRepository) ContentStats(ctx context.Context, since time.Time) (domain.ContentStats, error) {
	var stats domain.ContentStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&ContentModel{}).Where("is_deleted = ?", false).Count(&stats.TotalContents).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&CommentModel{}).Where("is_deleted = ?", false).Count(&stats.TotalComments).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&ReactionModel{}).Count(&stats.TotalLikes).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&ShareModel{}).Count(&stats.TotalShares).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&ContentModel{}).Where("is_deleted = ? AND created_at >= ?", false, since).Count(&stats.TodayContents).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *SocialRepository) CreateComment(ctx context.Context, value domain.Comment) (domain.Comment, error) {
	m := CommentModel{
		ContentID: value.ContentID,
		AuthorID:  value.AuthorID,
		ParentID:  value.ParentID,
		Body:      value.Body,
		CreatedAt: value.CreatedAt,
		UpdatedAt: value.CreatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := liveContent(tx, value.ContentID); err != nil {
			return err
		}
		if value.ParentID != nil {
			var parent CommentModel
			if err := tx.Where("id = ? AND is_deleted = ?", *value.ParentID, false).First(&parent).Error; err != nil {
				return notFound(err, "parent comment")
			}
			if parent.ContentID != value.ContentID {
				return domain.Invalid("parent_id", "parent comment belongs to different content")
			}
			if parent.ParentID != nil {
				return domain.Invalid("parent_id", "replies can only target top-level comments")
			}
		}

		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		if err := bump(tx, "contents", value.ContentID, "comment_count", 1); err != nil {
			return err
		}
		if value.ParentID != nil {
			return bump(tx, "comments", *value.ParentID, "reply_count", 1)
		}
		return nil
	})
	if err != nil {
		return domain.Comment{}, err
	}
	return toComment(m), nil
}

func (r *SocialRepository) GetComment(ctx context.Context, id uint) (domain.Comment, error) {
	var m CommentModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&m).Error; err != nil {
		return domain.Comment{}, notFound(err, "comment")
	}
	return toComment(m), nil
}

func (r *SocialRepository) ListComments(ctx context.Context, contentID uint, page domain.Page) ([]domain.Comment, error) {
	rows := make([]CommentModel, 0)
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND parent_id IS NULL AND is_deleted = ?", contentID, false).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toComments(rows), nil
}

func (r *SocialRepository) ListReplies(ctx context.Context, parentID uint, page domain.Page) ([]domain.Comment, error) {
	rows := make([]CommentModel, 0)
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND is_deleted = ?", parentID, false).
		Order("created_at ASC").Order("id ASC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toComments(rows), nil
}

func (r *SocialRepository) UpdateComment(ctx context.Context, id uint, actorID, body string, at time.Time) (domain.Comment, error) {
	var out CommentModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&out).Error; err != nil {
			return notFound(err, "comment")
		}
		if out.AuthorID != actorID {
			return fmt.Errorf("%w: only the author can edit this comment", domain.ErrUnauthorized)
		}
		if err := tx.Model(&CommentModel{}).Where("id = ?", id).Updates(map[string]any{"body": body, "updated_at": at}).Error; err != nil {
			return err
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return domain.Comment{}, err
	}
	return toComment(out), nil
}

func (r *SocialRepository) SoftDeleteComment(ctx context.Context, id uint, actorID string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m CommentModel
		if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&m).Error; err != nil {
			return notFound(err, "comment")
		}
		if m.AuthorID != actorID {
			return fmt.Errorf("%w: only the author can delete this comment", domain.ErrUnauthorized)
		}
		res := tx.Model(&CommentModel{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Updates(map[string]any{"is_deleted": true, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: comment %d", domain.ErrNotFound, id)
		}
		if m.ParentID != nil {
			if err := bump(tx, "comments", *m.ParentID, "reply_count", -1); err != nil {
				return err
			}
			return bump(tx, "contents", m.ContentID, "comment_count", -1)
		}

		// Replies go with their top-level comment.
		replies := tx.Model(&CommentModel{}).
			Where("parent_id = ? AND is_deleted = ?", id, false).
			Updates(map[string]any{"is_deleted": true, "updated_at": at})
		if replies.Error != nil {
			return replies.Error
		}
		if replies.RowsAffected > 0 {
			if err := tx.Model(&CommentModel{}).Where("id = ?", id).UpdateColumn("reply_count", 0).Error; err != nil {
				return err
			}
		}
		return bump(tx, "contents", m.ContentID, "comment_count", -(1 + replies.RowsAffected))
	})
}

// reactionTarget maps a TargetType onto the row that carries its like counter.
type reactionTarget struct {
	table string
	label string
}

var reactionTargets = map[domain.TargetType]reactionTarget{
	domain.TargetContent: {table: "contents", label: "content"},
	domain.TargetComment: {table: "comments", label: "comment"},
}

func (t reactionTarget) ensureLive(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Table(t.table).Where("id = ? AND is_deleted = ?", id, false).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, t.label, id)
	}
	return nil
}

// ToggleReaction flips the actor's like on the target and moves the target's
// like counter by exactly one in the same transaction. It reports whether the
// reaction exists afterwards; when it does, the returned reaction carries its
// row id.
func (r *SocialRepository) ToggleReaction(ctx context.Context, value domain.Reaction) (domain.Reaction, bool, error) {
	target, ok := reactionTargets[value.TargetType]
	if !ok {
		return domain.Reaction{}, false, domain.Invalid("target_type", "must be content or comment")
	}

	var err error
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		var (
			stored domain.Reaction
			liked  bool
		)
		stored, liked, err = r.toggleOnce(ctx, target, value)
		if !isUniqueViolation(err) {
			return stored, liked, err
		}
	}
	return domain.Reaction{}, false, fmt.Errorf("%w: reaction toggle kept colliding: %v", domain.ErrConflict, err)
}

func (r *SocialRepository) toggleOnce(ctx context.Context, target reactionTarget, value domain.Reaction) (domain.Reaction, bool, error) {
	stored := value
	stored.ID = 0
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := target.ensureLive(tx, value.TargetID); err != nil {
			return err
		}

		res := tx.Where("actor_id = ? AND target_type = ? AND target_id = ?", value.ActorID, string(value.TargetType), value.TargetID).
			Delete(&ReactionModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return bump(tx, target.table, value.TargetID, "like_count", -1)
		}

		m := ReactionModel{
			ActorID:    value.ActorID,
			TargetType: string(value.TargetType),
			TargetID:   value.TargetID,
			CreatedAt:  value.CreatedAt,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		stored.ID = m.ID
		liked = true
		return bump(tx, target.table, value.TargetID, "like_count", 1)
	})
	if err != nil {
		return domain.Reaction{}, false, err
	}
	return stored, liked, nil
}

func (r *SocialRepository) IsLiked(ctx context.Context, actorID string, targetType domain.TargetType, targetID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ReactionModel{}).
		Where("actor_id = ? AND target_type = ? AND target_id = ?", actorID, string(targetType), targetID).
		Count(&n).Error
	return n > 0, err
}

func (r *SocialRepository) CreateShare(ctx context.Context, value domain.Share) (domain.Share, error) {
	m := ShareModel{
		ActorID:   value.ActorID,
		ContentID: value.ContentID,
		Platform:  value.Platform,
		Note:      value.Note,
		CreatedAt: value.CreatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := liveContent(tx, value.ContentID); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return bump(tx, "contents", value.ContentID, "share_count", 1)
	})
	if err != nil {
		return domain.Share{}, err
	}
	return domain.Share{
		ID:        m.ID,
		ActorID:   m.ActorID,
		ContentID: m.ContentID,
		Platform:  m.Platform,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}, nil
}

func liveContent(tx *gorm.DB, id uint) (ContentModel, error) {
	var m ContentModel
	if err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&m).Error; err != nil {
		return m, notFound(err, "content")
	}
	return m, nil
}

// bump applies a relative delta to one counter column. The column is never
// read back into Go, so concurrent writers cannot lose updates.
func bump(tx *gorm.DB, table string, id uint, column string, delta int64) error {
	return tx.Table(table).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func toContent(m ContentModel) domain.Content {
	return domain.Content{
		ID:          m.ID,
		ContentHash: m.ContentHash,
		AuthorID:    m.AuthorID,
		Type:        domain.ContentType(m.ContentType),
		Title:       m.Title,
		Description: m.Description,
		Payload:     m.Payload,
		Tags:        nonNilTags(m.Tags),
		Visibility:  domain.Visibility(m.Visibility),
		Deleted:     m.IsDeleted,
		Counters: domain.Counters{
			Views:    m.ViewCount,
			Likes:    m.LikeCount,
			Comments: m.CommentCount,
			Shares:   m.ShareCount,
		},
		LedgerTxRef: m.LedgerTxRef,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toContents(rows []ContentModel) []domain.Content {
	result := make([]domain.Content, 0, len(rows))
	for _, m := range rows {
		result = append(result, toContent(m))
	}
	return result
}

func toComment(m CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		ContentID: m.ContentID,
		AuthorID:  m.AuthorID,
		ParentID:  m.ParentID,
		Body:      m.Body,
		Deleted:   m.IsDeleted,
		Likes:     m.LikeCount,
		Replies:   m.ReplyCount,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toComments(rows []CommentModel) []domain.Comment {
	result := make([]domain.Comment, 0, len(rows))
	for _, m := range rows {
		result = append(result, toComment(m))
	}
	return result
}
