package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/addressing"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

type CreateContentInput struct {
	AuthorID    string             `json:"author_id"`
	Type        domain.ContentType `json:"content_type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Payload     string             `json:"payload"`
	Tags        []string           `json:"tags"`
	Visibility  domain.Visibility  `json:"visibility"`
}

type UpdateContentInput struct {
	ActorID     string             `json:"actor_id"`
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Tags        []string           `json:"tags"`
	Visibility  *domain.Visibility `json:"visibility"`
}

type CreateCommentInput struct {
	ContentID uint   `json:"content_id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"content"`
	ParentID  *uint  `json:"parent_id"`
}

type ShareInput struct {
	ActorID   string  `json:"user_id"`
	ContentID uint    `json:"content_id"`
	Platform  *string `json:"platform"`
	Note      *string `json:"message"`
}

type LikeState struct {
	Liked bool  `json:"is_liked"`
	Likes int64 `json:"like_count"`
}

type TrendingMeta struct {
	Algorithm string `json:"algorithm"`
	TimeRange string `json:"time_range"`
}

type FeedMeta struct {
	Algorithm    string `json:"algorithm"`
	Personalized bool   `json:"personalized"`
}

var trendingRanges = map[string]bool{"24h": true, "7d": true, "30d": true}

func (s *SocialService) CreateContent(ctx context.Context, in CreateContentInput) (Mirrored[domain.Content], error) {
	var out Mirrored[domain.Content]
	if strings.TrimSpace(in.AuthorID) == "" {
		return out, domain.Required("author_id")
	}
	if in.Type == "" {
		return out, domain.Required("content_type")
	}
	if !in.Type.Valid() {
		return out, domain.Invalid("content_type", "must be text, image, video or audio")
	}
	if strings.TrimSpace(in.Payload) == "" {
		return out, domain.Required("payload")
	}
	if len(in.Title) > maxTitleLength {
		return out, domain.Invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if in.Visibility == "" {
		in.Visibility = domain.VisibilityPublic
	}
	if !in.Visibility.Valid() {
		return out, domain.Invalid("visibility", "must be public or private")
	}

	now := s.clock.Now()
	created, err := s.repo.CreateContent(ctx, domain.Content{
		ContentHash: addressing.Hash(in.Payload, in.AuthorID, now),
		AuthorID:    in.AuthorID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Payload:     in.Payload,
		Tags:        cleanTags(in.Tags),
		Visibility:  in.Visibility,
		CreatedAt:   now,
	})
	if err != nil {
		return out, err
	}

	out.Value = created
	out.Mirror = s.submitMirror(ctx, domain.KindContent, created.ID, created.ContentHash, created)
	if out.Mirror != nil && out.Mirror.Status == domain.MirrorAcknowledged {
		txRef := out.Mirror.TxRef
		out.Value.LedgerTxRef = &txRef
	}
	return out, nil
}

// GetContent returns a live content item and counts the read as a view.
func (s *SocialService) GetContent(ctx context.Context, id uint) (domain.Content, error) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return domain.Content{}, err
	}
	return s.repo.GetContent(ctx, id)
}

func (s *SocialService) ListContents(ctx context.Context, filter domain.ContentFilter, limit, offset int) ([]domain.Content, domain.PageInfo, error) {
	page, err := normalizePage(limit, offset, defaultPageLimit)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.PageInfo{}, domain.Invalid("type", "must be text, image, video or audio")
	}
	items, err := s.repo.ListContents(ctx, filter, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(len(items)), nil
}

func (s *SocialService) UpdateContent(ctx context.Context, id uint, in UpdateContentInput) (domain.Content, error) {
	if strings.TrimSpace(in.ActorID) == "" {
		return domain.Content{}, domain.Required("actor_id")
	}
	if in.Title != nil && len(*in.Title) > maxTitleLength {
		return domain.Content{}, domain.Invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if in.Visibility != nil && !in.Visibility.Valid() {
		return domain.Content{}, domain.Invalid("visibility", "must be public or private")
	}
	patch := domain.ContentPatch{Title: in.Title, Description: in.Description, Visibility: in.Visibility}
	if in.Tags != nil {
		patch.Tags = cleanTags(in.Tags)
	}
	return s.repo.UpdateContent(ctx, id, in.ActorID, patch, s.clock.Now())
}

func (s *SocialService) DeleteContent(ctx context.Context, id uint, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return domain.Required("author_id")
	}
	return s.repo.SoftDeleteContent(ctx, id, actorID, s.clock.Now())
}

func (s *SocialService) CreateComment(ctx context.Context, in CreateCommentInput) (domain.Comment, error) {
	if strings.TrimSpace(in.AuthorID) == "" {
		return domain.Comment{}, domain.Required("author_id")
	}
	if strings.TrimSpace(in.Body) == "" {
		return domain.Comment{}, domain.Required("content")
	}
	return s.repo.CreateComment(ctx, domain.Comment{
		ContentID: in.ContentID,
		AuthorID:  in.AuthorID,
		ParentID:  in.ParentID,
		Body:      in.Body,
		CreatedAt: s.clock.Now(),
	})
}

// ListComments pages top-level comments, newest first, each carrying its
// oldest replies.
func (s *SocialService) ListComments(ctx context.Context, contentID uint, limit, offset int) ([]domain.CommentThread, domain.PageInfo, error) {
	page, err := normalizePage(limit, offset, defaultPageLimit)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	if _, err := s.repo.GetContent(ctx, contentID); err != nil {
		return nil, domain.PageInfo{}, err
	}
	comments, err := s.repo.ListComments(ctx, contentID, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	threads := make([]domain.CommentThread, 0, len(comments))
	for _, c := range comments {
		thread := domain.CommentThread{Comment: c, ReplyList: []domain.Comment{}}
		if c.Replies > 0 {
			replies, err := s.repo.ListReplies(ctx, c.ID, domain.Page{Limit: repliesPerComment})
			if err != nil {
				return nil, domain.PageInfo{}, err
			}
			thread.ReplyList = replies
		}
		threads = append(threads, thread)
	}
	return threads, page.Info(len(comments)), nil
}

func (s *SocialService) ListReplies(ctx context.Context, commentID uint, limit, offset int) ([]domain.Comment, domain.PageInfo, error) {
	page, err := normalizePage(limit, offset, defaultPageLimit)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	if _, err := s.repo.GetComment(ctx, commentID); err != nil {
		return nil, domain.PageInfo{}, err
	}
	replies, err := s.repo.ListReplies(ctx, commentID, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return replies, page.Info(len(replies)), nil
}

func (s *SocialService) UpdateComment(ctx context.Context, id uint, actorID, body string) (domain.Comment, error) {
	if strings.TrimSpace(actorID) == "" {
		return domain.Comment{}, domain.Required("author_id")
	}
	if strings.TrimSpace(body) == "" {
		return domain.Comment{}, domain.Required("content")
	}
	return s.repo.UpdateComment(ctx, id, actorID, body, s.clock.Now())
}

func (s *SocialService) DeleteComment(ctx context.Context, id uint, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return domain.Required("author_id")
	}
	return s.repo.SoftDeleteComment(ctx, id, actorID, s.clock.Now())
}

// ToggleLike flips actorID's like on the target. Only the transition to
// liked is mirrored.
func (s *SocialService) ToggleLike(ctx context.Context, actorID string, target domain.TargetType, targetID uint) (Mirrored[LikeState], error) {
	var out Mirrored[LikeState]
	if strings.TrimSpace(actorID) == "" {
		return out, domain.Required("user_id")
	}
	if !target.Valid() {
		return out, domain.Invalid("target_type", "must be content or comment")
	}

	now := s.clock.Now()
	reaction, liked, err := s.repo.ToggleReaction(ctx, domain.Reaction{ActorID: actorID, TargetType: target, TargetID: targetID, CreatedAt: now})
	if err != nil {
		return out, err
	}
	s.metrics.ReactionToggled(string(target), liked)

	likes, err := s.likeCount(ctx, target, targetID)
	if err != nil {
		return out, err
	}
	out.Value = LikeState{Liked: liked, Likes: likes}

	if liked {
		digest := addressing.ActionDigest("like", now, actorID, string(target), fmt.Sprint(targetID))
		// The reaction row id is unique across target types; the target
		// travels in the payload.
		out.Mirror = s.submitMirror(ctx, domain.KindReaction, reaction.ID, digest, reaction)
	}
	return out, nil
}

func (s *SocialService) likeCount(ctx context.Context, target domain.TargetType, id uint) (int64, error) {
	if target == domain.TargetComment {
		c, err := s.repo.GetComment(ctx, id)
		return c.Likes, err
	}
	c, err := s.repo.GetContent(ctx, id)
	return c.Counters.Likes, err
}

func (s *SocialService) LikeStatus(ctx context.Context, actorID string, target domain.TargetType, targetID uint) (bool, error) {
	if strings.TrimSpace(actorID) == "" {
		return false, domain.Required("user_id")
	}
	if !target.Valid() {
		return false, domain.Invalid("target_type", "must be content or comment")
	}
	return s.repo.IsLiked(ctx, actorID, target, targetID)
}

func (s *SocialService) Share(ctx context.Context, in ShareInput) (domain.Share, error) {
	if strings.TrimSpace(in.ActorID) == "" {
		return domain.Share{}, domain.Required("user_id")
	}
	return s.repo.CreateShare(ctx, domain.Share{
		ActorID:   in.ActorID,
		ContentID: in.ContentID,
		Platform:  in.Platform,
		Note:      in.Note,
		CreatedAt: s.clock.Now(),
	})
}

// Trending ranks public content by likes, newest first among equals. The
// time range is echoed in the metadata and does not filter.
func (s *SocialService) Trending(ctx context.Context, limit int, timeRange string) ([]domain.Content, TrendingMeta, error) {
	if timeRange == "" {
		timeRange = "24h"
	}
	if !trendingRanges[timeRange] {
		return nil, TrendingMeta{}, domain.Invalid("range", "must be 24h, 7d or 30d")
	}
	page, err := normalizePage(limit, 0, defaultPageLimit)
	if err != nil {
		return nil, TrendingMeta{}, err
	}
	items, err := s.repo.ListTrending(ctx, page.Limit)
	if err != nil {
		return nil, TrendingMeta{}, err
	}
	return items, TrendingMeta{Algorithm: "like_count_desc", TimeRange: timeRange}, nil
}

// Feed is the latest public content until real personalization exists.
func (s *SocialService) Feed(ctx context.Context, userID string, limit, offset int) ([]domain.Content, domain.PageInfo, FeedMeta, error) {
	meta := FeedMeta{Algorithm: "latest_public", Personalized: false}
	if strings.TrimSpace(userID) == "" {
		return nil, domain.PageInfo{}, meta, domain.Required("user_id")
	}
	items, info, err := s.ListContents(ctx, domain.ContentFilter{}, limit, offset)
	return items, info, meta, err
}

func (s *SocialService) ContentStats(ctx context.Context) (domain.ContentStats, error) {
	return s.repo.ContentStats(ctx, startOfDay(s.clock.Now()))
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
