package rpcjson

import (
	"context"
	"encoding/json"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

type mirroredResult struct {
	Value  any                   `json:"value"`
	Mirror *domain.MirrorOutcome `json:"mirror"`
}

type pagedResult struct {
	Items      any              `json:"items"`
	Pagination *domain.PageInfo `json:"pagination,omitempty"`
	Meta       any              `json:"meta,omitempty"`
}

type pageParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type idActorParams struct {
	ID       uint   `json:"id"`
	AuthorID string `json:"author_id"`
	UserID   string `json:"user_id"`
}

type userParams struct {
	UserID string `json:"user_id"`
	pageParams
}

type pairParams struct {
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
}

type likeParams struct {
	ID         uint              `json:"id"`
	UserID     string            `json:"user_id"`
	TargetType domain.TargetType `json:"target_type"`
}

func (p likeParams) target() domain.TargetType {
	if p.TargetType == "" {
		return domain.TargetContent
	}
	return p.TargetType
}

// bind decodes params into P before calling fn.
func bind[P any](fn func(ctx context.Context, p P) (any, error)) method {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p P
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}

func wrapMirrored[T any](out application.Mirrored[T], err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return mirroredResult{Value: out.Value, Mirror: out.Mirror}, nil
}

func wrapPaged[T any](items []T, info domain.PageInfo, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return pagedResult{Items: items, Pagination: &info}, nil
}

func (s *Server) routes() map[string]method {
	svc := s.service
	return map[string]method{
		"content.create": bind(func(ctx context.Context, p application.CreateContentInput) (any, error) {
			return wrapMirrored(svc.CreateContent(ctx, p))
		}),
		"content.get": bind(func(ctx context.Context, p idActorParams) (any, error) {
			return svc.GetContent(ctx, p.ID)
		}),
		"content.list": bind(func(ctx context.Context, p struct {
			AuthorID string             `json:"author_id"`
			Search   string             `json:"search"`
			Type     domain.ContentType `json:"type"`
			pageParams
		}) (any, error) {
			filter := domain.ContentFilter{AuthorID: p.AuthorID, Keyword: p.Search, Type: p.Type}
			return wrapPaged(svc.ListContents(ctx, filter, p.Limit, p.Offset))
		}),
		"content.update": bind(func(ctx context.Context, p struct {
			ID uint `json:"id"`
			application.UpdateContentInput
		}) (any, error) {
			return svc.UpdateContent(ctx, p.ID, p.UpdateContentInput)
		}),
		"content.delete": bind(func(ctx context.Context, p idActorParams) (any, error) {
			if err := svc.DeleteContent(ctx, p.ID, p.AuthorID); err != nil {
				return nil, err
			}
			return map[string]any{"id": p.ID, "deleted": true}, nil
		}),
		"content.like": bind(func(ctx context.Context, p likeParams) (any, error) {
			return wrapMirrored(svc.ToggleLike(ctx, p.UserID, p.target(), p.ID))
		}),
		"content.like_status": bind(func(ctx context.Context, p likeParams) (any, error) {
			liked, err := svc.LikeStatus(ctx, p.UserID, p.target(), p.ID)
			if err != nil {
				return nil, err
			}
			return map[string]bool{"is_liked": liked}, nil
		}),
		"content.share": bind(func(ctx context.Context, p application.ShareInput) (any, error) {
			return svc.Share(ctx, p)
		}),
		"content.trending": bind(func(ctx context.Context, p struct {
			Limit int    `json:"limit"`
			Range string `json:"range"`
		}) (any, error) {
			items, meta, err := svc.Trending(ctx, p.Limit, p.Range)
			if err != nil {
				return nil, err
			}
			return pagedResult{Items: items, Meta: meta}, nil
		}),
		"content.feed": bind(func(ctx context.Context, p userParams) (any, error) {
			items, info, meta, err := svc.Feed(ctx, p.UserID, p.Limit, p.Offset)
			if err != nil {
				return nil, err
			}
			return pagedResult{Items: items, Pagination: &info, Meta: meta}, nil
		}),
		"content.stats": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return svc.ContentStats(ctx)
		},

		"comments.create": bind(func(ctx context.Context, p application.CreateCommentInput) (any, error) {
			return svc.CreateComment(ctx, p)
		}),
		"comments.list": bind(func(ctx context.Context, p struct {
			ContentID uint `json:"content_id"`
			pageParams
		}) (any, error) {
			return wrapPaged(svc.ListComments(ctx, p.ContentID, p.Limit, p.Offset))
		}),
		"comments.replies": bind(func(ctx context.Context, p struct {
			CommentID uint `json:"comment_id"`
			pageParams
		}) (any, error) {
			return wrapPaged(svc.ListReplies(ctx, p.CommentID, p.Limit, p.Offset))
		}),
		"comments.update": bind(func(ctx context.Context, p struct {
			ID       uint   `json:"id"`
			AuthorID string `json:"author_id"`
			Body     string `json:"content"`
		}) (any, error) {
			return svc.UpdateComment(ctx, p.ID, p.AuthorID, p.Body)
		}),
		"comments.delete": bind(func(ctx context.Context, p idActorParams) (any, error) {
			if err := svc.DeleteComment(ctx, p.ID, p.AuthorID); err != nil {
				return nil, err
			}
			return map[string]any{"id": p.ID, "deleted": true}, nil
		}),

		"social.follow": bind(func(ctx context.Context, p pairParams) (any, error) {
			return wrapMirrored(svc.Follow(ctx, p.FollowerID, p.FollowedID))
		}),
		"social.unfollow": bind(func(ctx context.Context, p pairParams) (any, error) {
			if err := svc.Unfollow(ctx, p.FollowerID, p.FollowedID); err != nil {
				return nil, err
			}
			return p, nil
		}),
		"social.follow_status": bind(func(ctx context.Context, p pairParams) (any, error) {
			return svc.FollowStatus(ctx, p.FollowerID, p.FollowedID)
		}),
		"social.followers": bind(func(ctx context.Context, p userParams) (any, error) {
			return wrapPaged(svc.Followers(ctx, p.UserID, p.Limit, p.Offset))
		}),
		"social.following": bind(func(ctx context.Context, p userParams) (any, error) {
			return wrapPaged(svc.Following(ctx, p.UserID, p.Limit, p.Offset))
		}),
		"social.mutual_follows": bind(func(ctx context.Context, p userParams) (any, error) {
			return svc.MutualFollows(ctx, p.UserID)
		}),
		"social.suggested_users": bind(func(ctx context.Context, p userParams) (any, error) {
			return svc.SuggestUsers(ctx, p.UserID, p.Limit)
		}),
		"social.messages.send": bind(func(ctx context.Context, p application.SendMessageInput) (any, error) {
			return wrapMirrored(svc.SendMessage(ctx, p))
		}),
		"social.messages.read": bind(func(ctx context.Context, p idActorParams) (any, error) {
			return svc.MarkMessageRead(ctx, p.ID, p.UserID)
		}),
		"social.messages.delete": bind(func(ctx context.Context, p idActorParams) (any, error) {
			if err := svc.DeleteMessage(ctx, p.ID, p.UserID); err != nil {
				return nil, err
			}
			return map[string]any{"id": p.ID, "deleted": true}, nil
		}),
		"social.conversations": bind(func(ctx context.Context, p userParams) (any, error) {
			return svc.Conversations(ctx, p.UserID)
		}),
		"social.thread": bind(func(ctx context.Context, p struct {
			UserID    string `json:"user_id"`
			PartnerID string `json:"partner_id"`
			pageParams
		}) (any, error) {
			return wrapPaged(svc.Thread(ctx, p.UserID, p.PartnerID, p.Limit, p.Offset))
		}),
		"social.stats": bind(func(ctx context.Context, p userParams) (any, error) {
			return svc.SocialStats(ctx, p.UserID)
		}),

		"mirror.records": bind(func(ctx context.Context, p struct {
			Status domain.MirrorStatus `json:"status"`
			Limit  int                 `json:"limit"`
		}) (any, error) {
			return svc.MirrorRecords(ctx, p.Status, p.Limit)
		}),
		"mirror.ack": bind(func(ctx context.Context, p struct {
			EventID string `json:"event_id"`
			TxRef   string `json:"tx_ref"`
		}) (any, error) {
			changed, err := svc.AcknowledgeMirror(ctx, p.EventID, p.TxRef)
			if err != nil {
				return nil, err
			}
			return map[string]bool{"acknowledged": changed}, nil
		}),
	}
}
