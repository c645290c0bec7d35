package application

import (
	"context"
	"strings"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/addressing"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/aggregate"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

type SendMessageInput struct {
	SenderID    string             `json:"sender_id"`
	RecipientID string             `json:"recipient_id"`
	Body        string             `json:"content"`
	Kind        domain.MessageKind `json:"message_type"`
}

type FollowStatus struct {
	Following  bool `json:"is_following"`
	FollowedBy bool `json:"is_followed_by"`
}

func (s *SocialService) Follow(ctx context.Context, followerID, followedID string) (Mirrored[domain.FollowEdge], error) {
	var out Mirrored[domain.FollowEdge]
	if err := requirePair("follower_id", followerID, "followed_id", followedID); err != nil {
		return out, err
	}
	if followerID == followedID {
		return out, domain.ErrSelfFollow
	}

	now := s.clock.Now()
	edge, err := s.repo.CreateFollowEdge(ctx, domain.FollowEdge{FollowerID: followerID, FollowedID: followedID, CreatedAt: now})
	if err != nil {
		return out, err
	}
	out.Value = edge
	out.Mirror = s.submitMirror(ctx, domain.KindFollow, edge.ID, addressing.ActionDigest("follow", now, followerID, followedID), edge)
	return out, nil
}

func (s *SocialService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := requirePair("follower_id", followerID, "followed_id", followedID); err != nil {
		return err
	}
	return s.repo.DeleteFollowEdge(ctx, followerID, followedID)
}

func (s *SocialService) FollowStatus(ctx context.Context, followerID, followedID string) (FollowStatus, error) {
	if err := requirePair("follower_id", followerID, "followed_id", followedID); err != nil {
		return FollowStatus{}, err
	}
	following, err := s.repo.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return FollowStatus{}, err
	}
	followedBy, err := s.repo.IsFollowing(ctx, followedID, followerID)
	if err != nil {
		return FollowStatus{}, err
	}
	return FollowStatus{Following: following, FollowedBy: followedBy}, nil
}

func (s *SocialService) Followers(ctx context.Context, userID string, limit, offset int) ([]domain.FollowEdge, domain.PageInfo, error) {
	return s.listEdges(ctx, userID, limit, offset, s.repo.ListFollowers)
}

func (s *SocialService) Following(ctx context.Context, userID string, limit, offset int) ([]domain.FollowEdge, domain.PageInfo, error) {
	return s.listEdges(ctx, userID, limit, offset, s.repo.ListFollowing)
}

func (s *SocialService) listEdges(ctx context.Context, userID string, limit, offset int, list func(context.Context, string, domain.Page) ([]domain.FollowEdge, error)) ([]domain.FollowEdge, domain.PageInfo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.PageInfo{}, domain.Required("user_id")
	}
	page, err := normalizePage(limit, offset, defaultPageLimit)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	edges, err := list(ctx, userID, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return edges, page.Info(len(edges)), nil
}

func (s *SocialService) MutualFollows(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Required("user_id")
	}
	following, err := s.repo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.repo.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.MutualFollows(following, followers), nil
}

func (s *SocialService) SuggestUsers(ctx context.Context, userID string, limit int) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Required("user_id")
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}
	following, err := s.repo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	edges, err := s.repo.EdgesFrom(ctx, following)
	if err != nil {
		return nil, err
	}
	return aggregate.SuggestFriendsOfFriends(userID, following, edges, limit), nil
}

func (s *SocialService) SendMessage(ctx context.Context, in SendMessageInput) (Mirrored[domain.Message], error) {
	var out Mirrored[domain.Message]
	if err := requirePair("sender_id", in.SenderID, "recipient_id", in.RecipientID); err != nil {
		return out, err
	}
	if strings.TrimSpace(in.Body) == "" {
		return out, domain.Required("content")
	}
	if in.Kind == "" {
		in.Kind = domain.MessageText
	}
	if !in.Kind.Valid() {
		return out, domain.Invalid("message_type", "must be text, image or file")
	}
	if in.SenderID == in.RecipientID {
		return out, domain.ErrSelfMessage
	}

	now := s.clock.Now()
	msg, err := s.repo.CreateMessage(ctx, domain.Message{
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Body:        in.Body,
		Kind:        in.Kind,
		CreatedAt:   now,
	})
	if err != nil {
		return out, err
	}

	out.Value = msg
	digest := addressing.ActionDigest("message", now, in.Body, in.SenderID, in.RecipientID)
	out.Mirror = s.submitMirror(ctx, domain.KindMessage, msg.ID, digest, msg)
	if out.Mirror != nil && out.Mirror.Status == domain.MirrorAcknowledged {
		txRef := out.Mirror.TxRef
		out.Value.ContentHash = &digest
		out.Value.LedgerTxRef = &txRef
	}
	return out, nil
}

func (s *SocialService) MarkMessageRead(ctx context.Context, id uint, userID string) (domain.Message, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Message{}, domain.Required("user_id")
	}
	return s.repo.MarkMessageRead(ctx, id, userID, s.clock.Now())
}

func (s *SocialService) DeleteMessage(ctx context.Context, id uint, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.Required("user_id")
	}
	return s.repo.DeleteMessageForParticipant(ctx, id, userID)
}

func (s *SocialService) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Required("user_id")
	}
	messages, err := s.repo.ListParticipantMessages(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.GroupConversations(userID, messages), nil
}

func (s *SocialService) Thread(ctx context.Context, userID, partnerID string, limit, offset int) ([]domain.Message, domain.PageInfo, error) {
	if err := requirePair("user_id", userID, "partner_id", partnerID); err != nil {
		return nil, domain.PageInfo{}, err
	}
	page, err := normalizePage(limit, offset, defaultThreadLimit)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	messages, err := s.repo.ListThread(ctx, userID, partnerID, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return messages, page.Info(len(messages)), nil
}

func (s *SocialService) SocialStats(ctx context.Context, userID string) (domain.SocialStats, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.SocialStats{}, domain.Required("user_id")
	}
	return s.repo.SocialStats(ctx, userID)
}

func requirePair(nameA, a, nameB, b string) error {
	if strings.TrimSpace(a) == "" {
		return domain.Required(nameA)
	}
	if strings.TrimSpace(b) == "" {
		return domain.Required(nameB)
	}
	return nil
}
