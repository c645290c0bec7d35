package domain

import (
	"context"
	"time"
)

type SocialRepository interface {
	CreateContent(ctx context.Context, value Content) (Content, error)
	GetContent(ctx context.Context, id uint) (Content, error)
	ListContents(ctx context.Context, filter ContentFilter, page Page) ([]Content, error)
	ListTrending(ctx context.Context, limit int) ([]Content, error)
	UpdateContent(ctx context.Context, id uint, actorID string, patch ContentPatch, at time.Time) (Content, error)
	SoftDeleteContent(ctx context.Context, id uint, actorID string, at time.Time) error
	IncrementViews(ctx context.Context, id uint) error
	ContentStats(ctx context.Context, since time.Time) (ContentStats, error)

	CreateComment(ctx context.Context, value Comment) (Comment, error)
	GetComment(ctx context.Context, id uint) (Comment, error)
	ListComments(ctx context.Context, contentID uint, page Page) ([]Comment, error)
	ListReplies(ctx context.Context, parentID uint, page Page) ([]Comment, error)
	UpdateComment(ctx context.Context, id uint, actorID, body string, at time.Time) (Comment, error)
	SoftDeleteComment(ctx context.Context, id uint, actorID string, at time.Time) error

	ToggleReaction(ctx context.Context, value Reaction) (Reaction, bool, error)
	IsLiked(ctx context.Context, actorID string, targetType TargetType, targetID uint) (bool, error)

	CreateShare(ctx context.Context, value Share) (Share, error)

	CreateFollowEdge(ctx context.Context, value FollowEdge) (FollowEdge, error)
	DeleteFollowEdge(ctx context.Context, followerID, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, page Page) ([]FollowEdge, error)
	ListFollowing(ctx context.Context, userID string, page Page) ([]FollowEdge, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	EdgesFrom(ctx context.Context, followerIDs []string) ([]FollowEdge, error)

	CreateMessage(ctx context.Context, value Message) (Message, error)
	MarkMessageRead(ctx context.Context, id uint, recipientID string, at time.Time) (Message, error)
	DeleteMessageForParticipant(ctx context.Context, id uint, participantID string) error
	ListParticipantMessages(ctx context.Context, participantID string) ([]Message, error)
	ListThread(ctx context.Context, userID, partnerID string, page Page) ([]Message, error)
	SocialStats(ctx context.Context, userID string) (SocialStats, error)

	MirrorStore
}

// MirrorStore persists MirrorRecord state transitions.
type MirrorStore interface {
	CreateMirrorRecord(ctx context.Context, value MirrorRecord) (MirrorRecord, error)
	RecordMirrorAttempt(ctx context.Context, eventID string, at time.Time, lastErr string) error
	AcknowledgeMirror(ctx context.Context, eventID, txRef string, at time.Time) (bool, error)
	FailMirror(ctx context.Context, eventID, reason string, at time.Time) (bool, error)
	GetMirrorRecord(ctx context.Context, eventID string) (MirrorRecord, error)
	ListMirrorRecords(ctx context.Context, status MirrorStatus, limit int) ([]MirrorRecord, error)
}

// Ledger is the only contract required from the consensus/network layer.
type Ledger interface {
	SubmitEvent(ctx context.Context, kind EntityKind, payload []byte, digest string) (string, error)
}

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
