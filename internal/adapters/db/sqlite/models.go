package sqlite

import "time"

type ContentModel struct {
	ID           uint     `gorm:"primaryKey"`
	ContentHash  string   `gorm:"uniqueIndex;not null"`
	AuthorID     string   `gorm:"not null;index"`
	ContentType  string   `gorm:"not null"`
	Title        string   `gorm:"not null;default:''"`
	Description  string   `gorm:"not null;default:''"`
	Payload      string   `gorm:"not null;default:''"`
	Tags         []string `gorm:"serializer:json;not null"`
	Visibility   string   `gorm:"not null;default:'public'"`
	IsDeleted    bool     `gorm:"not null;default:false"`
	ViewCount    int64    `gorm:"not null;default:0"`
	LikeCount    int64    `gorm:"not null;default:0"`
	CommentCount int64    `gorm:"not null;default:0"`
	ShareCount   int64    `gorm:"not null;default:0"`
	LedgerTxRef  *string
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (ContentModel) TableName() string { return "contents" }

type CommentModel struct {
	ID         uint   `gorm:"primaryKey"`
	ContentID  uint   `gorm:"not null;index"`
	AuthorID   string `gorm:"not null;index"`
	ParentID   *uint  `gorm:"index"`
	Body       string `gorm:"not null"`
	IsDeleted  bool   `gorm:"not null;default:false"`
	LikeCount  int64  `gorm:"not null;default:0"`
	ReplyCount int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (CommentModel) TableName() string { return "comments" }

type ReactionModel struct {
	ID         uint   `gorm:"primaryKey"`
	ActorID    string `gorm:"not null;index:idx_reaction_key,unique"`
	TargetType string `gorm:"not null;index:idx_reaction_key,unique"`
	TargetID   uint   `gorm:"not null;index:idx_reaction_key,unique"`
	CreatedAt  time.Time
}

func (ReactionModel) TableName() string { return "reactions" }

type ShareModel struct {
	ID        uint   `gorm:"primaryKey"`
	ActorID   string `gorm:"not null;index"`
	ContentID uint   `gorm:"not null;index"`
	Platform  *string
	Note      *string
	CreatedAt time.Time
}

func (ShareModel) TableName() string { return "shares" }

type FollowEdgeModel struct {
	ID         uint   `gorm:"primaryKey"`
	FollowerID string `gorm:"not null;index:idx_follow_pair,unique"`
	FollowedID string `gorm:"not null;index:idx_follow_pair,unique;index"`
	CreatedAt  time.Time
}

func (FollowEdgeModel) TableName() string { return "follow_edges" }

type MessageModel struct {
	ID                 uint   `gorm:"primaryKey"`
	SenderID           string `gorm:"not null;index"`
	RecipientID        string `gorm:"not null;index"`
	Body               string `gorm:"not null"`
	MessageType        string `gorm:"not null;default:'text'"`
	ContentHash        *string
	LedgerTxRef        *string
	IsRead             bool `gorm:"not null;default:false"`
	ReadAt             *time.Time
	DeletedBySender    bool `gorm:"not null;default:false"`
	DeletedByRecipient bool `gorm:"not null;default:false"`
	CreatedAt          time.Time `gorm:"index"`
}

func (MessageModel) TableName() string { return "messages" }

type MirrorRecordModel struct {
	LocalEventID  string `gorm:"primaryKey"`
	EntityKind    string `gorm:"not null;index:idx_mirror_entity"`
	EntityID      uint   `gorm:"not null;index:idx_mirror_entity"`
	Digest        string `gorm:"not null;index"`
	Status        string `gorm:"not null;default:'pending';index"`
	TxRef         *string
	Attempts      int    `gorm:"not null;default:0"`
	LastError     string `gorm:"not null;default:''"`
	LastAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (MirrorRecordModel) TableName() string { return "mirror_records" }
