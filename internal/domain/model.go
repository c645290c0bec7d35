package domain

import "time"

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo, ContentAudio:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// TargetType is the closed set of things a reaction can point at.
type TargetType string

const (
	TargetContent TargetType = "content"
	TargetComment TargetType = "comment"
)

func (t TargetType) Valid() bool {
	return t == TargetContent || t == TargetComment
}

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageFile  MessageKind = "file"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

type Counters struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

type Content struct {
	ID          uint        `json:"id"`
	ContentHash string      `json:"content_hash"`
	AuthorID    string      `json:"author_id"`
	Type        ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Payload     string      `json:"payload"`
	Tags        []string    `json:"tags"`
	Visibility  Visibility  `json:"visibility"`
	Deleted     bool        `json:"-"`
	Counters    Counters    `json:"counters"`
	LedgerTxRef *string     `json:"ledger_tx_ref"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type ContentFilter struct {
	AuthorID string
	Keyword  string
	Type     ContentType
}

type ContentPatch struct {
	Title       *string
	Description *string
	Tags        []string
	Visibility  *Visibility
}

type Comment struct {
	ID        uint      `json:"id"`
	ContentID uint      `json:"content_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *uint     `json:"parent_id"`
	Body      string    `json:"body"`
	Deleted   bool      `json:"-"`
	Likes     int64     `json:"likes"`
	Replies   int64     `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentThread is a top-level comment with its first page of replies.
type CommentThread struct {
	Comment
	ReplyList []Comment `json:"reply_list"`
}

type Reaction struct {
	ID         uint       `json:"id"`
	ActorID    string     `json:"actor_id"`
	TargetType TargetType `json:"target_type"`
	TargetID   uint       `json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Share struct {
	ID        uint      `json:"id"`
	ActorID   string    `json:"actor_id"`
	ContentID uint      `json:"content_id"`
	Platform  *string   `json:"platform"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type FollowEdge struct {
	ID         uint      `json:"id"`
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	ID                 uint        `json:"id"`
	SenderID           string      `json:"sender_id"`
	RecipientID        string      `json:"recipient_id"`
	Body               string      `json:"body"`
	Kind               MessageKind `json:"message_type"`
	ContentHash        *string     `json:"content_hash"`
	LedgerTxRef        *string     `json:"ledger_tx_ref"`
	Read               bool        `json:"is_read"`
	ReadAt             *time.Time  `json:"read_at"`
	DeletedBySender    bool        `json:"-"`
	DeletedByRecipient bool        `json:"-"`
	CreatedAt          time.Time   `json:"created_at"`
}

// VisibleTo reports whether the participant has not deleted their side of the message.
func (m Message) VisibleTo(participant string) bool {
	switch participant {
	case m.SenderID:
		return !m.DeletedBySender
	case m.RecipientID:
		return !m.DeletedByRecipient
	}
	return false
}

// Partner returns the other party of the message as seen by participant.
func (m Message) Partner(participant string) string {
	if m.SenderID == participant {
		return m.RecipientID
	}
	return m.SenderID
}

type Conversation struct {
	PartnerID   string  `json:"partner_id"`
	LastMessage Message `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}

type ContentStats struct {
	TotalContents int64 `json:"total_contents"`
	TotalComments int64 `json:"total_comments"`
	TotalLikes    int64 `json:"total_likes"`
	TotalShares   int64 `json:"total_shares"`
	TodayContents int64 `json:"today_contents"`
}

type SocialStats struct {
	Followers        int64 `json:"followers_count"`
	Following        int64 `json:"following_count"`
	SentMessages     int64 `json:"sent_messages"`
	ReceivedMessages int64 `json:"received_messages"`
	UnreadMessages   int64 `json:"unread_messages"`
}

type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type PageInfo struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Info derives page metadata. HasMore is a page-fullness heuristic, not an
// existence check.
func (p Page) Info(returned int) PageInfo {
	return PageInfo{Limit: p.Limit, Offset: p.Offset, HasMore: returned == p.Limit}
}

type EntityKind string

const (
	KindContent  EntityKind = "content"
	KindReaction EntityKind = "reaction"
	KindFollow   EntityKind = "follow"
	KindMessage  EntityKind = "message"
)

type MirrorStatus string

const (
	MirrorPending      MirrorStatus = "pending"
	MirrorAcknowledged MirrorStatus = "acknowledged"
	MirrorFailed       MirrorStatus = "failed"
)

// MirrorEvent is what gets handed to the ledger for an accepted mutation.
type MirrorEvent struct {
	Kind     EntityKind
	EntityID uint
	Digest   string
	Payload  []byte
}

type MirrorRecord struct {
	LocalEventID  string       `json:"local_event_id"`
	EntityKind    EntityKind   `json:"entity_kind"`
	EntityID      uint         `json:"entity_id"`
	Digest        string       `json:"digest"`
	Status        MirrorStatus `json:"status"`
	TxRef         *string      `json:"tx_ref"`
	Attempts      int          `json:"attempts"`
	LastError     string       `json:"last_error,omitempty"`
	LastAttemptAt *time.Time   `json:"last_attempt_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type MirrorResult struct {
	EventID string
	Success bool
	TxRef   string
	Err     error
}

// MirrorOutcome is the optional mirror field attached to a response.
type MirrorOutcome struct {
	EventID string       `json:"event_id"`
	Status  MirrorStatus `json:"status"`
	TxRef   string       `json:"tx_ref,omitempty"`
	Error   string       `json:"error,omitempty"`
}
