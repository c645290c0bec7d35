// Package aggregate computes the derived social views that are read from the
// store but never persisted: conversation lists, mutual follows and
// friend-of-friend suggestions.
package aggregate

import (
	"sort"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
)

// GroupConversations partitions the messages visible to participant by the
// other party. Each conversation keeps its most recent message and counts the
// unread messages addressed to participant. Conversations are ordered by
// their retained message, newest first.
func GroupConversations(participant string, messages []domain.Message) []domain.Conversation {
	visible := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.SenderID != participant && m.RecipientID != participant {
			continue
		}
		if !m.VisibleTo(participant) {
			continue
		}
		visible = append(visible, m)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return newer(visible[i], visible[j])
	})

	index := make(map[string]int)
	out := make([]domain.Conversation, 0)
	for _, m := range visible {
		partner := m.Partner(participant)
		pos, ok := index[partner]
		if !ok {
			pos = len(out)
			index[partner] = pos
			out = append(out, domain.Conversation{PartnerID: partner, LastMessage: m})
		}
		if m.RecipientID == participant && !m.Read {
			out[pos].UnreadCount++
		}
	}
	return out
}

func newer(a, b domain.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// MutualFollows intersects the users someone follows with the users following
// them back. Output keeps the order of following.
func MutualFollows(following, followers []string) []string {
	back := make(map[string]struct{}, len(followers))
	for _, id := range followers {
		back[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(following))
	out := make([]string, 0)
	for _, id := range following {
		if _, ok := back[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SuggestFriendsOfFriends returns users followed by anyone user follows,
// excluding user and everyone user already follows. Candidates come out in
// the order their first edge appears in edges, capped at limit.
func SuggestFriendsOfFriends(user string, following []string, edges []domain.FollowEdge, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	firstDegree := make(map[string]struct{}, len(following))
	for _, id := range following {
		firstDegree[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for _, e := range edges {
		if _, ok := firstDegree[e.FollowerID]; !ok {
			continue
		}
		candidate := e.FollowedID
		if candidate == user {
			continue
		}
		if _, ok := firstDegree[candidate]; ok {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
		if len(out) == limit {
			break
		}
	}
	return out
}
