package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
)

type resultShape int

const (
	shapePlain resultShape = iota
	shapeMirrored
	shapePaged
)

// op describes one remote operation in both transports. Results are
// normalised to the JSON-RPC shapes: {value, mirror} for mirrored
// mutations and {items, pagination, meta} for lists.
type op struct {
	rpcMethod  string
	params     map[string]any
	httpMethod string
	path       string
	body       any
	shape      resultShape
}

func (o op) run(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		return newRPCClient(cfg.Socket).call(ctx, o.rpcMethod, o.params, out)
	}
	env, err := newAPIClient(cfg.Server).request(ctx, o.httpMethod, o.path, o.body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := reshape(env, o.shape)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func reshape(env apiEnvelope, shape resultShape) ([]byte, error) {
	switch shape {
	case shapeMirrored:
		return json.Marshal(map[string]any{"value": env.Data, "mirror": env.Mirror})
	case shapePaged:
		return json.Marshal(map[string]any{"items": env.Data, "pagination": env.Pagination, "meta": env.Meta})
	}
	if env.Data == nil {
		return []byte("null"), nil
	}
	return env.Data, nil
}

type pageOpts struct {
	Limit  int
	Offset int
}

func (p pageOpts) query(extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		for _, s := range v {
			if s != "" {
				q.Add(k, s)
			}
		}
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func doContentCreate(ctx context.Context, cfg cliConfig, in application.CreateContentInput, out any) error {
	params := map[string]any{
		"author_id":    in.AuthorID,
		"content_type": in.Type,
		"title":        in.Title,
		"description":  in.Description,
		"payload":      in.Payload,
		"tags":         in.Tags,
		"visibility":   in.Visibility,
	}
	return op{rpcMethod: "content.create", params: params, httpMethod: http.MethodPost, path: "/api/contents", body: params, shape: shapeMirrored}.run(ctx, cfg, out)
}

func doContentGet(ctx context.Context, cfg cliConfig, id uint, out any) error {
	return op{
		rpcMethod: "content.get", params: map[string]any{"id": id},
		httpMethod: http.MethodGet, path: "/api/contents/" + uintToString(id),
	}.run(ctx, cfg, out)
}

func doContentList(ctx context.Context, cfg cliConfig, author, search, contentType string, page pageOpts, out any) error {
	params := map[string]any{"author_id": author, "search": search, "type": contentType, "limit": page.Limit, "offset": page.Offset}
	q := page.query(url.Values{"author_id": {author}, "search": {search}, "type": {contentType}})
	return op{rpcMethod: "content.list", params: params, httpMethod: http.MethodGet, path: "/api/contents" + q, shape: shapePaged}.run(ctx, cfg, out)
}

func doContentDelete(ctx context.Context, cfg cliConfig, id uint, author string) error {
	params := map[string]any{"id": id, "author_id": author}
	return op{
		rpcMethod: "content.delete", params: params,
		httpMethod: http.MethodDelete, path: "/api/contents/" + uintToString(id), body: map[string]any{"author_id": author},
	}.run(ctx, cfg, nil)
}

func doLike(ctx context.Context, cfg cliConfig, target string, id uint, user string, out any) error {
	path := "/api/contents/" + uintToString(id) + "/like"
	if target == "comment" {
		path = "/api/comments/" + uintToString(id) + "/like"
	}
	return op{
		rpcMethod: "content.like", params: map[string]any{"id": id, "user_id": user, "target_type": target},
		httpMethod: http.MethodPost, path: path, body: map[string]any{"user_id": user}, shape: shapeMirrored,
	}.run(ctx, cfg, out)
}

func doShare(ctx context.Context, cfg cliConfig, id uint, user, platform, note string, out any) error {
	body := map[string]any{"user_id": user}
	if platform != "" {
		body["platform"] = platform
	}
	if note != "" {
		body["message"] = note
	}
	params := map[string]any{"content_id": id}
	for k, v := range body {
		params[k] = v
	}
	return op{
		rpcMethod: "content.share", params: params,
		httpMethod: http.MethodPost, path: "/api/contents/" + uintToString(id) + "/share", body: body,
	}.run(ctx, cfg, out)
}

func doTrending(ctx context.Context, cfg cliConfig, timeRange string, limit int, out any) error {
	q := pageOpts{Limit: limit}.query(url.Values{"range": {timeRange}})
	return op{
		rpcMethod: "content.trending", params: map[string]any{"range": timeRange, "limit": limit},
		httpMethod: http.MethodGet, path: "/api/trending" + q, shape: shapePaged,
	}.run(ctx, cfg, out)
}

func doFeed(ctx context.Context, cfg cliConfig, user string, page pageOpts, out any) error {
	q := page.query(url.Values{"user_id": {user}})
	return op{
		rpcMethod: "content.feed", params: map[string]any{"user_id": user, "limit": page.Limit, "offset": page.Offset},
		httpMethod: http.MethodGet, path: "/api/feed" + q, shape: shapePaged,
	}.run(ctx, cfg, out)
}

func doContentStats(ctx context.Context, cfg cliConfig, out any) error {
	return op{rpcMethod: "content.stats", httpMethod: http.MethodGet, path: "/api/stats"}.run(ctx, cfg, out)
}

func doCommentCreate(ctx context.Context, cfg cliConfig, in application.CreateCommentInput, out any) error {
	body := map[string]any{"author_id": in.AuthorID, "content": in.Body, "parent_id": in.ParentID}
	params := map[string]any{"content_id": in.ContentID, "author_id": in.AuthorID, "content": in.Body, "parent_id": in.ParentID}
	return op{
		rpcMethod: "comments.create", params: params,
		httpMethod: http.MethodPost, path: "/api/contents/" + uintToString(in.ContentID) + "/comments", body: body,
	}.run(ctx, cfg, out)
}

func doCommentList(ctx context.Context, cfg cliConfig, contentID uint, page pageOpts, out any) error {
	return op{
		rpcMethod: "comments.list", params: map[string]any{"content_id": contentID, "limit": page.Limit, "offset": page.Offset},
		httpMethod: http.MethodGet, path: "/api/contents/" + uintToString(contentID) + "/comments" + page.query(nil), shape: shapePaged,
	}.run(ctx, cfg, out)
}

func doFollow(ctx context.Context, cfg cliConfig, follower, followed string, out any) error {
	params := map[string]any{"follower_id": follower, "followed_id": followed}
	return op{rpcMethod: "social.follow", params: params, httpMethod: http.MethodPost, path: "/api/social/follow", body: params, shape: shapeMirrored}.run(ctx, cfg, out)
}

func doUnfollow(ctx context.Context, cfg cliConfig, follower, followed string) error {
	params := map[string]any{"follower_id": follower, "followed_id": followed}
	return op{rpcMethod: "social.unfollow", params: params, httpMethod: http.MethodPost, path: "/api/social/unfollow", body: params}.run(ctx, cfg, nil)
}

func doFollowList(ctx context.Context, cfg cliConfig, direction, user string, page pageOpts, out any) error {
	return op{
		rpcMethod: "social." + direction, params: map[string]any{"user_id": user, "limit": page.Limit, "offset": page.Offset},
		httpMethod: http.MethodGet, path: "/api/social/" + direction + "/" + url.PathEscape(user) + page.query(nil), shape: shapePaged,
	}.run(ctx, cfg, out)
}

func doMutualFollows(ctx context.Context, cfg cliConfig, user string, out any) error {
	return op{
		rpcMethod: "social.mutual_follows", params: map[string]any{"user_id": user},
		httpMethod: http.MethodGet, path: "/api/social/mutual-follows?user_id=" + url.QueryEscape(user),
	}.run(ctx, cfg, out)
}

func doSuggestedUsers(ctx context.Context, cfg cliConfig, user string, limit int, out any) error {
	return op{
		rpcMethod: "social.suggested_users", params: map[string]any{"user_id": user, "limit": limit},
		httpMethod: http.MethodGet, path: "/api/social/suggested-users/" + url.PathEscape(user) + pageOpts{Limit: limit}.query(nil),
	}.run(ctx, cfg, out)
}

func doSocialStats(ctx context.Context, cfg cliConfig, user string, out any) error {
	return op{
		rpcMethod: "social.stats", params: map[string]any{"user_id": user},
		httpMethod: http.MethodGet, path: "/api/social/social-stats/" + url.PathEscape(user),
	}.run(ctx, cfg, out)
}

func doSendMessage(ctx context.Context, cfg cliConfig, in application.SendMessageInput, out any) error {
	params := map[string]any{"sender_id": in.SenderID, "recipient_id": in.RecipientID, "content": in.Body, "message_type": in.Kind}
	return op{rpcMethod: "social.messages.send", params: params, httpMethod: http.MethodPost, path: "/api/social/messages", body: params, shape: shapeMirrored}.run(ctx, cfg, out)
}

func doMarkRead(ctx context.Context, cfg cliConfig, id uint, user string, out any) error {
	return op{
		rpcMethod: "social.messages.read", params: map[string]any{"id": id, "user_id": user},
		httpMethod: http.MethodPost, path: "/api/social/messages/" + uintToString(id) + "/read", body: map[string]any{"user_id": user},
	}.run(ctx, cfg, out)
}

func doConversations(ctx context.Context, cfg cliConfig, user string, out any) error {
	return op{
		rpcMethod: "social.conversations", params: map[string]any{"user_id": user},
		httpMethod: http.MethodGet, path: "/api/social/conversations/" + url.PathEscape(user),
	}.run(ctx, cfg, out)
}

func doThread(ctx context.Context, cfg cliConfig, user, partner string, page pageOpts, out any) error {
	return op{
		rpcMethod:  "social.thread",
		params:     map[string]any{"user_id": user, "partner_id": partner, "limit": page.Limit, "offset": page.Offset},
		httpMethod: http.MethodGet,
		path:       "/api/social/conversations/" + url.PathEscape(user) + "/" + url.PathEscape(partner) + "/messages" + page.query(nil),
		shape:      shapePaged,
	}.run(ctx, cfg, out)
}

func doMirrorRecords(ctx context.Context, cfg cliConfig, status string, limit int, out any) error {
	q := pageOpts{Limit: limit}.query(url.Values{"status": {status}})
	return op{
		rpcMethod: "mirror.records", params: map[string]any{"status": status, "limit": limit},
		httpMethod: http.MethodGet, path: "/api/mirror/records" + q,
	}.run(ctx, cfg, out)
}

func doMirrorAck(ctx context.Context, cfg cliConfig, eventID, txRef string, out any) error {
	return op{
		rpcMethod: "mirror.ack", params: map[string]any{"event_id": eventID, "tx_ref": txRef},
		httpMethod: http.MethodPost, path: "/api/mirror/records/" + url.PathEscape(eventID) + "/ack", body: map[string]any{"tx_ref": txRef},
	}.run(ctx, cfg, out)
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
